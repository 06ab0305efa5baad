package core

// Command is the closed set of administrative commands. Names are decoded
// once at the gateway boundary via ParseCommand; anything unrecognised
// becomes CommandUnknown.
type Command int

const (
	// CommandUnknown is any name outside the supported surface.
	CommandUnknown Command = iota
	// CommandHelp lists the available commands.
	CommandHelp
	// CommandClear empties the channel's conversation log.
	CommandClear
	// CommandInit activates the channel.
	CommandInit
	// CommandLeave deactivates the channel.
	CommandLeave
	// CommandModel switches the community's backend model.
	CommandModel
	// CommandStatus reports channels, log size and model.
	CommandStatus
)

// ModelOption is the name of the single required option of CommandModel.
const ModelOption = "model"

var commandNames = map[Command]string{
	CommandHelp:   "help",
	CommandClear:  "clear",
	CommandInit:   "init",
	CommandLeave:  "leave",
	CommandModel:  "model",
	CommandStatus: "status",
}

// String returns the platform name of the command.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCommand maps a platform command name to its Command. Matching is
// exact; the platform delivers registered names verbatim.
func ParseCommand(name string) Command {
	for c, n := range commandNames {
		if n == name {
			return c
		}
	}
	return CommandUnknown
}

// Commands returns every supported command in registration order.
func Commands() []Command {
	return []Command{CommandHelp, CommandClear, CommandInit, CommandLeave, CommandStatus, CommandModel}
}

// OptionTypeString is the platform type code of a string command option.
const OptionTypeString = 3

// CommandDefinition describes a command registered with the platform at
// startup.
type CommandDefinition struct {
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Options     []CommandOptionDefinition `json:"options,omitempty"`
}

// CommandOptionDefinition describes one typed command parameter.
type CommandOptionDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        int    `json:"type"`
	Required    bool   `json:"required"`
}
