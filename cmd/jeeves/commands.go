package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/jeeves/command"
	"github.com/hupe1980/jeeves/gateway"
)

var registerOnly bool

// commandsCmd shows or registers the slash-command surface
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Print the slash-command definitions, or register them with --register",
	Args:  cobra.NoArgs,
	RunE:  runCommands,
}

func init() {
	commandsCmd.Flags().BoolVar(&registerOnly, "register", false, "register the definitions with the platform")
}

func runCommands(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defs := command.Definitions(cfg.Persona)

	if !registerOnly {
		out, err := json.MarshalIndent(defs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	gw := gateway.NewRESTGateway(func(o *gateway.Options) {
		o.BaseURL = cfg.Gateway.BaseURL
		o.BotToken = cfg.Gateway.BotToken
		o.ApplicationID = cfg.Gateway.ApplicationID
		o.Logger = logger.WithComponent("gateway")
	})
	if err := gw.RegisterCommands(commandContext(cmd), defs); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "registered %d commands\n", len(defs))
	return nil
}
