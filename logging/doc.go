// Package logging provides the relay's logging contract and its slog-backed
// implementation.
//
// Components accept a Logger through their Options and default to
// NoOpLogger. RelayLogger adds component and guild/channel scoping plus
// LogCompletion and LogDispatch for backend calls and outbound replies:
//
//	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelDebug, Format: "text"})
//	relay := jeeves.New(gw, registry, func(o *jeeves.Options) { o.Logger = logger })
package logging
