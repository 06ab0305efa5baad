package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// stateCmd groups state store tooling
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect the persisted state store",
}

var stateDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the whole state snapshot as JSON",
	Args:  cobra.NoArgs,
	RunE:  runStateDump,
}

func init() {
	stateCmd.AddCommand(stateDumpCmd)
}

func runStateDump(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	store, closer, err := openStore(cfg, logger.WithComponent("state"))
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer closer.Close()

	out, err := json.MarshalIndent(store.Load(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
