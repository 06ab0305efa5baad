package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/jeeves/admin"
)

var adminFile string

// adminCmd applies operator requests to the state store
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Apply an operator request to the state store",
	Long: `Reads one JSON admin request from --file (stdin by default), applies it
to the configured state store and prints the resulting community.

Example:
  echo '{"kind":"set_cooldown","guild":"g1","cooldown":3}' | jeeves admin

Request kinds: ` + kindList(),
	Args: cobra.NoArgs,
	RunE: runAdmin,
}

func init() {
	adminCmd.Flags().StringVarP(&adminFile, "file", "f", "-", "request file ('-' for stdin)")
}

func runAdmin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	data, err := readInput(cmd.InOrStdin(), adminFile)
	if err != nil {
		return err
	}
	req, err := admin.ParseRequest(data)
	if err != nil {
		return err
	}

	store, closer, err := openStore(cfg, logger.WithComponent("state"))
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer closer.Close()

	c, err := admin.Apply(store, req, cfg.Defaults(), cfg.AllowedModels)
	if err != nil {
		return err
	}
	logger.Info("admin request applied", "kind", req.Kind, "guild", req.Guild)

	out, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode community: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	return data, nil
}

func kindList() string {
	kinds := admin.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
