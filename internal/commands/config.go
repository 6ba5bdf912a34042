package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/diogo/klosachat/internal/config"
	"github.com/diogo/klosachat/internal/render"
	"github.com/diogo/klosachat/internal/tui"
)

// NewConfigCmd creates the config command
func NewConfigCmd(deps *Dependencies, opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and validate the effective configuration",
		Long: `Print the configuration klosachat would run with after merging the
config file, the environment and command line flags, then validate it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(deps, opts)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(deps, opts)
		},
	})

	return cmd
}

func runConfigShow(deps *Dependencies, opts *rootOptions) error {
	path := opts.configPath
	if path == "" {
		var err error
		if path, err = config.GetConfigPath(); err != nil {
			return err
		}
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "# %s\n", path)
	if err := toml.NewEncoder(deps.Stdout).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	fmt.Fprintf(deps.Stdout, "\n# themes: %v\n", render.PaletteNames())

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(deps.Stderr, tui.FormatError(err))
		return &reportedError{err: err}
	}
	fmt.Fprintln(deps.Stderr, "✓ configuration is valid")
	return nil
}

func runConfigInit(deps *Dependencies, opts *rootOptions) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	cfg := config.DefaultConfig()
	cfg.EndpointURL = opts.endpoint
	if err := config.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "Wrote %s\n", path)
	return nil
}
