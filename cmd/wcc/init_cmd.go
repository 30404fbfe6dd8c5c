package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/wcc/pkg/config"
	"github.com/pelletier/go-toml"
	"github.com/spf13/cobra"
)

// initParams holds the parsed flags for the init command.
type initParams struct {
	output string
	force  bool
	stdout io.Writer
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new wcc configuration file",
		Long: `Creates a new wcc.toml configuration file in the current directory
with the default settings. Use --output to specify a different location.

Examples:
  wcc init                   # Creates wcc.toml in current directory
  wcc init -o .wcc/wcc.toml  # Creates config in .wcc directory
  wcc init --force           # Overwrite existing config file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("output")
			force, _ := cmd.Flags().GetBool("force")
			return runInit(initParams{output: out, force: force, stdout: cmd.OutOrStdout()})
		},
	}
	cmd.Flags().StringP("output", "o", "wcc.toml", "Output file path")
	cmd.Flags().Bool("force", false, "Overwrite existing config file")
	return cmd
}

func runInit(p initParams) error {
	if _, err := os.Stat(p.output); err == nil && !p.force {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", p.output)
	}

	if dir := filepath.Dir(p.output); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := generateDefaultConfig()
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.output, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintln(p.stdout, color.GreenString("Created %s", p.output))
	fmt.Fprintln(p.stdout, "Edit this file to customize analysis settings.")
	return nil
}

func generateDefaultConfig() (string, error) {
	content, err := toml.Marshal(config.DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("failed to marshal config to TOML: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# wcc configuration\n")
	buf.WriteString("# Flags given on the command line override these values.\n\n")
	buf.Write(content)
	return buf.String(), nil
}
