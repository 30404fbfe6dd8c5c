package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/panbanda/wcc/internal/output"
	"github.com/pelletier/go-toml"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}
	cmd.AddCommand(newConfigValidateCmd())
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validates a wcc configuration file for syntax errors and invalid values.

Examples:
  wcc config validate                # Validates default config locations
  wcc config validate -c wcc.toml    # Validates specific file
  wcc config validate -c .wcc/wcc.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			return runConfigValidate(path, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to config file to validate")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Shows the merged configuration from defaults and config file.

Examples:
  wcc config show                # Show effective config
  wcc config show -c wcc.toml    # Show config from specific file
  wcc config show --format json  # Show effective config as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			format, _ := cmd.Flags().GetString("format")
			return runConfigShow(path, format, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to config file")
	cmd.Flags().String("format", "toml", "Output format: toml, json, yaml or toon")
	return cmd
}

func runConfigValidate(path string, w io.Writer) error {
	result, err := loadConfig(path)
	if err != nil {
		fmt.Fprintln(w, color.RedString("Configuration validation failed:"))
		fmt.Fprintf(w, "  - %s\n", err)
		return err
	}

	if result.Source != "" {
		fmt.Fprintln(w, color.GreenString("Configuration valid: %s", result.Source))
	} else {
		fmt.Fprintln(w, color.YellowString("No config file found. Default configuration is valid."))
	}
	return nil
}

func runConfigShow(path, format string, w io.Writer) error {
	result, err := loadConfig(path)
	if err != nil {
		return err
	}

	if format == "" || format == "toml" {
		if result.Source != "" {
			fmt.Fprintf(w, "# Configuration from: %s\n\n", result.Source)
		} else {
			fmt.Fprintln(w, "# Default configuration (no config file found)")
		}
		content, err := toml.Marshal(result.Config)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = w.Write(content)
		return err
	}

	f, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	switch f {
	case output.FormatJSON, output.FormatYAML, output.FormatTOON:
		return output.NewWriterFormatter(f, w, false).Output(result.Config)
	default:
		return fmt.Errorf("config show: %s: %w", f, output.ErrUnsupported)
	}
}
