package cmd

import (
	"fmt"
	"os"

	"github.com/MeKo-Tech/notescan/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create configuration files",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Long: `Print the configuration after merging defaults, the config file,
.env, NOTESCAN_* environment variables and flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			if format == outputFormatText {
				format = outputFormatYAML
			}
			if used := a.loader.GetConfigFileUsed(); used != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "# config file: %s\n", used)
			}
			return writeOutput(cmd.OutOrStdout(), format, a.cfg)
		},
	}
	show.Flags().String("format", outputFormatYAML, "output format (yaml, json)")

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [FILE]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ConfigFileName + ".yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.GenerateDefaultConfigFile(path); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
			return err
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	paths := &cobra.Command{
		Use:   "paths",
		Short: "List the configuration search paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, p := range config.GetConfigSearchPaths() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), p); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.AddCommand(show, initCmd, paths)
	return cmd
}
