package cmd

import (
	"github.com/MeKo-Tech/notescan/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// No configuration is needed to report the version.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			info := version.Info()
			if format == outputFormatText {
				_, err := cmd.OutOrStdout().Write([]byte(info.String() + "\n"))
				return err
			}
			return writeOutput(cmd.OutOrStdout(), format, info)
		},
	}
	cmd.Flags().String("format", outputFormatText, "output format (text, json, yaml)")
	return cmd
}
