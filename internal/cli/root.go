package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Execute runs the isostream CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "isostream",
		Short:         "Query the ISOStream power-market data API",
		Long:          "isostream lists and invokes the API methods synthesized from the service's OpenAPI document.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Convert Cobra flag errors (like unknown flags) into friendly usage errors
	// that also show the command's help text.
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
	})

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().String("api-key", "", "API key (or set ISOSTREAM_API_KEY)")
	cmd.PersistentFlags().String("host", "", "API host override")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")
	cmd.PersistentFlags().String("cache", "", "Response cache backend (memory|filesystem|sqlite)")
	cmd.PersistentFlags().String("cache-name", "", "Cache store name (directory or database file stem)")

	m := newMethodsCmd()
	m.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
	})
	cmd.AddCommand(m)

	call := newCallCmd()
	call.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
	})
	cmd.AddCommand(call)

	return cmd
}
