package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newMethodsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "methods",
		Short: "List the API methods synthesized from the OpenAPI document",
		Long: "List every API method the service declares, with its generated " +
			"parameter description. Use --filter to narrow by substring.",
		Example: strings.TrimSpace(`  isostream methods
  isostream methods --filter load`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveClientConfig(cmd)
			if err != nil {
				return err
			}
			filter, err := cmd.Flags().GetString("filter")
			if err != nil {
				return err
			}
			client, err := clientBuilder(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer client.Close()
			client.PrintMethods(cmd.OutOrStdout(), strings.TrimSpace(filter))
			return nil
		},
	}

	cmd.Flags().String("filter", "", "Only show methods whose name or path contains this substring")

	return cmd
}
