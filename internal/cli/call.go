package cli

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	isostream "github.com/isostream/isostream-go"
)

// CallConfig captures one invocation of an API method.
type CallConfig struct {
	Method string
	Params map[string]string
	Start  string
	End    string
	Chunk  int
	Pivot  bool
	Raw    bool
	Output string
}

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <method>",
		Short: "Invoke an API method and print the result",
		Long: "Invoke one of the synthesized API methods. Declared parameters are " +
			"passed with repeated --param name=value flags; --start/--end are " +
			"shorthands for the time-range parameters.",
		Example: strings.TrimSpace(`  isostream call dalmp --param iso=pjm --start 2021-06-01 --end 2021-07-01
  isostream call load_actual --param iso=miso --start 2020-01-01 --end 2021-01-01 --chunk 100 --pivot
  isostream call nodes --param iso=pjm --output json`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCfg, err := resolveClientConfig(cmd)
			if err != nil {
				return err
			}
			callCfg, err := resolveCallConfig(cmd, args[0])
			if err != nil {
				return err
			}
			client, err := clientBuilder(cmd.Context(), clientCfg)
			if err != nil {
				return err
			}
			defer client.Close()
			return runCall(cmd, client, callCfg)
		},
	}

	flags := cmd.Flags()
	flags.StringArray("param", nil, "Method parameter as name=value (repeatable)")
	flags.String("start", "", "Start of the time range (free-form date)")
	flags.String("end", "", "End of the time range (free-form date)")
	flags.Int("chunk", 0, "Maximum window size in days for time-range requests")
	flags.Bool("pivot", false, "Pivot the table on its time and label columns")
	flags.Bool("raw", false, "Print raw records instead of a typed table")
	flags.String("output", "table", "Output format (table|json)")

	return cmd
}

func resolveCallConfig(cmd *cobra.Command, method string) (*CallConfig, error) {
	cfg := &CallConfig{Method: strings.TrimSpace(method), Params: map[string]string{}}

	pairs, err := cmd.Flags().GetStringArray("param")
	if err != nil {
		return nil, err
	}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, newUsageError(fmt.Sprintf("call: malformed --param %q (expected name=value)", pair))
		}
		cfg.Params[name] = value
	}

	if cfg.Start, err = cmd.Flags().GetString("start"); err != nil {
		return nil, err
	}
	if cfg.End, err = cmd.Flags().GetString("end"); err != nil {
		return nil, err
	}
	if cfg.Chunk, err = cmd.Flags().GetInt("chunk"); err != nil {
		return nil, err
	}
	if cfg.Pivot, err = cmd.Flags().GetBool("pivot"); err != nil {
		return nil, err
	}
	if cfg.Raw, err = cmd.Flags().GetBool("raw"); err != nil {
		return nil, err
	}
	if cfg.Output, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}

	cfg.Output = strings.ToLower(strings.TrimSpace(cfg.Output))
	switch cfg.Output {
	case "", "table":
		cfg.Output = "table"
	case "json":
	default:
		return nil, newUsageError(fmt.Sprintf("call: unsupported --output %q (allowed: table, json)", cfg.Output))
	}
	return cfg, nil
}

func runCall(cmd *cobra.Command, client *isostream.Client, cfg *CallConfig) error {
	args := isostream.Args{}
	for name, value := range cfg.Params {
		args[name] = value
	}
	if cfg.Start != "" {
		args["start"] = cfg.Start
	}
	if cfg.End != "" {
		args["end"] = cfg.End
	}

	var opts []isostream.CallOption
	if cfg.Chunk > 0 {
		opts = append(opts, isostream.WithChunk(cfg.Chunk))
	}
	if cfg.Pivot {
		opts = append(opts, isostream.WithPivot())
	}

	out := cmd.OutOrStdout()
	if cfg.Raw || cfg.Output == "json" {
		records, err := client.CallRaw(cmd.Context(), cfg.Method, args, opts...)
		if err != nil {
			return err
		}
		if records == nil {
			records = []isostream.Record{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	table, err := client.Call(cmd.Context(), cfg.Method, args, opts...)
	if err != nil {
		return err
	}
	table.Render(out)
	return nil
}
