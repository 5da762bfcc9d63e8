package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	service "github.com/crashcompass/compass/internal/app"
	"github.com/crashcompass/compass/internal/domain/axisfmt"
)

// Defaults for the global flags.
const (
	defaultURL     = "http://127.0.0.1:9080"
	defaultTimeout = 15 * time.Second
	urlEnv         = "COMPASS_URL"
)

// Output formats.
const (
	outputText = "text"
	outputJSON = "json"
)

type options struct {
	url     string
	timeout time.Duration
	output  string
	noColor bool
}

// NewRootCommand builds the compassctl command tree writing to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "compassctl",
		Short:         "Query a running compass dashboard server.",
		Long:          `compassctl prints the recession risk dial, its key drivers, category pages and the probability history served by compass.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if opts.output != outputText && opts.output != outputJSON {
				return fmt.Errorf("unknown output %q: want text or json", opts.output)
			}
			if opts.noColor {
				color.NoColor = true
			}
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	root.SetOut(out)

	url := os.Getenv(urlEnv)
	if url == "" {
		url = defaultURL
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.url, "url", url, "compass server base URL (env "+urlEnv+")")
	pf.DurationVar(&opts.timeout, "timeout", defaultTimeout, "request timeout")
	pf.StringVarP(&opts.output, "output", "o", outputText, "output format: text or json")
	pf.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newDashboardCmd(opts),
		newCategoryCmd(opts),
		newHistoryCmd(opts),
		newExplainCmd(opts),
		newFormatCmd(opts),
		newStatsCmd(opts),
	)
	return root
}

func (o *options) client() *Client {
	return NewClient(o.url, o.timeout)
}

// emit writes v as JSON or through the text printer.
func emit[T any](cmd *cobra.Command, o *options, v T, text func(io.Writer, T) error) error {
	if o.output == outputJSON {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	return text(cmd.OutOrStdout(), v)
}

func newDashboardCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the outlook dial, key drivers and categories.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := o.client().Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			return emit(cmd, o, d, printDashboard)
		},
	}
}

func newCategoryCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "category <slug>",
		Short: "Show every series of one category.",
		Example: `  compassctl category labor-market
  compassctl category housing -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.client().Category(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return emit(cmd, o, p, printCategory)
		},
	}
}

func newHistoryCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show past recession intervals and the latest probability.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := o.client().History(cmd.Context())
			if err != nil {
				return err
			}
			return emit(cmd, o, h, printHistory)
		},
	}
}

func newExplainCmd(o *options) *cobra.Command {
	var (
		file     string
		allowed  []string
		fallback string
	)
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Explain the strongest contributor from a JSON list.",
		Long: `Reads a JSON array of {"name","value","shap"} contributors from --file
or standard input and prints the explanation of the strongest one.`,
		Example: `  echo '[{"name":"UNRATE","value":4.2,"shap":0.12}]' | compassctl explain
  compassctl explain -f contributors.json --allow UNRATE --allow PAYEMS_YoY`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				in = f
			}
			req := service.ExplainRequest{Allowed: allowed, Fallback: fallback}
			if err := json.NewDecoder(in).Decode(&req.Contributors); err != nil {
				return fmt.Errorf("read contributors: %w", err)
			}
			e, err := o.client().Explain(cmd.Context(), req)
			if err != nil {
				return err
			}
			return emit(cmd, o, e, printExplanation)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "contributors JSON file (default stdin)")
	cmd.Flags().StringArrayVar(&allowed, "allow", nil, "restrict ranking to these contributor names")
	cmd.Flags().StringVar(&fallback, "fallback", "", "contributor explained when none is eligible")
	return cmd
}

func newFormatCmd(o *options) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "format <value>...",
		Short: "Print compact axis labels for numbers.",
		Example: `  compassctl format 1500 2000000 -3e9
  compassctl format --offline 1250`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			type label struct {
				Value string `json:"value"`
				Label string `json:"label"`
			}
			labels := make([]label, 0, len(args))
			for _, a := range args {
				v, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("parse %q: %w", a, err)
				}
				l := axisfmt.Format(v)
				if !offline {
					if l, err = o.client().Format(cmd.Context(), v); err != nil {
						return err
					}
				}
				labels = append(labels, label{Value: a, Label: l})
			}
			return emit(cmd, o, labels, func(w io.Writer, ls []label) error {
				for _, l := range ls {
					if _, err := fmt.Fprintln(w, l.Label); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "format locally without calling the server")
	return cmd
}

func newStatsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show server statistics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := o.client().Stats(cmd.Context())
			if err != nil {
				return err
			}
			return emit(cmd, o, s, printStats)
		},
	}
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context, out io.Writer, args []string) error {
	root := NewRootCommand(out)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
