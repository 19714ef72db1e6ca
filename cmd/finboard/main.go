// finboard is the CLI entry point for the S&P 500 browsing pipeline.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/finboardhq/finboard/api"
	"github.com/finboardhq/finboard/internal/config"
	"github.com/finboardhq/finboard/internal/datasource"
	"github.com/finboardhq/finboard/internal/series"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "finboard",
	Short: "Browse S&P 500 constituents and derived price views",
	Long: `finboard fetches the S&P 500 constituents table, pulls full daily
price history per symbol, and computes windowed views with simple
moving-average overlays and summary statistics.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(componentsCmd)
	rootCmd.AddCommand(quotesCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(serveCmd)
}

// newRepos builds the two repositories from the loaded config.
func newRepos() (*datasource.Components, *datasource.Yahoo) {
	components := datasource.NewComponents(time.Duration(cfg.Cache.ComponentsTTL) * time.Second)
	if cfg.Sources.ComponentsURL != "" {
		components.URL = cfg.Sources.ComponentsURL
	}
	quotes := datasource.NewYahoo(time.Duration(cfg.Cache.QuotesTTL) * time.Second)
	if cfg.Sources.QuotesBaseURL != "" {
		quotes.BaseURL = cfg.Sources.QuotesBaseURL
	}
	return components, quotes
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("finboard %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Components Command ---

var componentsCmd = &cobra.Command{
	Use:   "components",
	Short: "List the index constituents",
	RunE: func(cmd *cobra.Command, args []string) error {
		components, _ := newRepos()
		list, err := components.Fetch(cmd.Context())
		if err != nil {
			return err
		}

		sector, _ := cmd.Flags().GetString("sector")

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SYMBOL\tSECURITY\tSECTOR\tDATE ADDED\tFOUNDED")
		for _, sym := range list.Symbols() {
			c, _ := list.Get(sym)
			if sector != "" && c.Sector != sector {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.Symbol, c.Security, c.Sector, c.DateAdded, c.Founded)
		}
		return tw.Flush()
	},
}

func init() {
	componentsCmd.Flags().String("sector", "", "filter by GICS sector")
}

// --- Quotes Command ---

var quotesCmd = &cobra.Command{
	Use:   "quotes [symbol...]",
	Short: "Fetch full daily history for one or more symbols",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, quotes := newRepos()

		// Warm the cache for everything requested, then print per symbol.
		if err := quotes.Prefetch(cmd.Context(), args); err != nil {
			return err
		}

		tail, _ := cmd.Flags().GetInt("tail")
		for _, sym := range args {
			qs, err := quotes.Fetch(cmd.Context(), sym)
			if err != nil {
				return err
			}
			if qs.Len() == 0 {
				fmt.Printf("%s: no complete bars\n", qs.Symbol)
				continue
			}

			fmt.Printf("%s: %d bars (%s to %s)\n", qs.Symbol, qs.Len(),
				qs.Bars[0].Date.Format("2006-01-02"),
				qs.Bars[qs.Len()-1].Date.Format("2006-01-02"))

			start := qs.Len() - tail
			if start < 0 {
				start = 0
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tOPEN\tHIGH\tLOW\tCLOSE\tADJ CLOSE\tVOLUME")
			for _, b := range qs.Bars[start:] {
				fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%d\n",
					b.Date.Format("2006-01-02"), b.Open, b.High, b.Low, b.Close, b.AdjClose, b.Volume)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	quotesCmd.Flags().Int("tail", 10, "number of most recent bars to print")
}

// --- View Command ---

var viewCmd = &cobra.Command{
	Use:   "view [symbol]",
	Short: "Show a windowed adjusted-close view with SMA overlays",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		components, quotes := newRepos()

		list, err := components.Fetch(cmd.Context())
		if err != nil {
			return err
		}
		if !list.Has(args[0]) {
			return fmt.Errorf("%w: %s is not an index constituent", datasource.ErrSymbolNotFound, args[0])
		}

		qs, err := quotes.Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		window, _ := cmd.Flags().GetInt("window")
		if !cmd.Flags().Changed("window") && cfg.View.DefaultWindow > 0 {
			window = cfg.View.DefaultWindow
		}
		periods, _ := cmd.Flags().GetIntSlice("sma")
		if !cmd.Flags().Changed("sma") {
			periods = cfg.View.DefaultSMA
		}

		var overlays []series.OverlaySpec
		for _, p := range periods {
			overlays = append(overlays, series.OverlaySpec{Period: p})
		}

		table := series.WindowedView(qs, window, overlays)
		fmt.Printf("%s (window %d)\n\n", table.Symbol, table.Window)

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprint(tw, "DATE")
		for _, col := range table.Columns {
			fmt.Fprintf(tw, "\t%s", col.Name)
		}
		fmt.Fprintln(tw)
		for i, d := range table.Dates {
			fmt.Fprint(tw, d.Format("2006-01-02"))
			for _, col := range table.Columns {
				if v := col.Values[i]; v != nil {
					fmt.Fprintf(tw, "\t%.2f", *v)
				} else {
					fmt.Fprint(tw, "\t-")
				}
			}
			fmt.Fprintln(tw)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if showStats, _ := cmd.Flags().GetBool("stats"); showStats {
			fmt.Println()
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "COLUMN\tCOUNT\tMEAN\tSTD\tMIN\t25%\t50%\t75%\tMAX")
			for _, st := range series.Describe(table) {
				fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
					st.Name, st.Count, st.Mean, st.Std, st.Min, st.Q25, st.Q50, st.Q75, st.Max)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	viewCmd.Flags().Int("window", 500, "number of most recent quotes to include")
	viewCmd.Flags().IntSlice("sma", nil, "SMA overlay periods (repeatable)")
	viewCmd.Flags().Bool("stats", false, "print descriptive statistics")
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := api.NewServer(cfg)
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("finboard API listening on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}
