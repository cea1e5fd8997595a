package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/risk-engine/internal/graph"
	"github.com/sells-group/risk-engine/internal/store"
	"github.com/sells-group/risk-engine/internal/weather"
)

var weatherGraphPath string

var weatherCmd = &cobra.Command{
	Use:   "weather",
	Short: "Prefetch the forecast window for all entities and print the risk table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		var g *graph.Graph
		var err error
		if weatherGraphPath != "" {
			g, err = graph.LoadFile(weatherGraphPath)
		} else {
			st, serr := openStore(ctx)
			if serr != nil {
				return serr
			}
			defer st.Close()
			g, err = store.LoadGraph(ctx, st)
		}
		if err != nil {
			return err
		}

		wc := weather.NewClient(weather.ClientOptions{
			BaseURL:      cfg.Weather.BaseURL,
			ForecastDays: cfg.Weather.ForecastDays,
			Timeout:      time.Duration(cfg.Weather.TimeoutSecs) * time.Second,
			MaxRetries:   cfg.Weather.MaxRetries,
			RatePerSec:   cfg.Weather.RatePerSec,
			Concurrency:  cfg.Weather.Concurrency,
		})
		risks, err := wc.PrefetchRisks(ctx, g.Sites, g.Suppliers)
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(risks))
		for id := range risks {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ENTITY\tSCORE\tALERTS\tMAX SEVERITY")
		for _, id := range ids {
			wr := risks[id]
			sev := string(wr.MaxSeverity)
			if sev == "" {
				sev = "-"
			}
			fmt.Fprintf(w, "%s\t%.1f\t%d\t%s\n", id, wr.RiskScore, wr.AlertsCount, sev)
		}
		return w.Flush()
	},
}

func init() {
	weatherCmd.Flags().StringVar(&weatherGraphPath, "graph", "", "path to graph YAML file (default: load from store)")
	rootCmd.AddCommand(weatherCmd)
}
