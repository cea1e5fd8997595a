package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/risk-engine/internal/export"
	"github.com/sells-group/risk-engine/internal/graph"
	"github.com/sells-group/risk-engine/internal/model"
	"github.com/sells-group/risk-engine/internal/projector"
	"github.com/sells-group/risk-engine/internal/report"
	"github.com/sells-group/risk-engine/internal/store"
	"github.com/sells-group/risk-engine/internal/weather"
	"github.com/sells-group/risk-engine/pkg/anthropic"
)

var (
	analyzeEventPath   string
	analyzeGraphPath   string
	analyzeNoWeather   bool
	analyzeNoSave      bool
	analyzeReport      bool
	analyzeXLSXPath    string
	analyzeGeoJSONPath string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Project one risk event onto the entity graph",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		start := time.Now()

		event, err := loadEvent(analyzeEventPath)
		if err != nil {
			return err
		}

		var st store.Store
		if analyzeGraphPath == "" || !analyzeNoSave {
			st, err = openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
		}

		var g *graph.Graph
		if analyzeGraphPath != "" {
			g, err = graph.LoadFile(analyzeGraphPath)
		} else {
			g, err = store.LoadGraph(ctx, st)
		}
		if err != nil {
			return err
		}
		zap.L().Info("graph loaded",
			zap.Int("sites", len(g.Sites)),
			zap.Int("suppliers", len(g.Suppliers)),
		)

		risks := map[string]model.WeatherRisk{}
		if !analyzeNoWeather {
			wc := weather.NewClient(weather.ClientOptions{
				BaseURL:      cfg.Weather.BaseURL,
				ForecastDays: cfg.Weather.ForecastDays,
				Timeout:      time.Duration(cfg.Weather.TimeoutSecs) * time.Second,
				MaxRetries:   cfg.Weather.MaxRetries,
				RatePerSec:   cfg.Weather.RatePerSec,
				Concurrency:  cfg.Weather.Concurrency,
			})
			risks, err = wc.PrefetchRisks(ctx, g.Sites, g.Suppliers)
			if err != nil {
				return err
			}
		}

		engine := projector.New(cfg.Scoring, cfg.Batch.Workers)
		summary, projections, err := engine.Project(ctx, *event, g, risks)
		if err != nil {
			return err
		}

		if !analyzeNoSave {
			if err := st.SaveEvent(ctx, *event); err != nil {
				return err
			}
			analysis, err := st.SaveAnalysis(ctx, *summary, projections)
			if err != nil {
				return err
			}
			zap.L().Info("analysis saved", zap.String("analysis_id", analysis.ID))
		}

		if analyzeXLSXPath != "" {
			if err := export.WriteXLSX(analyzeXLSXPath, *event, *summary, projections); err != nil {
				return err
			}
			zap.L().Info("spreadsheet written", zap.String("path", analyzeXLSXPath))
		}
		if analyzeGeoJSONPath != "" {
			if err := export.WriteGeoJSON(analyzeGeoJSONPath, g, projections); err != nil {
				return err
			}
			zap.L().Info("geojson written", zap.String("path", analyzeGeoJSONPath))
		}

		if analyzeReport {
			var client anthropic.Client
			if cfg.Anthropic.Key != "" {
				client = anthropic.NewClient(cfg.Anthropic.Key)
			}
			brief, err := report.New(client, cfg.Anthropic).Executive(ctx, *event, *summary, projections)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, brief)
		}

		out, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal summary")
		}
		fmt.Println(string(out))

		zap.L().Info("analysis complete",
			zap.String("event_id", event.ID),
			zap.String("risk_level", string(summary.OverallRiskLevel)),
			zap.Float64("score_360", summary.OverallRiskScore360),
			zap.Int("concerned", summary.ConcernedCount),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil
	},
}

// loadEvent reads an event description from a YAML file and normalizes it.
func loadEvent(path string) (*model.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read event %s", path)
	}
	var event model.Event
	if err := yaml.Unmarshal(data, &event); err != nil {
		return nil, eris.Wrapf(err, "parse event %s", path)
	}
	event.Normalize()
	if event.ID == "" {
		return nil, eris.Errorf("event %s has no id", path)
	}
	if !event.Type.Valid() {
		return nil, eris.Errorf("event %s has unknown type %q", path, event.Type)
	}
	return &event, nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeEventPath, "event", "", "path to event YAML file (required)")
	analyzeCmd.Flags().StringVar(&analyzeGraphPath, "graph", "", "path to graph YAML file (default: load from store)")
	analyzeCmd.Flags().BoolVar(&analyzeNoWeather, "no-weather", false, "skip the forecast prefetch")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "do not persist the analysis")
	analyzeCmd.Flags().BoolVar(&analyzeReport, "report", false, "generate an executive brief")
	analyzeCmd.Flags().StringVar(&analyzeXLSXPath, "xlsx", "", "write the analyst spreadsheet to this path")
	analyzeCmd.Flags().StringVar(&analyzeGeoJSONPath, "geojson", "", "write concerned entities as GeoJSON to this path")
	_ = analyzeCmd.MarkFlagRequired("event")
	rootCmd.AddCommand(analyzeCmd)
}
