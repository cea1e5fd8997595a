package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/risk-engine/internal/graph"
	"github.com/sells-group/risk-engine/internal/model"
	"github.com/sells-group/risk-engine/internal/projector"
	"github.com/sells-group/risk-engine/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		engine := projector.New(cfg.Scoring, cfg.Batch.Workers)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(st, engine),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// analyzeRequest is the POST /v1/analyze payload: one event plus an inline
// graph. The graph is normalized the same way the YAML loader normalizes a
// fixture file.
type analyzeRequest struct {
	Event model.Event `json:"event"`
	Graph struct {
		Sites         []model.Site         `json:"sites"`
		Suppliers     []model.Supplier     `json:"suppliers"`
		Relationships []model.Relationship `json:"relationships"`
	} `json:"graph"`
	Weather map[string]model.WeatherRisk `json:"weather,omitempty"`
}

type analyzeResponse struct {
	Summary     *model.EventRiskSummary `json:"summary"`
	Projections []model.Projection      `json:"projections"`
}

func newRouter(st store.Store, engine *projector.Engine) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/analyze", func(w http.ResponseWriter, req *http.Request) {
		var body analyzeRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		body.Event.Normalize()
		if body.Event.ID == "" {
			writeError(w, http.StatusBadRequest, "event.id is required")
			return
		}
		if !body.Event.Type.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown event type %q", body.Event.Type))
			return
		}
		if len(body.Graph.Sites) == 0 && len(body.Graph.Suppliers) == 0 {
			writeError(w, http.StatusBadRequest, "graph has no entities")
			return
		}

		g := graph.New(body.Graph.Sites, body.Graph.Suppliers, body.Graph.Relationships)

		summary, projections, err := engine.Project(req.Context(), body.Event, g, body.Weather)
		if err != nil {
			zap.L().Error("analysis failed",
				zap.String("event_id", body.Event.ID),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "analysis failed")
			return
		}

		if err := st.SaveEvent(req.Context(), body.Event); err != nil {
			zap.L().Error("save event failed", zap.String("event_id", body.Event.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "persist failed")
			return
		}
		if _, err := st.SaveAnalysis(req.Context(), *summary, projections); err != nil {
			zap.L().Error("save analysis failed", zap.String("event_id", body.Event.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "persist failed")
			return
		}

		writeJSON(w, http.StatusOK, analyzeResponse{Summary: summary, Projections: projections})
	})

	r.Get("/v1/analyses/{eventID}", func(w http.ResponseWriter, req *http.Request) {
		eventID := chi.URLParam(req, "eventID")

		analysis, err := st.GetAnalysis(req.Context(), eventID)
		if err != nil {
			if eris.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "no analysis for event")
				return
			}
			zap.L().Error("get analysis failed", zap.String("event_id", eventID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, analysis)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
