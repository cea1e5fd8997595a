package projector

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/risk-engine/internal/graph"
	"github.com/sells-group/risk-engine/internal/model"
)

// Project scores every entity in the graph against one event and rolls the
// projections up to an event summary. Entities are scored concurrently but
// the returned slice preserves graph order (sites first, then suppliers), so
// repeated runs over the same snapshot are byte-identical apart from
// timestamps.
//
// A panic while scoring one entity skips that entity and increments
// SkippedEntities; it never aborts the batch. weatherByEntity may be nil when
// the weather overlay is disabled.
func (e *Engine) Project(ctx context.Context, event model.Event, g *graph.Graph, weatherByEntity map[string]model.WeatherRisk) (*model.EventRiskSummary, []model.Projection, error) {
	event.Normalize()

	summary := &model.EventRiskSummary{
		EventID:    event.ID,
		ComputedAt: time.Now().UTC(),
	}
	if !event.Type.Valid() {
		summary.InvalidEventType = true
		zap.L().Warn("unknown event type, no entity can be concerned",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)))
	}

	views := make([]entityView, 0, g.EntityCount())
	for i := range g.Sites {
		views = append(views, siteView(&g.Sites[i]))
	}
	for i := range g.Suppliers {
		views = append(views, supplierView(&g.Suppliers[i]))
	}

	// Slot per entity keeps output order independent of goroutine scheduling.
	results := make([]*model.Projection, len(views))

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(e.workerCount())

	for i, ev := range views {
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			defer func() {
				if r := recover(); r != nil {
					zap.L().Error("entity projection panicked, skipping",
						zap.String("event_id", event.ID),
						zap.String("entity_id", ev.id),
						zap.Any("panic", r))
				}
			}()
			p := e.projectEntity(event, ev, g, weatherByEntity[ev.id])
			results[i] = &p
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, nil, err
	}

	projections := make([]model.Projection, 0, len(results))
	for _, p := range results {
		if p == nil {
			summary.SkippedEntities++
			continue
		}
		projections = append(projections, *p)
	}

	e.rollup(summary, projections)
	mergeWeather(summary, weatherByEntity)
	return summary, projections, nil
}

func (e *Engine) workerCount() int {
	if e.workers > 0 {
		return e.workers
	}
	n := runtime.NumCPU()
	if n < 2 {
		n = 2
	}
	if n > 8 {
		n = 8
	}
	return n
}

// rollup folds per-entity projections into the event summary. Score rollups
// are max-based so one catastrophic entity is never diluted by averages.
func (e *Engine) rollup(s *model.EventRiskSummary, projections []model.Projection) {
	for _, p := range projections {
		if !p.IsConcerned {
			continue
		}
		s.ConcernedCount++
		if p.EntityKind == model.KindSite {
			s.AffectedSites = append(s.AffectedSites, p.EntityID)
		} else {
			s.AffectedSuppliers = append(s.AffectedSuppliers, p.EntityID)
		}

		if p.RiskScore360 > s.OverallRiskScore360 {
			s.OverallRiskScore360 = p.RiskScore360
		}
		if p.BusinessInterruptionScore > s.BusinessInterruptionScore {
			s.BusinessInterruptionScore = p.BusinessInterruptionScore
		}
		if p.Probability > s.MaxProbability {
			s.MaxProbability = p.Probability
		}
		if p.Exposure > s.MaxExposure {
			s.MaxExposure = p.Exposure
		}
	}
	s.OverallRiskLevel = model.RiskLevelFor(s.OverallRiskScore360)
}

// mergeWeather folds the per-entity weather risks that fed a projection run
// into the summary's weather rollup. The fold covers every entity the overlay
// scored, concerned by the event or not, matching the weather block attached
// to non-concerned projections. A run with the overlay disabled gets a
// zero-valued summary rather than a partial one.
func mergeWeather(s *model.EventRiskSummary, risks map[string]model.WeatherRisk) {
	if len(risks) == 0 {
		return
	}
	var scored int
	for _, wr := range risks {
		if !wr.HasRisk {
			continue
		}
		s.Weather.EntitiesWithAlerts++
		s.Weather.TotalAlerts += wr.AlertsCount
		s.Weather.ScoreSum += wr.RiskScore
		scored++
		s.Weather.MaxSeverity = model.MaxSeverity(s.Weather.MaxSeverity, wr.MaxSeverity)
		for typ, n := range wr.AlertsByType {
			if s.Weather.AlertsByType == nil {
				s.Weather.AlertsByType = make(map[string]int)
			}
			s.Weather.AlertsByType[typ] += n
		}
	}
	if scored > 0 {
		s.Weather.ScoreSum = round2(s.Weather.ScoreSum)
		s.Weather.ScoreAvg = round2(s.Weather.ScoreSum / float64(scored))
	}
}
