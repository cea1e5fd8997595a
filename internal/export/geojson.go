package export

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/risk-engine/internal/graph"
	"github.com/sells-group/risk-engine/internal/model"
)

// GeoJSON renders the concerned entities of an analysis as a point
// FeatureCollection for the map view. Entities without coordinates are
// omitted; they have nowhere to be drawn.
func GeoJSON(g *graph.Graph, projections []model.Projection) ([]byte, error) {
	coords := entityCoordinates(g)

	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for _, p := range projections {
		if !p.IsConcerned {
			continue
		}
		c, ok := coords[p.EntityID]
		if !ok {
			continue
		}

		props := map[string]interface{}{
			"entity_id":      p.EntityID,
			"entity_name":    p.EntityName,
			"entity_kind":    string(p.EntityKind),
			"risk_score_360": p.RiskScore360,
			"weather_score":  p.WeatherRiskScore,
			"bi_score":       p.BusinessInterruptionScore,
			"risk_level":     string(model.RiskLevelFor(p.RiskScore360)),
		}
		if crit := p.Reasoning.Criticality; crit != nil {
			props["criticality_tier"] = string(crit.Tier)
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         p.EntityID,
			Geometry:   geom.NewPointFlat(geom.XY, []float64{c.lon, c.lat}).SetSRID(4326),
			Properties: props,
		})
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "export: marshal geojson")
	}
	return data, nil
}

// WriteGeoJSON writes the FeatureCollection to a file.
func WriteGeoJSON(path string, g *graph.Graph, projections []model.Projection) error {
	data, err := GeoJSON(g, projections)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "export: write geojson %s", path)
	}
	return nil
}

type lonLat struct {
	lon, lat float64
}

func entityCoordinates(g *graph.Graph) map[string]lonLat {
	coords := make(map[string]lonLat, g.EntityCount())
	for _, s := range g.Sites {
		if s.Lat != nil && s.Lon != nil {
			coords[s.ID] = lonLat{lon: *s.Lon, lat: *s.Lat}
		}
	}
	for _, s := range g.Suppliers {
		if s.Lat != nil && s.Lon != nil {
			coords[s.ID] = lonLat{lon: *s.Lon, lat: *s.Lat}
		}
	}
	return coords
}
