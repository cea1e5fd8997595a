// Package graph holds the immutable facility/supplier graph snapshot the
// engine reads. Normalization happens once here, at the boundary; internal
// logic never guesses field shapes or casing.
package graph

import (
	"strings"

	"github.com/sells-group/risk-engine/internal/model"
)

// Graph is one read-only snapshot of the entity graph.
type Graph struct {
	Sites         []model.Site
	Suppliers     []model.Supplier
	Relationships []model.Relationship

	relsBySupplier map[string][]model.Relationship
	relsBySite     map[string][]model.Relationship
	sitesByID      map[string]model.Site
}

// New builds a normalized graph: importance and criticality tiers are
// canonicalized, supplier sole-source flags are derived from the edges, and
// relationship indexes are built for O(1) per-entity lookups.
func New(sites []model.Site, suppliers []model.Supplier, rels []model.Relationship) *Graph {
	g := &Graph{
		Sites:          sites,
		Suppliers:      suppliers,
		Relationships:  rels,
		relsBySupplier: make(map[string][]model.Relationship),
		relsBySite:     make(map[string][]model.Relationship),
		sitesByID:      make(map[string]model.Site, len(sites)),
	}

	for i := range g.Sites {
		s := &g.Sites[i]
		s.ID = strings.TrimSpace(s.ID)
		s.StrategicImportance = model.NormalizeImportance(string(s.StrategicImportance))
		g.sitesByID[s.ID] = *s
	}

	soleSuppliers := make(map[string]bool)
	for i := range g.Relationships {
		r := &g.Relationships[i]
		r.Criticality = model.NormalizeRelationCriticality(string(r.Criticality))
		g.relsBySupplier[r.SupplierID] = append(g.relsBySupplier[r.SupplierID], *r)
		g.relsBySite[r.SiteID] = append(g.relsBySite[r.SiteID], *r)
		if r.IsSoleSupplier {
			soleSuppliers[r.SupplierID] = true
		}
	}

	// IsSoleSupplier is derived, never trusted from source data.
	for i := range g.Suppliers {
		s := &g.Suppliers[i]
		s.ID = strings.TrimSpace(s.ID)
		s.IsSoleSupplier = soleSuppliers[s.ID]
	}

	return g
}

// RelationsOfSupplier returns all edges from the given supplier to sites.
func (g *Graph) RelationsOfSupplier(supplierID string) []model.Relationship {
	return g.relsBySupplier[supplierID]
}

// RelationsOfSite returns all edges feeding the given site.
func (g *Graph) RelationsOfSite(siteID string) []model.Relationship {
	return g.relsBySite[siteID]
}

// SiteByID looks up a site.
func (g *Graph) SiteByID(id string) (model.Site, bool) {
	s, ok := g.sitesByID[id]
	return s, ok
}

// TotalDailyRevenue sums daily revenue across all sites. Zero means company
// revenue is unknown and percentage-based impact math must fall back.
func (g *Graph) TotalDailyRevenue() float64 {
	var total float64
	for _, s := range g.Sites {
		total += s.DailyRevenue
	}
	return total
}

// EntityCount returns the number of entities the projector will visit.
func (g *Graph) EntityCount() int {
	return len(g.Sites) + len(g.Suppliers)
}
