package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/risk-engine/internal/model"
)

// LoadGraph goes through the Store interface, so the SQLite driver doubles as
// the integration fixture here.
func TestLoadGraph_NormalizesSnapshot(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	sites := []model.Site{
		{ID: "site-1", Name: "Lyon", Country: "France", StrategicImportance: "haute"},
	}
	suppliers := []model.Supplier{
		{ID: "sup-1", Name: "Chip Co", Country: "Taiwan"},
		{ID: "sup-2", Name: "Steel Co", Country: "Germany"},
	}
	rels := []model.Relationship{
		{ID: "r1", SiteID: "site-1", SupplierID: "sup-1", IsSoleSupplier: true, Criticality: "critical"},
		{ID: "r2", SiteID: "site-1", SupplierID: "sup-2"},
	}
	require.NoError(t, st.SaveGraph(ctx, sites, suppliers, rels))

	g, err := LoadGraph(ctx, st)
	require.NoError(t, err)

	require.Len(t, g.Sites, 1)
	// free-form importance canonicalized at the graph boundary
	assert.Equal(t, model.ImportanceHigh, g.Sites[0].StrategicImportance)

	require.Len(t, g.Suppliers, 2)
	bySupplier := map[string]model.Supplier{}
	for _, s := range g.Suppliers {
		bySupplier[s.ID] = s
	}
	// sole-source flag derived from the edges, not the source rows
	assert.True(t, bySupplier["sup-1"].IsSoleSupplier)
	assert.False(t, bySupplier["sup-2"].IsSoleSupplier)

	rels1 := g.RelationsOfSupplier("sup-1")
	require.Len(t, rels1, 1)
	assert.Equal(t, model.RelationCritical, rels1[0].Criticality)

	assert.Equal(t, 3, g.EntityCount())
}

func TestLoadGraph_EmptyStore(t *testing.T) {
	st := newTestSQLiteStore(t)

	g, err := LoadGraph(context.Background(), st)
	require.NoError(t, err)
	assert.Zero(t, g.EntityCount())
}
