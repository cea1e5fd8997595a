package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/risk-engine/internal/model"
)

func writeEventFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "event.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEvent_NormalizesTypeAndSubtype(t *testing.T) {
	path := writeEventFile(t, `
id: evt-1
type: CLIMATIC
subtype: " Inondation "
title: Crue de la Seine
geographic_scope:
  lat: 48.85
  lon: 2.35
`)

	event, err := loadEvent(path)
	require.NoError(t, err)
	assert.Equal(t, model.EventClimatic, event.Type)
	assert.Equal(t, "inondation", event.Subtype)
	require.NotNil(t, event.Scope.Lat)
	assert.InDelta(t, 48.85, *event.Scope.Lat, 0.001)
}

func TestLoadEvent_RejectsMissingID(t *testing.T) {
	path := writeEventFile(t, "type: climatic\ntitle: sans id\n")

	_, err := loadEvent(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no id")
}

func TestLoadEvent_RejectsUnknownType(t *testing.T) {
	path := writeEventFile(t, "id: evt-2\ntype: cosmic\n")

	_, err := loadEvent(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
}

func TestLoadEvent_MissingFile(t *testing.T) {
	_, err := loadEvent(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
