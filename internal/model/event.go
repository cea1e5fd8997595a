// Package model defines the domain records exchanged between the risk
// projection engine and its collaborators: events, the facility/supplier
// graph, weather risk snapshots, and the engine's projection outputs.
package model

import (
	"strings"
	"time"
)

// EventType classifies the origin of a risk event.
type EventType string

const (
	EventClimatic     EventType = "climatic"
	EventRegulatory   EventType = "regulatory"
	EventGeopolitical EventType = "geopolitical"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventClimatic, EventRegulatory, EventGeopolitical:
		return true
	}
	return false
}

// GeographicScope carries the type-specific footprint of an event.
// Climatic events set Lat/Lon; regulatory events set the Affected* sets
// (empty set = no constraint on that axis); geopolitical events set the
// directly/indirectly affected country lists.
type GeographicScope struct {
	Lat *float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty" yaml:"lon,omitempty"`

	AffectedCountries    []string `json:"affected_countries,omitempty" yaml:"affected_countries,omitempty"`
	AffectedSectors      []string `json:"affected_sectors,omitempty" yaml:"affected_sectors,omitempty"`
	AffectedProducts     []string `json:"affected_products,omitempty" yaml:"affected_products,omitempty"`
	AffectedRawMaterials []string `json:"affected_raw_materials,omitempty" yaml:"affected_raw_materials,omitempty"`

	DirectlyAffectedCountries   []string `json:"directly_affected_countries,omitempty" yaml:"directly_affected_countries,omitempty"`
	IndirectlyAffectedCountries []string `json:"indirectly_affected_countries,omitempty" yaml:"indirectly_affected_countries,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (s GeographicScope) HasCoordinates() bool {
	return s.Lat != nil && s.Lon != nil
}

// Event is a structured risk event produced by the upstream collection and
// classification collaborators. Immutable once ingested.
type Event struct {
	ID          string          `json:"id" yaml:"id"`
	Type        EventType       `json:"type" yaml:"type"`
	Subtype     string          `json:"subtype" yaml:"subtype"`
	Title       string          `json:"title" yaml:"title"`
	Scope       GeographicScope `json:"geographic_scope" yaml:"geographic_scope"`
	PublishedAt time.Time       `json:"published_at,omitempty" yaml:"published_at,omitempty"`
}

// Normalize lowercases the type and subtype so downstream dispatch never
// has to guess casing. Upstream classifiers are not consistent about it.
func (e *Event) Normalize() {
	e.Type = EventType(strings.ToLower(strings.TrimSpace(string(e.Type))))
	e.Subtype = strings.ToLower(strings.TrimSpace(e.Subtype))
}
