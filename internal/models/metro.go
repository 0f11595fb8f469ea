package models

import (
	"strconv"
	"strings"
)

// DefaultLineColor is used for lines missing from the palette
const DefaultLineColor = "#757575"

var lineColors = map[string]string{
	"yellow":      "#FFD700",
	"blue":        "#1976D2",
	"red":         "#D32F2F",
	"green":       "#4CAF50",
	"violet":      "#8E24AA",
	"orange":      "#FF9800",
	"magenta":     "#E91E63",
	"pink":        "#FF80AB",
	"aqua":        "#00BCD4",
	"grey":        "#757575",
	"rapid":       "#4682B4",
	"greenbranch": "#388E3C",
	"bluebranch":  "#1565C0",
	"pinkbranch":  "#EC407A",
}

// Station is a metro station on a single line.
// A physical interchange appears once per line it serves, sharing the name.
type Station struct {
	Name      string  `json:"name" db:"name"`
	Line      string  `json:"line" db:"line"`
	StationID int     `json:"station_id" db:"station_id"` // ordinal within the line
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// Key identifies the station within the network (line plus ordinal)
func (s Station) Key() string {
	return s.Line + "#" + strconv.Itoa(s.StationID)
}

// NameKey is the case-folded name used for lookups and interchange grouping
func (s Station) NameKey() string {
	return NormalizeName(s.Name)
}

// MetroLine represents a metro line and its display color
type MetroLine struct {
	Name          string `json:"name" db:"name"`
	Color         string `json:"color" db:"color"`
	TotalStations int    `json:"total_stations" db:"total_stations"`
}

// LineColor returns the display color for a line name
func LineColor(line string) string {
	if c, ok := lineColors[strings.ToLower(line)]; ok {
		return c
	}
	return DefaultLineColor
}

// RailRoute is the result of planning a journey between two stations
type RailRoute struct {
	Source           Station   `json:"source"`
	Destination      Station   `json:"destination"`
	Path             []Station `json:"path"`
	TotalStations    int       `json:"total_stations"`
	InterchangeCount int       `json:"interchange_count"`
	DistanceKm       float64   `json:"distance_km"`
	EstimatedTime    int       `json:"estimated_time"` // minutes, 0 when disconnected
	Connected        bool      `json:"connected"`
}

// NormalizeName trims and lowercases a station or stop name
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
