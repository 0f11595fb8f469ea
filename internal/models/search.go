package models

import (
	"fmt"
	"strings"
)

// RouteRequest represents a from/to journey query
type RouteRequest struct {
	From string `form:"from" json:"from" binding:"required"` // Source station or stop name
	To   string `form:"to" json:"to" binding:"required"`     // Destination station or stop name
}

// SearchResponse holds the matches for a free-text station/stop query
type SearchResponse struct {
	Query    string    `json:"query"`
	Stations []Station `json:"stations"`
	Stops    []BusStop `json:"stops"`
}

// Validate validates the route request
func (r *RouteRequest) Validate() error {
	r.From = strings.TrimSpace(r.From)
	r.To = strings.TrimSpace(r.To)

	if r.From == "" {
		return ErrInvalidInput("from location is required")
	}
	if r.To == "" {
		return ErrInvalidInput("to location is required")
	}
	return nil
}

// ErrInvalidInput creates a validation error
func ErrInvalidInput(message string) error {
	return &ValidationError{Message: message}
}

// ValidationError represents a validation error
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InvalidStationError is returned when a station or stop name is unknown
type InvalidStationError struct {
	Names []string
}

// NewInvalidStationError collects the unknown names, skipping empty entries
func NewInvalidStationError(names ...string) *InvalidStationError {
	var unknown []string
	for _, n := range names {
		if n != "" {
			unknown = append(unknown, n)
		}
	}
	return &InvalidStationError{Names: unknown}
}

func (e *InvalidStationError) Error() string {
	return fmt.Sprintf("invalid station name: %s", strings.Join(e.Names, " or "))
}
