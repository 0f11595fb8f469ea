package models

// RouteTypeBus is the GTFS route_type for buses, used when the feed omits it
const RouteTypeBus = 3

// BusAgency represents a transit agency from agency.txt
type BusAgency struct {
	AgencyID       string `json:"agency_id" db:"agency_id"`
	AgencyName     string `json:"agency_name" db:"agency_name"`
	AgencyURL      string `json:"agency_url" db:"agency_url"`
	AgencyTimezone string `json:"agency_timezone" db:"agency_timezone"`
}

// BusRoute represents a route from routes.txt
type BusRoute struct {
	RouteID        string `json:"route_id" db:"route_id"`
	AgencyID       string `json:"agency_id" db:"agency_id"`
	RouteShortName string `json:"route_short_name" db:"route_short_name"`
	RouteLongName  string `json:"route_long_name" db:"route_long_name"`
	RouteType      int    `json:"route_type" db:"route_type"`
}

// DisplayName prefers the long name and falls back to the short one
func (r BusRoute) DisplayName() string {
	if r.RouteLongName != "" {
		return r.RouteLongName
	}
	return r.RouteShortName
}

// BusStop represents a stop from stops.txt
type BusStop struct {
	StopID   string  `json:"stop_id" db:"stop_id"`
	StopName string  `json:"stop_name" db:"stop_name"`
	StopLat  float64 `json:"stop_lat" db:"stop_lat"`
	StopLon  float64 `json:"stop_lon" db:"stop_lon"`
}

// BusTrip represents a trip from trips.txt
type BusTrip struct {
	TripID    string `json:"trip_id" db:"trip_id"`
	RouteID   string `json:"route_id" db:"route_id"`
	ServiceID string `json:"service_id" db:"service_id"`
}

// StopTime is one (trip, stop, position) entry from stop_times.txt
type StopTime struct {
	TripID        string `json:"trip_id" db:"trip_id"`
	StopID        string `json:"stop_id" db:"stop_id"`
	ArrivalTime   string `json:"arrival_time" db:"arrival_time"`
	DepartureTime string `json:"departure_time" db:"departure_time"`
	StopSequence  int    `json:"stop_sequence" db:"stop_sequence"`
}

// CombinedBusData is one row of the denormalized trip/route/stop index.
// BusID carries the trip id.
type CombinedBusData struct {
	BusID        string `json:"bus_id" db:"bus_id"`
	RouteID      string `json:"route_id" db:"route_id"`
	RouteName    string `json:"route_name" db:"route_name"`
	StopID       string `json:"stop_id" db:"stop_id"`
	StopName     string `json:"stop_name" db:"stop_name"`
	StopSequence int    `json:"stop_sequence" db:"stop_sequence"`
}

// BusRouteWithStops is one ride leg: a route and the stops ridden on it
type BusRouteWithStops struct {
	Route     BusRoute  `json:"route"`
	Stops     []BusStop `json:"stops"`
	StartStop BusStop   `json:"start_stop"`
	EndStop   BusStop   `json:"end_stop"`
}

// BusJourney is the result of planning a bus journey between two stops
type BusJourney struct {
	Source      string              `json:"source"`
	Destination string              `json:"destination"`
	Segments    []BusRouteWithStops `json:"segments"`
	TotalStops  int                 `json:"total_stops"`
	Transfers   int                 `json:"transfers"`
}

// RecordCounts summarises the contents of the record store
type RecordCounts struct {
	Stations  int `json:"stations" db:"stations"`
	Lines     int `json:"lines" db:"lines"`
	Agencies  int `json:"agencies" db:"agencies"`
	Routes    int `json:"routes" db:"routes"`
	Stops     int `json:"stops" db:"stops"`
	Trips     int `json:"trips" db:"trips"`
	StopTimes int `json:"stop_times" db:"stop_times"`
	Combined  int `json:"combined" db:"combined"`
}
