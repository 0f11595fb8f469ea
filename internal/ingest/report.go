package ingest

import "fmt"

// maxWarnings caps the warnings kept on a report; the count keeps growing
const maxWarnings = 50

// Report summarises one ingestion run
type Report struct {
	Agencies  int      `json:"agencies"`
	Routes    int      `json:"routes"`
	Stops     int      `json:"stops"`
	Trips     int      `json:"trips"`
	StopTimes int      `json:"stop_times"`
	Combined  int      `json:"combined"`
	Lines     int      `json:"lines"`
	Stations  int      `json:"stations"`
	Skipped   int      `json:"skipped"`
	Warnings  []string `json:"warnings,omitempty"`
	Unchanged bool     `json:"unchanged,omitempty"`
}

// Warn records a skipped row
func (r *Report) Warn(format string, args ...interface{}) {
	r.WarnN(1, format, args...)
}

// WarnN records n skipped rows under one message
func (r *Report) WarnN(n int, format string, args ...interface{}) {
	r.Skipped += n
	if len(r.Warnings) < maxWarnings {
		r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
	}
}

// Merge folds another report into r
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Agencies += other.Agencies
	r.Routes += other.Routes
	r.Stops += other.Stops
	r.Trips += other.Trips
	r.StopTimes += other.StopTimes
	r.Combined += other.Combined
	r.Lines += other.Lines
	r.Stations += other.Stations
	r.Skipped += other.Skipped
	for _, w := range other.Warnings {
		if len(r.Warnings) >= maxWarnings {
			break
		}
		r.Warnings = append(r.Warnings, w)
	}
}
