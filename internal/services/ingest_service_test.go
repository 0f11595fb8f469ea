package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/harshit21255/delhi-transit-buddy/internal/ingest"
	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMetroWriter struct {
	count    int
	lines    []models.MetroLine
	stations []models.Station
}

func (f *fakeMetroWriter) CountStations(context.Context) (int, error) {
	return f.count, nil
}

func (f *fakeMetroWriter) UpsertLines(_ context.Context, lines []models.MetroLine) error {
	f.lines = lines
	return nil
}

func (f *fakeMetroWriter) UpsertStations(_ context.Context, stations []models.Station) error {
	f.stations = stations
	f.count = len(stations)
	return nil
}

func writeFeedDir(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"agency.txt": "agency_id,agency_name,agency_url,agency_timezone\n" +
			"DTC,Delhi Transport Corporation,https://dtc.delhi.gov.in,Asia/Kolkata\n",
		"routes.txt": "route_id,agency_id,route_short_name,route_long_name,route_type\n" +
			"R1,DTC,522,Mehrauli - ISBT,3\n",
		"stops.txt": "stop_id,stop_name,stop_lat,stop_lon\n" +
			"S1,Mehrauli,28.52,77.18\n" +
			"S2,Qutub Minar,28.52,77.19\n",
		"trips.txt": "route_id,service_id,trip_id\n" +
			"R1,WK,T1\n" +
			"R9,WK,T9\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"T1,08:05:00,08:05:00,S2,2\n" +
			"T1,08:00:00,08:00:00,S1,1\n" +
			"T1,08:10:00,08:10:00,S7,3\n",
		"stations.json": `{"Yellow": [
			{"name": "Qutub Minar", "stationId": 1, "lat": 28.51, "long": 77.18},
			{"name": "Saket", "stationId": 2, "lat": 28.52, "long": 77.20}
		]}`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir, filepath.Join(dir, "stations.json")
}

func setupIngestTest(t *testing.T) (*IngestService, *fakeMetroWriter, *fakeBusStore) {
	dir, metroPath := writeFeedDir(t)
	metro := &fakeMetroWriter{}
	bus := &fakeBusStore{}
	svc := NewIngestService(ingest.NewLoader(quietLogger()), metro, bus, dir, metroPath, quietLogger())
	return svc, metro, bus
}

func TestIngestService_Run(t *testing.T) {
	svc, metro, bus := setupIngestTest(t)
	ctx := context.Background()

	report, err := svc.Run(ctx, models.IngestRequest{Metro: true, Bus: true})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Stations)
	assert.Len(t, metro.stations, 2)

	assert.Equal(t, 2, report.Trips)
	assert.Equal(t, 3, report.StopTimes)
	assert.Equal(t, 1, bus.replaceCalls)
	require.Len(t, bus.combined, 2)
	assert.Equal(t, report.Combined, len(bus.combined))
	assert.Equal(t, "Mehrauli", bus.combined[0].StopName)
	assert.Equal(t, "Mehrauli - ISBT", bus.combined[0].RouteName)
	assert.Equal(t, "Qutub Minar", bus.combined[1].StopName)
	// T9 has no route and S7 is not a stop
	assert.GreaterOrEqual(t, report.Skipped, 2)

	t.Run("Metro skipped when already loaded", func(t *testing.T) {
		report, err := svc.Run(ctx, models.IngestRequest{Metro: true})
		require.NoError(t, err)
		assert.True(t, report.Unchanged)
		assert.Equal(t, 1, bus.replaceCalls)
	})
}

func TestIngestService_SingleRun(t *testing.T) {
	svc, _, _ := setupIngestTest(t)
	svc.running.Lock()

	_, err := svc.Run(context.Background(), models.IngestRequest{Bus: true})
	assert.ErrorIs(t, err, ErrIngestRunning)

	svc.running.Unlock()
	_, err = svc.Run(context.Background(), models.IngestRequest{Bus: true})
	assert.NoError(t, err)
}

func TestIngestService_RegenerateFeedsBusSnapshot(t *testing.T) {
	svc, _, bus := setupIngestTest(t)
	ctx := context.Background()

	_, err := svc.Run(ctx, models.IngestRequest{Bus: true})
	require.NoError(t, err)

	busSvc := NewBusService(bus, nil, quietLogger())
	journey, err := busSvc.PlanBusJourney(ctx, "Mehrauli", "qutub minar")
	require.NoError(t, err)
	require.Len(t, journey.Segments, 1)
	assert.Equal(t, "R1", journey.Segments[0].Route.RouteID)
}

func TestIngestService_ConcurrentRuns(t *testing.T) {
	svc, _, _ := setupIngestTest(t)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Run(context.Background(), models.IngestRequest{Metro: true, Force: true})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrIngestRunning)
	}
	assert.GreaterOrEqual(t, succeeded, 1)
}
