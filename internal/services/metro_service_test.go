package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/harshit21255/delhi-transit-buddy/internal/database"
	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/harshit21255/delhi-transit-buddy/internal/routing"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redBlueStations() []models.Station {
	return []models.Station{
		{Name: "A", Line: "Red", StationID: 1, Latitude: 28.60, Longitude: 77.20},
		{Name: "B", Line: "Red", StationID: 2, Latitude: 28.61, Longitude: 77.21},
		{Name: "C", Line: "Red", StationID: 3, Latitude: 28.62, Longitude: 77.22},
		{Name: "B", Line: "Blue", StationID: 1, Latitude: 28.61, Longitude: 77.21},
		{Name: "D", Line: "Blue", StationID: 2, Latitude: 28.63, Longitude: 77.23},
	}
}

func setupMetroTest(stations []models.Station) (*MetroService, *fakeStationStore) {
	store := &fakeStationStore{
		stations: stations,
		lines: []models.MetroLine{
			{Name: "Blue", Color: models.LineColor("Blue"), TotalStations: 2},
			{Name: "Red", Color: models.LineColor("Red"), TotalStations: 3},
		},
	}
	return NewMetroService(store, database.NewNotifier(), routing.DefaultInterchangePenalty, quietLogger()), store
}

func TestPlanRailRoute(t *testing.T) {
	svc, _ := setupMetroTest(redBlueStations())
	ctx := context.Background()

	t.Run("Interchange", func(t *testing.T) {
		route, err := svc.PlanRailRoute(ctx, "a", "D")
		require.NoError(t, err)
		require.True(t, route.Connected)

		var names []string
		for _, s := range route.Path {
			names = append(names, s.Name+"/"+s.Line)
		}
		assert.Equal(t, []string{"A/Red", "B/Red", "B/Blue", "D/Blue"}, names)
		assert.Equal(t, 3, route.TotalStations)
		assert.Equal(t, 1, route.InterchangeCount)
		assert.Greater(t, route.DistanceKm, 0.0)
	})

	t.Run("Interchange station as origin", func(t *testing.T) {
		route, err := svc.PlanRailRoute(ctx, "B", "D")
		require.NoError(t, err)
		assert.Equal(t, "Blue", route.Source.Line)
		assert.Zero(t, route.InterchangeCount)
		assert.Equal(t, 1, route.TotalStations)
	})

	t.Run("Same station", func(t *testing.T) {
		route, err := svc.PlanRailRoute(ctx, "C", " c ")
		require.NoError(t, err)
		assert.Len(t, route.Path, 1)
		assert.Zero(t, route.TotalStations)
		assert.Zero(t, route.InterchangeCount)
	})

	t.Run("Unknown names", func(t *testing.T) {
		_, err := svc.PlanRailRoute(ctx, "Nowhere", "Elsewhere")
		var invalid *models.InvalidStationError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, []string{"Nowhere", "Elsewhere"}, invalid.Names)

		_, err = svc.PlanRailRoute(ctx, "A", "Elsewhere")
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, []string{"Elsewhere"}, invalid.Names)
	})
}

func TestPlanRailRoute_Disconnected(t *testing.T) {
	stations := append(redBlueStations(), models.Station{Name: "Island", Line: "Grey", StationID: 1})
	svc, _ := setupMetroTest(stations)

	route, err := svc.PlanRailRoute(context.Background(), "A", "Island")
	require.NoError(t, err)
	assert.False(t, route.Connected)
	require.Len(t, route.Path, 2)
	assert.Equal(t, "A", route.Path[0].Name)
	assert.Equal(t, "Island", route.Path[1].Name)
}

func TestMetroService_EmptyDataset(t *testing.T) {
	svc, _ := setupMetroTest(nil)
	ctx := context.Background()

	_, err := svc.PlanRailRoute(ctx, "A", "B")
	assert.ErrorIs(t, err, ErrRoutingUnavailable)

	_, err = svc.Stations(ctx)
	assert.ErrorIs(t, err, ErrRoutingUnavailable)
}

func TestFindStation(t *testing.T) {
	svc, store := setupMetroTest(redBlueStations())
	ctx := context.Background()

	st, err := svc.FindStation(ctx, "  b ")
	require.NoError(t, err)
	assert.Equal(t, "B", st.Name)
	assert.Zero(t, store.lookupCalls, "snapshot names are served from the index")

	// Present in the store but not yet in the snapshot
	store.extra = []models.Station{{Name: "Dwarka", Line: "Blue", StationID: 9}}
	st, err = svc.FindStation(ctx, "DWARKA")
	require.NoError(t, err)
	assert.Equal(t, "Dwarka", st.Name)
	_, err = svc.FindStation(ctx, "dwarka")
	require.NoError(t, err)
	assert.Equal(t, 1, store.lookupCalls)

	_, err = svc.FindStation(ctx, "Atlantis")
	var invalid *models.InvalidStationError
	assert.True(t, errors.As(err, &invalid))
}

func TestMetroService_RebuildOnChange(t *testing.T) {
	svc, store := setupMetroTest(redBlueStations())
	ctx := context.Background()

	held, err := svc.Cache().Get(ctx)
	require.NoError(t, err)
	heldCount := len(held.Stations)

	store.setStations(append(redBlueStations(), models.Station{Name: "E", Line: "Blue", StationID: 3}))
	_, err = svc.Cache().Rebuild(ctx)
	require.NoError(t, err)

	assert.Len(t, held.Stations, heldCount)
	route, err := svc.PlanRailRoute(ctx, "A", "E")
	require.NoError(t, err)
	assert.True(t, route.Connected)

	lines, err := svc.Lines(ctx)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestMetroService_HeldSnapshotResolvesOwnStations(t *testing.T) {
	svc, store := setupMetroTest(redBlueStations())
	ctx := context.Background()

	held, err := svc.Cache().Get(ctx)
	require.NoError(t, err)

	// Renumber the Red line so the new generation has different station keys
	renumbered := redBlueStations()
	for i := range renumbered {
		if renumbered[i].Line == "Red" {
			renumbered[i].StationID += 9
		}
	}
	store.setStations(renumbered)
	fresh, err := svc.Cache().Rebuild(ctx)
	require.NoError(t, err)
	require.NotSame(t, held, fresh)

	route, err := svc.planRailRoute(ctx, held, "A", "C")
	require.NoError(t, err)
	assert.True(t, route.Connected)
	require.Len(t, route.Path, 3)
	assert.Equal(t, 1, route.Path[0].StationID)

	route, err = svc.planRailRoute(ctx, fresh, "A", "C")
	require.NoError(t, err)
	assert.True(t, route.Connected)
	assert.Equal(t, 10, route.Path[0].StationID)
}

func TestMetroService_WithStationRepository(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	conn := &database.Conn{DB: sqlx.NewDb(mockDB, "sqlmock")}
	repo := database.NewStationRepository(conn, database.NewNotifier())
	svc := NewMetroService(repo, database.NewNotifier(), routing.DefaultInterchangePenalty, quietLogger())

	columns := []string{"name", "line", "station_id", "latitude", "longitude"}
	mock.ExpectQuery("SELECT (.+) FROM stations ORDER BY line, station_id").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("Kashmere Gate", "Red", 1, 28.6675, 77.2282).
			AddRow("Shastri Park", "Red", 2, 28.6682, 77.2503).
			AddRow("Kashmere Gate", "Yellow", 1, 28.6675, 77.2282).
			AddRow("Civil Lines", "Yellow", 2, 28.6770, 77.2250))
	mock.ExpectQuery("SELECT (.+) FROM metro_lines").
		WillReturnRows(sqlmock.NewRows([]string{"name", "color", "total_stations"}).
			AddRow("Red", "#D32F2F", 2).
			AddRow("Yellow", "#FFD700", 2))

	route, err := svc.PlanRailRoute(context.Background(), "Shastri Park", "Civil Lines")
	require.NoError(t, err)
	assert.Equal(t, 1, route.InterchangeCount)
	assert.Equal(t, 3, route.TotalStations)
	assert.NoError(t, mock.ExpectationsWereMet())
}
