package database

import "sync"

// EntityKind names a table whose changes can be observed
type EntityKind string

const (
	KindStations  EntityKind = "stations"
	KindLines     EntityKind = "metro_lines"
	KindAgencies  EntityKind = "bus_agencies"
	KindRoutes    EntityKind = "bus_routes"
	KindStops     EntityKind = "bus_stops"
	KindTrips     EntityKind = "bus_trips"
	KindStopTimes EntityKind = "bus_stop_times"
	KindCombined  EntityKind = "combined_bus_data"
)

// Notifier fans out "data changed" signals per entity kind.
// Each subscription is a one-slot channel, so bursts of writes collapse
// into a single pending signal and publishers never block.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[EntityKind]map[int]chan struct{}
}

// NewNotifier creates an empty notifier
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[EntityKind]map[int]chan struct{})}
}

// Subscribe returns a channel signalled whenever any of the kinds changes,
// and a function that cancels the subscription
func (n *Notifier) Subscribe(kinds ...EntityKind) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	for _, kind := range kinds {
		if n.subs[kind] == nil {
			n.subs[kind] = make(map[int]chan struct{})
		}
		n.subs[kind][id] = ch
	}
	n.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for _, kind := range kinds {
				delete(n.subs[kind], id)
			}
		})
	}
	return ch, cancel
}

// Publish signals every subscriber of kind
func (n *Notifier) Publish(kind EntityKind) {
	if n == nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs[kind] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
