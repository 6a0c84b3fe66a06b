package framehistory

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	// Capacity is the fixed number of records held by every History.
	Capacity = 90
	// InvalidTimestamp marks a slot that has never been written.
	InvalidTimestamp int64 = -1
)

// EventType defines the kind of notable event emitted by the history.
type EventType string

const (
	EventWrapped     EventType = "Wrapped"
	EventOutOfOrder  EventType = "OutOfOrder"
	EventLookupMiss  EventType = "LookupMiss"
	EventStaleCommit EventType = "StaleCommit"
)

// Event is a notification sent by the history on notable state changes.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Metadata  map[string]any
}

// Metrics holds counters for a History.
type Metrics struct {
	Allocations  uint64  // Total calls to Allocate.
	Commits      uint64  // Poses committed through a live handle.
	StaleCommits uint64  // Commits rejected because the slot was recycled.
	Lookups      uint64  // Total FindClosest calls.
	Misses       uint64  // FindClosest calls that returned ErrNotFound.
	Wraps        uint64  // Times the write cursor returned to slot 0.
	OutOfOrder   uint64  // Allocations older than the previous allocation.
	Filled       int     // Slots currently holding a timestamp.
	MeanInterval float64 // Mean ticks between consecutive allocations.
	Jitter       float64 // Standard deviation of that interval.
}

// History is a fixed-size ring of hologram frame records, written by a pose
// producer and searched by a video compositor for the closest
// latency-compensated match.
//
// Writers (Allocate and Handle.CommitPose) are serialized internally. Readers
// never take a lock and always observe whole records.
type History struct {
	writeMu sync.Mutex
	slots   [Capacity]slot
	next    int
	lastTS  int64
	hasLast bool
	cadence cadenceMonitor

	allocs       atomic.Uint64
	commits      atomic.Uint64
	staleCommits atomic.Uint64
	lookups      atomic.Uint64
	misses       atomic.Uint64
	wraps        atomic.Uint64
	outOfOrder   atomic.Uint64
	meanInterval atomic.Uint64 // float64 bits
	jitter       atomic.Uint64 // float64 bits

	id      string
	logger  Logger
	eventCh chan<- Event
}

// Option configures a History.
type Option func(*History)

// WithLogger injects a logger for receiving internal diagnostic messages.
func WithLogger(logger Logger) Option {
	return func(h *History) { h.logger = logger }
}

// WithEventChannel provides a channel for the history to emit structured events.
// Events are dropped rather than blocking when the channel is full.
func WithEventChannel(eventCh chan<- Event) Option {
	return func(h *History) { h.eventCh = eventCh }
}

// WithID sets the instance id used to tag logs, events and metrics.
// A random UUID is used otherwise.
func WithID(id string) Option {
	return func(h *History) {
		if id != "" {
			h.id = id
		}
	}
}

// New creates an empty History. All Capacity slots are allocated here and
// start out holding InvalidTimestamp.
func New(opts ...Option) *History {
	h := &History{
		logger: &noopLogger{},
	}
	for i := range h.slots {
		h.slots[i].reset(i)
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.id == "" {
		h.id = uuid.NewString()
	}
	return h
}

// ID returns the instance id.
func (h *History) ID() string {
	return h.id
}

// Allocate claims the slot under the write cursor for a frame rendered at
// timestamp, overwriting the oldest record once the ring is full. The slot's
// pose starts as IdentityPose until the caller commits one through the
// returned handle. Allocate never fails.
func (h *History) Allocate(timestamp int64) *Handle {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	index := h.next
	seq := h.allocs.Add(1)
	h.slots[index].store(index, timestamp, seq, IdentityPose())

	if h.hasLast && timestamp < h.lastTS {
		h.outOfOrder.Add(1)
		h.logger.Debugf("Allocation at %d is older than previous allocation at %d.", timestamp, h.lastTS)
		h.emitEvent(EventOutOfOrder, map[string]any{"timestamp": timestamp, "previous": h.lastTS})
	}
	h.lastTS = timestamp
	h.hasLast = true
	h.cadence.addTimestamp(timestamp)
	mean, jitter := h.cadence.stats()
	h.meanInterval.Store(math.Float64bits(mean))
	h.jitter.Store(math.Float64bits(jitter))

	h.next = (h.next + 1) % Capacity
	if h.next == 0 {
		wraps := h.wraps.Add(1)
		if wraps == 1 {
			h.logger.Infof("History %s is full, oldest frames are now being overwritten.", h.id)
		}
		h.emitEvent(EventWrapped, map[string]any{"wraps": wraps})
	}

	return &Handle{h: h, index: index, seq: seq, timestamp: timestamp}
}

// FindClosest returns the record whose effective timestamp (stored timestamp
// plus offset) is nearest to timestamp. Records whose pose has been committed
// are preferred; an uncommitted record (Committed false, identity pose) is
// returned only when no committed record exists. Among equally near records
// the most recently allocated wins. It returns ErrNotFound when no slot has
// been filled.
//
// The result may be arbitrarily far from timestamp if the producer stalled;
// use FrameRecord.Distance to enforce a limit.
func (h *History) FindClosest(timestamp, offset int64) (FrameRecord, error) {
	h.lookups.Add(1)

	var best, pending FrameRecord
	var bestDist, pendingDist uint64
	found, foundPending := false, false
	for i := range h.slots {
		r := h.slots[i].load()
		if !r.Filled() {
			continue
		}
		d := r.Distance(timestamp, offset)
		if !r.Committed {
			if !foundPending || closer(d, r.Seq, pendingDist, pending.Seq) {
				pending, pendingDist, foundPending = r, d, true
			}
			continue
		}
		if !found || closer(d, r.Seq, bestDist, best.Seq) {
			best, bestDist, found = r, d, true
		}
	}

	switch {
	case found:
		return best, nil
	case foundPending:
		return pending, nil
	}
	h.misses.Add(1)
	h.logger.Debugf("No frame available for timestamp %d.", timestamp)
	h.emitEvent(EventLookupMiss, map[string]any{"timestamp": timestamp, "offset": offset})
	return FrameRecord{}, ErrNotFound
}

// closer reports whether a candidate at distance d with allocation seq beats
// the current best, breaking ties towards the more recent allocation.
func closer(d, seq, bestDist, bestSeq uint64) bool {
	return d < bestDist || (d == bestDist && seq > bestSeq)
}

// Latest returns the most recently allocated filled record.
func (h *History) Latest() (FrameRecord, error) {
	var latest FrameRecord
	found := false
	for i := range h.slots {
		r := h.slots[i].load()
		if r.Filled() && (!found || r.Seq > latest.Seq) {
			latest, found = r, true
		}
	}
	if !found {
		return FrameRecord{}, ErrNotFound
	}
	return latest, nil
}

// Filled returns the number of slots holding a timestamp.
func (h *History) Filled() int {
	n := 0
	for i := range h.slots {
		if h.slots[i].timestamp.Load() != InvalidTimestamp {
			n++
		}
	}
	return n
}

// Metrics returns a snapshot of the history's counters. It never blocks the
// producer.
func (h *History) Metrics() Metrics {
	return Metrics{
		Allocations:  h.allocs.Load(),
		Commits:      h.commits.Load(),
		StaleCommits: h.staleCommits.Load(),
		Lookups:      h.lookups.Load(),
		Misses:       h.misses.Load(),
		Wraps:        h.wraps.Load(),
		OutOfOrder:   h.outOfOrder.Load(),
		Filled:       h.Filled(),
		MeanInterval: math.Float64frombits(h.meanInterval.Load()),
		Jitter:       math.Float64frombits(h.jitter.Load()),
	}
}

func (h *History) emitEvent(eventType EventType, metadata map[string]any) {
	if h.eventCh == nil {
		return
	}
	if metadata == nil {
		metadata = make(map[string]any, 1)
	}
	metadata["history"] = h.id
	event := Event{Type: eventType, Timestamp: time.Now(), Metadata: metadata}
	select {
	case h.eventCh <- event:
	default: // Drop event if the channel is full to prevent blocking.
	}
}
