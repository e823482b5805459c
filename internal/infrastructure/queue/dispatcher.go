package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rosterdesk/roster/internal/api/metrics"
	"github.com/rosterdesk/roster/internal/core/domain"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher fans session events out to the streams watching each session.
// Events are routed to a fixed set of workers using consistent hashing on the
// session id, so events for one session are delivered in order.
type Dispatcher struct {
	workers []chan domain.SessionEvent
	log     zerolog.Logger

	mu     sync.RWMutex
	subs   map[string]map[int]chan domain.SessionEvent
	nextID int
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.SessionEvent, numWorkers),
		log:     log,
		subs:    make(map[string]map[int]chan domain.SessionEvent),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.SessionEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Consume enqueues every event read from src until src is closed or ctx ends.
func (d *Dispatcher) Consume(ctx context.Context, src <-chan domain.SessionEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-src:
			if !ok {
				return
			}
			if !d.Enqueue(ctx, event) {
				return
			}
		}
	}
}

// Enqueue sends an event to the worker responsible for its session.
// The call is non-blocking up to channelBuffer capacity; past that it waits
// for the worker or for ctx. It reports false when ctx ended first.
func (d *Dispatcher) Enqueue(ctx context.Context, event domain.SessionEvent) bool {
	idx := d.shardIndex(event.SessionID)
	select {
	case d.workers[idx] <- event:
	case <-ctx.Done():
		metrics.SessionEventsDropped.WithLabelValues(string(event.Reason)).Inc()
		d.log.Warn().
			Str("session_id", event.SessionID).
			Str("reason", string(event.Reason)).
			Int("worker_id", idx).
			Msg("session event dropped on shutdown")
		return false
	}
	metrics.SessionEventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	return true
}

// Subscribe registers interest in events for sessionID. The returned cancel
// func must be called once the caller stops reading.
func (d *Dispatcher) Subscribe(sessionID string) (<-chan domain.SessionEvent, func()) {
	ch := make(chan domain.SessionEvent, 1)

	d.mu.Lock()
	id := d.nextID
	d.nextID++
	if d.subs[sessionID] == nil {
		d.subs[sessionID] = make(map[int]chan domain.SessionEvent)
	}
	d.subs[sessionID][id] = ch
	d.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.subs[sessionID], id)
			if len(d.subs[sessionID]) == 0 {
				delete(d.subs, sessionID)
			}
		})
	}
	return ch, cancel
}

// shardIndex maps a session id deterministically to a worker index.
func (d *Dispatcher) shardIndex(sessionID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.SessionEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.SessionEventsQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
			d.deliver(id, event)
		}
	}
}

func (d *Dispatcher) deliver(workerID int, event domain.SessionEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	delivered := 0
	for _, sub := range d.subs[event.SessionID] {
		select {
		case sub <- event:
			delivered++
		default:
			// The subscriber already holds an undelivered event; a session
			// only ends once.
		}
	}

	metrics.SessionEventsTotal.WithLabelValues(string(event.Reason)).Inc()
	d.log.Debug().
		Str("session_id", event.SessionID).
		Str("reason", string(event.Reason)).
		Int("worker_id", workerID).
		Int("subscribers", delivered).
		Msg("session event dispatched")
}
