package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
	"github.com/allergytrack/allergy-tracker/internal/core/ports"
	"github.com/allergytrack/allergy-tracker/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	sinkTimeout    = 10 * time.Second
)

// Sink receives every change event. Name labels logs and metrics.
type Sink struct {
	Name   string
	Handle func(ctx context.Context, event domain.ChangeEvent) error
}

// AuditSink stores events in the audit trail.
func AuditSink(repo ports.AuditRepository) Sink {
	return Sink{Name: "audit", Handle: repo.Insert}
}

// PublisherSink forwards events to a message broker.
func PublisherSink(pub ports.EventPublisher) Sink {
	return Sink{Name: "kafka", Handle: pub.Publish}
}

// Dispatcher routes change events to a fixed set of workers using consistent
// hashing on the entity key, guaranteeing per-entity event ordering. It
// implements ports.EventNotifier.
type Dispatcher struct {
	workers []chan domain.ChangeEvent
	sinks   []Sink
	log     zerolog.Logger
	wg      sync.WaitGroup

	// mu guards closed. Enqueue holds the read lock across its send so
	// Close cannot close a channel mid-send.
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers, each
// buffering up to queueSize events. Non-positive values select the defaults.
func NewDispatcher(numWorkers, queueSize int, sinks []Sink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = channelBuffer
	}
	d := &Dispatcher{
		workers: make([]chan domain.ChangeEvent, numWorkers),
		sinks:   sinks,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.ChangeEvent, queueSize)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Close stops intake. Workers deliver what is already queued and then
// return. Events enqueued after Close are dropped and counted. Safe to call
// more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands an event to the worker responsible for its entity. It never
// blocks: when that worker's queue is full, or the dispatcher is closed, the
// event is dropped and counted.
func (d *Dispatcher) Enqueue(event domain.ChangeEvent) {
	idx := d.shardIndex(event.Key())

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.EventsDroppedTotal.Inc()
		d.log.Warn().
			Str("key", event.Key()).
			Str("action", string(event.Action)).
			Msg("dispatcher closed, dropping change event")
		return
	}

	select {
	case d.workers[idx] <- event:
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.EventsDroppedTotal.Inc()
		d.log.Warn().
			Str("key", event.Key()).
			Str("action", string(event.Action)).
			Int("worker_id", idx).
			Msg("event queue full, dropping change event")
	}
}

// shardIndex maps an entity key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.ChangeEvent) {
	defer d.wg.Done()
	depth := metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			d.deliver(ctx, id, event)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, workerID int, event domain.ChangeEvent) {
	for _, sink := range d.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, sinkTimeout)
		err := sink.Handle(sinkCtx, event)
		cancel()

		if err != nil {
			metrics.EventsFailedTotal.WithLabelValues(sink.Name).Inc()
			d.log.Error().Err(err).
				Str("sink", sink.Name).
				Str("key", event.Key()).
				Str("event_id", event.ID).
				Int("worker_id", workerID).
				Msg("change event delivery failed")
			continue
		}
		metrics.EventsDeliveredTotal.WithLabelValues(sink.Name, string(event.Action)).Inc()
	}
}
