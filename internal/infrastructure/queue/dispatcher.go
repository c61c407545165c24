package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/draftline/posts-service/internal/api/metrics"
	"github.com/draftline/posts-service/internal/core/domain"
	"github.com/draftline/posts-service/internal/core/ports"
)

const (
	defaultWorkers = 8
	defaultBuffer  = 256
)

// Dispatcher routes post events to a fixed set of workers using consistent
// hashing on the post id, guaranteeing per-post event ordering.
type Dispatcher struct {
	workers  []chan domain.PostEvent
	recorder ports.EventRecorder
	log      zerolog.Logger

	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

var _ ports.EventPublisher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers, each
// buffering up to buffer events. Non-positive values fall back to defaults.
func NewDispatcher(numWorkers, buffer int, recorder ports.EventRecorder, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	d := &Dispatcher{
		workers:  make([]chan domain.PostEvent, numWorkers),
		recorder: recorder,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.PostEvent, buffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their channel until
// Close is called; ctx is handed to the recorder.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Publish sends an event to the worker responsible for its post id.
// It never blocks: when the worker buffer is full the event is dropped.
func (d *Dispatcher) Publish(event domain.PostEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	idx := d.shardIndex(event.PostID)
	select {
	case d.workers[idx] <- event:
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.EventsDroppedTotal.Inc()
		d.log.Warn().
			Str("post_id", event.PostID).
			Str("type", string(event.Type)).
			Int("worker_id", idx).
			Msg("event buffer full, dropping post event")
	}
}

// Close stops accepting events and waits for the workers to drain what is
// already queued.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
		d.mu.Unlock()
	})
	d.wg.Wait()
}

// shardIndex maps a post id deterministically to a worker index.
func (d *Dispatcher) shardIndex(postID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(postID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.PostEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for event := range ch {
		metrics.EventsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
		if err := d.recorder.Record(ctx, event); err != nil {
			metrics.EventsErrorsTotal.Inc()
			d.log.Error().Err(err).
				Str("post_id", event.PostID).
				Int("worker_id", id).
				Msg("post event recording failed")
			continue
		}
		metrics.EventsRecordedTotal.WithLabelValues(string(event.Type)).Inc()
	}
}
