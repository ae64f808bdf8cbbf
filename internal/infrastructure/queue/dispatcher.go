package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicore/clinic-api/internal/api/metrics"
	"github.com/clinicore/clinic-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	notifyTimeout  = 10 * time.Second
)

// Dispatcher routes issued invitations to a fixed set of workers using
// consistent hashing on the clinic id, so one clinic's invitations are
// delivered in issue order.
type Dispatcher struct {
	workers  []chan ports.InvitationIssued
	notifier ports.InvitationNotifier
	log      zerolog.Logger
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, notifier ports.InvitationNotifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan ports.InvitationIssued, numWorkers),
		notifier: notifier,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.InvitationIssued, channelBuffer)
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

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Publish hands ev to the worker responsible for its clinic. It never blocks:
// when the worker's buffer is full the notification is dropped and logged.
func (d *Dispatcher) Publish(ev ports.InvitationIssued) {
	idx := d.shardIndex(ev.ClinicID)
	select {
	case d.workers[idx] <- ev:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.InvitationNotificationsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().
			Str("invitation_id", ev.InvitationID).
			Str("clinic_id", ev.ClinicID).
			Int("worker_id", idx).
			Msg("invitation queue full, notification dropped")
	}
}

// shardIndex maps a clinic id deterministically to a worker index.
func (d *Dispatcher) shardIndex(clinicID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(clinicID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.InvitationIssued) {
	defer d.wg.Done()
	depth := metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.deliver(ctx, id, ev)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, ev ports.InvitationIssued) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	start := time.Now()
	result := metrics.ResultSuccess
	if err := d.notifier.NotifyInvitation(ctx, ev); err != nil {
		result = metrics.ResultError
		d.log.Error().Err(err).
			Str("invitation_id", ev.InvitationID).
			Str("clinic_id", ev.ClinicID).
			Int("worker_id", id).
			Msg("invitation notification failed")
	}
	metrics.NotificationDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	metrics.InvitationNotificationsTotal.WithLabelValues(result).Inc()
}
