package queue

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cecimongo/identity-api/internal/api/metrics"
	"github.com/cecimongo/identity-api/internal/core/domain"
	"github.com/cecimongo/identity-api/internal/core/ports"
	"github.com/cecimongo/identity-api/pkg/logger"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	sendTimeout    = 30 * time.Second
	maxAttempts    = 3
	defaultBackoff = time.Second
)

// Dispatcher is the outbound email queue. Messages are routed to a fixed set
// of workers by hashing the recipient, so mails to one address leave in the
// order they were enqueued. The queue lives in memory: mail still buffered
// when the process dies is lost.
type Dispatcher struct {
	workers []chan domain.Email
	sender  ports.EmailSender
	backoff time.Duration
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sender ports.EmailSender, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Email, numWorkers),
		sender:  sender,
		backoff: defaultBackoff,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Email, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers inherit the values of ctx
// but not its cancellation: they keep draining until Stop, so mail enqueued
// by requests still in flight during shutdown is delivered.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for i, ch := range d.workers {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.runWorker(ctx, i, ch)
		}()
	}
}

// Stop refuses new mail and waits for the workers to deliver what is
// queued. When ctx ends first, in-flight sends are aborted and the number of
// undelivered emails is reported.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info().Msg("outbox drained")
		return nil
	case <-ctx.Done():
		pending := d.pending()
		if d.cancel != nil {
			d.cancel()
		}
		return fmt.Errorf("outbox stop: %d emails undelivered: %w", pending, ctx.Err())
	}
}

// Enqueue hands an email to the worker responsible for its recipient. It
// never blocks: when that worker's buffer is full, or the dispatcher is
// stopped, the email is dropped and logged.
func (d *Dispatcher) Enqueue(email domain.Email) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	idx := d.shardIndex(email.To)
	if d.closed {
		d.drop(email, idx, "outbox stopped, email dropped")
		return
	}
	select {
	case d.workers[idx] <- email:
		metrics.OutboxDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.drop(email, idx, "outbox full, email dropped")
	}
}

func (d *Dispatcher) drop(email domain.Email, idx int, msg string) {
	metrics.EmailsTotal.WithLabelValues("dropped").Inc()
	d.log.Error().
		Str("to", logger.MaskEmail(email.To)).
		Int("worker_id", idx).
		Msg(msg)
}

func (d *Dispatcher) pending() int {
	n := 0
	for _, ch := range d.workers {
		n += len(ch)
	}
	return n
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(to)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Email) {
	depth := metrics.OutboxDepth.WithLabelValues(strconv.Itoa(id))
	for email := range ch {
		depth.Set(float64(len(ch)))
		d.deliver(ctx, id, email)
	}
}

// deliver tries the transport up to maxAttempts times with linear backoff.
func (d *Dispatcher) deliver(ctx context.Context, id int, email domain.Email) {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		err = d.sender.Send(sendCtx, email)
		cancel()
		metrics.EmailSendDuration.Observe(time.Since(start).Seconds())

		if err == nil {
			metrics.EmailsTotal.WithLabelValues("sent").Inc()
			d.log.Debug().Str("to", logger.MaskEmail(email.To)).Int("worker_id", id).Msg("email sent")
			return
		}

		d.log.Warn().Err(err).
			Str("to", logger.MaskEmail(email.To)).
			Int("worker_id", id).
			Int("attempt", attempt).
			Msg("email delivery failed")

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.backoff * time.Duration(attempt)):
		}
	}

	metrics.EmailsTotal.WithLabelValues("failed").Inc()
	d.log.Error().Err(err).Str("to", logger.MaskEmail(email.To)).Int("worker_id", id).Msg("email abandoned")
}
