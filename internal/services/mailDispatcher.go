package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"ideabox/internal/metrics"
)

type EmailMessage struct {
	To      string
	Subject string
	HTML    string
}

// Dispatcher accepts emails for asynchronous delivery.
type Dispatcher interface {
	Enqueue(msg EmailMessage) bool
}

// MailDispatcher delivers queued emails on a fixed pool of workers. Failed
// deliveries are logged and counted, never reported back to the enqueuer.
type MailDispatcher struct {
	sender EmailService
	queue  chan EmailMessage
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewMailDispatcher(sender EmailService, workers, queueSize int) *MailDispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	d := &MailDispatcher{
		sender: sender,
		queue:  make(chan EmailMessage, queueSize),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work(i)
	}
	log.Info().Int("workers", workers).Int("queue_size", queueSize).Msg("Mail dispatcher started")
	return d
}

// Enqueue hands msg to a worker without blocking. It returns false when the
// dispatcher is closed or the queue is full; the message is dropped.
func (d *MailDispatcher) Enqueue(msg EmailMessage) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		log.Warn().Str("to", msg.To).Msg("Mail dispatcher closed, email dropped")
		metrics.EmailDeliveriesTotal.WithLabelValues("dropped").Inc()
		return false
	}

	metrics.MailQueueDepth.Inc()
	select {
	case d.queue <- msg:
		return true
	default:
		metrics.MailQueueDepth.Dec()
		log.Warn().Str("to", msg.To).Msg("Mail queue full, email dropped")
		metrics.EmailDeliveriesTotal.WithLabelValues("dropped").Inc()
		return false
	}
}

func (d *MailDispatcher) work(id int) {
	defer d.wg.Done()
	for msg := range d.queue {
		metrics.MailQueueDepth.Dec()
		if err := d.deliver(msg); err != nil {
			metrics.EmailDeliveriesTotal.WithLabelValues("failed").Inc()
			log.Error().Err(err).Int("worker", id).Str("to", msg.To).Msg("Email delivery failed")
			continue
		}
		metrics.EmailDeliveriesTotal.WithLabelValues("sent").Inc()
		log.Info().Int("worker", id).Str("to", msg.To).Msg("Email sent")
	}
}

func (d *MailDispatcher) deliver(msg EmailMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrDelivery, r)
		}
	}()
	if err := d.sender.SendEmail(msg.To, msg.Subject, msg.HTML); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

// Close stops accepting emails and waits for queued ones to be attempted,
// or for ctx to end.
func (d *MailDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("Mail dispatcher drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
