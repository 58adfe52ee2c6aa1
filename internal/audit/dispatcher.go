// Package audit records who changed which row. Dispatch never blocks or
// fails the operation being audited.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Action string

const (
	Create Action = "create"
	Update Action = "update"
	Delete Action = "delete"
	Rotate Action = "rotate_token"
	Expire Action = "expired"
)

// Entry matches the body of POST /api/audit.
type Entry struct {
	TableName string    `json:"table_name" binding:"required"`
	RecordID  string    `json:"record_id" binding:"required"`
	Action    Action    `json:"action" binding:"required"`
	ActorID   *uint     `json:"actor_id,omitempty"`
	At        time.Time `json:"at"`
}

// Sink writes entries somewhere durable.
type Sink interface {
	WriteAudit(ctx context.Context, e Entry) error
}

// Dispatcher queues entries on a buffered channel drained by one worker.
type Dispatcher struct {
	sink    Sink
	queue   chan Entry
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(sink Sink, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	d := &Dispatcher{
		sink:    sink,
		queue:   make(chan Entry, buffer),
		timeout: 5 * time.Second,
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for e := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.sink.WriteAudit(ctx, e); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"table":     e.TableName,
				"record_id": e.RecordID,
				"action":    e.Action,
			}).Warn("audit write failed")
		}
		cancel()
	}
}

// Record enqueues an entry. When the queue is full the entry is dropped and logged.
func (d *Dispatcher) Record(e Entry) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		logrus.WithField("table", e.TableName).Warn("audit dispatcher closed, dropping entry")
		return
	}
	select {
	case d.queue <- e:
	default:
		logrus.WithFields(logrus.Fields{
			"table":     e.TableName,
			"record_id": e.RecordID,
		}).Warn("audit queue full, dropping entry")
	}
}

// Close stops accepting entries and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}
