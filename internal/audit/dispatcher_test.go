package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type memorySink struct {
	mu      sync.Mutex
	entries []Entry
	fail    bool
	block   chan struct{}
}

func (m *memorySink) WriteAudit(_ context.Context, e Entry) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("db down")
	}
	m.entries = append(m.entries, e)
	return nil
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	sink := &memorySink{}
	d := NewDispatcher(sink, 10)
	for i := 0; i < 5; i++ {
		d.Record(Entry{TableName: "drivers", RecordID: "1", Action: Update})
	}
	d.Close()
	if len(sink.entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(sink.entries))
	}
	if sink.entries[0].At.IsZero() {
		t.Fatalf("expected timestamp to be filled")
	}
}

func TestDispatcherFailuresAreSwallowed(t *testing.T) {
	sink := &memorySink{fail: true}
	d := NewDispatcher(sink, 1)
	d.Record(Entry{TableName: "vehicles", RecordID: "2", Action: Delete})
	d.Close()
	if len(sink.entries) != 0 {
		t.Fatalf("expected nothing written")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &memorySink{block: make(chan struct{})}
	d := NewDispatcher(sink, 1)
	// worker picks up one entry and blocks, the next fills the buffer
	for i := 0; i < 10; i++ {
		d.Record(Entry{TableName: "schools", RecordID: "3", Action: Create})
	}
	close(sink.block)
	d.Close()
	if n := len(sink.entries); n < 1 || n > 2 {
		t.Fatalf("expected overflow entries dropped, got %d written", n)
	}
	d.Record(Entry{TableName: "schools", RecordID: "4", Action: Create})
}
