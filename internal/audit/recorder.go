package audit

import (
	"context"
	"sync"
)

// Recorder es un Logger en memoria para tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Log(ctx context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ev.Status == "" {
		ev.Status = "success"
	}
	r.events = append(r.events, ev)
}

// Events retorna una copia de los eventos registrados.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
