// Package roster keeps the participant list of a call in sync with the
// conferencing SDK and publishes it in coalesced batches.
package roster

import (
	"sync"
	"time"

	"github.com/damione1/recording-view/internal/models"
)

type opKind int

const (
	opInitialize opKind = iota
	opJoin
	opLeave
	opVideo
)

type op struct {
	kind        opKind
	snapshot    []models.Participant
	participant models.Participant
	id          string
	videoReady  bool
}

func (o op) apply(r Roster) Roster {
	switch o.kind {
	case opInitialize:
		return New(o.snapshot)
	case opJoin:
		return r.Join(o.participant)
	case opLeave:
		return r.Leave(o.id)
	case opVideo:
		return r.SetVideoReady(o.id, o.videoReady)
	}
	return r
}

// Observer receives the roster after each applied batch. It may queue more
// operations on the tracker; they are applied once it returns. It must not
// call Flush or Close.
type Observer func(Roster)

type subscription struct {
	id int
	fn Observer
}

// Tracker owns the roster of one call. Mutations are queued and applied in
// arrival order once per coalescing window; observers are notified once per
// batch that changed the roster.
type Tracker struct {
	batcher *Coalescer[op]

	mu        sync.RWMutex
	roster    Roster
	observers []subscription
	nextID    int
	batches   uint64
}

// NewTracker creates an empty tracker. A zero window applies every
// operation immediately.
func NewTracker(window time.Duration) *Tracker {
	t := &Tracker{
		roster: New(nil),
	}
	t.batcher = NewCoalescer(window, t.applyBatch)
	return t
}

// Initialize replaces the roster with snapshot. It can be called again
// whenever the SDK hands out a fresh snapshot, e.g. after a reconnect.
func (t *Tracker) Initialize(snapshot []models.Participant) {
	s := make([]models.Participant, len(snapshot))
	copy(s, snapshot)
	t.batcher.Add(op{kind: opInitialize, snapshot: s})
}

// OnJoin adds p. Joining twice with the same ID is a no-op.
func (t *Tracker) OnJoin(p models.Participant) {
	t.batcher.Add(op{kind: opJoin, participant: p})
}

// OnLeave removes the participant with id. Unknown IDs are a no-op.
func (t *Tracker) OnLeave(id string) {
	t.batcher.Add(op{kind: opLeave, id: id})
}

// OnVideoUpdate records whether a participant's video track is ready.
func (t *Tracker) OnVideoUpdate(id string, ready bool) {
	t.batcher.Add(op{kind: opVideo, id: id, videoReady: ready})
}

// Subscribe registers fn and returns a func that removes it.
func (t *Tracker) Subscribe(fn Observer) (unsubscribe func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.observers = append(t.observers, subscription{id: id, fn: fn})
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, s := range t.observers {
			if s.id == id {
				t.observers = append(t.observers[:i:i], t.observers[i+1:]...)
				return
			}
		}
	}
}

// Roster returns the last published roster.
func (t *Tracker) Roster() Roster {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.roster
}

// Batches returns how many batches changed the roster so far.
func (t *Tracker) Batches() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.batches
}

// Flush applies pending operations without waiting for the window to close.
func (t *Tracker) Flush() {
	t.batcher.Flush()
}

// Close applies pending operations and ignores everything after.
func (t *Tracker) Close() {
	t.batcher.Close()
}

func (t *Tracker) applyBatch(ops []op) {
	t.mu.Lock()
	next := t.roster
	for _, o := range ops {
		next = o.apply(next)
	}
	if next.Equal(t.roster) {
		t.mu.Unlock()
		return
	}
	t.roster = next
	t.batches++
	observers := make([]Observer, 0, len(t.observers))
	for _, s := range t.observers {
		observers = append(observers, s.fn)
	}
	t.mu.Unlock()

	for _, fn := range observers {
		fn(next)
	}
}
