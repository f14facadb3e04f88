// Package projectlock serializes state changes per project within a process.
//
// A Project is the only contested record in the collaboration workflow: two
// approvals racing for the same supervisor slot or the last member slot must
// not both pass re-validation. Holding the project's lock across
// "re-validate, mutate project, mutate users, finalize request" gives that
// guarantee for this process; conditional updates in the project store give it
// across processes.
package projectlock

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Locks is a set of per-project mutexes. Entries are reference counted and
// removed when no goroutine holds or waits for them.
type Locks struct {
	mu sync.Mutex
	m  map[primitive.ObjectID]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

// New returns an empty lock set.
func New() *Locks {
	return &Locks{m: make(map[primitive.ObjectID]*entry)}
}

// Lock acquires the lock for id, waiting until it is free or ctx is done.
// The returned unlock func must be called exactly once.
func (l *Locks) Lock(ctx context.Context, id primitive.ObjectID) (func(), error) {
	e := l.acquireRef(id)

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.releaseRef(id, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.releaseRef(id, e)
		})
	}, nil
}

// Len reports how many project ids currently have a live entry.
func (l *Locks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

func (l *Locks) acquireRef(id primitive.ObjectID) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.m[id]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.m[id] = e
	}
	e.refs++
	return e
}

func (l *Locks) releaseRef(id primitive.ObjectID, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.m, id)
	}
}
