package v1

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// conversationLocks serializes turns per conversation. Entries are
// reference counted and dropped once no turn holds or waits on them.
type conversationLocks struct {
	mu    sync.Mutex
	locks map[string]*conversationLock
}

type conversationLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newConversationLocks() *conversationLocks {
	return &conversationLocks{locks: make(map[string]*conversationLock)}
}

// acquire blocks until the conversation is free or ctx ends.
func (l *conversationLocks) acquire(ctx context.Context, id string) (func(), error) {
	l.mu.Lock()
	cl, ok := l.locks[id]
	if !ok {
		cl = &conversationLock{sem: semaphore.NewWeighted(1)}
		l.locks[id] = cl
	}
	cl.refs++
	l.mu.Unlock()

	if err := cl.sem.Acquire(ctx, 1); err != nil {
		l.unref(id, cl)
		return nil, err
	}
	return func() {
		cl.sem.Release(1)
		l.unref(id, cl)
	}, nil
}

func (l *conversationLocks) unref(id string, cl *conversationLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cl.refs--
	if cl.refs == 0 {
		delete(l.locks, id)
	}
}

func (l *conversationLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
