package service

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// conversationLocks serializes sends that share a conversation id, so turns
// are appended in the order their replies were generated.
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

// lock blocks until id is free or ctx is done. The returned func releases it.
func (c *conversationLocks) lock(ctx context.Context, id string) (func(), error) {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &conversationLock{sem: semaphore.NewWeighted(1)}
		c.locks[id] = l
	}
	l.refs++
	c.mu.Unlock()

	if err := l.sem.Acquire(ctx, 1); err != nil {
		c.done(id, l)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.sem.Release(1)
			c.done(id, l)
		})
	}, nil
}

func (c *conversationLocks) done(id string, l *conversationLock) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(c.locks, id)
	}
}

func (c *conversationLocks) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.locks)
}
