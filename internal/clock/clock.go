// Package clock supplies the current unix time to market operations.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() int64 // unix seconds
}

// System reads the wall clock.
type System struct{}

func (System) Now() int64 { return time.Now().Unix() }

// Fixed returns a settable time.
type Fixed struct {
	mu  sync.Mutex
	now int64
}

func NewFixed(now int64) *Fixed {
	return &Fixed{now: now}
}

func (f *Fixed) Now() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fixed) Set(now int64) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
}

func (f *Fixed) Advance(seconds int64) {
	f.mu.Lock()
	f.now += seconds
	f.mu.Unlock()
}
