// Package clock предоставляет абстракцию времени.
//
// Session и Handler получают Clock через конструктор,
// чтобы тесты могли подставить фиксированное время.
package clock

import (
	"sync"
	"time"
)

// Clock — источник текущего времени.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// NewReal возвращает Clock на основе time.Now.
func NewReal() Clock {
	return realClock{}
}

// Fake — управляемые часы для тестов.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake создаёт Fake, показывающий now.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now возвращает установленное время.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set устанавливает текущее время.
func (f *Fake) Set(now time.Time) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
}

// Advance сдвигает время вперёд на d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
