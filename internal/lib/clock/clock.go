// Package clock абстрагирует текущее время, чтобы фоновые задачи
// можно было тестировать без ожидания реальных дат.
package clock

import (
	"sync"
	"time"
)

// Clock источник текущего времени.
type Clock interface {
	Now() time.Time
}

// Real возвращает системное время в UTC.
type Real struct{}

// Now возвращает текущее время.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Manual часы, время которых меняется только вручную.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual создаёт часы, остановленные на указанном моменте.
func NewManual(now time.Time) *Manual {
	return &Manual{now: now}
}

// Now возвращает установленное время.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance сдвигает время вперёд.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set устанавливает время.
func (m *Manual) Set(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}
