// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package bme680

import (
	"sync"
	"time"

	"github.com/airgauge/airgauge/internal/wallclock"
)

// Monitor caches the most recent reading for consumers that must not block
// on the sensor cadence (publishers, metrics, alerting). One acquisition
// loop calls Update; any number of goroutines may read.
type Monitor struct {
	mu        sync.RWMutex
	last      Reading
	updatedAt time.Time
	reads     uint64
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// Update stores a fresh reading and advances the read counter.
func (m *Monitor) Update(r Reading) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = r
	m.updatedAt = wallclock.Instance.Now()
	m.reads++
}

// Last returns the most recent reading and whether one has been stored yet.
func (m *Monitor) Last() (Reading, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last, m.reads > 0
}

// Reads returns the number of updates so far.
func (m *Monitor) Reads() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reads
}

// UpdatedAt returns when the cached reading was stored, or the zero time if
// none has been.
func (m *Monitor) UpdatedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updatedAt
}
