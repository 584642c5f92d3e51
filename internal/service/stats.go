package service

import (
	"sync"
	"time"

	"herald/internal/models"
)

// StatsRegister is the time-bounded event log behind the status query. Writes
// take the exclusive lock; Snapshot runs under the read lock so it sees a
// stable cut while writers queue briefly. Events older than the retention
// window never appear in a snapshot even before the next sweep.
type StatsRegister struct {
	mu           sync.RWMutex
	events       []models.StatEvent
	retention    time.Duration
	failureLimit int
	startedAt    time.Time
	now          func() time.Time
}

// NewStatsRegister creates a register with the given retention window and cap
// on the recent-failures list.
func NewStatsRegister(retention time.Duration, failureLimit int) *StatsRegister {
	return &StatsRegister{
		retention:    retention,
		failureLimit: failureLimit,
		startedAt:    time.Now(),
		now:          time.Now,
	}
}

// Record appends one event. Timestamp is filled in when the caller left it
// zero.
func (s *StatsRegister) Record(ev models.StatEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now()
	}
	s.events = append(s.events, ev)
}

// Snapshot computes the aggregate over events within the retention window at
// call time.
func (s *StatsRegister) Snapshot() models.StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	cutoff := now.Add(-s.retention)

	snap := models.StatusSnapshot{
		GeneratedAt:   now,
		Uptime:        now.Sub(s.startedAt),
		UptimeSeconds: int64(now.Sub(s.startedAt).Seconds()),
	}

	for _, ev := range s.events {
		if !ev.Timestamp.After(cutoff) {
			continue
		}
		snap.ProcessedLast24h++
		switch ev.Kind {
		case models.StatPublished:
			snap.PublishedLast24h++
		case models.StatProcessingFailed:
			snap.FailedLast24h++
		}
	}

	// Newest failures first, bounded regardless of failure volume.
	for i := len(s.events) - 1; i >= 0 && len(snap.RecentFailures) < s.failureLimit; i-- {
		ev := s.events[i]
		if ev.Kind != models.StatProcessingFailed || !ev.Timestamp.After(cutoff) {
			continue
		}
		snap.RecentFailures = append(snap.RecentFailures, models.FailureSummary{
			ChannelID: ev.ChannelID,
			Detail:    ev.Detail,
			Timestamp: ev.Timestamp,
		})
	}

	return snap
}

// Sweep discards events older than the retention window and returns how many
// were dropped.
func (s *StatsRegister) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.retention)
	kept := s.events[:0]
	removed := 0
	for _, ev := range s.events {
		if ev.Timestamp.After(cutoff) {
			kept = append(kept, ev)
		} else {
			removed++
		}
	}
	s.events = kept
	return removed
}

// Uptime reports how long the register (and so the process) has been alive.
func (s *StatsRegister) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now().Sub(s.startedAt)
}
