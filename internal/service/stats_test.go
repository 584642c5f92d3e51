package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"herald/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestStatsRegister_SnapshotCounts(t *testing.T) {
	register := NewStatsRegister(24*time.Hour, 10)

	register.Record(models.StatEvent{Kind: models.StatPublished, ChannelID: "c1"})
	register.Record(models.StatEvent{Kind: models.StatPublished, ChannelID: "c2"})
	register.Record(models.StatEvent{Kind: models.StatProcessingFailed, ChannelID: "c1", Detail: "boom"})
	register.Record(models.StatEvent{Kind: models.StatMessageSeen, ChannelID: "c3"})

	snap := register.Snapshot()
	assert.Equal(t, 2, snap.PublishedLast24h)
	assert.Equal(t, 1, snap.FailedLast24h)
	assert.Equal(t, 4, snap.ProcessedLast24h)
	assert.Len(t, snap.RecentFailures, 1)
	assert.Equal(t, "boom", snap.RecentFailures[0].Detail)
}

func TestStatsRegister_OldEventsExcludedFromSnapshot(t *testing.T) {
	register := NewStatsRegister(24*time.Hour, 10)

	now := time.Now()
	register.now = func() time.Time { return now }

	register.Record(models.StatEvent{Kind: models.StatPublished, ChannelID: "c1"})
	now = now.Add(25 * time.Hour)
	register.Record(models.StatEvent{Kind: models.StatPublished, ChannelID: "c2"})

	// Even before a sweep runs, expired events never show up in a snapshot.
	snap := register.Snapshot()
	assert.Equal(t, 1, snap.PublishedLast24h)
}

func TestStatsRegister_RecentFailuresCapped(t *testing.T) {
	register := NewStatsRegister(24*time.Hour, 10)

	for i := 0; i < 50; i++ {
		register.Record(models.StatEvent{
			Kind:      models.StatProcessingFailed,
			ChannelID: "c1",
			Detail:    fmt.Sprintf("failure %d", i),
		})
	}

	snap := register.Snapshot()
	assert.Len(t, snap.RecentFailures, 10)
	// Newest first, oldest dropped.
	assert.Equal(t, "failure 49", snap.RecentFailures[0].Detail)
	assert.Equal(t, "failure 40", snap.RecentFailures[9].Detail)
}

func TestStatsRegister_Sweep(t *testing.T) {
	register := NewStatsRegister(24*time.Hour, 10)

	now := time.Now()
	register.now = func() time.Time { return now }

	register.Record(models.StatEvent{Kind: models.StatPublished, ChannelID: "c1"})
	now = now.Add(25 * time.Hour)
	register.Record(models.StatEvent{Kind: models.StatPublished, ChannelID: "c2"})

	removed := register.Sweep()
	assert.Equal(t, 1, removed)

	snap := register.Snapshot()
	assert.Equal(t, 1, snap.PublishedLast24h)
}

func TestStatsRegister_ConcurrentAccess(t *testing.T) {
	register := NewStatsRegister(24*time.Hour, 10)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			register.Record(models.StatEvent{Kind: models.StatPublished, ChannelID: "c"})
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = register.Snapshot()
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		register.Sweep()
	}()
	wg.Wait()

	assert.Equal(t, 20, register.Snapshot().PublishedLast24h)
}

func TestStatsRegister_Uptime(t *testing.T) {
	register := NewStatsRegister(24*time.Hour, 10)

	now := register.startedAt.Add(90 * time.Minute)
	register.now = func() time.Time { return now }

	snap := register.Snapshot()
	assert.Equal(t, 90*time.Minute, snap.Uptime)
	assert.Equal(t, int64(5400), snap.UptimeSeconds)
}
