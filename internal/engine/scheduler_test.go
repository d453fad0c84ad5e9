package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mwhitaker/foia-archive/internal/archive"
	"github.com/mwhitaker/foia-archive/internal/archive/archivetest"
)

func TestSchedulerRunsImmediatelyThenStopsOnCancel(t *testing.T) {
	t.Parallel()

	store := archivetest.NewFakeStore()
	seedRooms(t, store, "https://a.example/room")
	crawler := &stubCrawler{}
	eng := newTestEngine(&stubDirectory{}, store, crawler, Config{Mode: archive.ModeSimulate})

	ctx, cancel := context.WithCancel(context.Background())
	sched := NewScheduler(eng, time.Hour, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	require.Eventually(t, func() bool {
		crawler.mu.Lock()
		defer crawler.mu.Unlock()
		return len(crawler.crawled) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestSchedulerSurvivesFailedCycles(t *testing.T) {
	t.Parallel()

	store := archivetest.NewFakeStore()
	dir := &stubDirectory{err: errors.New("upstream down")}
	eng := newTestEngine(dir, store, &stubCrawler{}, Config{Mode: archive.ModeSimulate})

	ctx, cancel := context.WithCancel(context.Background())
	sched := NewScheduler(eng, 10*time.Millisecond, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	// Let several failing ticks elapse; the daemon must keep going.
	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestNewSchedulerDefaultsInterval(t *testing.T) {
	t.Parallel()

	sched := NewScheduler(nil, 0, zap.NewNop())
	assert.Equal(t, 6*time.Hour, sched.interval)
}
