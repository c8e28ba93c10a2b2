package jobs_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aide/internal/jobs"
)

func TestStartTwice(t *testing.T) {
	s := jobs.NewSupervisor()
	defer s.Stop("check_new_emails")

	var runs atomic.Int32
	unit := func() error {
		runs.Add(1)
		return nil
	}

	assert.True(t, s.Start("check_new_emails", time.Hour, unit))
	assert.False(t, s.Start("check_new_emails", time.Hour, unit))

	// the first unit runs immediately, the second only after an hour,
	// so exactly one worker ever ran
	assert.Eventually(t, func() bool { return runs.Load() == 1 },
		time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}

func TestStopAbsentKey(t *testing.T) {
	s := jobs.NewSupervisor()
	assert.False(t, s.Stop("check_new_emails"))
	assert.Empty(t, s.Keys())
}

func TestStopObservedWithinInterval(t *testing.T) {
	s := jobs.NewSupervisor()

	started := make(chan struct{})
	var once sync.Once
	unit := func() error {
		once.Do(func() { close(started) })
		return nil
	}

	require.True(t, s.Start("check_new_emails", 50*time.Millisecond, unit))
	<-started

	done := make(chan bool, 1)
	go func() { done <- s.Stop("check_new_emails") }()

	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("stop not observed within one polling interval")
	}
	assert.False(t, s.Running("check_new_emails"))
}

func TestStoppedWorkerRunsNoFurtherUnits(t *testing.T) {
	s := jobs.NewSupervisor()

	var runs atomic.Int32
	require.True(t, s.Start("poll", 10*time.Millisecond, func() error {
		runs.Add(1)
		return nil
	}))

	require.Eventually(t, func() bool { return runs.Load() >= 2 },
		time.Second, time.Millisecond)
	require.True(t, s.Stop("poll"))

	after := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestUnitErrorKeepsLoopAlive(t *testing.T) {
	s := jobs.NewSupervisor()
	defer s.Stop("poll")

	var runs atomic.Int32
	require.True(t, s.Start("poll", time.Millisecond, func() error {
		runs.Add(1)
		return errors.New("mailbox unreachable")
	}))

	assert.Eventually(t, func() bool { return runs.Load() >= 3 },
		time.Second, time.Millisecond)
}

func TestRestartAfterStop(t *testing.T) {
	s := jobs.NewSupervisor()
	defer s.Stop("poll")

	require.True(t, s.Start("poll", time.Hour, func() error { return nil }))
	require.True(t, s.Stop("poll"))
	assert.True(t, s.Start("poll", time.Hour, func() error { return nil }))
}

func TestConcurrentStartSingleWinner(t *testing.T) {
	s := jobs.NewSupervisor()
	defer s.Stop("check_new_emails")

	const n = 16
	var wins atomic.Int32
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Start("check_new_emails", time.Hour, func() error { return nil }) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestWatchSelfTerminates(t *testing.T) {
	s := jobs.NewSupervisor()

	var steps atomic.Int32
	done := make(chan struct{})
	s.Watch(time.Millisecond, func() (bool, error) {
		if steps.Add(1) == 3 {
			close(done)
			return true, nil
		}
		return false, nil
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch loop did not trigger")
	}

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(3), steps.Load(), "loop must stop after the match")
	assert.Empty(t, s.Keys(), "watch loops are not tracked by key")
}

func TestWatchNotDeduplicated(t *testing.T) {
	// unlike mail polling, two watchers for the same target are allowed
	// to run side by side
	s := jobs.NewSupervisor()

	var a, b atomic.Int32
	s.Watch(time.Millisecond, func() (bool, error) { return a.Add(1) >= 2, nil })
	s.Watch(time.Millisecond, func() (bool, error) { return b.Add(1) >= 2, nil })

	assert.Eventually(t, func() bool {
		return a.Load() >= 2 && b.Load() >= 2
	}, time.Second, time.Millisecond)
}
