// Copyright 2026 Cascalio Studio
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scheduler

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	st25r "github.com/Cascalio-Studio/spool-key"
	"github.com/Cascalio-Studio/spool-key/internal/chiptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestScheduler builds a scheduler on an initialized controller
// backed by the chip simulator.
func newTestScheduler(t *testing.T, cfg Config) (*Scheduler, *chiptest.Bus) {
	t.Helper()

	sim := chiptest.NewBus()
	ctrl, err := st25r.New(st25r.Config{Bus: sim, Clock: chiptest.NewClock()})
	require.NoError(t, err)
	sim.OnIRQ(ctrl.HandleInterrupt)
	require.NoError(t, ctrl.Initialize())

	cfg.Controller = ctrl
	sched, err := New(cfg)
	require.NoError(t, err)

	return sched, sim
}

func TestNewRequiresController(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.ErrorIs(t, err, st25r.ErrInvalidParam)
}

func TestSubmitBeforeStart(t *testing.T) {
	t.Parallel()

	sched, _ := newTestScheduler(t, Config{})

	_, err := sched.Submit(GetStatus{})
	require.ErrorIs(t, err, st25r.ErrNotInitialized)
}

func TestCommandsRunInSubmissionOrder(t *testing.T) {
	t.Parallel()

	sched, _ := newTestScheduler(t, Config{})

	// Hold the consumer inside the first callback so the remaining
	// commands queue up before any of them runs.
	gate := make(chan struct{})
	var mu sync.Mutex
	var order []uint64
	record := func(resp Response) {
		mu.Lock()
		order = append(order, resp.ID)
		mu.Unlock()
	}

	require.NoError(t, sched.Start())
	defer func() { require.NoError(t, sched.Stop()) }()

	first, err := sched.Submit(GetStatus{}, WithCallback(func(resp Response) {
		record(resp)
		<-gate
	}))
	require.NoError(t, err)

	// Mixed priorities; completion must still follow submission order.
	id1, err := sched.Submit(GetStatus{}, WithPriority(PriorityLow), WithCallback(record))
	require.NoError(t, err)
	id2, err := sched.Submit(GetStatus{}, WithPriority(PriorityCritical), WithCallback(record))
	require.NoError(t, err)
	id3, err := sched.Submit(GetStatus{}, WithPriority(PriorityNormal), WithCallback(record))
	require.NoError(t, err)

	close(gate)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 4
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{first, id1, id2, id3}, order)
	assert.Equal(t, []uint64{1, 2, 3, 4}, order, "request ids are monotonic")
}

func TestSubmitQueueFull(t *testing.T) {
	t.Parallel()

	sched, _ := newTestScheduler(t, Config{QueueSize: 1})
	require.NoError(t, sched.Start())
	defer func() { require.NoError(t, sched.Stop()) }()

	gate := make(chan struct{})
	_, err := sched.Submit(GetStatus{}, WithCallback(func(Response) { <-gate }))
	require.NoError(t, err)

	// Give the consumer time to pick up the first command, then fill
	// the single queue slot.
	require.Eventually(t, func() bool {
		_, err := sched.Submit(GetStatus{})
		return err == nil
	}, time.Second, time.Millisecond)

	_, err = sched.Submit(GetStatus{})
	require.ErrorIs(t, err, st25r.ErrTimeout)

	close(gate)
}

func TestReadWithoutDetectedTag(t *testing.T) {
	t.Parallel()

	sched, _ := newTestScheduler(t, Config{PollInterval: time.Hour})
	require.NoError(t, sched.Start())
	defer func() { require.NoError(t, sched.Stop()) }()

	done := make(chan Response, 1)
	_, err := sched.Submit(ReadText{}, WithCallback(func(resp Response) { done <- resp }))
	require.NoError(t, err)

	resp := <-done
	require.ErrorIs(t, resp.Err, st25r.ErrNoTagFound)
}

func TestDetectionDeliversTagAndFeedsReads(t *testing.T) {
	t.Parallel()

	sched, sim := newTestScheduler(t, Config{PollInterval: 5 * time.Millisecond})
	require.NoError(t, sched.Start())
	defer func() { require.NoError(t, sched.Stop()) }()

	// One successful detection round: ATQA then UID.
	sim.ScriptResponse([]byte{0x04, 0x00})
	sim.ScriptResponse([]byte{0x11, 0x22, 0x33, 0x44, 0x44})

	_, err := sched.Submit(StartDetection{})
	require.NoError(t, err)

	var tag *st25r.TagInfo
	require.Eventually(t, func() bool {
		select {
		case resp := <-sched.Responses():
			if resp.Command == nil && resp.Tag != nil {
				tag = resp.Tag
				return true
			}
		default:
		}
		return false
	}, time.Second, time.Millisecond)

	require.NotNil(t, tag)
	assert.Equal(t, st25r.TagTypeMIFAREClassic, tag.Type)
	assert.Equal(t, []byte{0x11, 0x22, 0x33, 0x44}, tag.UID)

	done := make(chan Response, 1)
	_, err = sched.Submit(ReadUID{}, WithCallback(func(resp Response) { done <- resp }))
	require.NoError(t, err)

	resp := <-done
	require.NoError(t, resp.Err)
	assert.Equal(t, []byte{0x11, 0x22, 0x33, 0x44}, resp.Data)

	stats := sched.Stats()
	assert.True(t, stats.DetectionActive)
	assert.NotNil(t, stats.LastTag)
}

func TestStopDetectionClearsTag(t *testing.T) {
	t.Parallel()

	sched, sim := newTestScheduler(t, Config{PollInterval: 5 * time.Millisecond})
	require.NoError(t, sched.Start())
	defer func() { require.NoError(t, sched.Stop()) }()

	sim.ScriptResponse([]byte{0x04, 0x00})
	sim.ScriptResponse([]byte{0x11, 0x22, 0x33, 0x44, 0x44})

	_, err := sched.Submit(StartDetection{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return sched.Stats().LastTag != nil
	}, time.Second, time.Millisecond)

	done := make(chan Response, 1)
	_, err = sched.Submit(StopDetection{}, WithCallback(func(resp Response) { done <- resp }))
	require.NoError(t, err)
	require.NoError(t, (<-done).Err)

	stats := sched.Stats()
	assert.False(t, stats.DetectionActive)
	assert.Nil(t, stats.LastTag)
}

func TestGetStatus(t *testing.T) {
	t.Parallel()

	sched, _ := newTestScheduler(t, Config{PollInterval: time.Hour})
	require.NoError(t, sched.Start())
	defer func() { require.NoError(t, sched.Stop()) }()

	sched.NotifyInterrupt()
	require.Eventually(t, func() bool {
		return sched.Stats().Interrupts >= 1
	}, time.Second, time.Millisecond)

	done := make(chan Response, 1)
	_, err := sched.Submit(GetStatus{}, WithCallback(func(resp Response) { done <- resp }))
	require.NoError(t, err)

	resp := <-done
	require.NoError(t, resp.Err)
	require.NotNil(t, resp.Stats)
	assert.GreaterOrEqual(t, resp.Stats.Interrupts, uint64(1))
}

func TestStopFailsPendingCommands(t *testing.T) {
	t.Parallel()

	sched, _ := newTestScheduler(t, Config{QueueSize: 4})
	require.NoError(t, sched.Start())

	gate := make(chan struct{})
	_, err := sched.Submit(GetStatus{}, WithCallback(func(Response) { <-gate }))
	require.NoError(t, err)

	done := make(chan Response, 1)
	require.Eventually(t, func() bool {
		_, err := sched.Submit(GetStatus{}, WithCallback(func(resp Response) { done <- resp }))
		return err == nil
	}, time.Second, time.Millisecond)

	close(gate)
	require.NoError(t, sched.Stop())

	select {
	case resp := <-done:
		// Either executed before the stop or failed during the drain.
		if resp.Err != nil {
			require.ErrorIs(t, resp.Err, st25r.ErrNotInitialized)
		}
	case <-time.After(time.Second):
		t.Fatal("queued command never resolved")
	}
}

func TestSubmissionsRacingStopAllResolve(t *testing.T) {
	t.Parallel()

	sched, _ := newTestScheduler(t, Config{QueueSize: 4})
	require.NoError(t, sched.Start())

	// Hammer Submit from several goroutines while Stop runs; every
	// accepted request must see its callback, either with a result or
	// with the shutdown failure.
	var accepted, resolved atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				_, err := sched.Submit(GetStatus{}, WithCallback(func(Response) {
					resolved.Add(1)
				}))
				if err == nil {
					accepted.Add(1)
					continue
				}
				if errors.Is(err, st25r.ErrNotInitialized) {
					return
				}
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, sched.Stop())
	wg.Wait()

	require.Eventually(t, func() bool {
		return resolved.Load() == accepted.Load()
	}, time.Second, time.Millisecond, "accepted=%d resolved=%d", accepted.Load(), resolved.Load())
}

func TestSetFieldCommand(t *testing.T) {
	t.Parallel()

	sched, sim := newTestScheduler(t, Config{PollInterval: time.Hour})
	require.NoError(t, sched.Start())
	defer func() { require.NoError(t, sched.Stop()) }()

	done := make(chan Response, 1)
	_, err := sched.Submit(SetField{On: true}, WithCallback(func(resp Response) { done <- resp }))
	require.NoError(t, err)
	require.NoError(t, (<-done).Err)

	assert.NotZero(t, sim.Register(0x02)&0x01, "oscillator enable bit")
}
