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

// Package scheduler serializes NFC commands onto a single controller.
//
// Callers submit commands from any goroutine; one consumer goroutine
// executes them strictly in submission order while holding a timed
// hardware lock. While detection is active the consumer also polls the
// field between commands and publishes detected tags as events on the
// response channel.
package scheduler

import (
	"fmt"
	"sync/atomic"
	"time"

	st25r "github.com/Cascalio-Studio/spool-key"
	"github.com/Cascalio-Studio/spool-key/internal/syncutil"
)

// Defaults applied when Config leaves the fields zero.
const (
	// DefaultQueueSize bounds the pending command queue.
	DefaultQueueSize = 10
	// DefaultResponseBuffer bounds the response channel.
	DefaultResponseBuffer = 10
	// DefaultLockTimeout bounds waiting for the hardware lock.
	DefaultLockTimeout = 5 * time.Second
	// DefaultPollInterval is the detection polling period.
	DefaultPollInterval = 150 * time.Millisecond
	// DefaultOpTimeout is the per-exchange budget for tag operations.
	DefaultOpTimeout = 100 * time.Millisecond
)

// Config carries the collaborators and budgets for a Scheduler.
type Config struct {
	// Controller is the initialized chip driver. Required.
	Controller *st25r.Controller

	// QueueSize bounds pending commands. Defaults to DefaultQueueSize.
	QueueSize int

	// ResponseBuffer bounds the response channel. Defaults to
	// DefaultResponseBuffer.
	ResponseBuffer int

	// LockTimeout bounds how long a command waits for the hardware
	// lock before failing with ErrTimeout. Defaults to
	// DefaultLockTimeout.
	LockTimeout time.Duration

	// SubmitTimeout is how long Submit blocks on a full queue before
	// failing. Zero means fail immediately.
	SubmitTimeout time.Duration

	// PollInterval is the detection polling period. Defaults to
	// DefaultPollInterval.
	PollInterval time.Duration

	// OpTimeout is the per-exchange budget passed to tag operations.
	// Defaults to DefaultOpTimeout.
	OpTimeout time.Duration
}

// Stats is a snapshot of the scheduler counters.
type Stats struct {
	// Processed counts completed commands.
	Processed uint64
	// QueueDepth is the number of commands waiting.
	QueueDepth int
	// Interrupts counts interrupt notifications seen by the loop.
	Interrupts uint64
	// DetectionActive reports whether polling is running.
	DetectionActive bool
	// LastTag is the most recently detected tag, nil when none.
	LastTag *st25r.TagInfo
}

// Scheduler owns the command queue and the consumer goroutine.
type Scheduler struct {
	ctrl *st25r.Controller
	cfg  Config

	cmds      chan request
	responses chan Response
	wake      chan struct{}
	stopc     chan struct{}
	done      chan struct{}

	// hwLock serializes hardware access between the consumer and any
	// caller driving the controller directly.
	hwLock chan struct{}

	nextID     atomic.Uint64
	processed  atomic.Uint64
	interrupts atomic.Uint64
	running    atomic.Bool

	mu        syncutil.RWMutex
	detecting bool
	lastTag   *st25r.TagInfo
}

// New builds a Scheduler around an initialized controller.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Controller == nil {
		return nil, fmt.Errorf("%w: nil controller", st25r.ErrInvalidParam)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.ResponseBuffer <= 0 {
		cfg.ResponseBuffer = DefaultResponseBuffer
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = DefaultOpTimeout
	}

	s := &Scheduler{
		ctrl:      cfg.Controller,
		cfg:       cfg,
		cmds:      make(chan request, cfg.QueueSize),
		responses: make(chan Response, cfg.ResponseBuffer),
		wake:      make(chan struct{}, 1),
		hwLock:    make(chan struct{}, 1),
	}
	s.hwLock <- struct{}{}

	return s, nil
}

// Start launches the consumer goroutine. Starting twice is an error.
func (s *Scheduler) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: scheduler already running", st25r.ErrInvalidParam)
	}

	s.stopc = make(chan struct{})
	s.done = make(chan struct{})
	go s.run()

	return nil
}

// Stop halts the consumer goroutine and waits for it to drain. Pending
// commands fail with ErrNotInitialized responses.
func (s *Scheduler) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	close(s.stopc)
	<-s.done

	// Catch requests that slipped onto the queue while the consumer
	// was shutting down.
	s.drain()

	return nil
}

// Submit enqueues a command and returns its request id. A full queue
// fails with ErrTimeout after the configured submit budget; a stopped
// scheduler fails with ErrNotInitialized.
func (s *Scheduler) Submit(cmd Command, opts ...SubmitOption) (uint64, error) {
	if cmd == nil {
		return 0, fmt.Errorf("%w: nil command", st25r.ErrInvalidParam)
	}
	if !s.running.Load() {
		return 0, st25r.ErrNotInitialized
	}

	req := request{
		id:       s.nextID.Add(1),
		cmd:      cmd,
		priority: PriorityNormal,
	}
	for _, opt := range opts {
		opt(&req)
	}

	if s.cfg.SubmitTimeout <= 0 {
		select {
		case s.cmds <- req:
			return s.settle(req.id)
		default:
			return 0, fmt.Errorf("%w: command queue full", st25r.ErrTimeout)
		}
	}

	timer := time.NewTimer(s.cfg.SubmitTimeout)
	defer timer.Stop()
	select {
	case s.cmds <- req:
		return s.settle(req.id)
	case <-timer.C:
		return 0, fmt.Errorf("%w: command queue full", st25r.ErrTimeout)
	}
}

// settle re-checks the running flag after a request landed on the queue.
// A Stop racing the enqueue may have drained already; draining here once
// more guarantees the late request still gets its failure response.
func (s *Scheduler) settle(id uint64) (uint64, error) {
	if !s.running.Load() {
		s.drain()
	}

	return id, nil
}

// SubmitOption customizes one submission.
type SubmitOption func(*request)

// WithPriority tags the request with a priority. Execution order is
// unaffected; the tag is echoed in the response.
func WithPriority(p Priority) SubmitOption {
	return func(r *request) { r.priority = p }
}

// WithCallback registers a per-request callback invoked on the consumer
// goroutine before the response is published.
func WithCallback(cb Callback) SubmitOption {
	return func(r *request) { r.callback = cb }
}

// Responses returns the channel command responses and detection events
// are published on. Slow consumers lose responses; delivery is best
// effort once the buffer is full.
func (s *Scheduler) Responses() <-chan Response {
	return s.responses
}

// NotifyInterrupt wakes the consumer loop after a chip interrupt. The
// loop only counts the notification; reception itself is handled inside
// the running command.
func (s *Scheduler) NotifyInterrupt() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Stats snapshots the scheduler counters.
func (s *Scheduler) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		Processed:       s.processed.Load(),
		QueueDepth:      len(s.cmds),
		Interrupts:      s.interrupts.Load(),
		DetectionActive: s.detecting,
		LastTag:         s.lastTag,
	}
}

// run is the consumer loop. Commands execute in arrival order; between
// commands the loop ticks the detection poll and notes interrupt
// notifications.
func (s *Scheduler) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopc:
			s.drain()
			return
		case req := <-s.cmds:
			s.process(req)
		case <-s.wake:
			s.interrupts.Add(1)
			st25r.Debugln("scheduler: interrupt noted")
		case <-ticker.C:
			s.pollDetection()
		}
	}
}

// drain fails every still-queued command so callers are not left waiting.
func (s *Scheduler) drain() {
	for {
		select {
		case req := <-s.cmds:
			s.publish(Response{
				ID:       req.id,
				Command:  req.cmd,
				Priority: req.priority,
				Err:      fmt.Errorf("%w: scheduler stopped", st25r.ErrNotInitialized),
				Finished: time.Now(),
			}, req.callback)
		default:
			return
		}
	}
}

// process executes one command under the hardware lock.
func (s *Scheduler) process(req request) {
	resp := Response{
		ID:       req.id,
		Command:  req.cmd,
		Priority: req.priority,
	}

	if !s.acquireLock(s.cfg.LockTimeout) {
		resp.Err = fmt.Errorf("%w: hardware lock not acquired within %v", st25r.ErrTimeout, s.cfg.LockTimeout)
	} else {
		s.execute(req.cmd, &resp)
		s.releaseLock()
	}

	resp.Finished = time.Now()
	s.processed.Add(1)
	s.publish(resp, req.callback)
}

func (s *Scheduler) acquireLock(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.hwLock:
		return true
	case <-timer.C:
		return false
	}
}

func (s *Scheduler) releaseLock() {
	s.hwLock <- struct{}{}
}

// execute dispatches one command against the controller.
func (s *Scheduler) execute(cmd Command, resp *Response) {
	op := s.cfg.OpTimeout

	switch c := cmd.(type) {
	case StartDetection:
		if err := s.ctrl.SetField(st25r.FieldOn); err != nil {
			resp.Err = err
			return
		}
		s.setDetecting(true)
	case StopDetection:
		s.setDetecting(false)
		resp.Err = s.ctrl.SetField(st25r.FieldOff)
	case SetField:
		field := st25r.FieldOff
		if c.On {
			field = st25r.FieldOn
		}
		resp.Err = s.ctrl.SetField(field)
	case GetStatus:
		stats := s.Stats()
		resp.Stats = &stats
	case ReadUID:
		tag, err := s.currentTag()
		if err != nil {
			resp.Err = err
			return
		}
		resp.Tag = tag
		resp.Data = tag.UID
	case ReadText:
		s.withTag(resp, func(tag *st25r.TagInfo) error {
			text, err := s.ctrl.ReadText(tag, op)
			resp.Text = text
			return err
		})
	case ReadURI:
		s.withTag(resp, func(tag *st25r.TagInfo) error {
			uri, err := s.ctrl.ReadURI(tag, op)
			resp.Text = uri
			return err
		})
	case ReadWiFi:
		s.withTag(resp, func(tag *st25r.TagInfo) error {
			cred, err := s.ctrl.ReadWiFi(tag, op)
			if err == nil {
				resp.WiFi = &cred
			}
			return err
		})
	case ReadTag:
		s.withTag(resp, func(tag *st25r.TagInfo) error {
			data, err := s.ctrl.ReadBlock(tag, c.Block, op)
			resp.Data = data
			return err
		})
	case WriteText:
		s.withTag(resp, func(tag *st25r.TagInfo) error {
			return s.ctrl.WriteText(tag, c.Text, c.Language, op)
		})
	case WriteURI:
		s.withTag(resp, func(tag *st25r.TagInfo) error {
			return s.ctrl.WriteURI(tag, c.URI, op)
		})
	case WriteWiFi:
		s.withTag(resp, func(tag *st25r.TagInfo) error {
			return s.ctrl.WriteWiFi(tag, c.SSID, c.Password, c.Security, op)
		})
	case WritePhone:
		s.withTag(resp, func(tag *st25r.TagInfo) error {
			return s.ctrl.WritePhone(tag, c.Number, op)
		})
	case WriteEmail:
		s.withTag(resp, func(tag *st25r.TagInfo) error {
			return s.ctrl.WriteEmail(tag, c.Address, c.Subject, c.Body, op)
		})
	case WriteTag:
		s.withTag(resp, func(tag *st25r.TagInfo) error {
			return s.ctrl.WriteBlock(tag, c.Block, c.Data, op)
		})
	case FormatTag:
		s.withTag(resp, func(tag *st25r.TagInfo) error {
			return s.ctrl.Format(tag, op)
		})
	default:
		resp.Err = fmt.Errorf("%w: unknown command %T", st25r.ErrInvalidParam, cmd)
	}
}

// withTag runs fn against the last detected tag, echoing it in the
// response.
func (s *Scheduler) withTag(resp *Response, fn func(*st25r.TagInfo) error) {
	tag, err := s.currentTag()
	if err != nil {
		resp.Err = err
		return
	}
	resp.Tag = tag
	resp.Err = fn(tag)
}

// currentTag returns the last detected tag or ErrNoTagFound.
func (s *Scheduler) currentTag() (*st25r.TagInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastTag == nil {
		return nil, st25r.ErrNoTagFound
	}

	return s.lastTag, nil
}

func (s *Scheduler) setDetecting(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.detecting = active
	if !active {
		s.lastTag = nil
	}
}

// pollDetection runs one detection attempt when polling is active. A
// silent field is normal and produces no event.
func (s *Scheduler) pollDetection() {
	s.mu.RLock()
	active := s.detecting
	s.mu.RUnlock()
	if !active {
		return
	}

	if !s.acquireLock(s.cfg.LockTimeout) {
		return
	}
	tag, err := s.ctrl.DetectTag(s.cfg.OpTimeout)
	s.releaseLock()

	if err != nil {
		return
	}

	s.mu.Lock()
	s.lastTag = tag
	s.mu.Unlock()

	s.publish(Response{Tag: tag, Finished: time.Now()}, nil)
}

// publish invokes the callback and pushes the response without blocking
// the consumer.
func (s *Scheduler) publish(resp Response, cb Callback) {
	if cb != nil {
		cb(resp)
	}

	select {
	case s.responses <- resp:
	default:
		st25r.Debugf("scheduler: dropping response id=%d", resp.ID)
	}
}
