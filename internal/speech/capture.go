// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech turns a speech recognizer into draft text for the chat
// input.
//
// Capture is a small state machine:
//
//	Idle -> Listening -> (Result | Error | StoppedByUser) -> Idle
//
// While Listening, results update the interim or final transcript. When the
// recognizer ends on its own the session is restarted, unless the user asked
// to stop. Stop hands back any interim text so it can be committed to the
// draft instead of being lost.
package speech

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/logging"
)

// ErrUnavailable is returned when no recognizer is configured.
var ErrUnavailable = errors.New("speech recognition is not available")

// MaxRestarts is how many consecutive restarts without a result are tried
// before the capture gives up with an error.
const MaxRestarts = 3

// =============================================================================
// RECOGNIZER
// =============================================================================

// EventKind classifies a recognizer event.
type EventKind int

const (
	// EventResult carries transcript text.
	EventResult EventKind = iota
	// EventError reports a recognizer failure.
	EventError
	// EventEnd reports that the recognizer stopped listening.
	EventEnd
)

// Event is produced by a Recognizer.
type Event struct {
	Kind  EventKind
	Text  string
	Final bool
	Err   error
}

// Recognizer starts one listening session. The returned channel is closed
// when the session ends; closing counts as EventEnd. Cancelling ctx stops
// the session.
type Recognizer interface {
	Start(ctx context.Context) (<-chan Event, error)
}

// =============================================================================
// CAPTURE
// =============================================================================

// State is the capture state.
type State int

const (
	StateIdle State = iota
	StateListening
)

// String returns the state name.
func (s State) String() string {
	if s == StateListening {
		return "listening"
	}
	return "idle"
}

// Update is delivered on the Updates channel after every transition.
type Update struct {
	State State
	// Interim is the current uncommitted transcript.
	Interim string
	// Final is text to merge into the draft, empty when none.
	Final string
	// Err is set when capture stopped because of an error.
	Err error
}

// Capture drives a Recognizer.
type Capture struct {
	rec Recognizer

	mu          sync.Mutex
	state       State
	interim     string
	stopRequest bool
	cancel      context.CancelFunc
	done        chan struct{}
	restarts    int

	updates chan Update
}

// NewCapture creates a capture for rec. A nil rec makes Start fail with
// ErrUnavailable.
func NewCapture(rec Recognizer) *Capture {
	return &Capture{rec: rec, updates: make(chan Update, 64)}
}

// Available reports whether a recognizer is configured.
func (c *Capture) Available() bool {
	return c.rec != nil
}

// Updates returns the channel of state updates.
func (c *Capture) Updates() <-chan Update {
	return c.updates
}

// State returns the current state.
func (c *Capture) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Interim returns the uncommitted transcript.
func (c *Capture) Interim() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interim
}

// Start begins listening. Starting while already listening is a no-op.
func (c *Capture) Start(ctx context.Context) error {
	if c.rec == nil {
		return ErrUnavailable
	}

	c.mu.Lock()
	if c.state == StateListening {
		c.mu.Unlock()
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	events, err := c.rec.Start(runCtx)
	if err != nil {
		c.mu.Unlock()
		cancel()
		return err
	}

	c.state = StateListening
	c.interim = ""
	c.stopRequest = false
	c.restarts = 0
	c.cancel = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	c.emit(Update{State: StateListening})
	go c.run(runCtx, events, done)
	return nil
}

// Stop ends listening at the user's request and returns the interim text,
// which the caller commits to the draft. It waits for the listener to exit.
func (c *Capture) Stop() string {
	c.mu.Lock()
	if c.state != StateListening {
		c.mu.Unlock()
		return ""
	}
	c.stopRequest = true
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	cancel()
	<-done

	c.mu.Lock()
	text := c.interim
	c.interim = ""
	c.mu.Unlock()
	return text
}

// run consumes events until the session stops for good.
func (c *Capture) run(ctx context.Context, events <-chan Event, done chan struct{}) {
	defer close(done)

	for {
		ev, ok := <-events
		if !ok {
			ev = Event{Kind: EventEnd}
		}

		switch ev.Kind {
		case EventResult:
			c.handleResult(ev)

		case EventError:
			if c.stopRequested() {
				c.finish(nil)
				return
			}
			logging.Warnf("speech recognizer error: %v", ev.Err)
			c.finish(ev.Err)
			return

		case EventEnd:
			if c.stopRequested() {
				c.finish(nil)
				return
			}
			next, err := c.restart(ctx)
			if err != nil {
				if c.stopRequested() {
					err = nil
				}
				c.finish(err)
				return
			}
			events = next
		}
	}
}

func (c *Capture) handleResult(ev Event) {
	c.mu.Lock()
	c.restarts = 0
	var u Update
	if ev.Final {
		c.interim = ""
		u = Update{State: StateListening, Final: ev.Text}
	} else {
		c.interim = ev.Text
		u = Update{State: StateListening, Interim: ev.Text}
	}
	c.mu.Unlock()
	c.emit(u)
}

// restart starts a new recognizer session after an unexpected end.
func (c *Capture) restart(ctx context.Context) (<-chan Event, error) {
	c.mu.Lock()
	c.restarts++
	attempt := c.restarts
	c.mu.Unlock()

	if attempt > MaxRestarts {
		return nil, errors.New("speech recognizer keeps stopping")
	}

	// Back off a little so a recognizer that exits at once does not spin.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
	}

	logging.Debugf("restarting speech recognizer (attempt %d)", attempt)
	return c.rec.Start(ctx)
}

func (c *Capture) stopRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopRequest
}

// finish moves to Idle. On a user stop the interim text is kept for Stop to
// return; on an error it is delivered as final text so it is not lost.
func (c *Capture) finish(err error) {
	c.mu.Lock()
	c.state = StateIdle
	c.cancel()
	u := Update{State: StateIdle, Err: err}
	if !c.stopRequest {
		u.Final = c.interim
		c.interim = ""
	}
	c.mu.Unlock()
	c.emit(u)
}

// emit delivers u without blocking. When the buffer is full an interim-only
// update is dropped. Anything else drains the queue and folds the queued
// final text, in order, and the first queued error into u.
func (c *Capture) emit(u Update) {
	select {
	case c.updates <- u:
		return
	default:
	}
	if u.State == StateListening && u.Final == "" && u.Err == nil {
		return
	}

	var final string
	var err error
	for drained := false; !drained; {
		select {
		case old := <-c.updates:
			final = joinFinal(final, old.Final)
			if err == nil {
				err = old.Err
			}
		default:
			drained = true
		}
	}
	u.Final = joinFinal(final, u.Final)
	if u.Err == nil {
		u.Err = err
	}
	select {
	case c.updates <- u:
	default:
		logging.Warnf("speech update dropped: %q", u.Final)
	}
}

func joinFinal(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}
