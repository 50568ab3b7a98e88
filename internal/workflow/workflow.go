// Package workflow implements short-lived interactive prompts that wait
// for exactly one action from the user who opened them.
//
// A Session starts in StatePresented. Deliver moves it to a terminal state
// when the owner picks a valid choice; Await returns that outcome or
// StateTimedOut once the deadline passes, whichever happens first. Actions
// from other users are rejected without consuming the session.
package workflow

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind distinguishes confirmation prompts from selection menus.
type Kind string

const (
	KindConfirm Kind = "confirm"
	KindSelect  Kind = "select"
)

// State is a session state.
type State string

const (
	StatePresented State = "presented"
	StateConfirmed State = "confirmed"
	StateCancelled State = "cancelled"
	StateSelected  State = "selected"
	StateTimedOut  State = "timed_out"
	StateAborted   State = "aborted"
)

// Confirmation prompt choices.
const (
	ChoiceConfirm = "confirm"
	ChoiceCancel  = "cancel"
)

// DefaultTimeout is how long a prompt waits for its owner.
const DefaultTimeout = 15 * time.Second

// customIDPrefix marks component ids that belong to a workflow session.
const customIDPrefix = "wf"

var (
	// ErrSessionClosed is returned when an action targets a session that
	// already resolved, timed out, or never existed in this process.
	ErrSessionClosed = errors.New("session closed")
	// ErrNotOwner is returned when someone other than the invoker acts.
	ErrNotOwner = errors.New("action is not from the session owner")
	// ErrInvalidChoice is returned for a choice the prompt never offered.
	ErrInvalidChoice = errors.New("invalid choice")
	// ErrPromptGone means the prompt message or its channel disappeared.
	ErrPromptGone = errors.New("prompt is no longer available")
)

// Action is one user interaction with a prompt. Payload carries whatever
// the caller needs to answer the interaction (for example a responder).
type Action[T any] struct {
	UserID  string
	Choice  string
	Payload T
}

// Outcome is the terminal result of a session.
type Outcome[T any] struct {
	State  State
	Choice string
	// Action is nil when the session timed out or was aborted.
	Action *Action[T]
}

// Manager tracks open sessions so component interactions can be routed
// to the session that rendered them.
type Manager[T any] struct {
	timeout time.Duration

	mu       sync.Mutex
	sessions map[string]*Session[T]
	entropy  *ulid.MonotonicEntropy
}

// NewManager creates a manager. A zero timeout uses DefaultTimeout.
func NewManager[T any](timeout time.Duration) *Manager[T] {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager[T]{
		timeout:  timeout,
		sessions: make(map[string]*Session[T]),
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
}

// Session is one pending prompt.
type Session[T any] struct {
	ID    string
	Owner string
	Kind  Kind

	manager *Manager[T]
	choices map[string]bool
	actions chan Action[T]

	mu    sync.Mutex
	state State
}

// OpenConfirm registers a confirmation session for owner.
func (m *Manager[T]) OpenConfirm(owner string) *Session[T] {
	return m.open(owner, KindConfirm, []string{ChoiceConfirm, ChoiceCancel})
}

// OpenSelect registers a selection session offering the given choices.
func (m *Manager[T]) OpenSelect(owner string, choices []string) *Session[T] {
	return m.open(owner, KindSelect, choices)
}

func (m *Manager[T]) open(owner string, kind Kind, choices []string) *Session[T] {
	s := &Session[T]{
		Owner:   owner,
		Kind:    kind,
		manager: m,
		choices: make(map[string]bool, len(choices)),
		actions: make(chan Action[T], 1),
		state:   StatePresented,
	}
	for _, c := range choices {
		s.choices[c] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = ulid.MustNew(ulid.Timestamp(time.Now()), m.entropy).String()
	m.sessions[s.ID] = s
	return s
}

// Pending reports the number of sessions still waiting.
func (m *Manager[T]) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager[T]) lookup(id string) (*Session[T], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager[T]) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Deliver routes an action to session id. It returns ErrNotOwner for
// foreign users (the session keeps waiting), ErrInvalidChoice for unknown
// choices, and ErrSessionClosed once the session has left
// StatePresented.
func (m *Manager[T]) Deliver(id string, a Action[T]) error {
	s, ok := m.lookup(id)
	if !ok {
		return ErrSessionClosed
	}
	return s.deliver(a)
}

func (s *Session[T]) deliver(a Action[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePresented {
		return ErrSessionClosed
	}
	if a.UserID != s.Owner {
		return ErrNotOwner
	}
	if !s.choices[a.Choice] {
		return fmt.Errorf("%w: %q", ErrInvalidChoice, a.Choice)
	}

	s.state = s.resolvedState(a.Choice)
	// never blocks: the slot is empty while the session is presented
	s.actions <- a
	return nil
}

func (s *Session[T]) resolvedState(choice string) State {
	if s.Kind == KindSelect {
		return StateSelected
	}
	if choice == ChoiceConfirm {
		return StateConfirmed
	}
	return StateCancelled
}

// State returns the current state.
func (s *Session[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CustomID renders the component id for a choice of this session.
func (s *Session[T]) CustomID(choice string) string {
	return customIDPrefix + ":" + s.ID + ":" + choice
}

// ParseCustomID splits a component id produced by CustomID. ok is false
// for ids that do not belong to a workflow session.
func ParseCustomID(customID string) (sessionID, choice string, ok bool) {
	parts := strings.SplitN(customID, ":", 3)
	if len(parts) != 3 || parts[0] != customIDPrefix || parts[1] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// Await blocks until the owner acts, the timeout elapses, or ctx is done.
// The timeout is measured from the call, so callers invoke Await right
// after rendering the prompt. The session is unregistered on return.
func (s *Session[T]) Await(ctx context.Context) (Outcome[T], error) {
	defer s.manager.remove(s.ID)

	timer := time.NewTimer(s.manager.timeout)
	defer timer.Stop()

	select {
	case a := <-s.actions:
		return s.outcome(a), nil
	case <-timer.C:
		if s.close(StateTimedOut) {
			return Outcome[T]{State: StateTimedOut}, nil
		}
	case <-ctx.Done():
		if s.close(StateAborted) {
			return Outcome[T]{State: StateAborted}, ctx.Err()
		}
	}
	// an action won the race against the deadline; its send already happened
	return s.outcome(<-s.actions), nil
}

// Abort closes a session that will never be awaited, for example when
// the prompt could not be rendered.
func (s *Session[T]) Abort() {
	s.close(StateAborted)
	s.manager.remove(s.ID)
}

// close moves a presented session to a terminal state. It reports false
// when an action resolved the session first.
func (s *Session[T]) close(to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePresented {
		return false
	}
	s.state = to
	return true
}

func (s *Session[T]) outcome(a Action[T]) Outcome[T] {
	return Outcome[T]{State: s.State(), Choice: a.Choice, Action: &a}
}
