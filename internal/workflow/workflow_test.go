package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const owner = "user-1"

func awaitAsync[T any](s *Session[T]) <-chan Outcome[T] {
	ch := make(chan Outcome[T], 1)
	go func() {
		out, _ := s.Await(context.Background())
		ch <- out
	}()
	return ch
}

func TestConfirm(t *testing.T) {
	m := NewManager[string](time.Second)
	s := m.OpenConfirm(owner)
	done := awaitAsync(s)

	require.NoError(t, m.Deliver(s.ID, Action[string]{UserID: owner, Choice: ChoiceConfirm, Payload: "clicked"}))

	out := <-done
	assert.Equal(t, StateConfirmed, out.State)
	require.NotNil(t, out.Action)
	assert.Equal(t, "clicked", out.Action.Payload)
	assert.Equal(t, 0, m.Pending())
}

func TestCancel(t *testing.T) {
	m := NewManager[string](time.Second)
	s := m.OpenConfirm(owner)
	done := awaitAsync(s)

	require.NoError(t, m.Deliver(s.ID, Action[string]{UserID: owner, Choice: ChoiceCancel}))

	out := <-done
	assert.Equal(t, StateCancelled, out.State)
	assert.Equal(t, ChoiceCancel, out.Choice)
}

func TestTimeout(t *testing.T) {
	m := NewManager[string](20 * time.Millisecond)
	s := m.OpenConfirm(owner)

	start := time.Now()
	out, err := s.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateTimedOut, out.State)
	assert.Nil(t, out.Action)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	// late actions find the session gone
	err = m.Deliver(s.ID, Action[string]{UserID: owner, Choice: ChoiceConfirm})
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestForeignUserDoesNotConsume(t *testing.T) {
	m := NewManager[string](time.Second)
	s := m.OpenConfirm(owner)
	done := awaitAsync(s)

	err := m.Deliver(s.ID, Action[string]{UserID: "intruder", Choice: ChoiceConfirm})
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Equal(t, StatePresented, s.State())

	require.NoError(t, m.Deliver(s.ID, Action[string]{UserID: owner, Choice: ChoiceCancel}))
	assert.Equal(t, StateCancelled, (<-done).State)
}

func TestForeignUserThenTimeout(t *testing.T) {
	m := NewManager[string](30 * time.Millisecond)
	s := m.OpenConfirm(owner)
	done := awaitAsync(s)

	assert.ErrorIs(t, m.Deliver(s.ID, Action[string]{UserID: "intruder", Choice: ChoiceConfirm}), ErrNotOwner)
	assert.Equal(t, StateTimedOut, (<-done).State)
}

func TestAtMostOneAction(t *testing.T) {
	m := NewManager[string](time.Second)
	s := m.OpenConfirm(owner)

	require.NoError(t, m.Deliver(s.ID, Action[string]{UserID: owner, Choice: ChoiceCancel}))
	err := m.Deliver(s.ID, Action[string]{UserID: owner, Choice: ChoiceConfirm})
	assert.ErrorIs(t, err, ErrSessionClosed)

	out, err := s.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, out.State)
}

func TestInvalidChoice(t *testing.T) {
	m := NewManager[string](time.Second)
	s := m.OpenSelect(owner, []string{"0", "1"})
	done := awaitAsync(s)

	assert.ErrorIs(t, m.Deliver(s.ID, Action[string]{UserID: owner, Choice: "7"}), ErrInvalidChoice)
	require.NoError(t, m.Deliver(s.ID, Action[string]{UserID: owner, Choice: "1"}))

	out := <-done
	assert.Equal(t, StateSelected, out.State)
	assert.Equal(t, "1", out.Choice)
}

func TestEachChoiceSelects(t *testing.T) {
	choices := []string{"0", "1", "2", "3"}
	m := NewManager[struct{}](time.Second)
	for _, c := range choices {
		s := m.OpenSelect(owner, choices)
		require.NoError(t, m.Deliver(s.ID, Action[struct{}]{UserID: owner, Choice: c}))
		out, err := s.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StateSelected, out.State)
		assert.Equal(t, c, out.Choice)
	}
}

func TestContextCancel(t *testing.T) {
	m := NewManager[string](time.Minute)
	s := m.OpenConfirm(owner)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := s.Await(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, StateAborted, out.State)
	assert.Equal(t, 0, m.Pending())
}

func TestAbort(t *testing.T) {
	m := NewManager[string](time.Second)
	s := m.OpenConfirm(owner)
	s.Abort()

	assert.Equal(t, StateAborted, s.State())
	assert.ErrorIs(t, m.Deliver(s.ID, Action[string]{UserID: owner, Choice: ChoiceConfirm}), ErrSessionClosed)
}

func TestUnknownSession(t *testing.T) {
	m := NewManager[string](time.Second)
	assert.ErrorIs(t, m.Deliver("nope", Action[string]{UserID: owner}), ErrSessionClosed)
}

func TestRaceDeliverAgainstDeadline(t *testing.T) {
	for i := 0; i < 200; i++ {
		m := NewManager[int](time.Millisecond)
		s := m.OpenConfirm(owner)

		var wg sync.WaitGroup
		var deliverErr error
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(time.Millisecond)
			deliverErr = m.Deliver(s.ID, Action[int]{UserID: owner, Choice: ChoiceConfirm, Payload: i})
		}()

		out, err := s.Await(context.Background())
		wg.Wait()
		require.NoError(t, err)

		// exactly one side wins
		if deliverErr == nil {
			require.Equal(t, StateConfirmed, out.State, "iteration %d", i)
			require.NotNil(t, out.Action)
		} else {
			require.ErrorIs(t, deliverErr, ErrSessionClosed)
			require.Equal(t, StateTimedOut, out.State, "iteration %d", i)
		}
	}
}

func TestCustomID(t *testing.T) {
	m := NewManager[string](time.Second)
	s := m.OpenSelect(owner, []string{"0"})
	defer s.Abort()

	id, choice, ok := ParseCustomID(s.CustomID("0"))
	assert.True(t, ok)
	assert.Equal(t, s.ID, id)
	assert.Equal(t, "0", choice)

	_, _, ok = ParseCustomID("confirm_delete")
	assert.False(t, ok)
	_, _, ok = ParseCustomID("wf::x")
	assert.False(t, ok)
}

func TestSessionIDsUnique(t *testing.T) {
	m := NewManager[string](time.Second)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		s := m.OpenConfirm(owner)
		assert.False(t, seen[s.ID])
		seen[s.ID] = true
		s.Abort()
	}
}
