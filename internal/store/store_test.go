// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/api"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/model"
)

// newLoadedStore returns a store for user whose backend holds convs and which
// has completed one Load.
func newLoadedStore(t *testing.T, user string, convs ...model.Conversation) (*Store, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	backend.seed(user, convs...)
	s := New(backend, &fakeSession{name: user})
	require.NoError(t, s.Load(context.Background()))
	return s, backend
}

// =============================================================================
// LOAD
// =============================================================================

func TestLoad_EmptyIdentityGetsOneConversation(t *testing.T) {
	s, backend := newLoadedStore(t, "alice")

	snap := s.Snapshot()
	require.Len(t, snap.Conversations, 1)
	assert.Equal(t, snap.Conversations[0].ID, snap.ActiveID)
	assert.Equal(t, 1, backend.count("create"))
	assert.True(t, snap.Loaded)
	assert.False(t, snap.Loading)
}

func TestLoad_ActivatesMostRecent(t *testing.T) {
	s, backend := newLoadedStore(t, "alice", conversation("c2"), conversation("c1"))

	assert.Equal(t, "c2", s.ActiveID())
	assert.Zero(t, backend.count("create"))
}

func TestLoad_KeepsExistingSelection(t *testing.T) {
	s, _ := newLoadedStore(t, "alice", conversation("c2"), conversation("c1"))
	s.SelectConversation("c1")

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, "c1", s.ActiveID())
}

func TestLoad_CreationFailureFailsLoad(t *testing.T) {
	backend := newFakeBackend()
	backend.createErr = statusError("create chat", http.StatusTeapot)
	s := New(backend, &fakeSession{name: "alice"})

	err := s.Load(context.Background())
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Empty(t, snap.Conversations)
	assert.Empty(t, snap.ActiveID)
	assert.Equal(t, MsgCreateFailed, snap.Err)
}

func TestLoad_ListFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.listErr = statusError("list chats", http.StatusInternalServerError)
	s := New(backend, &fakeSession{name: "alice"})

	require.Error(t, s.Load(context.Background()))
	assert.Equal(t, api.MsgServerError, s.Err())
	assert.Zero(t, backend.count("create"))
}

func TestLoad_RequiresIdentity(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend, &fakeSession{})

	err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoIdentity)
	assert.ErrorIs(t, err, api.ErrValidation)
	assert.Zero(t, backend.count("list"))
}

func TestLoad_ConcurrentCallsShareOneRequest(t *testing.T) {
	backend := newFakeBackend()
	backend.seed("alice", conversation("c1"))
	backend.listGate = make(chan struct{})
	s := New(backend, &fakeSession{name: "alice"})

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Load(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return backend.count("list") == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(backend.listGate)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, backend.count("list"))
	assert.Len(t, s.Snapshot().Conversations, 1)
}

// =============================================================================
// SEND
// =============================================================================

func TestSendMessage_SuccessAppendsConfirmedPair(t *testing.T) {
	s, _ := newLoadedStore(t, "alice", conversation("c1", userMsg("m1", "hi"), aiMsg("m2", "hello")))
	before := s.Snapshot().Active().MessageCount()

	require.NoError(t, s.SendMessage(context.Background(), "c1", "  how are you?  "))

	conv := s.Snapshot().Active()
	require.Equal(t, before+2, conv.MessageCount())
	assert.Zero(t, conv.PendingCount())

	user, ai := conv.Messages[before], conv.Messages[before+1]
	assert.True(t, user.IsConfirmed())
	assert.Equal(t, model.SenderUser, user.Sender)
	assert.Equal(t, "how are you?", user.Content)
	assert.True(t, ai.IsConfirmed())
	assert.Equal(t, model.SenderAI, ai.Sender)
	assert.Equal(t, "chat c1", conv.Title)
}

func TestSendMessage_TitleRules(t *testing.T) {
	t.Run("server title wins", func(t *testing.T) {
		s, backend := newLoadedStore(t, "alice", conversation("c1"))
		backend.sendTitle = "Jokes"

		require.NoError(t, s.SendMessage(context.Background(), "c1", "Tell me a joke about programmers"))
		assert.Equal(t, "Jokes", s.Snapshot().Active().Title)
	})

	t.Run("synthesized on first exchange", func(t *testing.T) {
		s, _ := newLoadedStore(t, "alice", conversation("c1"))

		require.NoError(t, s.SendMessage(context.Background(), "c1", "Tell me a joke about programmers"))
		assert.Equal(t, "Tell me a joke about programme...", s.Snapshot().Active().Title)
	})
}

func TestSendMessage_FailureRollsBack(t *testing.T) {
	s, backend := newLoadedStore(t, "alice", conversation("c1", userMsg("m1", "hi"), aiMsg("m2", "hello")))
	backend.sendErr = statusError("send message", http.StatusInternalServerError)
	before := messageIDs(s.Snapshot().Active())

	err := s.SendMessage(context.Background(), "c1", "this will fail")
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, before, messageIDs(snap.Active()))
	assert.NotEmpty(t, snap.Err)
	assert.Equal(t, api.MsgServerError, snap.Err)
	assert.False(t, snap.IsSending("c1"))
}

func TestSendMessage_FailureWithoutDetailUsesGenericMessage(t *testing.T) {
	s, backend := newLoadedStore(t, "alice", conversation("c1"))
	backend.sendErr = errors.New("connection reset")

	require.Error(t, s.SendMessage(context.Background(), "c1", "hello"))
	assert.Equal(t, MsgSendFailed, s.Err())
	assert.True(t, s.Snapshot().Active().IsEmpty())
}

func TestSendMessage_WhitespaceIsRejected(t *testing.T) {
	s, backend := newLoadedStore(t, "alice", conversation("c1"))

	err := s.SendMessage(context.Background(), "c1", "  ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.ErrorIs(t, err, api.ErrValidation)
	assert.True(t, s.Snapshot().Active().IsEmpty())
	assert.Zero(t, backend.count("send"))
}

func TestSendMessage_CreatorQuestionIsAnsweredLocally(t *testing.T) {
	tests := []string{
		"who made you",
		"Hey, WHO CREATED YOU?",
		"Tell me: who’s your creator",
		"who   built you",
	}

	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			s, backend := newLoadedStore(t, "alice", conversation("c1"))

			require.NoError(t, s.SendMessage(context.Background(), "c1", text))

			conv := s.Snapshot().Active()
			require.Equal(t, 2, conv.MessageCount())
			assert.Equal(t, model.SenderUser, conv.Messages[0].Sender)
			assert.Equal(t, model.SenderAI, conv.Messages[1].Sender)
			assert.Equal(t, CreatorAnswer, conv.Messages[1].Content)
			assert.Zero(t, conv.PendingCount())
			assert.Zero(t, backend.count("send"))
		})
	}
}

func TestIsCreatorQuestion_Negative(t *testing.T) {
	for _, text := range []string{"who is the president", "make me a sandwich", ""} {
		assert.False(t, IsCreatorQuestion(text), text)
	}
}

func TestSendMessage_AtMostOnePending(t *testing.T) {
	s, backend := newLoadedStore(t, "alice", conversation("c1"))
	backend.sendGate = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- s.SendMessage(context.Background(), "c1", "first") }()

	require.Eventually(t, func() bool { return s.PendingSend("c1") }, time.Second, 5*time.Millisecond)
	assert.True(t, s.Snapshot().IsSending("c1"))

	snap := s.Snapshot()
	require.Equal(t, 1, snap.Active().PendingCount())
	assert.True(t, snap.Active().Messages[0].IsPending())

	err := s.SendMessage(context.Background(), "c1", "second")
	assert.ErrorIs(t, err, ErrSendInFlight)
	assert.Equal(t, 1, s.Snapshot().Active().PendingCount())

	close(backend.sendGate)
	require.NoError(t, <-done)

	conv, ok := s.Active()
	require.True(t, ok)
	assert.Zero(t, conv.PendingCount())
	assert.Equal(t, 2, conv.MessageCount())
	assert.Equal(t, 1, backend.count("send"))
	assert.False(t, s.PendingSend("c1"))
}

func TestSendMessage_OnlyToActiveConversation(t *testing.T) {
	s, backend := newLoadedStore(t, "alice", conversation("c2"), conversation("c1"))

	err := s.SendMessage(context.Background(), "c1", "hello")
	assert.ErrorIs(t, err, ErrNotActive)
	assert.Zero(t, backend.count("send"))
}

func TestSendMessage_RequiresIdentity(t *testing.T) {
	s, backend := newLoadedStore(t, "alice", conversation("c1"))
	s.session.(*fakeSession).Logout()

	err := s.SendMessage(context.Background(), "c1", "hello")
	assert.ErrorIs(t, err, ErrNoIdentity)
	assert.Equal(t, MsgSessionExpired, s.Err())
	assert.Zero(t, backend.count("send"))
}

func TestSendMessage_ConversationDeletedWhileSending(t *testing.T) {
	s, backend := newLoadedStore(t, "alice", conversation("c2"), conversation("c1"))
	backend.sendGate = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- s.SendMessage(context.Background(), "c2", "hello") }()
	require.Eventually(t, func() bool { return s.Snapshot().IsSending("c2") }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.DeleteConversation(context.Background(), "c2"))
	close(backend.sendGate)
	require.NoError(t, <-done)

	snap := s.Snapshot()
	require.Len(t, snap.Conversations, 1)
	assert.Equal(t, "c1", snap.ActiveID)
	assert.True(t, snap.Active().IsEmpty())
	assert.False(t, snap.IsSending("c2"))
}

func TestSendMessage_ResetDropsReconciliation(t *testing.T) {
	s, backend := newLoadedStore(t, "alice", conversation("c1"))
	backend.sendGate = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- s.SendMessage(context.Background(), "c1", "hello") }()
	require.Eventually(t, func() bool { return s.Snapshot().IsSending("c1") }, time.Second, 5*time.Millisecond)

	s.Reset()
	close(backend.sendGate)
	require.NoError(t, <-done)
	assert.Empty(t, s.Snapshot().Conversations)
}

// =============================================================================
// CREATE / SELECT
// =============================================================================

func TestCreateConversation_PrependsAndActivates(t *testing.T) {
	s, _ := newLoadedStore(t, "alice", conversation("c1"))

	id, err := s.CreateConversation(context.Background())
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap.Conversations, 2)
	assert.Equal(t, id, snap.Conversations[0].ID)
	assert.Equal(t, id, snap.ActiveID)
}

func TestCreateConversation_FailureHasNoPlaceholder(t *testing.T) {
	s, backend := newLoadedStore(t, "alice", conversation("c1"))
	backend.createErr = errors.New("boom")

	_, err := s.CreateConversation(context.Background())
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Len(t, snap.Conversations, 1)
	assert.Equal(t, "c1", snap.ActiveID)
	assert.Equal(t, MsgCreateFailed, snap.Err)
}

func TestSelectConversation(t *testing.T) {
	s, backend := newLoadedStore(t, "alice", conversation("c2"), conversation("c1"))
	calls := backend.count("list")

	s.SelectConversation("c1")
	assert.Equal(t, "c1", s.ActiveID())

	s.SelectConversation("nope")
	assert.Equal(t, "c1", s.ActiveID())
	assert.Equal(t, calls, backend.count("list"))
}

// =============================================================================
// DELETE
// =============================================================================

func TestDeleteConversation_ActiveMovesToFirstRemaining(t *testing.T) {
	s, _ := newLoadedStore(t, "alice", conversation("c3"), conversation("c2"), conversation("c1"))
	s.SelectConversation("c2")

	require.NoError(t, s.DeleteConversation(context.Background(), "c2"))
	snap := s.Snapshot()
	assert.Equal(t, "c3", snap.ActiveID)
	assert.NotNil(t, snap.Active())

	require.NoError(t, s.DeleteConversation(context.Background(), "c3"))
	require.NoError(t, s.DeleteConversation(context.Background(), "c1"))
	snap = s.Snapshot()
	assert.Empty(t, snap.Conversations)
	assert.Empty(t, snap.ActiveID)
}

func TestDeleteConversation_InactiveKeepsSelection(t *testing.T) {
	s, _ := newLoadedStore(t, "alice", conversation("c2"), conversation("c1"))

	require.NoError(t, s.DeleteConversation(context.Background(), "c1"))
	assert.Equal(t, "c2", s.ActiveID())
}

func TestDeleteConversation_FailureLeavesState(t *testing.T) {
	s, backend := newLoadedStore(t, "alice", conversation("c2"), conversation("c1"))
	backend.deleteErr = statusError("delete chat", http.StatusTeapot)

	require.Error(t, s.DeleteConversation(context.Background(), "c2"))

	snap := s.Snapshot()
	assert.Len(t, snap.Conversations, 2)
	assert.Equal(t, "c2", snap.ActiveID)
	assert.Equal(t, MsgDeleteFailed, snap.Err)
}

func TestDeleteConversation_NotFoundCountsAsDeleted(t *testing.T) {
	s, backend := newLoadedStore(t, "alice", conversation("c2"), conversation("c1"))
	backend.deleteErr = statusError("delete chat", http.StatusNotFound)

	require.NoError(t, s.DeleteConversation(context.Background(), "c2"))
	assert.Len(t, s.Snapshot().Conversations, 1)
	assert.Empty(t, s.Err())
}

func TestDeleteConversation_AbsentLocallyIsNoOp(t *testing.T) {
	s, backend := newLoadedStore(t, "alice", conversation("c1"))

	require.NoError(t, s.DeleteConversation(context.Background(), "gone"))
	assert.Zero(t, backend.count("delete"))
}

func TestDeleteAll_RequiresConfirmation(t *testing.T) {
	s, backend := newLoadedStore(t, "alice", conversation("c2"), conversation("c1"))

	req, err := s.RequestDeleteAll()
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.True(t, snap.ConfirmingDeleteAll)
	assert.Len(t, snap.Conversations, 2)
	assert.Zero(t, backend.count("deleteAll"))

	require.NoError(t, req.Confirm(context.Background()))

	snap = s.Snapshot()
	assert.Empty(t, snap.Conversations)
	assert.Empty(t, snap.ActiveID)
	assert.False(t, snap.ConfirmingDeleteAll)
	assert.Equal(t, 1, backend.count("deleteAll"))
}

func TestDeleteAll_StaleConfirmations(t *testing.T) {
	t.Run("confirm twice", func(t *testing.T) {
		s, backend := newLoadedStore(t, "alice", conversation("c1"))
		req, err := s.RequestDeleteAll()
		require.NoError(t, err)

		require.NoError(t, req.Confirm(context.Background()))
		assert.ErrorIs(t, req.Confirm(context.Background()), ErrStaleConfirmation)
		assert.Equal(t, 1, backend.count("deleteAll"))
	})

	t.Run("cancelled", func(t *testing.T) {
		s, backend := newLoadedStore(t, "alice", conversation("c1"))
		req, err := s.RequestDeleteAll()
		require.NoError(t, err)

		req.Cancel()
		assert.False(t, s.Snapshot().ConfirmingDeleteAll)
		assert.ErrorIs(t, req.Confirm(context.Background()), ErrStaleConfirmation)
		assert.Zero(t, backend.count("deleteAll"))
		assert.Len(t, s.Snapshot().Conversations, 1)
	})

	t.Run("superseded", func(t *testing.T) {
		s, backend := newLoadedStore(t, "alice", conversation("c1"))
		first, err := s.RequestDeleteAll()
		require.NoError(t, err)
		_, err = s.RequestDeleteAll()
		require.NoError(t, err)

		assert.ErrorIs(t, first.Confirm(context.Background()), ErrStaleConfirmation)
		assert.Zero(t, backend.count("deleteAll"))
	})

	t.Run("zero value", func(t *testing.T) {
		var req DeleteAllRequest
		assert.ErrorIs(t, req.Confirm(context.Background()), ErrStaleConfirmation)
	})

	t.Run("identity changed", func(t *testing.T) {
		s, backend := newLoadedStore(t, "alice", conversation("c1"))
		req, err := s.RequestDeleteAll()
		require.NoError(t, err)

		s.session.(*fakeSession).Login("bob")
		assert.ErrorIs(t, req.Confirm(context.Background()), ErrStaleConfirmation)
		assert.Zero(t, backend.count("deleteAll"))
	})
}

func TestDeleteAll_FailureLeavesState(t *testing.T) {
	s, backend := newLoadedStore(t, "alice", conversation("c1"))
	backend.deleteAllErr = statusError("delete all chats", http.StatusTeapot)

	req, err := s.RequestDeleteAll()
	require.NoError(t, err)
	require.Error(t, req.Confirm(context.Background()))

	snap := s.Snapshot()
	assert.Len(t, snap.Conversations, 1)
	assert.Equal(t, MsgDeleteAllFailed, snap.Err)
}

// =============================================================================
// ACTIONS
// =============================================================================

func TestApplyAction_ReplacesInPlace(t *testing.T) {
	s, _ := newLoadedStore(t, "alice", conversation("c1",
		userMsg("u1", "question"),
		aiMsg("m1", "a long answer"),
		userMsg("u2", "follow up"),
		aiMsg("m2", "another answer"),
	))
	before := s.Snapshot().Active().Clone()

	require.NoError(t, s.ApplyAction(context.Background(), "c1", "m1", model.ActionShorten))

	after := s.Snapshot().Active()
	require.Equal(t, messageIDs(&before), messageIDs(after))
	assert.Equal(t, "shortened content", after.Messages[1].Content)
	for _, i := range []int{0, 2, 3} {
		assert.Equal(t, before.Messages[i].Content, after.Messages[i].Content)
	}
}

func TestApplyAction_Failure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server reason", &api.Error{Kind: api.KindInvalidRequest, Status: 400, Reason: "Message too short"}, "Message too short"},
		{"no reason", errors.New("boom"), MsgActionFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, backend := newLoadedStore(t, "alice", conversation("c1", aiMsg("m1", "answer")))
			backend.actionErr = tc.err

			require.Error(t, s.ApplyAction(context.Background(), "c1", "m1", model.ActionExpand))

			snap := s.Snapshot()
			assert.Equal(t, tc.want, snap.Err)
			assert.Equal(t, "answer", snap.Active().Messages[0].Content)
		})
	}
}

func TestApplyAction_Validation(t *testing.T) {
	s, backend := newLoadedStore(t, "alice", conversation("c1", aiMsg("m1", "answer")))
	require.NoError(t, s.SendMessage(context.Background(), "c1", "who made you"))
	local := s.Snapshot().Active().Messages[2].ID()

	assert.ErrorIs(t, s.ApplyAction(context.Background(), "c1", "m1", model.ActionKind("translate")), model.ErrUnknownAction)
	assert.ErrorIs(t, s.ApplyAction(context.Background(), "c1", "nope", model.ActionShorten), ErrUnknownMessage)
	assert.ErrorIs(t, s.ApplyAction(context.Background(), "c1", local, model.ActionShorten), ErrNotConfirmed)
	assert.Zero(t, backend.count("action"))

	s.session.(*fakeSession).Logout()
	assert.ErrorIs(t, s.ApplyAction(context.Background(), "c1", "m1", model.ActionShorten), ErrNoIdentity)
	assert.Equal(t, MsgSessionExpired, s.Err())
}

func TestApplyAction_OnlyOnActiveConversation(t *testing.T) {
	s, backend := newLoadedStore(t, "alice",
		conversation("c2", aiMsg("m2", "newer")),
		conversation("c1", aiMsg("m1", "answer")),
	)
	require.Equal(t, "c2", s.ActiveID())

	err := s.ApplyAction(context.Background(), "c1", "m1", model.ActionShorten)
	assert.ErrorIs(t, err, ErrNotActive)
	assert.Zero(t, backend.count("action"))
	assert.Empty(t, s.Err())
}

// =============================================================================
// SIGN-IN AND SUBSCRIPTION
// =============================================================================

func TestSignIn_NewIdentityCreatesConversation(t *testing.T) {
	backend := newFakeBackend()
	sess := &fakeSession{}
	s := New(backend, sess)

	require.NoError(t, s.SignIn(context.Background(), "  alice "))
	name, ok := sess.Active()
	assert.True(t, ok)
	assert.Equal(t, "alice", name)
	assert.Equal(t, 1, backend.count("create"))

	require.NoError(t, s.Load(context.Background()))
	assert.Len(t, s.Snapshot().Conversations, 1)
	assert.Equal(t, 1, backend.count("create"))
}

func TestSignIn_CreationFailureStillSignsIn(t *testing.T) {
	backend := newFakeBackend()
	backend.createErr = errors.New("boom")
	sess := &fakeSession{}
	s := New(backend, sess)

	require.NoError(t, s.SignIn(context.Background(), "alice"))
	assert.True(t, func() bool { _, ok := sess.Active(); return ok }())
}

func TestSignIn_Failures(t *testing.T) {
	backend := newFakeBackend()
	sess := &fakeSession{}
	s := New(backend, sess)

	assert.ErrorIs(t, s.SignIn(context.Background(), "   "), api.ErrValidation)
	assert.Zero(t, backend.count("login"))

	backend.loginErr = &api.Error{Kind: api.KindServer, Status: 500}
	require.Error(t, s.SignIn(context.Background(), "alice"))
	_, ok := sess.Active()
	assert.False(t, ok)
}

func TestSignOut_ClearsEverything(t *testing.T) {
	s, _ := newLoadedStore(t, "alice", conversation("c1"))

	require.NoError(t, s.SignOut())
	snap := s.Snapshot()
	assert.Empty(t, snap.Conversations)
	assert.False(t, snap.Loaded)
	_, ok := s.session.Active()
	assert.False(t, ok)
}

func TestSubscribe_NotifiesOnChange(t *testing.T) {
	s, _ := newLoadedStore(t, "alice", conversation("c2"), conversation("c1"))

	var mu sync.Mutex
	count := 0
	cancel := s.Subscribe(func() {
		mu.Lock()
		count++
		mu.Unlock()
	})

	s.SelectConversation("c1")
	s.SelectConversation("c1")
	cancel()
	s.SelectConversation("c2")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestActive_NoneAfterSignOut(t *testing.T) {
	s, _ := newLoadedStore(t, "alice", conversation("c1"))
	conv, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "c1", conv.ID)

	require.NoError(t, s.SignOut())
	_, ok = s.Active()
	assert.False(t, ok)
}

func TestDismissError(t *testing.T) {
	s, backend := newLoadedStore(t, "alice", conversation("c1"))
	backend.createErr = errors.New("boom")
	_, _ = s.CreateConversation(context.Background())
	require.NotEmpty(t, s.Err())

	s.DismissError()
	assert.Empty(t, s.Err())
}
