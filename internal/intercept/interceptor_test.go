package intercept

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rvald/chatgui/internal/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alice chat.PlayerID = "alice"

func cancelReason(t *testing.T, f *Future) string {
	t.Helper()
	select {
	case <-f.Done():
	default:
		t.Fatal("future not settled")
	}
	_, err := f.Result()
	var ce *CancelledError
	require.True(t, errors.As(err, &ce), "expected *CancelledError, got %v", err)
	return ce.Reason
}

func TestInterceptor_DeliverResolves(t *testing.T) {
	ic := New(Config{})
	f := ic.Request(alice)
	assert.True(t, ic.Pending(alice))

	assert.True(t, ic.Deliver(alice, "hello"))
	text, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.False(t, ic.Pending(alice))

	// back to idle: the next line passes through
	assert.False(t, ic.Deliver(alice, "again"))
	text, _ = f.Result()
	assert.Equal(t, "hello", text)
}

func TestInterceptor_IdleDeliverPassesThrough(t *testing.T) {
	ic := New(Config{})
	assert.False(t, ic.Deliver(alice, "just chatting"))
}

func TestInterceptor_Supersession(t *testing.T) {
	ic := New(Config{})
	first := ic.Request(alice)

	var pendingWhenCancelled atomic.Bool
	first.OnComplete(func(string, error) {
		pendingWhenCancelled.Store(ic.Pending(alice))
	})

	second := ic.Request(alice)
	assert.Equal(t, ReasonSuperseded, cancelReason(t, first))
	assert.False(t, pendingWhenCancelled.Load(), "old request is cancelled before the new one is pending")

	assert.True(t, ic.Deliver(alice, "answer"))
	text, err := second.Result()
	require.NoError(t, err)
	assert.Equal(t, "answer", text)
}

func TestInterceptor_DisconnectDuringPrompt(t *testing.T) {
	ic := New(Config{})
	f := ic.Request(alice)

	ic.Disconnect(alice)
	assert.Equal(t, ReasonDisconnected, cancelReason(t, f))

	assert.False(t, ic.Deliver(alice, "late"), "no later message resolves it")
	_, err := f.Result()
	assert.Error(t, err)
}

func TestInterceptor_CancelIdleIsNoop(t *testing.T) {
	ic := New(Config{})
	assert.False(t, ic.Cancel(alice, "whatever"))
	ic.Disconnect(alice)
}

func TestInterceptor_PlayersIndependent(t *testing.T) {
	ic := New(Config{})
	fa := ic.Request(alice)
	fb := ic.Request("bob")

	ic.Cancel(alice, ReasonSessionRevoked)
	assert.True(t, ic.Deliver("bob", "hi"))

	assert.Equal(t, ReasonSessionRevoked, cancelReason(t, fa))
	text, err := fb.Result()
	require.NoError(t, err)
	assert.Equal(t, "hi", text)
}

func TestInterceptor_Timeout(t *testing.T) {
	ic := New(Config{Timeout: 20 * time.Millisecond})
	f := ic.Request(alice)

	_, err := f.Wait(context.Background())
	var ce *CancelledError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Reason, "no response within")
	assert.False(t, ic.Pending(alice))
}

func TestInterceptor_TimeoutDoesNotHitNewerRequest(t *testing.T) {
	ic := New(Config{Timeout: 30 * time.Millisecond})
	ic.Request(alice)
	time.Sleep(20 * time.Millisecond)
	second := ic.Request(alice)
	assert.True(t, ic.Deliver(alice, "in time"))

	text, err := second.Result()
	require.NoError(t, err)
	assert.Equal(t, "in time", text)
}

func TestInterceptor_FirstWriterWins(t *testing.T) {
	ic := New(Config{})
	f := ic.Request(alice)

	var wg sync.WaitGroup
	var consumed atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if ic.Deliver(alice, "msg") {
				consumed.Add(1)
			}
		}()
		go func() {
			defer wg.Done()
			if ic.Cancel(alice, ReasonDisconnected) {
				consumed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), consumed.Load())
	<-f.Done()
}

func TestFuture_OnCompleteAfterSettle(t *testing.T) {
	f := newFuture()
	assert.True(t, f.complete("x", nil))
	assert.False(t, f.complete("y", nil))

	var got string
	f.OnComplete(func(text string, err error) { got = text })
	assert.Equal(t, "x", got)
}

func TestFuture_WaitContext(t *testing.T) {
	f := newFuture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
