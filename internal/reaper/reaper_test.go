package reaper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIngressClient drains its queued list results one per call, repeating the
// final entry once exhausted.
type fakeIngressClient struct {
	lists       [][]string
	listErr     error
	deleteErr   error
	listCalls   int
	deleteCalls int
}

func (f *fakeIngressClient) ListIngresses(_ context.Context, _ string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	idx := f.listCalls
	if idx >= len(f.lists) {
		idx = len(f.lists) - 1
	}
	f.listCalls++
	if len(f.lists) == 0 {
		return nil, nil
	}
	return f.lists[idx], nil
}

func (f *fakeIngressClient) DeleteAllIngresses(_ context.Context, _ string) error {
	f.deleteCalls++
	return f.deleteErr
}

func newTestReaper(client IngressClient) *Reaper {
	r := New(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.SettleTimeout = 200 * time.Millisecond
	r.PollInterval = 5 * time.Millisecond
	return r
}

func TestReapCleanNamespaceIsNoop(t *testing.T) {
	client := &fakeIngressClient{lists: [][]string{{}}}
	r := newTestReaper(client)

	count, err := r.Reap(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, client.deleteCalls)

	// Twice in a row stays clean and does not fail.
	count, err = r.Reap(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestReapDeletesAndWaitsForSettle(t *testing.T) {
	client := &fakeIngressClient{lists: [][]string{
		{"demo-ingress"}, // initial enumeration
		{"demo-ingress"}, // first poll: controller still holds the LB
		{},               // second poll: released
	}}
	r := newTestReaper(client)

	count, err := r.Reap(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, client.deleteCalls)
	assert.GreaterOrEqual(t, client.listCalls, 3)
}

func TestReapSettleTimeout(t *testing.T) {
	client := &fakeIngressClient{lists: [][]string{
		{"stuck-ingress"},
		{"stuck-ingress"},
	}}
	r := newTestReaper(client)

	count, err := r.Reap(context.Background(), "demo")
	require.ErrorIs(t, err, ErrSettleTimeout)
	assert.Equal(t, 1, count)
}

func TestReapEnumerationFailure(t *testing.T) {
	client := &fakeIngressClient{listErr: errors.New("no route to host")}
	r := newTestReaper(client)

	_, err := r.Reap(context.Background(), "demo")
	require.Error(t, err)
	assert.Equal(t, 0, client.deleteCalls)
}

func TestReapDeleteFailure(t *testing.T) {
	client := &fakeIngressClient{
		lists:     [][]string{{"demo-ingress"}},
		deleteErr: errors.New("forbidden"),
	}
	r := newTestReaper(client)

	_, err := r.Reap(context.Background(), "demo")
	require.Error(t, err)
}

func TestReapContextCancelledDuringSettle(t *testing.T) {
	client := &fakeIngressClient{lists: [][]string{
		{"demo-ingress"},
		{"demo-ingress"},
	}}
	r := newTestReaper(client)
	r.SettleTimeout = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := r.Reap(ctx, "demo")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
