package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudlab-k8s/stackctl/internal/config"
	"github.com/cloudlab-k8s/stackctl/internal/kubeconfig"
	"github.com/cloudlab-k8s/stackctl/internal/terraform"
)

// calls records the cross-component invocation order.
type calls struct {
	order []string
}

func (c *calls) add(name string) {
	c.order = append(c.order, name)
}

type fakeEngine struct {
	calls *calls

	validateErr error
	planErr     error
	applyErr    error
	destroyErr  error
	outputs     map[string]string
}

func (f *fakeEngine) Validate(context.Context) error {
	f.calls.add("validate")
	return f.validateErr
}

func (f *fakeEngine) Plan(context.Context) (*terraform.ChangeSet, error) {
	f.calls.add("plan")
	if f.planErr != nil {
		return nil, f.planErr
	}
	return &terraform.ChangeSet{Add: 2}, nil
}

func (f *fakeEngine) Apply(context.Context) error {
	f.calls.add("apply")
	return f.applyErr
}

func (f *fakeEngine) Destroy(context.Context) error {
	f.calls.add("destroy")
	return f.destroyErr
}

func (f *fakeEngine) Output(_ context.Context, name string) (string, error) {
	v, ok := f.outputs[name]
	if !ok {
		return "", errors.New("output not found")
	}
	return v, nil
}

type fakeReaper struct {
	calls *calls
	count int
	err   error
}

func (f *fakeReaper) Reap(context.Context, string) (int, error) {
	f.calls.add("reap")
	return f.count, f.err
}

type fakeStore struct {
	calls *calls

	upsertCreds  []kubeconfig.Credentials
	upsertErr    error
	removedNames []string
	removeErr    error
}

func (f *fakeStore) Upsert(_ context.Context, creds kubeconfig.Credentials) (kubeconfig.Artifact, error) {
	f.calls.add("upsert")
	f.upsertCreds = append(f.upsertCreds, creds)
	return kubeconfig.Artifact{}, f.upsertErr
}

func (f *fakeStore) Remove(_ context.Context, clusterName string) error {
	f.calls.add("remove")
	f.removedNames = append(f.removedNames, clusterName)
	return f.removeErr
}

type fakeConfirmer struct {
	calls   *calls
	input   string
	prompts []string
	err     error
}

func (f *fakeConfirmer) Confirm(prompt, expected string) (bool, error) {
	f.calls.add("confirm")
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return false, f.err
	}
	return f.input == expected, nil
}

type fixture struct {
	calls   *calls
	engine  *fakeEngine
	reaper  *fakeReaper
	store   *fakeStore
	confirm *fakeConfirmer
	wf      *Workflow
}

func newFixture() *fixture {
	c := &calls{}
	f := &fixture{
		calls: c,
		engine: &fakeEngine{calls: c, outputs: map[string]string{
			"cluster_name": "demo-eks-cluster",
			"region":       "us-west-2",
		}},
		reaper:  &fakeReaper{calls: c, count: 1},
		store:   &fakeStore{calls: c},
		confirm: &fakeConfirmer{calls: c, input: "yes"},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.wf = New(f.engine, f.reaper, f.store, f.confirm, logger)
	return f
}

var demoTarget = config.Target{
	Name:      "demo",
	Namespace: "demo",
}

func TestUpHappyPath(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.wf.Up(context.Background(), demoTarget, false))
	assert.Equal(t, StateSynced, f.wf.State())
	assert.Equal(t, []string{"validate", "plan", "confirm", "apply", "upsert"}, f.calls.order)
}

func TestUpSyncUsesEngineOutputs(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.wf.Up(context.Background(), demoTarget, true))
	require.Len(t, f.store.upsertCreds, 1)
	assert.Equal(t, kubeconfig.Credentials{ClusterName: "demo-eks-cluster", Region: "us-west-2"}, f.store.upsertCreds[0])
}

func TestUpFallsBackToConfiguredIdentity(t *testing.T) {
	f := newFixture()
	f.engine.outputs = nil

	target := demoTarget
	target.ClusterName = "cfg-cluster"
	target.Region = "eu-west-1"

	require.NoError(t, f.wf.Up(context.Background(), target, true))
	require.Len(t, f.store.upsertCreds, 1)
	assert.Equal(t, kubeconfig.Credentials{ClusterName: "cfg-cluster", Region: "eu-west-1"}, f.store.upsertCreds[0])
}

func TestUpValidationFailureHaltsBeforePlan(t *testing.T) {
	f := newFixture()
	f.engine.validateErr = errors.New("unsupported block type")

	err := f.wf.Up(context.Background(), demoTarget, false)
	require.Error(t, err)
	assert.Equal(t, PhaseValidate, FailedPhase(err))
	assert.Equal(t, StateFailed, f.wf.State())
	// No plan computed, no confirmation prompt shown, no mutation.
	assert.Equal(t, []string{"validate"}, f.calls.order)
}

func TestUpPlanFailure(t *testing.T) {
	f := newFixture()
	f.engine.planErr = errors.New("provider produced inconsistent plan")

	err := f.wf.Up(context.Background(), demoTarget, false)
	require.Error(t, err)
	assert.Equal(t, PhasePlan, FailedPhase(err))
	assert.NotContains(t, f.calls.order, "apply")
}

func TestUpConfirmationDeclined(t *testing.T) {
	for _, input := range []string{"y", "", "no", "YES"} {
		f := newFixture()
		f.confirm.input = input

		err := f.wf.Up(context.Background(), demoTarget, false)
		require.ErrorIs(t, err, ErrCancelled, "input %q", input)
		assert.Equal(t, StateCancelled, f.wf.State())
		assert.NotContains(t, f.calls.order, "apply", "input %q must not mutate remote state", input)
	}
}

func TestUpAutoApproveSkipsPrompt(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.wf.Up(context.Background(), demoTarget, true))
	assert.NotContains(t, f.calls.order, "confirm")
	assert.Contains(t, f.calls.order, "apply")
}

func TestUpApplyFailure(t *testing.T) {
	f := newFixture()
	f.engine.applyErr = errors.New("Error: creating EKS Cluster: timeout")

	err := f.wf.Up(context.Background(), demoTarget, true)
	require.Error(t, err)
	assert.Equal(t, PhaseApply, FailedPhase(err))
	assert.Equal(t, StateFailed, f.wf.State())
	assert.NotContains(t, f.calls.order, "upsert")
}

func TestUpLocalSyncFailureIsNonFatal(t *testing.T) {
	f := newFixture()
	f.store.upsertErr = errors.New("kubeconfig not writable")

	require.NoError(t, f.wf.Up(context.Background(), demoTarget, true))
	assert.Equal(t, StateApplied, f.wf.State())
}

func TestDownHappyPath(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.wf.Down(context.Background(), demoTarget, false, false))
	assert.Equal(t, StateDesynced, f.wf.State())
	assert.Equal(t, []string{"reap", "confirm", "destroy", "remove"}, f.calls.order)
	assert.Equal(t, []string{"demo-eks-cluster"}, f.store.removedNames)
}

func TestDownReapRunsBeforeDestroy(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.wf.Down(context.Background(), demoTarget, true, false))

	reapIdx, destroyIdx := -1, -1
	for i, call := range f.calls.order {
		switch call {
		case "reap":
			reapIdx = i
		case "destroy":
			destroyIdx = i
		}
	}
	require.GreaterOrEqual(t, reapIdx, 0)
	require.GreaterOrEqual(t, destroyIdx, 0)
	assert.Less(t, reapIdx, destroyIdx)
}

func TestDownReapFailureIsNonFatal(t *testing.T) {
	f := newFixture()
	f.reaper.err = errors.New("ingress controller unreachable")

	require.NoError(t, f.wf.Down(context.Background(), demoTarget, true, false))
	assert.Contains(t, f.calls.order, "destroy")
	assert.Equal(t, StateDesynced, f.wf.State())
}

func TestDownConfirmationDeclined(t *testing.T) {
	f := newFixture()
	f.confirm.input = "no"

	err := f.wf.Down(context.Background(), demoTarget, false, false)
	require.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, StateCancelled, f.wf.State())
	assert.NotContains(t, f.calls.order, "destroy")
	assert.NotContains(t, f.calls.order, "remove")
}

func TestDownDestroyFailure(t *testing.T) {
	f := newFixture()
	f.engine.destroyErr = errors.New("DependencyViolation: subnet has dependencies")

	err := f.wf.Down(context.Background(), demoTarget, true, false)
	require.Error(t, err)
	assert.Equal(t, PhaseDestroy, FailedPhase(err))
	assert.Equal(t, StateFailed, f.wf.State())
	// Local credentials stay until the remote target is actually gone.
	assert.NotContains(t, f.calls.order, "remove")
}

func TestDownSkipReap(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.wf.Down(context.Background(), demoTarget, true, true))
	assert.NotContains(t, f.calls.order, "reap")
	assert.Contains(t, f.calls.order, "destroy")
}

func TestDownLocalCleanupFailureIsNonFatal(t *testing.T) {
	f := newFixture()
	f.store.removeErr = errors.New("kubeconfig locked")

	require.NoError(t, f.wf.Down(context.Background(), demoTarget, true, false))
	assert.Equal(t, StateDestroyed, f.wf.State())
}

func TestCanTransition(t *testing.T) {
	legal := [][2]State{
		{StateInit, StateValidated},
		{StateValidated, StatePlanned},
		{StatePlanned, StateConfirmed},
		{StateConfirmed, StateApplied},
		{StateApplied, StateSynced},
		{StateInit, StateReaped},
		{StateReaped, StateConfirmed},
		{StateConfirmed, StateDestroyed},
		{StateDestroyed, StateDesynced},
		{StatePlanned, StateCancelled},
		{StateReaped, StateCancelled},
	}
	for _, pair := range legal {
		assert.True(t, CanTransition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}

	illegal := [][2]State{
		{StateInit, StateApplied},
		{StateInit, StateDestroyed},
		{StateValidated, StateConfirmed},
		{StateFailed, StateValidated},
		{StateCancelled, StateConfirmed},
		{StateSynced, StateDestroyed},
	}
	for _, pair := range illegal {
		assert.False(t, CanTransition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}
}
