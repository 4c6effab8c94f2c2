package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tulparsec/tulpar/internal/models"
)

// fakeStore records orchestrator persistence calls in memory.
type fakeStore struct {
	saved    []*models.ScanMeta
	statuses map[string]models.ScanStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{statuses: make(map[string]models.ScanStatus)}
}

func (f *fakeStore) SaveScan(meta *models.ScanMeta) error {
	f.saved = append(f.saved, meta)
	return nil
}

func (f *fakeStore) UpdateScanStatus(id string, status models.ScanStatus) error {
	f.statuses[id] = status
	return nil
}

func noopStage(name string) Stage {
	return Stage{Name: name, Run: func(ctx context.Context, state *models.ScanState) error {
		return nil
	}}
}

func TestRunPipelineAllStagesSucceed(t *testing.T) {
	store := newFakeStore()
	state := models.NewScanState("example.com", t.TempDir())

	stages := []Stage{noopStage("one"), noopStage("two"), noopStage("three")}

	result, err := RunPipeline(context.Background(), RunConfig{Target: "example.com"}, stages, store, state)
	require.NoError(t, err)

	assert.Equal(t, "complete", result.Status)
	assert.Equal(t, []string{"one", "two", "three"}, result.StagesRun)
	assert.Empty(t, result.StageErrors)
	assert.Equal(t, models.StatusComplete, store.statuses[result.ScanID])
}

func TestRunPipelineStageErrorContinues(t *testing.T) {
	store := newFakeStore()
	state := models.NewScanState("example.com", t.TempDir())

	var ranAfterFailure bool
	stages := []Stage{
		{Name: "boom", Run: func(ctx context.Context, state *models.ScanState) error {
			return errors.New("dependency unavailable")
		}},
		{Name: "after", Run: func(ctx context.Context, state *models.ScanState) error {
			ranAfterFailure = true
			return nil
		}},
	}

	result, err := RunPipeline(context.Background(), RunConfig{Target: "example.com"}, stages, store, state)
	require.NoError(t, err)

	assert.True(t, ranAfterFailure, "stage after a failure must still run")
	assert.Equal(t, "partial", result.Status)
	assert.Contains(t, result.StageErrors, "boom")
	assert.Equal(t, models.StatusFailed, store.statuses[result.ScanID])
}

func TestRunPipelinePanicIsIsolated(t *testing.T) {
	store := newFakeStore()
	state := models.NewScanState("example.com", t.TempDir())

	stages := []Stage{
		{Name: "panics", Run: func(ctx context.Context, state *models.ScanState) error {
			panic("nil map write")
		}},
		noopStage("survivor"),
	}

	result, err := RunPipeline(context.Background(), RunConfig{Target: "example.com"}, stages, store, state)
	require.NoError(t, err)

	assert.Equal(t, []string{"panics", "survivor"}, result.StagesRun)
	assert.Contains(t, result.StageErrors["panics"], "panicked")
	assert.Equal(t, "partial", result.Status)
}

func TestRunPipelineStageFiltering(t *testing.T) {
	store := newFakeStore()
	state := models.NewScanState("example.com", t.TempDir())

	var order []string
	mk := func(name string) Stage {
		return Stage{Name: name, Run: func(ctx context.Context, state *models.ScanState) error {
			order = append(order, name)
			return nil
		}}
	}
	stages := []Stage{mk("a"), mk("b"), mk("c"), mk("d")}

	cfg := RunConfig{
		Target: "example.com",
		// Allow-list order must not override canonical order.
		Stages: []string{"d", "a", "c"},
		Skip:   []string{"c"},
	}
	result, err := RunPipeline(context.Background(), cfg, stages, store, state)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "d"}, order)
	assert.Equal(t, []string{"a", "d"}, result.StagesRun)
}

func TestRunPipelineValidation(t *testing.T) {
	store := newFakeStore()
	state := models.NewScanState("example.com", t.TempDir())

	_, err := RunPipeline(context.Background(), RunConfig{}, []Stage{noopStage("a")}, store, state)
	assert.Error(t, err, "missing target must be rejected")

	_, err = RunPipeline(context.Background(), RunConfig{Target: "example.com", Skip: []string{"a"}},
		[]Stage{noopStage("a")}, store, state)
	assert.Error(t, err, "empty stage selection must be rejected")
}

func TestGetPreset(t *testing.T) {
	p, err := GetPreset("full")
	require.NoError(t, err)
	assert.Equal(t, []string{"enumerate", "liveness", "jsendpoints", "vulnprobe", "wayback", "report"}, p.Stages)

	_, err = GetPreset("nope")
	assert.Error(t, err)
}
