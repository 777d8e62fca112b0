package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/model"
)

func newTestSweeper(h *pipelineHarness) *Sweeper {
	return NewSweeper(h.alerts, h.pipeline, time.Second, 5*time.Minute, time.Hour, zap.NewNop())
}

func TestSweeperSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("a sweep escalates overdue alerts", func(t *testing.T) {
		h := newPipelineHarness(t, luna())
		h.addPaddock(t, "North Paddock", 10, 10, 0.01)
		require.NoError(t, h.pipeline.Process(ctx, report("c1", 10, 10, 100)))
		require.NoError(t, h.pipeline.Process(ctx, report("c1", 10.05, 10, 200)))

		alerts := h.alerts.ActiveAlerts()
		require.Len(t, alerts, 1)
		h.alerts.backdateCreated(alerts[0].ID, time.Now().Add(-time.Hour))

		newTestSweeper(h).Sweep(ctx, time.Now())

		alerts = h.alerts.ActiveAlerts()
		require.Len(t, alerts, 1)
		assert.True(t, alerts[0].Escalated)
		assert.Equal(t, 1, h.sink.count(model.EventAlertEscalated))
	})

	t.Run("a sweep takes silent collars offline", func(t *testing.T) {
		h := newPipelineHarness(t, luna())
		require.NoError(t, h.pipeline.Process(ctx, report("c1", 10, 10, 100)))

		newTestSweeper(h).Sweep(ctx, time.Now().Add(10*time.Minute))

		assert.Equal(t, model.HorseStatusOffline, h.pipeline.Horses()[0].Status)
		alerts := h.alerts.ActiveAlerts()
		require.Len(t, alerts, 1)
		assert.Equal(t, model.AlertDeviceOffline, alerts[0].Condition)
	})

	t.Run("a sweep leaves fresh reporters alone", func(t *testing.T) {
		h := newPipelineHarness(t, luna())
		require.NoError(t, h.pipeline.Process(ctx, report("c1", 10, 10, 100)))

		newTestSweeper(h).Sweep(ctx, time.Now())

		assert.Equal(t, model.HorseStatusActive, h.pipeline.Horses()[0].Status)
		assert.Empty(t, h.alerts.ActiveAlerts())
	})

	t.Run("a persistence failure does not stop the pass", func(t *testing.T) {
		now := time.Now()
		stale := now.Add(-10 * time.Minute)
		h := newPipelineHarness(t,
			model.Horse{ID: "h1", Name: "Luna", CollarID: "c1", Status: model.HorseStatusActive, LastSeenAt: &stale},
			model.Horse{ID: "h2", Name: "Star", CollarID: "c2", Status: model.HorseStatusActive, LastSeenAt: &stale},
		)
		h.alertStore.saveErr = errors.New("connection refused")
		h.horses.updateErr = errors.New("connection refused")

		newTestSweeper(h).Sweep(ctx, now)

		horses := h.pipeline.Horses()
		assert.Equal(t, model.HorseStatusOffline, horses[0].Status)
		assert.Equal(t, model.HorseStatusOffline, horses[1].Status)
		assert.Len(t, h.alerts.ActiveAlerts(), 2)
	})

	t.Run("a sweep prunes stale resolved bookkeeping", func(t *testing.T) {
		h := newPipelineHarness(t, luna())
		low := report("c1", 10, 10, 100)
		low.Battery = intPtr(15)
		require.NoError(t, h.pipeline.Process(ctx, low))
		recovered := report("c1", 10, 10, 200)
		recovered.Battery = intPtr(80)
		require.NoError(t, h.pipeline.Process(ctx, recovered))

		ev, ok := h.sink.last(model.EventAlertResolved)
		require.True(t, ok)
		id := ev.Data.(model.Alert).ID
		h.alerts.backdateResolved(id, time.Now().Add(-2*time.Hour))

		newTestSweeper(h).Sweep(ctx, time.Now())

		h.alerts.mu.Lock()
		_, kept := h.alerts.byID[id]
		h.alerts.mu.Unlock()
		assert.False(t, kept, "Old resolved alerts should leave the lookup table")
	})

	t.Run("a canceled context cuts the pass short", func(t *testing.T) {
		h := newPipelineHarness(t, luna())
		require.NoError(t, h.pipeline.Process(ctx, report("c1", 10, 10, 100)))

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		newTestSweeper(h).Sweep(canceled, time.Now().Add(10*time.Minute))

		assert.Equal(t, model.HorseStatusActive, h.pipeline.Horses()[0].Status,
			"No horse should be touched after cancellation")
	})
}

func TestSweeperLifecycle(t *testing.T) {
	t.Run("stop waits for the loop to exit", func(t *testing.T) {
		h := newPipelineHarness(t, luna())
		sweeper := NewSweeper(h.alerts, h.pipeline, 10*time.Millisecond, 5*time.Minute, time.Hour, zap.NewNop())
		sweeper.Start(context.Background())

		time.Sleep(30 * time.Millisecond)

		done := make(chan struct{})
		go func() {
			sweeper.Stop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Stop() did not complete within timeout")
		}
	})

	t.Run("stop before start is a no-op", func(t *testing.T) {
		h := newPipelineHarness(t, luna())
		sweeper := newTestSweeper(h)
		sweeper.Stop()
	})
}
