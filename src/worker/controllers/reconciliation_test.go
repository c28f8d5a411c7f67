package controllers_test

import (
	"context"
	"testing"
	"time"

	"portfolio/src/models"
	"portfolio/src/schemas"
	"portfolio/src/services"
	"portfolio/src/worker/controllers"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSyncService struct {
	mock.Mock
}

func (m *mockSyncService) Run(ctx context.Context, req schemas.RunRequest) (*schemas.RunReport, error) {
	args := m.Called(ctx, req)
	report, _ := args.Get(0).(*schemas.RunReport)
	return report, args.Error(1)
}

func (m *mockSyncService) Launch(ctx context.Context, req schemas.RunRequest) (*schemas.RunAccepted, error) {
	args := m.Called(ctx, req)
	accepted, _ := args.Get(0).(*schemas.RunAccepted)
	return accepted, args.Error(1)
}

func (m *mockSyncService) LastRun(ctx context.Context) (*schemas.RunReport, error) {
	args := m.Called(ctx)
	report, _ := args.Get(0).(*schemas.RunReport)
	return report, args.Error(1)
}

func dailySync() interface{} {
	return mock.MatchedBy(func(req schemas.RunRequest) bool { return req.Mode == models.RunModeDailySync })
}

func TestScheduleRun(t *testing.T) {
	t.Run("invalid schedule is rejected", func(t *testing.T) {
		controller := controllers.NewController(&mockSyncService{}, logrus.New())
		assert.Error(t, controller.ScheduleRun(models.RunModeDailySync, "every day", time.UTC))
		assert.Empty(t, controller.GetSchedulers())
	})

	t.Run("rescheduling replaces the task", func(t *testing.T) {
		controller := controllers.NewController(&mockSyncService{}, logrus.New())
		defer controller.StopSchedules()

		require.NoError(t, controller.ScheduleRun(models.RunModeDailySync, "0 18 * * *", time.UTC))
		first := controller.GetSchedulers()[models.RunModeDailySync]
		require.NoError(t, controller.ScheduleRun(models.RunModeDailySync, "0 6 * * *", time.UTC))

		schedulers := controller.GetSchedulers()
		require.Len(t, schedulers, 1)
		assert.NotSame(t, first, schedulers[models.RunModeDailySync])
		assert.Equal(t, 6, schedulers[models.RunModeDailySync].Next().Hour())
	})

	t.Run("scheduled trigger runs a daily sync", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		syncService := &mockSyncService{}
		ran := make(chan struct{}, 1)
		syncService.On("Run", mock.Anything, dailySync()).
			Return(&schemas.RunReport{ID: uuid.New(), Mode: models.RunModeDailySync, Upserted: 2}, nil).
			Run(func(mock.Arguments) {
				select {
				case ran <- struct{}{}:
				default:
				}
			})

		controller := controllers.NewController(syncService, logger)
		require.NoError(t, controller.ScheduleRun(models.RunModeDailySync, "@every 1s", time.UTC))

		select {
		case <-ran:
		case <-time.After(3 * time.Second):
			t.Fatal("scheduled run did not fire")
		}
		controller.StopSchedules()

		assert.Empty(t, controller.GetSchedulers())
		assert.Eventually(t, func() bool {
			for _, entry := range hook.AllEntries() {
				if entry.Message == "Scheduled reconciliation finished" {
					return true
				}
			}
			return false
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("busy lock is logged and skipped", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		syncService := &mockSyncService{}
		syncService.On("Run", mock.Anything, dailySync()).Return(nil, services.ErrRunInProgress)

		controller := controllers.NewController(syncService, logger)
		require.NoError(t, controller.ScheduleRun(models.RunModeDailySync, "@every 1s", time.UTC))
		defer controller.StopSchedules()

		assert.Eventually(t, func() bool {
			for _, entry := range hook.AllEntries() {
				if entry.Level == logrus.WarnLevel {
					return true
				}
			}
			return false
		}, 3*time.Second, 20*time.Millisecond)
	})
}
