package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/bloodbank-be/internal/core/domain"
	"github.com/ammerola/bloodbank-be/internal/core/ports"
	"github.com/ammerola/bloodbank-be/internal/workers"
	"github.com/ammerola/bloodbank-be/test/helpers"
	"github.com/ammerola/bloodbank-be/test/mocks"
)

func TestTaskClient_NotifyStockAlert(t *testing.T) {
	alert := domain.StockAlert{
		BloodGroup:     domain.GroupABNeg,
		Kind:           domain.AlertLowStock,
		UnitsAvailable: 1,
		Threshold:      5,
	}

	tests := []struct {
		name      string
		enqueueFn func(context.Context, *asynq.Task, ...asynq.Option) (*asynq.TaskInfo, error)
		wantErr   bool
	}{
		{
			name: "enqueues_alert_task",
			enqueueFn: func(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
				if task.Type() != workers.TypeStockAlert {
					return nil, errors.New("unexpected task type " + task.Type())
				}
				var got domain.StockAlert
				if err := json.Unmarshal(task.Payload(), &got); err != nil {
					return nil, err
				}
				if got.BloodGroup != domain.GroupABNeg {
					return nil, errors.New("wrong group")
				}
				return &asynq.TaskInfo{ID: "alert:low_stock:AB-"}, nil
			},
		},
		{
			name: "pending_duplicate_is_ignored",
			enqueueFn: func(context.Context, *asynq.Task, ...asynq.Option) (*asynq.TaskInfo, error) {
				return nil, asynq.ErrTaskIDConflict
			},
		},
		{
			name: "enqueue_failure_is_returned",
			enqueueFn: func(context.Context, *asynq.Task, ...asynq.Option) (*asynq.TaskInfo, error) {
				return nil, errors.New("redis unavailable")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			enqueuer := mocks.NewMockEnqueuer(ctrl)
			enqueuer.EXPECT().
				EnqueueContext(gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(tt.enqueueFn)

			client := workers.NewTaskClient(enqueuer, time.Minute, helpers.TestLogger())
			err := client.NotifyStockAlert(context.Background(), alert)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "failed to enqueue stock alert")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTaskClient_IngestDonation(t *testing.T) {
	cmd := ports.DonationCommand{
		BloodGroup:    domain.GroupOPos,
		Units:         2,
		DonationID:    "don-77",
		CollectedDate: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Actor:         "recorder",
	}

	t.Run("queues_donation_payload", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		enqueuer := mocks.NewMockEnqueuer(ctrl)

		var payload workers.DonationRecordedPayload
		enqueuer.EXPECT().
			EnqueueContext(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
				assert.Equal(t, workers.TypeDonationRecorded, task.Type())
				require.NoError(t, json.Unmarshal(task.Payload(), &payload))
				return &asynq.TaskInfo{ID: "donation:don-77"}, nil
			})

		workers.NewTaskClient(enqueuer, 0, helpers.TestLogger()).IngestDonation(context.Background(), cmd)

		assert.Equal(t, "don-77", payload.DonationID)
		assert.Equal(t, "O+", payload.BloodGroup)
		assert.Equal(t, 2, payload.Units)
		assert.True(t, cmd.CollectedDate.Equal(payload.CollectedDate))
	})

	t.Run("enqueue_failures_are_swallowed", func(t *testing.T) {
		for _, enqueueErr := range []error{asynq.ErrTaskIDConflict, errors.New("redis unavailable")} {
			ctrl := gomock.NewController(t)
			enqueuer := mocks.NewMockEnqueuer(ctrl)
			enqueuer.EXPECT().
				EnqueueContext(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(nil, enqueueErr)

			assert.NotPanics(t, func() {
				workers.NewTaskClient(enqueuer, 0, helpers.TestLogger()).IngestDonation(context.Background(), cmd)
			})
		}
	})
}

func TestDefaultSchedules(t *testing.T) {
	tests := []struct {
		name      string
		expiry    string
		archive   string
		wantTypes []string
	}{
		{
			name:      "both_enabled",
			expiry:    "@hourly",
			archive:   "0 2 * * *",
			wantTypes: []string{workers.TypeCheckExpiry, workers.TypeArchiveHistory},
		},
		{name: "archive_disabled", expiry: "@hourly", wantTypes: []string{workers.TypeCheckExpiry}},
		{name: "all_disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regs := workers.DefaultSchedules(tt.expiry, tt.archive, 250)
			var types []string
			for _, r := range regs {
				types = append(types, r.Task.Type())
				assert.NotEmpty(t, r.Spec)
				assert.NotEmpty(t, r.Options)
			}
			assert.Equal(t, tt.wantTypes, types)
		})
	}

	regs := workers.DefaultSchedules("", "@daily", 250)
	require.Len(t, regs, 1)
	var payload workers.ArchiveHistoryPayload
	require.NoError(t, json.Unmarshal(regs[0].Task.Payload(), &payload))
	assert.Equal(t, 250, payload.Limit)
}

func TestNewServeMux(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockInventoryService(ctrl)
	svc.EXPECT().
		CheckAllExpiry(gomock.Any(), domain.SystemActor).
		Return(&domain.ExpiryReport{}, nil)

	mux := workers.NewServeMux(workers.Processors{
		Expiry: workers.NewExpiryProcessor(svc, helpers.TestLogger()),
		Alert:  workers.NewAlertProcessor(nil, helpers.TestLogger()),
	})

	assert.NoError(t, mux.ProcessTask(context.Background(), workers.NewCheckExpiryTask("")))

	err := mux.ProcessTask(context.Background(), asynq.NewTask(workers.TypeDonationRecorded, nil))
	assert.Error(t, err, "unregistered processors are not served")
}
