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

func donationTask(t *testing.T, payload workers.DonationRecordedPayload) *asynq.Task {
	t.Helper()
	task, err := workers.NewDonationRecordedTask(payload)
	require.NoError(t, err)
	return task
}

func TestDonationProcessor_ProcessDonation(t *testing.T) {
	collected := time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		task       func(t *testing.T) *asynq.Task
		setupMocks func(*mocks.MockInventoryService)
		wantErr    bool
		skipRetry  bool
	}{
		{
			name: "ingests_valid_donation",
			task: func(t *testing.T) *asynq.Task {
				return donationTask(t, workers.DonationRecordedPayload{
					DonationID: "don-1", BloodGroup: "A+", Units: 2, CollectedDate: collected,
				})
			},
			setupMocks: func(m *mocks.MockInventoryService) {
				m.EXPECT().
					AddFromDonation(gomock.Any(), ports.DonationCommand{
						BloodGroup:    domain.GroupAPos,
						Units:         2,
						DonationID:    "don-1",
						CollectedDate: collected,
						Actor:         domain.SystemActor,
					}).
					Return(&ports.LedgerChange{Count: 2}, nil)
			},
		},
		{
			name: "malformed_payload_is_not_retried",
			task: func(t *testing.T) *asynq.Task {
				return asynq.NewTask(workers.TypeDonationRecorded, []byte("{not json"))
			},
			setupMocks: func(m *mocks.MockInventoryService) {},
			wantErr:    true,
			skipRetry:  true,
		},
		{
			name: "unknown_group_is_not_retried",
			task: func(t *testing.T) *asynq.Task {
				return donationTask(t, workers.DonationRecordedPayload{DonationID: "don-2", BloodGroup: "C+", Units: 1})
			},
			setupMocks: func(m *mocks.MockInventoryService) {},
			wantErr:    true,
			skipRetry:  true,
		},
		{
			name: "validation_failure_is_not_retried",
			task: func(t *testing.T) *asynq.Task {
				return donationTask(t, workers.DonationRecordedPayload{DonationID: "don-3", BloodGroup: "O-", Units: 0})
			},
			setupMocks: func(m *mocks.MockInventoryService) {
				m.EXPECT().
					AddFromDonation(gomock.Any(), gomock.Any()).
					Return(nil, &domain.ValidationError{Field: "units", Message: "must be positive"})
			},
			wantErr:   true,
			skipRetry: true,
		},
		{
			name: "infrastructure_failure_is_retried",
			task: func(t *testing.T) *asynq.Task {
				return donationTask(t, workers.DonationRecordedPayload{
					DonationID: "don-4", BloodGroup: "B+", Units: 1, Actor: "recorder",
				})
			},
			setupMocks: func(m *mocks.MockInventoryService) {
				m.EXPECT().
					AddFromDonation(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("database unavailable"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockInventoryService(ctrl)
			tt.setupMocks(svc)

			processor := workers.NewDonationProcessor(svc, helpers.TestLogger())
			err := processor.ProcessDonation(context.Background(), tt.task(t))

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func TestExpiryProcessor_CheckExpiry(t *testing.T) {
	t.Run("defaults_actor_to_system", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mocks.NewMockInventoryService(ctrl)
		svc.EXPECT().
			CheckAllExpiry(gomock.Any(), domain.SystemActor).
			Return(&domain.ExpiryReport{TotalExpired: 3}, nil)

		processor := workers.NewExpiryProcessor(svc, helpers.TestLogger())
		err := processor.CheckExpiry(context.Background(), asynq.NewTask(workers.TypeCheckExpiry, nil))
		assert.NoError(t, err)
	})

	t.Run("uses_payload_actor", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mocks.NewMockInventoryService(ctrl)
		svc.EXPECT().
			CheckAllExpiry(gomock.Any(), "scheduler").
			Return(&domain.ExpiryReport{}, nil)

		processor := workers.NewExpiryProcessor(svc, helpers.TestLogger())
		err := processor.CheckExpiry(context.Background(), workers.NewCheckExpiryTask("scheduler"))
		assert.NoError(t, err)
	})

	t.Run("service_error_is_retried", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mocks.NewMockInventoryService(ctrl)
		svc.EXPECT().
			CheckAllExpiry(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("timeout"))

		processor := workers.NewExpiryProcessor(svc, helpers.TestLogger())
		err := processor.CheckExpiry(context.Background(), workers.NewCheckExpiryTask(""))
		require.Error(t, err)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	})
}

func TestAlertProcessor_DeliverAlert(t *testing.T) {
	tests := []struct {
		name       string
		recipients []string
		payload    []byte
		skipRetry  bool
	}{
		{
			name:       "delivers_to_each_recipient",
			recipients: []string{"oncall@bank.example", "lab@bank.example"},
			payload:    mustJSON(t, domain.StockAlert{BloodGroup: domain.GroupONeg, Kind: domain.AlertLowStock, UnitsAvailable: 2, Threshold: 5}),
		},
		{
			name:    "delivers_without_recipients",
			payload: mustJSON(t, domain.StockAlert{BloodGroup: domain.GroupAPos, Kind: domain.AlertExpired, Count: 4}),
		},
		{
			name:      "malformed_payload",
			payload:   []byte("[]{"),
			skipRetry: true,
		},
		{
			name:      "unknown_group",
			payload:   []byte(`{"blood_group":"Q","kind":"low_stock"}`),
			skipRetry: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := workers.NewAlertProcessor(tt.recipients, helpers.TestLogger())
			err := processor.DeliverAlert(context.Background(), asynq.NewTask(workers.TypeStockAlert, tt.payload))
			if tt.skipRetry {
				require.Error(t, err)
				assert.ErrorIs(t, err, asynq.SkipRetry)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestArchiveProcessor_ArchiveHistory(t *testing.T) {
	events := []domain.LedgerEvent{
		{Action: domain.ActionAdded, Units: 2, PerformedBy: "staff", Timestamp: time.Now().UTC()},
	}

	t.Run("archives_selected_groups_with_history", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockLedgerRepository(ctrl)
		archiver := mocks.NewMockHistoryArchiver(ctrl)

		repo.EXPECT().History(gomock.Any(), domain.GroupOPos, 100, 0).Return(events, nil)
		repo.EXPECT().History(gomock.Any(), domain.GroupBNeg, 100, 0).Return(nil, nil)
		archiver.EXPECT().
			ArchiveHistory(gomock.Any(), domain.GroupOPos, events).
			Return("history/opos/2025/01/01/history.json", nil)

		processor := workers.NewArchiveProcessor(repo, archiver, helpers.TestLogger())
		task := workers.NewArchiveHistoryTask(workers.ArchiveHistoryPayload{
			BloodGroups: []string{"O+", "B-"},
			Limit:       100,
		})
		assert.NoError(t, processor.ArchiveHistory(context.Background(), task))
	})

	t.Run("defaults_to_every_group", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockLedgerRepository(ctrl)
		archiver := mocks.NewMockHistoryArchiver(ctrl)

		repo.EXPECT().
			History(gomock.Any(), gomock.Any(), 5000, 0).
			Return(nil, nil).
			Times(len(domain.AllBloodGroups))

		processor := workers.NewArchiveProcessor(repo, archiver, helpers.TestLogger())
		assert.NoError(t, processor.ArchiveHistory(context.Background(), asynq.NewTask(workers.TypeArchiveHistory, nil)))
	})

	t.Run("continues_past_failures_and_reports_them", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockLedgerRepository(ctrl)
		archiver := mocks.NewMockHistoryArchiver(ctrl)
		storeErr := errors.New("bucket unavailable")

		repo.EXPECT().History(gomock.Any(), domain.GroupAPos, gomock.Any(), 0).Return(events, nil)
		repo.EXPECT().History(gomock.Any(), domain.GroupANeg, gomock.Any(), 0).Return(events, nil)
		archiver.EXPECT().ArchiveHistory(gomock.Any(), domain.GroupAPos, events).Return("", storeErr)
		archiver.EXPECT().ArchiveHistory(gomock.Any(), domain.GroupANeg, events).Return("key", nil)

		processor := workers.NewArchiveProcessor(repo, archiver, helpers.TestLogger())
		task := workers.NewArchiveHistoryTask(workers.ArchiveHistoryPayload{BloodGroups: []string{"A+", "A-"}})
		err := processor.ArchiveHistory(context.Background(), task)
		require.ErrorIs(t, err, storeErr)
		assert.Contains(t, err.Error(), "A+")
	})

	t.Run("unknown_group_is_not_retried", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		processor := workers.NewArchiveProcessor(
			mocks.NewMockLedgerRepository(ctrl), mocks.NewMockHistoryArchiver(ctrl), helpers.TestLogger())

		task := workers.NewArchiveHistoryTask(workers.ArchiveHistoryPayload{BloodGroups: []string{"X"}})
		err := processor.ArchiveHistory(context.Background(), task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
