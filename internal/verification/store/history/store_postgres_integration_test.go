//go:build integration

package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pkdconsole/internal/verification/models"
	id "pkdconsole/pkg/domain"
	"pkdconsole/pkg/testutil/containers"
)

func TestPostgresStoreRoundTrip(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	ctx := context.Background()

	store := NewPostgresStore(pc.DB)
	require.NoError(t, store.Migrate(ctx))

	entry := models.HistoryEntry{
		ID:             id.NewSessionID(),
		SubmittedAt:    time.Now().UTC().Truncate(time.Millisecond),
		DocumentNumber: "L898902C3",
		Status:         models.StatusInvalid,
		InvalidGroups:  1,
		StageStatuses: []models.StepStatus{
			models.StepSuccess, models.StepSuccess, models.StepSuccess,
			models.StepSuccess, models.StepSuccess, models.StepError,
			models.StepWarning, models.StepSuccess,
		},
	}
	require.NoError(t, store.Record(ctx, entry))

	entries, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	found := entries[0]
	require.Equal(t, entry.ID, found.ID)
	require.Equal(t, entry.DocumentNumber, found.DocumentNumber)
	require.Equal(t, entry.Status, found.Status)
	require.Equal(t, entry.InvalidGroups, found.InvalidGroups)
	require.Equal(t, entry.StageStatuses, found.StageStatuses)
}

func TestPostgresStoreRecordIsIdempotent(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	ctx := context.Background()

	store := NewPostgresStore(pc.DB)
	require.NoError(t, store.Migrate(ctx))

	entry := models.HistoryEntry{
		ID:            id.NewSessionID(),
		SubmittedAt:   time.Now().UTC(),
		Status:        models.StatusValid,
		StageStatuses: []models.StepStatus{models.StepSuccess},
	}
	require.NoError(t, store.Record(ctx, entry))

	entry.Status = models.StatusError
	require.NoError(t, store.Record(ctx, entry))

	entries, err := store.List(ctx, 100)
	require.NoError(t, err)

	var matches int
	for _, e := range entries {
		if e.ID == entry.ID {
			matches++
			require.Equal(t, models.StatusError, e.Status)
		}
	}
	require.Equal(t, 1, matches)
}
