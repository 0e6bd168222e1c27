package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"pkdconsole/internal/verification/models"
	id "pkdconsole/pkg/domain"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func entryAt(ts time.Time) models.HistoryEntry {
	return models.HistoryEntry{
		ID:            id.NewSessionID(),
		SubmittedAt:   ts,
		Status:        models.StatusValid,
		StageStatuses: []models.StepStatus{models.StepSuccess},
	}
}

func (s *InMemoryStoreSuite) TestNewestFirst() {
	base := time.Now().UTC()
	first := entryAt(base)
	second := entryAt(base.Add(time.Minute))

	require.NoError(s.T(), s.store.Record(s.ctx, first))
	require.NoError(s.T(), s.store.Record(s.ctx, second))

	entries, err := s.store.List(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(second.ID, entries[0].ID)
	s.Equal(first.ID, entries[1].ID)
}

func (s *InMemoryStoreSuite) TestListLimit() {
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(s.T(), s.store.Record(s.ctx, entryAt(base.Add(time.Duration(i)*time.Second))))
	}
	entries, err := s.store.List(s.ctx, 3)
	s.Require().NoError(err)
	s.Len(entries, 3)
}

func (s *InMemoryStoreSuite) TestEmptyList() {
	entries, err := s.store.List(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(entries)
}
