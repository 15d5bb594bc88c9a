//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"impactx/internal/oracle/models"
	"impactx/internal/oracle/store"
	id "impactx/pkg/domain"
	"impactx/pkg/platform/sentinel"
	"impactx/pkg/testutil/containers"
)

type OraclePostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	ctx      context.Context
}

func TestOraclePostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(OraclePostgresSuite))
}

func (s *OraclePostgresSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *OraclePostgresSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "oracles"))
}

func (s *OraclePostgresSuite) create(oracleID string, weight int64, at time.Time) *models.Oracle {
	o, err := models.NewOracle(id.OracleID(oracleID), "oracle "+oracleID, weight, at)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, o))
	return o
}

func (s *OraclePostgresSuite) TestCreateFindAndConflict() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	o := s.create("02aa", 3, now)

	found, err := s.store.FindByID(s.ctx, o.ID)
	s.Require().NoError(err)
	s.Equal(int64(3), found.Weight)
	s.True(found.IsActive())
	s.True(found.RegisteredAt.Equal(now))

	s.ErrorIs(s.store.Create(s.ctx, o), sentinel.ErrConflict)

	_, err = s.store.FindByID(s.ctx, "02ff")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *OraclePostgresSuite) TestListOrdersByRegistration() {
	base := time.Now().UTC()
	s.create("02bb", 1, base.Add(time.Second))
	s.create("02aa", 2, base)

	list, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(id.OracleID("02aa"), list[0].ID)
}

func (s *OraclePostgresSuite) TestExecuteUpdatesUnderLock() {
	o := s.create("02aa", 2, time.Now().UTC())

	_, err := s.store.Execute(s.ctx, o.ID,
		func(*models.Oracle) error { return errors.New("rejected") },
		func(m *models.Oracle) { m.Weight = 9 },
	)
	s.EqualError(err, "rejected")

	updated, err := s.store.Execute(s.ctx, o.ID,
		func(m *models.Oracle) error { return m.CanSetWeight(5) },
		func(m *models.Oracle) { m.ApplyWeight(5, time.Now().UTC()) },
	)
	s.Require().NoError(err)
	s.Equal(int64(5), updated.Weight)

	deactivated, err := s.store.Execute(s.ctx, o.ID,
		func(m *models.Oracle) error { return m.CanDeactivate() },
		func(m *models.Oracle) { m.ApplyDeactivation(time.Now().UTC()) },
	)
	s.Require().NoError(err)
	s.False(deactivated.IsActive())

	found, err := s.store.FindByID(s.ctx, o.ID)
	s.Require().NoError(err)
	s.Equal(int64(5), found.Weight)
	s.False(found.IsActive())
}
