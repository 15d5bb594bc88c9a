package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"impactx/internal/oracle/store"
	id "impactx/pkg/domain"
	dErrors "impactx/pkg/domain-errors"
	"impactx/pkg/testutil"
)

// =============================================================================
// Oracle Registry Service Test Suite
// =============================================================================
// Justification for unit tests: the registry decides who may vote and with
// what weight. Tests cover id validation, status transitions and the
// not-found/inactive distinctions the escrow engine relies on.

type OracleServiceSuite struct {
	suite.Suite
	service *Service
	clock   *testutil.Clock
	ctx     context.Context
	key     testutil.OracleKey
}

func TestOracleServiceSuite(t *testing.T) {
	suite.Run(t, new(OracleServiceSuite))
}

func (s *OracleServiceSuite) SetupTest() {
	var err error
	s.service, err = New(store.NewInMemory(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)
	s.clock = testutil.NewClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.ctx = s.clock.Ctx(context.Background())
	s.key = testutil.NewOracleKey(s.T())
}

func (s *OracleServiceSuite) TestNew() {
	_, err := New(nil)
	s.Require().Error(err)
	s.Contains(err.Error(), "oracle store is required")
}

// =============================================================================
// Registration
// =============================================================================

func (s *OracleServiceSuite) TestRegister() {
	s.Run("registers active oracle", func() {
		o, err := s.service.Register(s.ctx, s.key.ID.String(), "auditor", 3)
		s.Require().NoError(err)
		s.True(o.IsActive())
		s.Equal(s.clock.Now(), o.RegisteredAt)

		weight, err := s.service.WeightOf(s.ctx, s.key.ID)
		s.Require().NoError(err)
		s.Equal(int64(3), weight)
	})

	s.Run("duplicate id conflicts", func() {
		_, err := s.service.Register(s.ctx, s.key.ID.String(), "again", 1)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("id must be a compressed public key", func() {
		_, err := s.service.Register(s.ctx, "not-hex", "x", 1)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		_, err = s.service.Register(s.ctx, "02ab", "x", 1)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("weight must be positive", func() {
		other := testutil.NewOracleKey(s.T())
		_, err := s.service.Register(s.ctx, other.ID.String(), "x", 0)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

// =============================================================================
// Lifecycle
// =============================================================================

func (s *OracleServiceSuite) TestLifecycle() {
	_, err := s.service.Register(s.ctx, s.key.ID.String(), "auditor", 3)
	s.Require().NoError(err)

	s.clock.Advance(time.Hour)
	ctx := s.clock.Ctx(context.Background())

	o, err := s.service.Deactivate(ctx, s.key.ID)
	s.Require().NoError(err)
	s.False(o.IsActive())
	s.Equal(s.clock.Now(), o.UpdatedAt)

	active, err := s.service.IsActive(ctx, s.key.ID)
	s.Require().NoError(err)
	s.False(active)

	_, err = s.service.Deactivate(ctx, s.key.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.service.Reactivate(ctx, s.key.ID)
	s.Require().NoError(err)

	o, err = s.service.SetWeight(ctx, s.key.ID, 5)
	s.Require().NoError(err)
	s.Equal(int64(5), o.Weight)

	_, err = s.service.SetWeight(ctx, s.key.ID, -2)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *OracleServiceSuite) TestUnknownOracle() {
	unknown := id.OracleID("02" + "00")
	_, err := s.service.IsActive(s.ctx, unknown)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.service.WeightOf(s.ctx, unknown)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.service.Deactivate(s.ctx, unknown)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// =============================================================================
// Roster seeding
// =============================================================================

func (s *OracleServiceSuite) TestSeedRoster() {
	second := testutil.NewOracleKey(s.T())
	raw := []byte(`
oracles:
  - id: ` + s.key.ID.String() + `
    name: field-auditor
    weight: 3
  - id: ` + second.ID.String() + `
    name: satellite-feed
    weight: 1
    active: false
`)
	roster, err := ParseRoster(raw)
	s.Require().NoError(err)
	s.Require().Len(roster.Oracles, 2)

	n, err := s.service.Seed(s.ctx, roster)
	s.Require().NoError(err)
	s.Equal(2, n)

	active, err := s.service.IsActive(s.ctx, second.ID)
	s.Require().NoError(err)
	s.False(active)

	n, err = s.service.Seed(s.ctx, roster)
	s.Require().NoError(err)
	s.Equal(0, n, "reseeding skips registered oracles")

	list, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 2)
}

func (s *OracleServiceSuite) TestSeedRejectsBadEntry() {
	roster, err := ParseRoster([]byte("oracles:\n  - id: nothex\n    name: x\n    weight: 1\n"))
	s.Require().NoError(err)
	_, err = s.service.Seed(s.ctx, roster)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = ParseRoster([]byte("oracles: [:"))
	s.Error(err)
}
