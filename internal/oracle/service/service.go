package service

import (
	"context"
	"errors"
	"log/slog"

	"impactx/internal/oracle/models"
	id "impactx/pkg/domain"
	dErrors "impactx/pkg/domain-errors"
	"impactx/pkg/platform/sentinel"
	"impactx/pkg/requestcontext"
)

// Store persists oracle registrations.
type Store interface {
	Create(ctx context.Context, oracle *models.Oracle) error
	FindByID(ctx context.Context, oracleID id.OracleID) (*models.Oracle, error)
	List(ctx context.Context) ([]*models.Oracle, error)
	Execute(ctx context.Context, oracleID id.OracleID, validate func(*models.Oracle) error, mutate func(*models.Oracle)) (*models.Oracle, error)
}

// Service is the oracle registry. It owns identities and weights; the escrow
// engine reads it at vote time.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("oracle store is required")
	}
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register adds an active oracle.
func (s *Service) Register(ctx context.Context, rawID, name string, weight int64) (*models.Oracle, error) {
	oracleID, err := id.ParseOracleID(rawID)
	if err != nil {
		return nil, err
	}
	o, err := models.NewOracle(oracleID, name, weight, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, o); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "oracle already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register oracle")
	}
	s.logAudit(ctx, "oracle_registered", "oracle_id", o.ID.String(), "weight", o.Weight)
	return o, nil
}

// Deactivate stops the oracle from casting new votes. Votes it already cast stay counted.
func (s *Service) Deactivate(ctx context.Context, oracleID id.OracleID) (*models.Oracle, error) {
	now := requestcontext.Now(ctx)
	o, err := s.store.Execute(ctx, oracleID,
		func(o *models.Oracle) error {
			if err := o.CanDeactivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "oracle is already inactive")
			}
			return nil
		},
		func(o *models.Oracle) { o.ApplyDeactivation(now) },
	)
	if err != nil {
		return nil, wrapOracleErr(err)
	}
	s.logAudit(ctx, "oracle_deactivated", "oracle_id", o.ID.String())
	return o, nil
}

func (s *Service) Reactivate(ctx context.Context, oracleID id.OracleID) (*models.Oracle, error) {
	now := requestcontext.Now(ctx)
	o, err := s.store.Execute(ctx, oracleID,
		func(o *models.Oracle) error {
			if err := o.CanReactivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "oracle is already active")
			}
			return nil
		},
		func(o *models.Oracle) { o.ApplyReactivation(now) },
	)
	if err != nil {
		return nil, wrapOracleErr(err)
	}
	s.logAudit(ctx, "oracle_reactivated", "oracle_id", o.ID.String())
	return o, nil
}

// SetWeight changes the weight used for votes cast from now on.
func (s *Service) SetWeight(ctx context.Context, oracleID id.OracleID, weight int64) (*models.Oracle, error) {
	now := requestcontext.Now(ctx)
	o, err := s.store.Execute(ctx, oracleID,
		func(o *models.Oracle) error { return o.CanSetWeight(weight) },
		func(o *models.Oracle) { o.ApplyWeight(weight, now) },
	)
	if err != nil {
		return nil, wrapOracleErr(err)
	}
	s.logAudit(ctx, "oracle_weight_changed", "oracle_id", o.ID.String(), "weight", weight)
	return o, nil
}

func (s *Service) Get(ctx context.Context, oracleID id.OracleID) (*models.Oracle, error) {
	o, err := s.store.FindByID(ctx, oracleID)
	if err != nil {
		return nil, wrapOracleErr(err)
	}
	return o, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Oracle, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list oracles")
	}
	return list, nil
}

// WeightOf returns the registered weight, or CodeNotFound.
func (s *Service) WeightOf(ctx context.Context, oracleID id.OracleID) (int64, error) {
	o, err := s.Get(ctx, oracleID)
	if err != nil {
		return 0, err
	}
	return o.Weight, nil
}

// IsActive reports whether the oracle may vote. Unknown oracles are CodeNotFound.
func (s *Service) IsActive(ctx context.Context, oracleID id.OracleID) (bool, error) {
	o, err := s.Get(ctx, oracleID)
	if err != nil {
		return false, err
	}
	return o.IsActive(), nil
}

func wrapOracleErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "oracle not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "oracle registry failure")
}

func (s *Service) logAudit(ctx context.Context, event string, args ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	args = append(args, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
