package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"impactx/internal/escrow/models"
	id "impactx/pkg/domain"
	"impactx/pkg/platform/sentinel"
	txcontext "impactx/pkg/platform/tx"
)

// PostgresStore persists campaign state as a JSONB document guarded by a row
// lock. Proof and disbursement rows are written alongside for lookups and
// to enforce one disbursement per campaign at the schema level; transition
// events go to escrow_outbox in the same transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, state *models.CampaignState) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		raw, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("marshal campaign state: %w", err)
		}
		res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `
			INSERT INTO campaigns (id, status, phase, deadline, version, halted, state, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			ON CONFLICT (id) DO NOTHING
		`,
			uuid.UUID(state.Campaign.ID),
			string(state.Campaign.Status),
			string(state.Phase),
			state.Campaign.Deadline,
			state.Version,
			state.Halted,
			raw,
			state.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert campaign: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return sentinel.ErrConflict
		}
		return s.insertOutbox(ctx, state.DrainEvents())
	})
}

func (s *PostgresStore) Update(ctx context.Context, campaignID id.CampaignID, fn func(*models.CampaignState) (bool, error)) error {
	var fnErr error
	err := s.inTx(ctx, func(ctx context.Context) error {
		var raw []byte
		err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
			`SELECT state FROM campaigns WHERE id = $1 FOR UPDATE`,
			uuid.UUID(campaignID),
		).Scan(&raw)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("lock campaign: %w", err)
		}
		state, err := decodeState(raw)
		if err != nil {
			return err
		}

		var commit bool
		commit, fnErr = fn(state)
		if !commit {
			return errRollback
		}
		return s.persist(ctx, state)
	})
	if errors.Is(err, errRollback) {
		return fnErr
	}
	if err != nil {
		return err
	}
	return fnErr
}

var errRollback = errors.New("rollback")

func (s *PostgresStore) persist(ctx context.Context, state *models.CampaignState) error {
	exec := txcontext.Exec(ctx, s.db)
	events := state.DrainEvents()
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal campaign state: %w", err)
	}
	_, err = exec.ExecContext(ctx, `
		UPDATE campaigns
		SET status = $2, phase = $3, version = $4, halted = $5, state = $6, updated_at = $7
		WHERE id = $1
	`,
		uuid.UUID(state.Campaign.ID),
		string(state.Campaign.Status),
		string(state.Phase),
		state.Version,
		state.Halted,
		raw,
		state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}

	for _, p := range state.Proofs.Items {
		_, err = exec.ExecContext(ctx, `
			INSERT INTO campaign_proofs (proof_id, campaign_id, content_hash, submitted_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (proof_id) DO NOTHING
		`, uuid.UUID(p.ID), uuid.UUID(p.CampaignID), string(p.ContentHash), p.SubmittedAt)
		if err != nil {
			return fmt.Errorf("index proof: %w", err)
		}
	}

	if d := state.Disbursement; d != nil {
		payload, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("marshal disbursement: %w", err)
		}
		_, err = exec.ExecContext(ctx, `
			INSERT INTO disbursements (id, campaign_id, kind, reason, total, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (campaign_id) DO NOTHING
		`, uuid.UUID(d.ID), uuid.UUID(d.CampaignID), string(d.Kind), d.Reason, d.Total, payload, d.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert disbursement: %w", err)
		}
	}

	return s.insertOutbox(ctx, events)
}

func (s *PostgresStore) insertOutbox(ctx context.Context, events []models.Event) error {
	exec := txcontext.Exec(ctx, s.db)
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal outbox event: %w", err)
		}
		_, err = exec.ExecContext(ctx, `
			INSERT INTO escrow_outbox (campaign_id, event_type, version, payload, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.UUID(e.CampaignID), string(e.Type), e.Version, payload, e.At)
		if err != nil {
			return fmt.Errorf("insert outbox entry: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, campaignID id.CampaignID) (*models.CampaignState, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT state FROM campaigns WHERE id = $1`, uuid.UUID(campaignID)).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find campaign: %w", err)
	}
	return decodeState(raw)
}

func (s *PostgresStore) CampaignForProof(ctx context.Context, proofID id.ProofID) (id.CampaignID, error) {
	var campaignID uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT campaign_id FROM campaign_proofs WHERE proof_id = $1`,
		uuid.UUID(proofID),
	).Scan(&campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return id.CampaignID{}, sentinel.ErrNotFound
		}
		return id.CampaignID{}, fmt.Errorf("find proof campaign: %w", err)
	}
	return id.CampaignID(campaignID), nil
}

func (s *PostgresStore) ListOpen(ctx context.Context) ([]id.CampaignID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM campaigns
		WHERE phase NOT IN ('Released', 'Refunded') AND NOT halted
		ORDER BY deadline
	`)
	if err != nil {
		return nil, fmt.Errorf("list open campaigns: %w", err)
	}
	defer rows.Close()

	var ids []id.CampaignID
	for rows.Next() {
		var u uuid.UUID
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan campaign id: %w", err)
		}
		ids = append(ids, id.CampaignID(u))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaigns: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) FetchUnpublished(ctx context.Context, limit int) ([]models.OutboxEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, payload, created_at FROM escrow_outbox
		WHERE published_at IS NULL
		ORDER BY seq
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []models.OutboxEntry
	for rows.Next() {
		var (
			entry   models.OutboxEntry
			payload []byte
		)
		if err := rows.Scan(&entry.Seq, &payload, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		if err := json.Unmarshal(payload, &entry.Event); err != nil {
			return nil, fmt.Errorf("unmarshal outbox event %d: %w", entry.Seq, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) MarkPublished(ctx context.Context, seqs []int64) error {
	if len(seqs) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE escrow_outbox SET published_at = $2 WHERE seq = ANY($1::bigint[])`,
		pq.Array(seqs), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin campaign tx: %w", err)
	}
	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit campaign tx: %w", err)
	}
	return nil
}

func decodeState(raw []byte) (*models.CampaignState, error) {
	var state models.CampaignState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("unmarshal campaign state: %w", err)
	}
	if state.Tallies == nil {
		state.Tallies = make(map[id.ProofID]*models.Tally)
	}
	return &state, nil
}
