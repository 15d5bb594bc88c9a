package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"impactx/internal/escrow/models"
	id "impactx/pkg/domain"
	dErrors "impactx/pkg/domain-errors"
	"impactx/pkg/platform/sentinel"
)

type campaignEntry struct {
	mu    sync.Mutex
	state *models.CampaignState
}

// InMemory keeps campaigns in process memory. Each campaign has its own
// mutex; updates run on a clone that is swapped in only when committed.
type InMemory struct {
	mu         sync.RWMutex
	campaigns  map[id.CampaignID]*campaignEntry
	proofIndex map[id.ProofID]id.CampaignID
	outbox     []models.OutboxEntry
	outboxSeq  int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		campaigns:  make(map[id.CampaignID]*campaignEntry),
		proofIndex: make(map[id.ProofID]id.CampaignID),
	}
}

func (s *InMemory) Create(_ context.Context, state *models.CampaignState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[state.Campaign.ID]; ok {
		return sentinel.ErrConflict
	}
	working := state.Clone()
	s.appendOutbox(working.DrainEvents(), working.UpdatedAt)
	state.DrainEvents()
	s.campaigns[state.Campaign.ID] = &campaignEntry{state: working}
	return nil
}

func (s *InMemory) Update(ctx context.Context, campaignID id.CampaignID, fn func(*models.CampaignState) (bool, error)) error {
	s.mu.RLock()
	entry, ok := s.campaigns[campaignID]
	s.mu.RUnlock()
	if !ok {
		return sentinel.ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "campaign transaction aborted")
	}

	working := entry.state.Clone()
	commit, err := fn(working)
	if !commit {
		return err
	}

	events := working.DrainEvents()
	s.mu.Lock()
	entry.state = working
	for _, p := range working.Proofs.Items {
		s.proofIndex[p.ID] = campaignID
	}
	s.appendOutbox(events, working.UpdatedAt)
	s.mu.Unlock()
	return err
}

func (s *InMemory) Get(_ context.Context, campaignID id.CampaignID) (*models.CampaignState, error) {
	s.mu.RLock()
	entry, ok := s.campaigns[campaignID]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.state.Clone(), nil
}

func (s *InMemory) CampaignForProof(_ context.Context, proofID id.ProofID) (id.CampaignID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	campaignID, ok := s.proofIndex[proofID]
	if !ok {
		return id.CampaignID{}, sentinel.ErrNotFound
	}
	return campaignID, nil
}

// ListOpen returns campaigns that have not been released or refunded, ordered
// by deadline.
func (s *InMemory) ListOpen(_ context.Context) ([]id.CampaignID, error) {
	s.mu.RLock()
	entries := make([]*campaignEntry, 0, len(s.campaigns))
	for _, e := range s.campaigns {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	type open struct {
		id       id.CampaignID
		deadline time.Time
	}
	var found []open
	for _, e := range entries {
		e.mu.Lock()
		if !e.state.IsFinalized() && !e.state.Halted {
			found = append(found, open{id: e.state.Campaign.ID, deadline: e.state.Campaign.Deadline})
		}
		e.mu.Unlock()
	}
	sort.Slice(found, func(i, j int) bool { return found[i].deadline.Before(found[j].deadline) })

	ids := make([]id.CampaignID, len(found))
	for i, o := range found {
		ids[i] = o.id
	}
	return ids, nil
}

func (s *InMemory) Ping(context.Context) error { return nil }

func (s *InMemory) FetchUnpublished(_ context.Context, limit int) ([]models.OutboxEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.outbox) {
		limit = len(s.outbox)
	}
	out := make([]models.OutboxEntry, limit)
	copy(out, s.outbox[:limit])
	return out, nil
}

func (s *InMemory) MarkPublished(_ context.Context, seqs []int64) error {
	if len(seqs) == 0 {
		return nil
	}
	done := make(map[int64]struct{}, len(seqs))
	for _, seq := range seqs {
		done[seq] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.outbox[:0]
	for _, e := range s.outbox {
		if _, ok := done[e.Seq]; !ok {
			kept = append(kept, e)
		}
	}
	s.outbox = kept
	return nil
}

// appendOutbox must be called with s.mu held.
func (s *InMemory) appendOutbox(events []models.Event, at time.Time) {
	for _, e := range events {
		s.outboxSeq++
		s.outbox = append(s.outbox, models.OutboxEntry{Seq: s.outboxSeq, Event: e, CreatedAt: at})
	}
}
