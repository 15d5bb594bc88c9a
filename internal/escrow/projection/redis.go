// Package projection maintains the read-only campaign status view in Redis.
// Writers are the engine's commit hooks; readers never feed values back into
// the core.
package projection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"impactx/internal/escrow/models"
	id "impactx/pkg/domain"
	"impactx/pkg/platform/sentinel"
)

const statusKeyPrefix = "escrow:status:"

// projectScript writes the snapshot only when it is newer than the stored one,
// so out-of-order commits from concurrent requests never regress the view.
var projectScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'version')
if current and tonumber(current) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'status', ARGV[2])
if tonumber(ARGV[3]) > 0 then
  redis.call('EXPIRE', KEYS[1], ARGV[3])
end
return 1
`)

// RedisProjector stores one hash per campaign holding the latest committed
// StatusSnapshot and its version.
type RedisProjector struct {
	client *redis.Client
	ttl    time.Duration
	stale  prometheus.Counter
}

// Option configures a RedisProjector.
type Option func(*RedisProjector)

// WithTTL expires projected campaigns that have not changed for ttl.
// Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(p *RedisProjector) { p.ttl = ttl }
}

// WithRegisterer exposes the stale-write counter on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(p *RedisProjector) {
		p.stale = promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "impactx_escrow_projection_stale_writes_total",
			Help: "Projection writes skipped because a newer version was already stored",
		})
	}
}

func NewRedis(client *redis.Client, opts ...Option) (*RedisProjector, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	p := &RedisProjector{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

func statusKey(campaignID id.CampaignID) string {
	return statusKeyPrefix + campaignID.String()
}

// Project stores status unless a snapshot with the same or a higher version
// is already present.
func (p *RedisProjector) Project(ctx context.Context, status models.StatusSnapshot) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	written, err := projectScript.Run(ctx, p.client,
		[]string{statusKey(status.CampaignID)},
		status.Version, payload, int64(p.ttl/time.Second),
	).Int()
	if err != nil {
		return fmt.Errorf("project status: %w", err)
	}
	if written == 0 && p.stale != nil {
		p.stale.Inc()
	}
	return nil
}

// Status returns the projected snapshot. The value may lag the ledger; it is
// never an input to a decision.
func (p *RedisProjector) Status(ctx context.Context, campaignID id.CampaignID) (*models.StatusSnapshot, error) {
	raw, err := p.client.HGet(ctx, statusKey(campaignID), "status").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read projected status: %w", err)
	}
	var status models.StatusSnapshot
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("decode projected status: %w", errors.Join(sentinel.ErrInvalidState, err))
	}
	return &status, nil
}
