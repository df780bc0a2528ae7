package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/segyhp/collateral-ledger/internal/domain"
)

// generationTTL bounds how long an invalidation is remembered. A reader
// holding a lease longer than this may still store its snapshot.
const generationTTL = 24 * time.Hour

// LoanCache is a read-through cache for loan snapshots.
//
// A miss hands out a lease. Writers invalidate after commit, which voids
// every lease taken before it, so a reader that loaded the loan before a
// write can never store its snapshot over the invalidation.
type LoanCache interface {
	// Get returns the cached loan, or nil and a lease on a miss
	Get(ctx context.Context, id uuid.UUID) (*domain.Loan, int64, error)
	// Set stores loan if no invalidation happened since lease was taken
	Set(ctx context.Context, loan *domain.Loan, lease int64) (bool, error)
	Invalidate(ctx context.Context, ids ...uuid.UUID) error
}

// setIfCurrent stores ARGV[2] under KEYS[1] when the generation in KEYS[2]
// still equals the lease in ARGV[1]. ARGV[3] is the TTL in milliseconds.
var setIfCurrent = redis.NewScript(`
local generation = redis.call('GET', KEYS[2]) or '0'
if generation ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

type redisLoanCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLoanCache(client *redis.Client, ttl time.Duration) LoanCache {
	return &redisLoanCache{client: client, ttl: ttl}
}

func LoanKey(id uuid.UUID) string {
	return fmt.Sprintf("loan:%s", id)
}

// GenerationKey counts the invalidations of a loan's cache entry
func GenerationKey(id uuid.UUID) string {
	return fmt.Sprintf("loan:%s:gen", id)
}

func (c *redisLoanCache) Get(ctx context.Context, id uuid.UUID) (*domain.Loan, int64, error) {
	values, err := c.client.MGet(ctx, LoanKey(id), GenerationKey(id)).Result()
	if err != nil {
		return nil, 0, err
	}

	var lease int64
	if raw, ok := values[1].(string); ok {
		if lease, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, 0, fmt.Errorf("parse cache generation %q: %w", raw, err)
		}
	}

	raw, ok := values[0].(string)
	if !ok {
		return nil, lease, nil
	}

	var loan domain.Loan
	if err := json.Unmarshal([]byte(raw), &loan); err != nil {
		// Unreadable entries are treated as a miss and overwritten on the next Set
		return nil, lease, nil
	}
	return &loan, lease, nil
}

func (c *redisLoanCache) Set(ctx context.Context, loan *domain.Loan, lease int64) (bool, error) {
	raw, err := json.Marshal(loan)
	if err != nil {
		return false, err
	}

	stored, err := setIfCurrent.Run(ctx, c.client,
		[]string{LoanKey(loan.ID), GenerationKey(loan.ID)},
		strconv.FormatInt(lease, 10), raw, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

func (c *redisLoanCache) Invalidate(ctx context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Del(ctx, LoanKey(id))
			pipe.Incr(ctx, GenerationKey(id))
			pipe.Expire(ctx, GenerationKey(id), generationTTL)
		}
		return nil
	})
	return err
}

type nopLoanCache struct{}

// NewNopLoanCache returns a cache that never hits
func NewNopLoanCache() LoanCache {
	return nopLoanCache{}
}

func (nopLoanCache) Get(context.Context, uuid.UUID) (*domain.Loan, int64, error) {
	return nil, 0, nil
}

func (nopLoanCache) Set(context.Context, *domain.Loan, int64) (bool, error) {
	return false, nil
}

func (nopLoanCache) Invalidate(context.Context, ...uuid.UUID) error {
	return nil
}
