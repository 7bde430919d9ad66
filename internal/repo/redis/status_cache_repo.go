package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const statusCachePrefix = "modstatus:"

// ErrStatusCacheMiss is returned when no cached status exists for an account.
var ErrStatusCacheMiss = errors.New("account status cache miss")

// StatusCacheRepo caches the read-side view of an account's current access
// level. It is invalidated on every moderation transition; the postgres
// account row stays the source of truth.
type StatusCacheRepo struct {
	client *goredis.Client
}

type CachedStatus struct {
	AccountID       int64      `json:"account_id"`
	Status          string     `json:"account_status"`
	StrikeCount     int        `json:"strike_count"`
	SuspensionCount int        `json:"suspension_count"`
	SuspensionEnd   *time.Time `json:"suspension_end,omitempty"`
	BannedReason    string     `json:"banned_reason,omitempty"`
}

func NewStatusCacheRepo(client *goredis.Client) *StatusCacheRepo {
	return &StatusCacheRepo{client: client}
}

func (r *StatusCacheRepo) Get(ctx context.Context, accountID int64) (CachedStatus, error) {
	if r.client == nil {
		return CachedStatus{}, fmt.Errorf("redis client is nil")
	}
	if accountID <= 0 {
		return CachedStatus{}, fmt.Errorf("invalid account id")
	}

	raw, err := r.client.Get(ctx, statusCacheKey(accountID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return CachedStatus{}, ErrStatusCacheMiss
		}
		return CachedStatus{}, fmt.Errorf("get cached account status: %w", err)
	}

	var status CachedStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return CachedStatus{}, fmt.Errorf("decode cached account status: %w", err)
	}

	return status, nil
}

func (r *StatusCacheRepo) Set(ctx context.Context, status CachedStatus, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if status.AccountID <= 0 {
		return fmt.Errorf("invalid account status payload")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}

	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode cached account status: %w", err)
	}

	if err := r.client.Set(ctx, statusCacheKey(status.AccountID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("set cached account status: %w", err)
	}

	return nil
}

func (r *StatusCacheRepo) Invalidate(ctx context.Context, accountID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if accountID <= 0 {
		return fmt.Errorf("invalid account id")
	}

	if err := r.client.Del(ctx, statusCacheKey(accountID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached account status: %w", err)
	}

	return nil
}

func statusCacheKey(accountID int64) string {
	return statusCachePrefix + strconv.FormatInt(accountID, 10)
}
