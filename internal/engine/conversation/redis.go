package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "intent-engine/internal/common/errors"
)

const redisKeyPrefix = "intent:ctx:"

// RedisPersister stores session state as JSON with the context TTL as expiry, so
// several worker processes can share conversations.
type RedisPersister struct {
	client redis.Cmdable
}

func NewRedisPersister(client redis.Cmdable) *RedisPersister {
	return &RedisPersister{client: client}
}

func redisKey(userID string) string {
	return redisKeyPrefix + userID
}

func (p *RedisPersister) Load(ctx context.Context, userID string) (*State, error) {
	raw, err := p.client.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", apperrors.ErrContextPersistenceFailed, userID, err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", apperrors.ErrContextPersistenceFailed, userID, err)
	}
	return &st, nil
}

func (p *RedisPersister) Save(ctx context.Context, st State, ttl time.Duration) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", apperrors.ErrContextPersistenceFailed, st.Context.UserID, err)
	}
	if err := p.client.Set(ctx, redisKey(st.Context.UserID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", apperrors.ErrContextPersistenceFailed, st.Context.UserID, err)
	}
	return nil
}
