package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RedisStore keeps each state as a JSON value whose key expiry is the TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("conversation.NewRedisStore: client is nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

func (s *RedisStore) Load(ctx context.Context, key string) (State, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return State{}, err
	}
	fresh := State{UpdatedAt: s.now().UTC()}

	data, err := s.client.Get(ctx, stateKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return fresh, nil
		}
		return State{}, fmt.Errorf("load conversation state: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		log.WithError(err).WithField("owner", key).Warn("dropping unreadable conversation state")
		_ = s.client.Del(ctx, stateKey(key)).Err()
		return fresh, nil
	}
	return st, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, state State) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	state.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode conversation state: %w", err)
	}
	if err := s.client.Set(ctx, stateKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save conversation state: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, stateKey(key)).Err(); err != nil {
		return fmt.Errorf("clear conversation state: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func stateKey(key string) string {
	return "conversation:" + key
}
