package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/candidate"
)

// RedisStore keeps each document under its own key and tracks record ids in
// a set.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisStore connects to rawURL (redis://...) and pings the server.
func NewRedisStore(ctx context.Context, rawURL, prefix string, logger *zap.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisStoreWithClient(client, prefix, logger), nil
}

func NewRedisStoreWithClient(client *redis.Client, prefix string, logger *zap.Logger) *RedisStore {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, prefix: prefix, logger: logger}
}

func (s *RedisStore) recordKey(id string) string  { return s.prefix + ":candidate:" + id }
func (s *RedisStore) profileKey(key string) string { return s.prefix + ":profile:" + key }
func (s *RedisStore) indexKey() string             { return s.prefix + ":candidates" }

func (s *RedisStore) SaveRecord(ctx context.Context, id string, rec *candidate.Record) error {
	if err := checkID(id); err != nil {
		return err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.recordKey(id), payload, 0)
		pipe.SAdd(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save record %s: %w", id, err)
	}
	s.logger.Debug("record saved", zap.String("id", id))
	return nil
}

func (s *RedisStore) LoadRecord(ctx context.Context, id string) (*candidate.Record, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var rec candidate.Record
	if err := s.get(ctx, s.recordKey(id), &rec); err != nil {
		return nil, fmt.Errorf("load record %s: %w", id, err)
	}
	return &rec, nil
}

func (s *RedisStore) DeleteRecord(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	var deleted *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, s.recordKey(id))
		pipe.SRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if deleted.Val() == 0 {
		return fmt.Errorf("delete record %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *RedisStore) ListRecords(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *RedisStore) SaveProfile(ctx context.Context, email string, p *candidate.Profile) error {
	key, err := profileKey(email)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := s.client.Set(ctx, s.profileKey(key), payload, 0).Err(); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadProfile(ctx context.Context, email string) (*candidate.Profile, error) {
	key, err := profileKey(email)
	if err != nil {
		return nil, err
	}
	var p candidate.Profile
	if err := s.get(ctx, s.profileKey(key), &p); err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &p, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) get(ctx context.Context, key string, v any) error {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
