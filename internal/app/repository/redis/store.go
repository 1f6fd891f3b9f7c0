package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"voicemail-stt/internal/app/model"
	"voicemail-stt/internal/app/repository"
)

// hashKey is the single hash holding all persisted transcriptions, field per
// message id.
const hashKey = "stt:transcriptions"

// RedisStore persists completed transcriptions in a Redis hash, for sessions
// that should survive host restarts without local disk.
type RedisStore struct {
	client *goredis.Client
}

var _ repository.TranscriptionStore = (*RedisStore)(nil)

// NewRedisStore connects to the Redis server at addr.
func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		client: goredis.NewClient(&goredis.Options{Addr: addr}),
	}
}

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// Load reads all persisted entries.
func (s *RedisStore) Load() (map[string]model.TranscriptionResult, error) {
	ctx, cancel := opCtx()
	defer cancel()

	fields, err := s.client.HGetAll(ctx, hashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read hash: %w", err)
	}

	entries := make(map[string]model.TranscriptionResult, len(fields))
	for messageID, raw := range fields {
		var res model.TranscriptionResult
		if err := json.Unmarshal([]byte(raw), &res); err != nil {
			return nil, fmt.Errorf("failed to parse entry %s: %w", messageID, err)
		}
		entries[messageID] = res
	}
	return entries, nil
}

// Save replaces the hash with the given entries.
func (s *RedisStore) Save(entries map[string]model.TranscriptionResult) error {
	ctx, cancel := opCtx()
	defer cancel()

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, hashKey)
	for messageID, res := range entries {
		raw, err := json.Marshal(res)
		if err != nil {
			return fmt.Errorf("failed to marshal entry %s: %w", messageID, err)
		}
		pipe.HSet(ctx, hashKey, messageID, raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write hash: %w", err)
	}
	return nil
}

// Close closes the client connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
