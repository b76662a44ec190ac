package conversation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coder-lang/Chatbotscannedpdf/model"
	goredis "github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const conversationKeyPrefix = "conversation:"

// Store is the durable per-user conversation record store.
type Store interface {
	Load(ctx context.Context, userID string) (*model.ConversationRecord, error)
	Save(ctx context.Context, record *model.ConversationRecord) error
	Delete(ctx context.Context, userID string) error
	Exists(ctx context.Context, userID string) (bool, error)
}

// RedisStore keeps one JSON record per user_id. The whole record is written
// in a single SET so a failed save never leaves a half-written turn log.
type RedisStore struct {
	client goredis.Cmdable
}

func NewRedisStore(client goredis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func conversationKey(userID string) string {
	return conversationKeyPrefix + userID
}

// Load returns nil without error when the user has no record yet.
func (s *RedisStore) Load(ctx context.Context, userID string) (*model.ConversationRecord, error) {
	raw, err := s.client.Get(ctx, conversationKey(userID)).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var record model.ConversationRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("failed to decode conversation record for %s: %w", userID, err)
	}
	return &record, nil
}

func (s *RedisStore) Save(ctx context.Context, record *model.ConversationRecord) error {
	if record == nil || record.UserID == "" {
		return fmt.Errorf("conversation record requires a user_id")
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := s.client.Set(ctx, conversationKey(record.UserID), raw, 0).Err(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, conversationKey(userID)).Err(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, userID string) (bool, error) {
	n, err := s.client.Exists(ctx, conversationKey(userID)).Result()
	if err != nil {
		return false, errors.WithStack(err)
	}
	return n > 0, nil
}
