package pendingop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// putScript writes the record only when the slot is empty or already holds
// the same transaction id. Running it server-side keeps the in-flight check
// and the write atomic across concurrent clients.
var putScript = redis.NewScript(`
local existing = redis.call("GET", KEYS[1])
if existing then
	local decoded = cjson.decode(existing)
	if decoded["transactionId"] ~= ARGV[1] then
		return 0
	end
end
redis.call("SET", KEYS[1], ARGV[2])
return 1
`)

// RedisStore persists pending operations in Redis, one key per identity.
// Suitable when the engine is hosted server-side and must survive process
// restarts or run behind multiple replicas.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisStore creates a Redis-backed store. Panics if client is nil to
// fail fast during initialization.
func NewRedisStore(client redis.UniversalClient, keyPrefix string) *RedisStore {
	if client == nil {
		panic("pendingop: redis client is required")
	}
	if keyPrefix == "" {
		keyPrefix = "pendingop"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) Get(ctx context.Context, ownerID string) (*PendingOperation, error) {
	raw, err := s.client.Get(ctx, s.key(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoPendingOperation
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("corrupt pending operation record for %s: %w", ownerID, err)
	}

	return rec.toOperation(), nil
}

func (s *RedisStore) Put(ctx context.Context, ownerID string, op *PendingOperation) error {
	raw, err := json.Marshal(toRecord(op))
	if err != nil {
		return fmt.Errorf("failed to encode pending operation: %w", err)
	}

	ok, err := putScript.Run(ctx, s.client, []string{s.key(ownerID)}, op.TransactionID, raw).Int()
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if ok == 0 {
		return ErrOperationInFlight
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, ownerID string) error {
	if err := s.client.Del(ctx, s.key(ownerID)).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) key(ownerID string) string {
	return s.keyPrefix + ":" + ownerID
}
