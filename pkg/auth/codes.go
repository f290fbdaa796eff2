package auth

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// LogCodeSender writes codes to the process log instead of sending SMS, for
// environments without an SMS gateway.
type LogCodeSender struct{}

func (LogCodeSender) SendCode(_ context.Context, phone, code string) error {
	log.Printf("verification code for %s: %s", phone, code)
	return nil
}

// MemoryCodeStore keeps codes in process memory, used standalone and in
// tests.
type MemoryCodeStore struct {
	mu    sync.Mutex
	codes map[string]memoryCode
}

type memoryCode struct {
	code    string
	expires time.Time
}

func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{codes: map[string]memoryCode{}}
}

func (m *MemoryCodeStore) Put(_ context.Context, challengeId, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[challengeId] = memoryCode{code: code, expires: time.Now().Add(ttl)}
	return nil
}

func (m *MemoryCodeStore) Verify(_ context.Context, challengeId, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.codes[challengeId]
	if !ok || entry.expires.Before(time.Now()) {
		delete(m.codes, challengeId)
		return false, nil
	}
	if entry.code != code {
		return false, nil
	}
	delete(m.codes, challengeId)
	return true, nil
}

// RedisCodeStore shares codes between nodes with a TTL, a verified code is
// consumed atomically.
type RedisCodeStore struct {
	client *redis.Client
}

func NewRedisCodeStore(addr, password string, db int) *RedisCodeStore {
	return &RedisCodeStore{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func otpKey(challengeId string) string {
	return "otp:" + challengeId
}

func (r *RedisCodeStore) Put(ctx context.Context, challengeId, code string, ttl time.Duration) error {
	return r.client.Set(ctx, otpKey(challengeId), code, ttl).Err()
}

func (r *RedisCodeStore) Verify(ctx context.Context, challengeId, code string) (bool, error) {
	stored, err := r.client.GetDel(ctx, otpKey(challengeId)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == code, nil
}

func (r *RedisCodeStore) Close() error {
	return r.client.Close()
}
