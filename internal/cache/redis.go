package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Domenick1991/ticketbari/config"
	"github.com/Domenick1991/ticketbari/internal/domain"
)

// List scopes. Each scope is invalidated as a whole after a mutation.
const (
	// ScopeTickets holds public ticket lists: browser pages and latest.
	ScopeTickets = "tickets"
	// ScopeAdvertise holds the advertised tickets shown on the home page.
	ScopeAdvertise = "advertise-tickets"
)

type RedisCache struct {
	client  *redis.Client
	listTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, listTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:  redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		listTTL: listTTL,
	}
}

func (c *RedisCache) Client() *redis.Client {
	return c.client
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetRole returns the cached role for email; ok is false on a miss.
func (c *RedisCache) GetRole(ctx context.Context, email string) (domain.Role, bool, error) {
	val, err := c.client.Get(ctx, roleKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.RoleNone, false, nil
		}
		return domain.RoleNone, false, err
	}
	return domain.ParseRole(val), true, nil
}

func (c *RedisCache) SetRole(ctx context.Context, email string, role domain.Role, ttl time.Duration) error {
	return c.client.Set(ctx, roleKey(email), string(role), ttl).Err()
}

func (c *RedisCache) DeleteRole(ctx context.Context, email string) error {
	return c.client.Del(ctx, roleKey(email)).Err()
}

// GetList decodes the cached value for key within scope into dst. It
// returns the scope generation it read; a fill for a miss must be stored
// under that generation with SetList.
func (c *RedisCache) GetList(ctx context.Context, scope, key string, dst any) (int64, bool, error) {
	gen, err := c.generation(ctx, scope)
	if err != nil {
		return 0, false, err
	}
	data, err := c.client.Get(ctx, listKey(scope, gen, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return gen, false, nil
		}
		return gen, false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return gen, false, err
	}
	return gen, true, nil
}

// SetList stores value under generation gen. A list fetched before an
// invalidation lands in the dead generation and is never served.
func (c *RedisCache) SetList(ctx context.Context, scope, key string, gen int64, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, listKey(scope, gen, key), payload, c.listTTL).Err()
}

// InvalidateScope bumps the scope generation so every cached entry in it
// is bypassed; old entries age out by TTL.
func (c *RedisCache) InvalidateScope(ctx context.Context, scope string) error {
	return c.client.Incr(ctx, generationKey(scope)).Err()
}

func (c *RedisCache) generation(ctx context.Context, scope string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(scope)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return gen, nil
}

// Flash is a one-shot notification shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (c *RedisCache) PushFlash(ctx context.Context, sessionID string, f Flash) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return err
	}
	key := flashKey(sessionID)
	if err := c.client.RPush(ctx, key, payload).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, key, 10*time.Minute).Err()
}

func (c *RedisCache) PopFlashes(ctx context.Context, sessionID string) ([]Flash, error) {
	key := flashKey(sessionID)
	raw, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return nil, err
	}
	flashes := make([]Flash, 0, len(raw))
	for _, item := range raw {
		var f Flash
		if err := json.Unmarshal([]byte(item), &f); err != nil {
			continue
		}
		flashes = append(flashes, f)
	}
	return flashes, nil
}

// SaveOAuthState stores the post-login return path under a one-time state value.
func (c *RedisCache) SaveOAuthState(ctx context.Context, state, returnTo string, ttl time.Duration) error {
	return c.client.Set(ctx, oauthStateKey(state), returnTo, ttl).Err()
}

// TakeOAuthState consumes state; ok is false if it was never issued or already used.
func (c *RedisCache) TakeOAuthState(ctx context.Context, state string) (string, bool, error) {
	val, err := c.client.GetDel(ctx, oauthStateKey(state)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

// ClaimOnce reports whether this call is the first to claim key within ttl.
func (c *RedisCache) ClaimOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, onceKey(key), 1, ttl).Result()
}

// Release drops a claim so the next ClaimOnce for key succeeds again.
func (c *RedisCache) Release(ctx context.Context, key string) error {
	return c.client.Del(ctx, onceKey(key)).Err()
}

func onceKey(key string) string {
	return "once:" + key
}

func roleKey(email string) string {
	return "cache:role:" + email
}

func generationKey(scope string) string {
	return "cache:gen:" + scope
}

func listKey(scope string, gen int64, key string) string {
	return fmt.Sprintf("cache:list:%s:%d:%s", scope, gen, key)
}

func flashKey(sessionID string) string {
	return "flash:" + sessionID
}

func oauthStateKey(state string) string {
	return "oauth:state:" + state
}
