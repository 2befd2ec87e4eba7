package settings

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	fieldPayeeID       = "payee_id"
	fieldPayeeName     = "payee_name"
	fieldOperatorPhone = "operator_phone"
	fieldOperatorEmail = "operator_email"
	fieldRelayKey      = "forms_relay_access_key"
)

// hashClient is the subset of the redis client the store uses.
type hashClient interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HSetNX(ctx context.Context, key, field string, value interface{}) *redis.BoolCmd
}

// RedisStore keeps settings in a single redis hash so several server
// instances share one view.
type RedisStore struct {
	client hashClient
	key    string
	logger zerolog.Logger
}

// DialRedis parses redisURL (redis:// or rediss://), hardens timeouts and
// pings the server so misconfiguration fails at startup.
func DialRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("settings: parse redis url: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second
	opts.MaxRetries = 3
	opts.MinRetryBackoff = 100 * time.Millisecond
	opts.MaxRetryBackoff = time.Second

	if opts.TLSConfig == nil && strings.HasPrefix(redisURL, "rediss://") {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("settings: redis ping: %w", err)
	}
	return client, nil
}

// NewRedisStore wraps client. Values in defaults are written only for
// fields the hash does not have yet, so edits made through the API survive
// restarts.
func NewRedisStore(ctx context.Context, client hashClient, key string, defaults Settings, logger zerolog.Logger) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("settings: redis client is required")
	}
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("settings: redis key is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	s := &RedisStore{client: client, key: key, logger: logger}
	for field, value := range toFields(defaults) {
		if value == "" {
			continue
		}
		if err := client.HSetNX(ctx, key, field, value).Err(); err != nil {
			return nil, fmt.Errorf("settings: seed %s: %w", field, err)
		}
	}
	return s, nil
}

// Get implements Reader.
func (s *RedisStore) Get(ctx context.Context) (Settings, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return Settings{}, fmt.Errorf("settings: read %s: %w", s.key, err)
	}
	return fromFields(values), nil
}

// Update implements Store.
func (s *RedisStore) Update(ctx context.Context, patch Patch) (Settings, error) {
	if patch.Empty() {
		return s.Get(ctx)
	}

	changed := patchFields(patch)
	args := make([]interface{}, 0, len(changed)*2)
	for field, value := range changed {
		args = append(args, field, value)
	}
	if err := s.client.HSet(ctx, s.key, args...).Err(); err != nil {
		return Settings{}, fmt.Errorf("settings: write %s: %w", s.key, err)
	}

	s.logger.Info().Int("fields", len(changed)).Msg("settings updated")
	return s.Get(ctx)
}

func toFields(s Settings) map[string]string {
	return map[string]string{
		fieldPayeeID:       s.PayeeID,
		fieldPayeeName:     s.PayeeName,
		fieldOperatorPhone: s.OperatorPhone,
		fieldOperatorEmail: s.OperatorEmail,
		fieldRelayKey:      s.FormsRelayAccessKey,
	}
}

func fromFields(values map[string]string) Settings {
	return Settings{
		PayeeID:             values[fieldPayeeID],
		PayeeName:           values[fieldPayeeName],
		OperatorPhone:       values[fieldOperatorPhone],
		OperatorEmail:       values[fieldOperatorEmail],
		FormsRelayAccessKey: values[fieldRelayKey],
	}
}

func patchFields(p Patch) map[string]string {
	out := make(map[string]string)
	add := func(field string, v *string) {
		if v != nil {
			out[field] = strings.TrimSpace(*v)
		}
	}
	add(fieldPayeeID, p.PayeeID)
	add(fieldPayeeName, p.PayeeName)
	add(fieldOperatorPhone, p.OperatorPhone)
	add(fieldOperatorEmail, p.OperatorEmail)
	add(fieldRelayKey, p.FormsRelayAccessKey)
	return out
}
