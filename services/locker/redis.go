package locksvc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/myschool-rw/myschool/core"
	"github.com/myschool-rw/myschool/core/visit"
)

var (
	ErrLockTimeout = errors.New("timed out waiting for admission lock")

	retryDelay = 25 * time.Millisecond

	// unlockScript only deletes the key if it still holds our token.
	unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
)

// Redis serializes admissions across API instances sharing one Redis.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	logger core.Logger
}

var _ visit.Locker = (*Redis)(nil)

func NewRedis(client *redis.Client, conf core.RedisConfig, logger core.Logger) *Redis {
	return &Redis{
		client: client,
		ttl:    conf.LockTTL,
		wait:   conf.LockWait,
		logger: logger,
	}
}

// NewRedisClient connects to conf.Addr and checks the connection.
func NewRedisClient(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

// Lock retries `SET key token NX PX ttl` until it succeeds, `ctx` is done or the wait delay elapses.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	key = "myschool:lock:" + key
	token := uuid.New().String()

	if r.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.wait)
		defer cancel()
	}

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrLockTimeout
			}
			return nil, errors.Wrap(err, "acquiring admission lock")
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-time.After(retryDelay):
		}
	}

	return func() {
		// the request context may already be done
		if err := unlockScript.Run(context.Background(), r.client, []string{key}, token).Err(); err != nil {
			r.logger.Error("releasing admission lock", errors.Wrap(err, key))
		}
	}, nil
}
