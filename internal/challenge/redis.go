package challenge

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/peergate/internal/domain/repository"
)

// redisRegistry implementa Registry sobre Redis, para despliegues con más de
// un proceso del dashboard. El valor guarda "clientID|expiresAtUnix" y el
// consumo atómico se hace en un script Lua, de modo que dos Consume
// concurrentes del mismo token no pueden tener éxito ambos.
type redisRegistry struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// consumeScript borra el token y deja un marcador de consumido. Retorna el
// valor del token, "consumed" si solo queda el marcador, o nil.
var consumeScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if v then
  redis.call('DEL', KEYS[1])
  redis.call('SET', KEYS[2], '1', 'EX', ARGV[1])
  return v
end
if redis.call('EXISTS', KEYS[2]) == 1 then
  return 'consumed'
end
return false
`)

// NewRedis crea un registro sobre un cliente Redis existente.
func NewRedis(rdb *redis.Client, ttl time.Duration, prefix string) Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = "peergate"
	}
	return &redisRegistry{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (r *redisRegistry) key(tok string) string     { return r.prefix + ":chal:" + tok }
func (r *redisRegistry) usedKey(tok string) string { return r.prefix + ":chal:used:" + tok }

func (r *redisRegistry) Issue(ctx context.Context, clientID string) (string, error) {
	tok, err := newToken()
	if err != nil {
		return "", err
	}
	val := fmt.Sprintf("%s|%d", clientID, time.Now().Add(r.ttl).Unix())
	// La key vive ttl+grace; la expiración real se chequea contra el valor.
	if err := r.rdb.Set(ctx, r.key(tok), val, r.ttl+graceWindow).Err(); err != nil {
		return "", fmt.Errorf("challenge: redis set: %w", err)
	}
	return tok, nil
}

func (r *redisRegistry) Resolve(ctx context.Context, token string) (string, error) {
	val, err := r.rdb.Get(ctx, r.key(token)).Result()
	if err == redis.Nil {
		used, uerr := r.rdb.Exists(ctx, r.usedKey(token)).Result()
		if uerr == nil && used == 1 {
			return "", repository.ErrTokenConsumed
		}
		return "", repository.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("challenge: redis get: %w", err)
	}
	clientID, expired, perr := parseEntry(val)
	if perr != nil {
		return "", perr
	}
	if expired {
		return "", repository.ErrTokenExpired
	}
	return clientID, nil
}

func (r *redisRegistry) Consume(ctx context.Context, token string) error {
	res, err := consumeScript.Run(ctx, r.rdb,
		[]string{r.key(token), r.usedKey(token)},
		int(graceWindow.Seconds()),
	).Result()
	if err == redis.Nil {
		return repository.ErrTokenNotFound
	}
	if err != nil {
		return fmt.Errorf("challenge: redis consume: %w", err)
	}
	s, _ := res.(string)
	if s == "consumed" {
		return repository.ErrTokenConsumed
	}
	_, expired, perr := parseEntry(s)
	if perr != nil {
		return perr
	}
	if expired {
		return repository.ErrTokenExpired
	}
	return nil
}

func parseEntry(val string) (clientID string, expired bool, err error) {
	i := strings.LastIndexByte(val, '|')
	if i < 0 {
		return "", false, fmt.Errorf("challenge: malformed entry")
	}
	exp, perr := strconv.ParseInt(val[i+1:], 10, 64)
	if perr != nil {
		return "", false, fmt.Errorf("challenge: malformed entry: %w", perr)
	}
	return val[:i], time.Now().Unix() > exp, nil
}
