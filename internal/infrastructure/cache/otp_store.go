// Package cache guarda en Redis el estado efímero de la autenticación (códigos OTP).
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/pos-api/internal/application/auth"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/pkg/config"
)

var _ auth.OTPStore = (*RedisOTPStore)(nil)

const (
	otpKeyPrefix      = "otp:"
	attemptsKeySuffix = ":attempts"
)

// incrAttempts suma un intento en KEYS[2] y le copia el TTL restante de la entrada KEYS[1].
// Devuelve -1 si la entrada ya no existe.
var incrAttempts = redis.NewScript(`
local ttl = redis.call('PTTL', KEYS[1])
if ttl == -2 then
	return -1
end
local n = redis.call('INCR', KEYS[2])
if ttl > 0 then
	redis.call('PEXPIRE', KEYS[2], ttl)
end
return n
`)

// RedisOTPStore implementa auth.OTPStore. Cada entrada es JSON bajo otp:<pk> con TTL;
// los intentos fallidos viven en otp:<pk>:attempts con el mismo TTL.
type RedisOTPStore struct {
	client *redis.Client
}

// NewRedisClient abre el cliente y verifica la conexión.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("conectar a Redis: %w", err)
	}
	return client, nil
}

// NewRedisOTPStore construye el store sobre un cliente existente.
func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

// Save guarda la entrada con expiración ttl, reemplazando cualquier valor previo.
func (s *RedisOTPStore) Save(ctx context.Context, pk string, entry entity.OTPEntry, ttl time.Duration) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("otp: codificar entrada: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, otpKeyPrefix+pk, raw, ttl)
		pipe.Del(ctx, attemptsKey(pk))
		return nil
	})
	if err != nil {
		return fmt.Errorf("otp: guardar: %w", err)
	}
	return nil
}

// Get devuelve (nil, nil) si la clave no existe o expiró.
func (s *RedisOTPStore) Get(ctx context.Context, pk string) (*entity.OTPEntry, error) {
	raw, err := s.client.Get(ctx, otpKeyPrefix+pk).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("otp: leer: %w", err)
	}
	var entry entity.OTPEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("otp: decodificar entrada: %w", err)
	}
	return &entry, nil
}

// Update reescribe la entrada conservando el TTL restante. Si ya expiró devuelve domain.ErrInvalidOTP.
func (s *RedisOTPStore) Update(ctx context.Context, pk string, entry entity.OTPEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("otp: codificar entrada: %w", err)
	}
	err = s.client.SetArgs(ctx, otpKeyPrefix+pk, raw, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return domain.ErrInvalidOTP
	}
	if err != nil {
		return fmt.Errorf("otp: actualizar: %w", err)
	}
	return nil
}

// IncrAttempts cuenta un intento con INCR, atómico frente a verificaciones concurrentes.
func (s *RedisOTPStore) IncrAttempts(ctx context.Context, pk string) (int, error) {
	n, err := incrAttempts.Run(ctx, s.client, []string{otpKeyPrefix + pk, attemptsKey(pk)}).Int()
	if err != nil {
		return 0, fmt.Errorf("otp: contar intento: %w", err)
	}
	if n < 0 {
		return 0, domain.ErrInvalidOTP
	}
	return n, nil
}

// Delete elimina la entrada y su contador; borrar una clave inexistente no es error.
func (s *RedisOTPStore) Delete(ctx context.Context, pk string) error {
	if err := s.client.Del(ctx, otpKeyPrefix+pk, attemptsKey(pk)).Err(); err != nil {
		return fmt.Errorf("otp: borrar: %w", err)
	}
	return nil
}

func attemptsKey(pk string) string {
	return otpKeyPrefix + pk + attemptsKeySuffix
}
