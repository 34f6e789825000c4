package pg

import (
	"context"
	"time"

	"github.com/dropDatabas3/peergate/internal/domain/repository"
)

// Create expira cualquier token activo del cliente y luego inserta el nuevo,
// en una sola transacción: el invariante "a lo sumo un token activo por
// cliente" nunca es observable roto, incluso con dos Generate concurrentes
// (gana el último writer; perder la carrera no es un error). El insert es un
// upsert sobre la PK (token, client_id): con un keyspace de 6 dígitos el
// mismo código le vuelve a tocar al mismo cliente tarde o temprano, y esa
// fila vieja ya expirada se pisa en vez de romper la PK.
func (s *Store) Create(ctx context.Context, tok repository.ResetToken) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, `
		UPDATE password_reset_token SET expires_at = now()
		 WHERE client_id = $1 AND expires_at > now()`, tok.ClientID); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `
		INSERT INTO password_reset_token (token, client_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token, client_id) DO UPDATE
		   SET created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at`,
		tok.Token, tok.ClientID, tok.CreatedAt, tok.ExpiresAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) FindValid(ctx context.Context, clientID, token string, now time.Time) (bool, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM password_reset_token
		 WHERE client_id = $1 AND token = $2 AND expires_at > $3`,
		clientID, token, now).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Expire(ctx context.Context, clientID, token string, now time.Time) error {
	// Seguro sobre tokens ya expirados o inexistentes.
	_, err := s.pool.Exec(ctx, `
		UPDATE password_reset_token SET expires_at = $3
		 WHERE client_id = $1 AND token = $2 AND expires_at > $3`,
		clientID, token, now)
	return err
}
