package repository

import (
	"context"
	"time"
)

// ResetToken es un secreto numérico de corta vida que autoriza un cambio de
// password sin conocer el actual.
type ResetToken struct {
	Token     string
	ClientID  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ResetTokenRepository define la persistencia de reset tokens.
//
// Invariante: a lo sumo un token activo (no expirado, no revocado) por
// cliente. Create lo preserva expirando cualquier token previo dentro de la
// misma transacción que el insert.
type ResetTokenRepository interface {
	// Create expira todo token activo del cliente y luego inserta el nuevo,
	// en una sola unidad transaccional.
	Create(ctx context.Context, tok ResetToken) error

	// FindValid retorna true si existe una fila con ese cliente y token cuya
	// expiración todavía está en el futuro.
	FindValid(ctx context.Context, clientID, token string, now time.Time) (bool, error)

	// Expire reescribe la expiración del token a now. Es seguro llamarlo
	// sobre un token ya expirado.
	Expire(ctx context.Context, clientID, token string, now time.Time) error
}
