// Package challenge implementa el registro de challenge tokens TOTP.
//
// Un challenge token liga un intento de login con password ya verificado a su
// paso pendiente de segundo factor, a través de dos llamadas separadas del
// caller. Estados por token: Issued -> Consumed (terminal, éxito) o
// Issued -> Expired (terminal, fracaso). Los tokens son de un solo uso y
// acotados en el tiempo para impedir replay de un challenge viejo.
package challenge

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"
)

// DefaultTTL es la vida útil de un challenge token.
const DefaultTTL = 5 * time.Minute

// graceWindow es cuánto sobreviven los marcadores de consumido/expirado,
// para poder distinguir AlreadyConsumed de Expired de NotFound.
const graceWindow = 10 * time.Minute

// Registry define el registro de challenge tokens.
type Registry interface {
	// Issue crea un token nuevo ligado a exactamente un cliente.
	Issue(ctx context.Context, clientID string) (string, error)

	// Resolve retorna el cliente del token. Errores:
	// repository.ErrTokenExpired, repository.ErrTokenConsumed,
	// repository.ErrTokenNotFound.
	Resolve(ctx context.Context, token string) (clientID string, err error)

	// Consume marca el token como usado de forma terminal. Es linealizable
	// por token: dos Consume concurrentes del mismo token no pueden tener
	// éxito ambos. Un segundo Consume falla con repository.ErrTokenConsumed.
	Consume(ctx context.Context, token string) error
}

// newToken genera un token opaco de 32 bytes aleatorios en base64url.
func newToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
