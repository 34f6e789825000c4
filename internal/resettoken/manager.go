// Package resettoken implementa el ciclo de vida de los password reset tokens.
//
// Los tokens son códigos numéricos de 6 dígitos: un keyspace deliberadamente
// chico a cambio de que un humano pueda tipearlos. El rate limiting de los
// intentos de validación es responsabilidad del caller; sin él, el riesgo de
// fuerza bruta es inaceptable.
package resettoken

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/dropDatabas3/peergate/internal/audit"
	"github.com/dropDatabas3/peergate/internal/domain/repository"
	"github.com/dropDatabas3/peergate/internal/email"
	"github.com/dropDatabas3/peergate/internal/metrics"
	"github.com/dropDatabas3/peergate/internal/observability/logger"
)

// DefaultTTL es la ventana de validez de un reset token.
const DefaultTTL = 30 * time.Minute

// Manager emite, valida y revoca reset tokens.
type Manager struct {
	store   repository.ResetTokenRepository
	clients repository.ClientRepository
	auditor audit.Logger
	sender  email.Sender // opcional: nil = no se envían mails
	ttl     time.Duration

	// now es inyectable para tests.
	now func() time.Time
}

// New crea un Manager. auditor y sender pueden ser nil.
func New(store repository.ResetTokenRepository, clients repository.ClientRepository, auditor audit.Logger, sender email.Sender, ttl time.Duration) *Manager {
	if auditor == nil {
		auditor = audit.Nop{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store:   store,
		clients: clients,
		auditor: auditor,
		sender:  sender,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Generate emite un token nuevo para el cliente. Cualquier token previo
// todavía activo queda expirado dentro de la misma transacción que el insert.
// Retorna repository.ErrNotFound si el cliente no existe.
func (m *Manager) Generate(ctx context.Context, clientID string) (string, error) {
	client, err := m.clients.GetByID(ctx, clientID)
	if err != nil {
		return "", err
	}

	tok, err := numericToken()
	if err != nil {
		return "", err
	}
	now := m.now()
	if err := m.store.Create(ctx, repository.ResetToken{
		Token:     tok,
		ClientID:  clientID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}); err != nil {
		return "", fmt.Errorf("reset token create: %w", err)
	}

	metrics.IncResetTokenIssued()
	m.auditor.Log(ctx, audit.Event{
		Actor:   clientID,
		Action:  "client.reset_token.generate",
		Message: "password reset token generated for " + client.Email,
	})

	if m.sender != nil {
		if err := m.sender.Send(client.Email,
			"Your password reset code",
			"",
			fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.", tok, int(m.ttl.Minutes())),
		); err != nil {
			// El envío es best-effort: el token ya existe y es válido.
			logger.Named("resettoken").Warn("reset code mail failed",
				logger.ClientID(clientID),
				logger.Err(err),
			)
		}
	}
	return tok, nil
}

// Validate retorna true sii existe una fila con ese cliente y token cuya
// expiración todavía está en el futuro.
func (m *Manager) Validate(ctx context.Context, clientID, token string) (bool, error) {
	if _, err := m.clients.GetByID(ctx, clientID); err != nil {
		if repository.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return m.store.FindValid(ctx, clientID, token, m.now())
}

// Revoke expira el token de inmediato. Se llama después de un cambio de
// password exitoso; es seguro sobre un token ya expirado.
func (m *Manager) Revoke(ctx context.Context, clientID, token string) error {
	if err := m.store.Expire(ctx, clientID, token, m.now()); err != nil {
		return err
	}
	m.auditor.Log(ctx, audit.Event{
		Actor:   clientID,
		Action:  "client.reset_token.revoke",
		Message: "password reset token revoked",
	})
	return nil
}

// numericToken genera un código de 6 dígitos con cero-padding.
func numericToken() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
