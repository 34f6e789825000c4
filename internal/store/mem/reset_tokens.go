package mem

import (
	"context"
	"time"

	"github.com/dropDatabas3/peergate/internal/domain/repository"
)

// resetKey espeja la primary key (token, client_id) del backend pg: un
// código de 6 dígitos repetido entre clientes no colisiona.
type resetKey struct {
	token    string
	clientID string
}

// Create expira todo token activo del cliente y luego inserta el nuevo.
// Ambos pasos bajo el mismo lock, espejo de la transacción del backend pg.
// Re-emitir un código igual a una fila vieja del mismo cliente la pisa,
// igual que el upsert del backend pg.
func (s *Store) Create(ctx context.Context, tok repository.ResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	for k, t := range s.resets {
		if k.clientID == tok.ClientID && t.ExpiresAt.After(now) {
			t.ExpiresAt = now
		}
	}
	cp := tok
	s.resets[resetKey{token: tok.Token, clientID: tok.ClientID}] = &cp
	return nil
}

func (s *Store) FindValid(ctx context.Context, clientID, token string, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.resets[resetKey{token: token, clientID: clientID}]
	if !ok {
		return false, nil
	}
	return t.ExpiresAt.After(now), nil
}

func (s *Store) Expire(ctx context.Context, clientID, token string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.resets[resetKey{token: token, clientID: clientID}]
	if !ok {
		return nil // seguro sobre tokens inexistentes o ya expirados
	}
	if t.ExpiresAt.After(now) {
		t.ExpiresAt = now
	}
	return nil
}

// ActiveResetTokens cuenta los tokens del cliente con expiración futura.
// Solo para tests e inspección.
func (s *Store) ActiveResetTokens(clientID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	now := s.Now()
	for k, t := range s.resets {
		if k.clientID == clientID && t.ExpiresAt.After(now) {
			n++
		}
	}
	return n
}
