// Package mem implementa los repositorios del dominio en memoria.
// Se usa en desarrollo sin base de datos y en los tests de los services.
// La semántica (soft delete, unicidad por email activo, un solo reset token
// activo por cliente) es la misma que la del backend Postgres.
package mem

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/peergate/internal/domain/repository"
)

// Store implementa repository.ClientRepository y
// repository.ResetTokenRepository sobre maps protegidos por un mutex.
type Store struct {
	mu       sync.RWMutex
	clients  map[string]*repository.Client
	profiles map[string]*repository.Profile
	// La key compuesta espeja la primary key (token, client_id) del backend
	// pg: un código de 6 dígitos repetido entre clientes no colisiona.
	resets map[resetKey]*repository.ResetToken

	// Now es inyectable para tests; default time.Now.
	Now func() time.Time
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		clients:  make(map[string]*repository.Client),
		profiles: make(map[string]*repository.Profile),
		resets:   make(map[resetKey]*repository.ResetToken),
		Now:      time.Now,
	}
}

func (s *Store) FindByEmailLocal(ctx context.Context, email string) (*repository.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if c.DeletedAt == nil && c.Group.IsLocal() && strings.EqualFold(c.Email, email) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) FindByFederatedSubject(ctx context.Context, issuer, subject string) (*repository.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if c.DeletedAt == nil && c.ProviderIssuer == issuer && c.ProviderSubject == subject {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) GetByID(ctx context.Context, clientID string) (*repository.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[clientID]
	if !ok || c.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) CreateLocal(ctx context.Context, in repository.CreateLocalInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		if c.DeletedAt == nil && c.Group.IsLocal() && strings.EqualFold(c.Email, in.Email) {
			return "", repository.ErrConflict
		}
	}
	id := uuid.NewString()
	s.clients[id] = &repository.Client{
		ID:           id,
		Email:        in.Email,
		Group:        repository.GroupLocal,
		PasswordHash: in.PasswordHash,
		TotpSecret:   in.TotpSecret,
		CreatedAt:    s.Now(),
	}
	s.profiles[id] = &repository.Profile{ClientID: id}
	return id, nil
}

func (s *Store) CreateFederated(ctx context.Context, in repository.CreateFederatedInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		if c.DeletedAt == nil && c.ProviderIssuer == in.Issuer && c.ProviderSubject == in.Subject {
			return "", repository.ErrConflict
		}
	}
	id := uuid.NewString()
	s.clients[id] = &repository.Client{
		ID:              id,
		Email:           in.Email,
		Group:           repository.Group(in.Issuer),
		ProviderIssuer:  in.Issuer,
		ProviderSubject: in.Subject,
		CreatedAt:       s.Now(),
	}
	s.profiles[id] = &repository.Profile{ClientID: id, Name: in.Name}
	return id, nil
}

func (s *Store) SoftDelete(ctx context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok || c.DeletedAt != nil {
		return repository.ErrNotFound
	}
	now := s.Now()
	c.DeletedAt = &now
	return nil
}

func (s *Store) ListGrouped(ctx context.Context) (map[repository.Group][]repository.ClientSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[repository.Group][]repository.ClientSummary)
	for _, c := range s.clients {
		if c.DeletedAt != nil {
			continue
		}
		name := ""
		if p, ok := s.profiles[c.ID]; ok {
			name = p.Name
		}
		out[c.Group] = append(out[c.Group], repository.ClientSummary{
			ID:    c.ID,
			Email: c.Email,
			Group: c.Group,
			Name:  name,
		})
	}
	for g := range out {
		sort.Slice(out[g], func(i, j int) bool { return out[g][i].Email < out[g][j].Email })
	}
	return out, nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, clientID, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok || c.DeletedAt != nil {
		return repository.ErrNotFound
	}
	c.PasswordHash = newHash
	return nil
}

func (s *Store) RotateTotp(ctx context.Context, clientID, newSecret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok || c.DeletedAt != nil {
		return repository.ErrNotFound
	}
	c.TotpSecret = newSecret
	c.TotpVerified = false
	return nil
}

func (s *Store) ResetCredentials(ctx context.Context, clientID, newHash, newSecret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok || c.DeletedAt != nil {
		return repository.ErrNotFound
	}
	c.PasswordHash = newHash
	c.TotpSecret = newSecret
	c.TotpVerified = false
	return nil
}

func (s *Store) SetTotpVerified(ctx context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok || c.DeletedAt != nil {
		return repository.ErrNotFound
	}
	c.TotpVerified = true
	return nil
}

func (s *Store) GetProfile(ctx context.Context, clientID string) (*repository.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[clientID]
	if !ok || c.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	p, ok := s.profiles[clientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) UpdateProfile(ctx context.Context, clientID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok || c.DeletedAt != nil {
		return repository.ErrNotFound
	}
	p, ok := s.profiles[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Name = name
	return nil
}
