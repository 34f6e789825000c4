package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dropDatabas3/peergate/internal/domain/repository"
)

func (s *Store) FindByEmailLocal(ctx context.Context, email string) (*repository.Client, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, totp_secret, totp_verified, created_at, deleted_at
		  FROM dashboard_client
		 WHERE lower(email) = lower($1) AND deleted_at IS NULL`, email)
	var c repository.Client
	if err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.TotpSecret, &c.TotpVerified, &c.CreatedAt, &c.DeletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	c.Group = repository.GroupLocal
	return &c, nil
}

func (s *Store) FindByFederatedSubject(ctx context.Context, issuer, subject string) (*repository.Client, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, provider_issuer, provider_subject, created_at, deleted_at
		  FROM dashboard_oidc_client
		 WHERE provider_issuer = $1 AND provider_subject = $2 AND deleted_at IS NULL`, issuer, subject)
	var c repository.Client
	if err := row.Scan(&c.ID, &c.Email, &c.ProviderIssuer, &c.ProviderSubject, &c.CreatedAt, &c.DeletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	c.Group = repository.Group(c.ProviderIssuer)
	return &c, nil
}

func (s *Store) GetByID(ctx context.Context, clientID string) (*repository.Client, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, totp_secret, totp_verified, created_at, deleted_at
		  FROM dashboard_client
		 WHERE id = $1 AND deleted_at IS NULL`, clientID)
	var c repository.Client
	err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.TotpSecret, &c.TotpVerified, &c.CreatedAt, &c.DeletedAt)
	if err == nil {
		c.Group = repository.GroupLocal
		return &c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return s.FindFederatedByID(ctx, clientID)
}

// FindFederatedByID busca solo en la tabla federada.
func (s *Store) FindFederatedByID(ctx context.Context, clientID string) (*repository.Client, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, provider_issuer, provider_subject, created_at, deleted_at
		  FROM dashboard_oidc_client
		 WHERE id = $1 AND deleted_at IS NULL`, clientID)
	var c repository.Client
	if err := row.Scan(&c.ID, &c.Email, &c.ProviderIssuer, &c.ProviderSubject, &c.CreatedAt, &c.DeletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	c.Group = repository.Group(c.ProviderIssuer)
	return &c, nil
}

func (s *Store) CreateLocal(ctx context.Context, in repository.CreateLocalInput) (string, error) {
	id := uuid.NewString()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO dashboard_client (id, email, password_hash, totp_secret)
		VALUES ($1, $2, $3, $4)`,
		id, in.Email, in.PasswordHash, in.TotpSecret,
	)
	if err != nil {
		// El índice único parcial sobre lower(email) resuelve la carrera de
		// dos sign-ups simultáneos: exactamente uno gana.
		if isUniqueViolation(err) {
			return "", repository.ErrConflict
		}
		return "", err
	}
	if _, err = tx.Exec(ctx, `INSERT INTO dashboard_client_profile (client_id, name) VALUES ($1, '')`, id); err != nil {
		return "", err
	}
	if err = tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) CreateFederated(ctx context.Context, in repository.CreateFederatedInput) (string, error) {
	id := uuid.NewString()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO dashboard_oidc_client (id, email, provider_issuer, provider_subject)
		VALUES ($1, $2, $3, $4)`,
		id, in.Email, in.Issuer, in.Subject,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", repository.ErrConflict
		}
		return "", err
	}
	if _, err = tx.Exec(ctx, `INSERT INTO dashboard_client_profile (client_id, name) VALUES ($1, $2)`, id, in.Name); err != nil {
		return "", err
	}
	if err = tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) SoftDelete(ctx context.Context, clientID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tagLocal, err := tx.Exec(ctx, `
		UPDATE dashboard_client SET deleted_at = now()
		 WHERE id = $1 AND deleted_at IS NULL`, clientID)
	if err != nil {
		return err
	}
	tagOIDC, err := tx.Exec(ctx, `
		UPDATE dashboard_oidc_client SET deleted_at = now()
		 WHERE id = $1 AND deleted_at IS NULL`, clientID)
	if err != nil {
		return err
	}
	if tagLocal.RowsAffected() == 0 && tagOIDC.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	if _, err = tx.Exec(ctx, `
		UPDATE dashboard_client_profile SET deleted_at = now()
		 WHERE client_id = $1 AND deleted_at IS NULL`, clientID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) ListGrouped(ctx context.Context) (map[repository.Group][]repository.ClientSummary, error) {
	// UNION de locales y federados, con el nombre del profile si lo hay.
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.email, u.client_group, COALESCE(p.name, '')
		  FROM (
			SELECT id, email, 'Local' AS client_group
			  FROM dashboard_client WHERE deleted_at IS NULL
			UNION ALL
			SELECT id, email, provider_issuer AS client_group
			  FROM dashboard_oidc_client WHERE deleted_at IS NULL
		  ) u
		  LEFT JOIN dashboard_client_profile p
			ON p.client_id = u.id AND p.deleted_at IS NULL
		 ORDER BY u.client_group, u.email`)
	if err != nil {
		return nil, fmt.Errorf("list grouped: %w", err)
	}
	defer rows.Close()

	out := make(map[repository.Group][]repository.ClientSummary)
	for rows.Next() {
		var cs repository.ClientSummary
		var group string
		if err := rows.Scan(&cs.ID, &cs.Email, &group, &cs.Name); err != nil {
			return nil, err
		}
		cs.Group = repository.Group(group)
		out[cs.Group] = append(out[cs.Group], cs)
	}
	return out, rows.Err()
}

func (s *Store) UpdatePasswordHash(ctx context.Context, clientID, newHash string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE dashboard_client SET password_hash = $2
		 WHERE id = $1 AND deleted_at IS NULL`, clientID, newHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) RotateTotp(ctx context.Context, clientID, newSecret string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE dashboard_client SET totp_secret = $2, totp_verified = FALSE
		 WHERE id = $1 AND deleted_at IS NULL`, clientID, newSecret)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) ResetCredentials(ctx context.Context, clientID, newHash, newSecret string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE dashboard_client
		   SET password_hash = $2, totp_secret = $3, totp_verified = FALSE
		 WHERE id = $1 AND deleted_at IS NULL`, clientID, newHash, newSecret)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) SetTotpVerified(ctx context.Context, clientID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE dashboard_client SET totp_verified = TRUE
		 WHERE id = $1 AND deleted_at IS NULL`, clientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, clientID string) (*repository.Profile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT client_id, name FROM dashboard_client_profile
		 WHERE client_id = $1 AND deleted_at IS NULL`, clientID)
	var p repository.Profile
	if err := row.Scan(&p.ClientID, &p.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdateProfile(ctx context.Context, clientID, name string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE dashboard_client_profile SET name = $2
		 WHERE client_id = $1 AND deleted_at IS NULL`, clientID, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" // unique_violation
}
