package repository

import (
	"context"
	"time"
)

// Client representa un titular de cuenta del dashboard, local o federado.
//
// Invariante: un cliente tiene exactamente uno de los dos juegos de campos:
// credenciales locales (PasswordHash, TotpSecret, TotpVerified) o identidad
// federada (ProviderIssuer, ProviderSubject). Nunca ambos.
type Client struct {
	ID    string
	Email string
	Group Group

	// Solo cuentas locales.
	PasswordHash string
	TotpSecret   string
	TotpVerified bool

	// Solo cuentas federadas.
	ProviderIssuer  string
	ProviderSubject string

	CreatedAt time.Time
	DeletedAt *time.Time // nil = activo (soft delete)
}

// Profile es el perfil 1:1 del cliente. Se crea junto al Client y se puede
// mutar de forma independiente.
type Profile struct {
	ClientID string
	Name     string
}

// ClientSummary es la vista reducida que retorna ListGrouped.
type ClientSummary struct {
	ID    string
	Email string
	Group Group
	Name  string
}

// CreateLocalInput contiene los datos para crear un cliente local.
type CreateLocalInput struct {
	Email        string
	PasswordHash string
	TotpSecret   string
}

// CreateFederatedInput contiene los datos para aprovisionar un cliente federado.
// El profile (Name) se crea en la misma transacción que el cliente.
type CreateFederatedInput struct {
	Issuer  string
	Subject string
	Email   string
	Name    string
}

// ClientRepository define las operaciones sobre la identidad de clientes.
// Todas las búsquedas ignoran filas con DeletedAt distinto de nil.
type ClientRepository interface {
	// FindByEmailLocal busca un cliente local activo por email
	// (case-insensitive). Retorna ErrNotFound si no existe.
	FindByEmailLocal(ctx context.Context, email string) (*Client, error)

	// FindByFederatedSubject busca un cliente federado activo por (issuer, subject).
	// Retorna ErrNotFound si no existe.
	FindByFederatedSubject(ctx context.Context, issuer, subject string) (*Client, error)

	// GetByID busca un cliente activo por ID, local o federado.
	// Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, clientID string) (*Client, error)

	// CreateLocal crea un cliente local junto con su profile vacío.
	// Retorna ErrConflict si ya existe un cliente local activo con ese email;
	// la unicidad la garantiza el storage, el chequeo previo del caller es
	// solo advisory.
	CreateLocal(ctx context.Context, in CreateLocalInput) (string, error)

	// CreateFederated crea un cliente federado junto con su profile, en una
	// sola unidad transaccional. El caller debe haber consultado
	// FindByFederatedSubject antes; esta operación no re-chequea.
	CreateFederated(ctx context.Context, in CreateFederatedInput) (string, error)

	// SoftDelete marca el cliente y su profile como eliminados.
	// Las filas no se borran físicamente.
	SoftDelete(ctx context.Context, clientID string) error

	// ListGrouped retorna todos los clientes activos particionados por grupo
	// crudo (GroupLocal o issuer URL). Se recalcula en cada llamada, sin
	// cache entre llamadas.
	ListGrouped(ctx context.Context) (map[Group][]ClientSummary, error)

	// UpdatePasswordHash reemplaza el hash de password de un cliente local.
	UpdatePasswordHash(ctx context.Context, clientID, newHash string) error

	// RotateTotp reemplaza el secreto TOTP y limpia el flag de verificación,
	// forzando re-enrolamiento.
	RotateTotp(ctx context.Context, clientID, newSecret string) error

	// SetTotpVerified marca el TOTP del cliente como verificado.
	SetTotpVerified(ctx context.Context, clientID string) error

	// ResetCredentials reemplaza hash de password y secreto TOTP, y limpia el
	// flag de verificación, en una sola escritura. Es el camino del password
	// reset: el cliente queda forzado a re-enrolar su segundo factor.
	ResetCredentials(ctx context.Context, clientID, newHash, newSecret string) error

	// GetProfile retorna el profile del cliente. ErrNotFound si no existe.
	GetProfile(ctx context.Context, clientID string) (*Profile, error)

	// UpdateProfile actualiza el nombre para mostrar del cliente.
	UpdateProfile(ctx context.Context, clientID, name string) error
}
