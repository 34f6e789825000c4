// Package auth implementa el orquestador de autenticación de clientes.
//
// El sign-in local es una máquina de dos pasos: el chequeo de password emite
// un challenge token y el chequeo TOTP lo consume; el token opaco es el único
// mecanismo de continuidad entre las dos llamadas. El sign-in federado
// establece sesión directo: el segundo factor es responsabilidad del
// proveedor OIDC.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/peergate/internal/audit"
	"github.com/dropDatabas3/peergate/internal/challenge"
	"github.com/dropDatabas3/peergate/internal/domain/repository"
	"github.com/dropDatabas3/peergate/internal/metrics"
	"github.com/dropDatabas3/peergate/internal/observability/logger"
	"github.com/dropDatabas3/peergate/internal/oidc"
	"github.com/dropDatabas3/peergate/internal/security/password"
	"github.com/dropDatabas3/peergate/internal/security/totp"
)

// msgBadCredentials nunca revela cuál factor falló (enumeración de cuentas).
const msgBadCredentials = "email or password is incorrect"

// Service es el orquestador. No guarda estado mutable entre llamadas.
type Service struct {
	clients    repository.ClientRepository
	challenges challenge.Registry
	verifier   oidc.Verifier // nil = federación no configurada
	resolver   *repository.GroupResolver
	policy     password.Policy
	auditor    audit.Logger
	log        *zap.Logger
}

// New crea el Service. verifier y auditor pueden ser nil.
func New(clients repository.ClientRepository, challenges challenge.Registry, verifier oidc.Verifier, auditor audit.Logger, policy password.Policy) *Service {
	if auditor == nil {
		auditor = audit.Nop{}
	}
	var names map[string]string
	if verifier != nil {
		names = verifier.DisplayNames()
	}
	return &Service{
		clients:    clients,
		challenges: challenges,
		verifier:   verifier,
		resolver:   repository.NewGroupResolver(names),
		policy:     policy,
		auditor:    auditor,
		log:        logger.Named("auth"),
	}
}

// SignIn ejecuta el paso de password del sign-in local. Nunca retorna una
// sesión: el éxito emite un challenge token para el paso TOTP.
func (s *Service) SignIn(ctx context.Context, email, pw string) (string, error) {
	if email == "" || pw == "" {
		return "", fmt.Errorf("%w: please fill in all fields", repository.ErrValidation)
	}
	client, err := s.clients.FindByEmailLocal(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			metrics.IncSignIn(MethodLocal, "failure")
			return "", fmt.Errorf("%w: %s", repository.ErrAuthentication, msgBadCredentials)
		}
		return "", err
	}
	if !password.Verify(pw, client.PasswordHash) {
		metrics.IncSignIn(MethodLocal, "failure")
		s.auditor.Log(ctx, audit.Event{
			Actor:   client.ID,
			Action:  "client.signin",
			Status:  "failure",
			Message: "password mismatch",
		})
		return "", fmt.Errorf("%w: %s", repository.ErrAuthentication, msgBadCredentials)
	}

	tok, err := s.challenges.Issue(ctx, client.ID)
	if err != nil {
		return "", fmt.Errorf("issue challenge: %w", err)
	}
	metrics.IncChallengeIssued()
	s.log.Debug("password ok, challenge issued", logger.ClientID(client.ID))
	return tok, nil
}

// CompleteTotp ejecuta el paso TOTP. Con code vacío y un cliente que nunca
// completó el enrolamiento retorna la provisioning URI sin consumir el token;
// con código, lo verifica y establece la sesión solo si coincide. El primer
// código correcto de la vida del cliente persiste TotpVerified.
func (s *Service) CompleteTotp(ctx context.Context, challengeToken, code string) (*TotpOutcome, error) {
	if challengeToken == "" {
		return nil, fmt.Errorf("%w: missing challenge token", repository.ErrValidation)
	}
	clientID, err := s.challenges.Resolve(ctx, challengeToken)
	if err != nil {
		return nil, err
	}
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if code == "" {
		if client.TotpVerified {
			return nil, fmt.Errorf("%w: totp code required", repository.ErrValidation)
		}
		// Enrolamiento pendiente: se muestra el QR, el token sigue vivo para
		// el intento con código.
		return &TotpOutcome{
			ProvisioningURI: totp.ProvisioningURI(client.TotpSecret, client.Email),
		}, nil
	}

	if !totp.Verify(client.TotpSecret, code) {
		metrics.IncSignIn(MethodLocal, "failure")
		return nil, fmt.Errorf("%w: totp code does not match", repository.ErrAuthentication)
	}
	// Consume primero: si dos completions del mismo challenge corren a la
	// par, exactamente una gana.
	if err := s.challenges.Consume(ctx, challengeToken); err != nil {
		return nil, err
	}
	if !client.TotpVerified {
		if err := s.clients.SetTotpVerified(ctx, client.ID); err != nil {
			return nil, err
		}
	}

	metrics.IncSignIn(MethodLocal, "success")
	s.auditor.Log(ctx, audit.Event{
		Actor:   client.ID,
		Action:  "client.signin",
		Message: "client " + client.Email + " signed in",
	})
	return &TotpOutcome{Session: &Session{
		ClientID:      client.ID,
		Email:         client.Email,
		Method:        MethodLocal,
		EstablishedAt: time.Now(),
	}}, nil
}

// SignUp registra un cliente local nuevo. No establece sesión: el cliente
// debe hacer sign-in después.
func (s *Service) SignUp(ctx context.Context, email, pw, confirm string) (string, error) {
	if email == "" || pw == "" || confirm == "" {
		return "", fmt.Errorf("%w: please fill in all fields", repository.ErrValidation)
	}
	if pw != confirm {
		return "", fmt.Errorf("%w: passwords do not match", repository.ErrValidation)
	}
	if ok, reasons := s.policy.Validate(pw); !ok {
		return "", fmt.Errorf("%w: password too weak: %s", repository.ErrValidation, strings.Join(reasons, ", "))
	}

	hash, err := password.Hash(pw)
	if err != nil {
		return "", err
	}
	secret, err := totp.GenerateSecret()
	if err != nil {
		return "", err
	}
	// El chequeo de unicidad vive en el storage (índice único parcial); no
	// hay check-then-insert acá.
	id, err := s.clients.CreateLocal(ctx, repository.CreateLocalInput{
		Email:        email,
		PasswordHash: hash,
		TotpSecret:   secret,
	})
	if err != nil {
		if repository.IsConflict(err) {
			metrics.IncSignUp(MethodLocal, "conflict")
			return "", fmt.Errorf("%w: email already signed up", repository.ErrConflict)
		}
		metrics.IncSignUp(MethodLocal, "failure")
		return "", err
	}

	metrics.IncSignUp(MethodLocal, "success")
	s.auditor.Log(ctx, audit.Event{
		Actor:   id,
		Action:  "client.signup",
		Message: "client " + email + " signed up",
	})
	return id, nil
}

// SignInFederated verifica un ID token federado y establece sesión directo.
// Un (issuer, subject) desconocido se aprovisiona como sign-up implícito.
func (s *Service) SignInFederated(ctx context.Context, params oidc.VerifyParams) (*Session, error) {
	if s.verifier == nil {
		return nil, fmt.Errorf("%w: federated sign-in not configured", repository.ErrValidation)
	}
	claims, err := s.verifier.Verify(ctx, params)
	if err != nil {
		metrics.IncSignIn(MethodFederated, "failure")
		return nil, err
	}

	client, err := s.clients.FindByFederatedSubject(ctx, claims.Issuer, claims.Subject)
	if err != nil && !repository.IsNotFound(err) {
		return nil, err
	}
	if client == nil {
		id, cerr := s.clients.CreateFederated(ctx, repository.CreateFederatedInput{
			Issuer:  claims.Issuer,
			Subject: claims.Subject,
			Email:   claims.Email,
			Name:    claims.Name,
		})
		if cerr != nil {
			if repository.IsConflict(cerr) {
				// Perdimos la carrera contra otro sign-in idéntico: la fila
				// ya existe, se reusa.
				client, err = s.clients.FindByFederatedSubject(ctx, claims.Issuer, claims.Subject)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, cerr
			}
		} else {
			metrics.IncSignUp(MethodFederated, "success")
			s.auditor.Log(ctx, audit.Event{
				Actor:   id,
				Action:  "client.signup.federated",
				Message: fmt.Sprintf("client %s from %s signed up", claims.Email, claims.Issuer),
			})
			client, err = s.clients.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
		}
	}

	metrics.IncSignIn(MethodFederated, "success")
	s.auditor.Log(ctx, audit.Event{
		Actor:   client.ID,
		Action:  "client.signin.federated",
		Message: fmt.Sprintf("client %s from %s signed in", client.Email, claims.Issuer),
	})
	return &Session{
		ClientID:      client.ID,
		Email:         client.Email,
		Method:        MethodFederated,
		Provider:      params.Provider,
		EstablishedAt: time.Now(),
	}, nil
}

// SignOutFederated avisa al proveedor con el end-session endpoint.
// Best-effort: un fallo del proveedor nunca bloquea el cierre de la sesión
// local, por eso siempre retorna nil salvo validación.
func (s *Service) SignOutFederated(ctx context.Context, providerName, idTokenHint string) error {
	if s.verifier == nil {
		return fmt.Errorf("%w: federated sign-in not configured", repository.ErrValidation)
	}
	if providerName == "" {
		return fmt.Errorf("%w: missing provider", repository.ErrValidation)
	}
	if err := s.verifier.EndSession(ctx, providerName, idTokenHint); err != nil {
		s.log.Warn("federated end-session failed",
			logger.Provider(providerName),
			logger.Err(err),
		)
	}
	return nil
}

// ResetPassword fija un password nuevo sin conocer el actual. Se usa con un
// reset token validado una capa más arriba. El secreto TOTP se rota y el
// flag de verificación se limpia: el cliente re-enrola su segundo factor.
func (s *Service) ResetPassword(ctx context.Context, clientID, newPw, confirm string) error {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return err
	}
	if newPw == "" || confirm == "" {
		return fmt.Errorf("%w: please fill in all fields", repository.ErrValidation)
	}
	if newPw != confirm {
		return fmt.Errorf("%w: new passwords do not match", repository.ErrValidation)
	}
	if ok, reasons := s.policy.Validate(newPw); !ok {
		return fmt.Errorf("%w: password too weak: %s", repository.ErrValidation, strings.Join(reasons, ", "))
	}

	hash, err := password.Hash(newPw)
	if err != nil {
		return err
	}
	secret, err := totp.GenerateSecret()
	if err != nil {
		return err
	}
	if err := s.clients.ResetCredentials(ctx, clientID, hash, secret); err != nil {
		s.auditor.Log(ctx, audit.Event{
			Actor:   clientID,
			Action:  "client.password.reset",
			Status:  "failure",
			Message: err.Error(),
		})
		return err
	}
	s.auditor.Log(ctx, audit.Event{
		Actor:   clientID,
		Action:  "client.password.reset",
		Message: "client " + client.Email + " reset password and TOTP",
	})
	return nil
}

// UpdatePassword cambia el password verificando el actual. No toca el TOTP.
func (s *Service) UpdatePassword(ctx context.Context, clientID, current, newPw, confirm string) error {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return err
	}
	if current == "" || newPw == "" || confirm == "" {
		return fmt.Errorf("%w: please fill in all fields", repository.ErrValidation)
	}
	if !password.Verify(current, client.PasswordHash) {
		return fmt.Errorf("%w: current password does not match", repository.ErrAuthentication)
	}
	if newPw != confirm {
		return fmt.Errorf("%w: new passwords do not match", repository.ErrValidation)
	}
	if ok, reasons := s.policy.Validate(newPw); !ok {
		return fmt.Errorf("%w: password too weak: %s", repository.ErrValidation, strings.Join(reasons, ", "))
	}

	hash, err := password.Hash(newPw)
	if err != nil {
		return err
	}
	if err := s.clients.UpdatePasswordHash(ctx, clientID, hash); err != nil {
		return err
	}
	s.auditor.Log(ctx, audit.Event{
		Actor:   clientID,
		Action:  "client.password.update",
		Message: "client " + client.Email + " updated password",
	})
	return nil
}

// UpdateProfile actualiza el nombre para mostrar del cliente.
func (s *Service) UpdateProfile(ctx context.Context, clientID, name string) error {
	if err := s.clients.UpdateProfile(ctx, clientID, name); err != nil {
		return err
	}
	s.auditor.Log(ctx, audit.Event{
		Actor:   clientID,
		Action:  "client.profile.update",
		Message: "client updated name to " + name,
	})
	return nil
}

// DeleteClient marca el cliente como eliminado (soft delete: las filas
// quedan para auditoría e historia).
func (s *Service) DeleteClient(ctx context.Context, clientID string) error {
	if err := s.clients.SoftDelete(ctx, clientID); err != nil {
		s.auditor.Log(ctx, audit.Event{
			Actor:   clientID,
			Action:  "client.delete",
			Status:  "failure",
			Message: err.Error(),
		})
		return err
	}
	s.auditor.Log(ctx, audit.Event{
		Actor:   clientID,
		Action:  "client.delete",
		Message: "client soft-deleted",
	})
	return nil
}

// ListClients retorna los clientes activos particionados por etiqueta de
// grupo resuelta ("Local" o el nombre del proveedor). Se recalcula en cada
// llamada: acciones de admin externas pueden haber mutado el storage.
func (s *Service) ListClients(ctx context.Context) (map[string][]repository.ClientSummary, error) {
	grouped, err := s.clients.ListGrouped(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]repository.ClientSummary, len(grouped))
	for g, list := range grouped {
		out[s.resolver.Resolve(g)] = list
	}
	return out, nil
}

// GetClient retorna el cliente activo por ID.
func (s *Service) GetClient(ctx context.Context, clientID string) (*repository.Client, error) {
	return s.clients.GetByID(ctx, clientID)
}

// GetClientProfile retorna el profile del cliente.
func (s *Service) GetClientProfile(ctx context.Context, clientID string) (*repository.Profile, error) {
	return s.clients.GetProfile(ctx, clientID)
}

// GroupLabel resuelve la etiqueta para mostrar de un grupo.
func (s *Service) GroupLabel(g repository.Group) string {
	return s.resolver.Resolve(g)
}
