// Package oidc implementa la verificación de identidades federadas.
//
// Un Provider es un OIDC provider externo configurado por issuer URL. La
// verificación del ID token (firma RS256 contra el JWKS publicado, iss, aud,
// exp) ocurre acá; el MFA es responsabilidad del proveedor, no nuestra.
package oidc

import "context"

// Claims son los claims que este subsistema consume de un ID token.
type Claims struct {
	Issuer    string
	Subject   string
	Email     string
	Name      string
	SessionID string // claim "sid", usado como id_token_hint para end-session
}

// VerifyParams son los parámetros de una verificación federada.
type VerifyParams struct {
	Provider string // nombre del proveedor configurado
	IDToken  string // ID token crudo (compact JWS)
	Nonce    string // nonce esperado; vacío = no chequear
}

// Verifier es la capacidad de verificación federada que consume el
// orquestador de autenticación.
type Verifier interface {
	// Verify valida el ID token y retorna sus claims.
	// Retorna repository.ErrAuthentication si el token es inválido y
	// repository.ErrExternalService si el proveedor no responde.
	Verify(ctx context.Context, p VerifyParams) (*Claims, error)

	// EndSession llama al end_session_endpoint del proveedor. Best-effort:
	// el error es informativo, el caller no debe bloquear el cierre de la
	// sesión local por esto.
	EndSession(ctx context.Context, provider, idTokenHint string) error

	// DisplayNames retorna el mapping issuer URL -> nombre del proveedor,
	// para resolver etiquetas de grupo.
	DisplayNames() map[string]string
}
