package repository

import "errors"

var (
	// ErrNotFound indica que el recurso solicitado no existe o fue eliminado.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica un conflicto (ej: email duplicado, constraint violation).
	ErrConflict = errors.New("conflict")

	// ErrValidation indica que los datos de entrada son inválidos.
	ErrValidation = errors.New("validation failed")

	// ErrAuthentication indica credenciales incorrectas o cuenta inexistente.
	// El mensaje nunca revela cuál factor falló.
	ErrAuthentication = errors.New("authentication failed")

	// ErrTokenExpired indica que el token ya expiró.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenConsumed indica que el token ya fue consumido.
	ErrTokenConsumed = errors.New("token already consumed")

	// ErrTokenNotFound indica que el token no existe en el registro.
	ErrTokenNotFound = errors.New("token not found")

	// ErrExternalService indica que un colaborador externo (ej: proveedor OIDC)
	// no respondió o respondió de forma inválida.
	ErrExternalService = errors.New("external service error")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict verifica si el error es ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation verifica si el error es ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsAuthentication verifica si el error es ErrAuthentication.
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrAuthentication)
}
