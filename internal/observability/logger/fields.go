package logger

import (
	"time"

	"go.uber.org/zap"
)

// ClientID crea un campo para el ID del cliente.
func ClientID(v string) zap.Field {
	return zap.String("client_id", v)
}

// Email crea un campo para el email del cliente.
func Email(v string) zap.Field {
	return zap.String("email", v)
}

// Provider crea un campo para el nombre del proveedor OIDC.
func Provider(v string) zap.Field {
	return zap.String("provider", v)
}

// Issuer crea un campo para el issuer URL del proveedor.
func Issuer(v string) zap.Field {
	return zap.String("issuer", v)
}

// Component crea un campo para el componente de origen.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Action crea un campo para la acción auditada.
func Action(v string) zap.Field {
	return zap.String("action", v)
}

// Duration crea un campo para una duración.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// String crea un campo string genérico.
func String(k, v string) zap.Field {
	return zap.String(k, v)
}

// Int crea un campo int genérico.
func Int(k string, v int) zap.Field {
	return zap.Int(k, v)
}

// Bool crea un campo bool genérico.
func Bool(k string, v bool) zap.Field {
	return zap.Bool(k, v)
}
