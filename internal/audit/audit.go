// Package audit escribe eventos de auditoría append-only.
//
// El logging de auditoría es fire-and-forget: un fallo al escribir nunca
// enmascara ni altera el resultado de la operación auditada. Los fallos se
// registran por zap y se tragan.
package audit

import "context"

// Event es un evento de auditoría.
type Event struct {
	Actor   string // quién ejecuta (client ID, "system", admin)
	Action  string // ej: "client.signup", "client.signin.federated"
	Status  string // "success" | "failure"
	Message string
}

// Logger escribe eventos de auditoría. Las implementaciones no retornan
// error: el contrato es best-effort.
type Logger interface {
	Log(ctx context.Context, ev Event)
}

// Nop es un Logger que descarta todos los eventos.
type Nop struct{}

func (Nop) Log(ctx context.Context, ev Event) {}
