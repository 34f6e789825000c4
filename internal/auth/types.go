package auth

import "time"

// Método de autenticación de una sesión.
const (
	MethodLocal     = "local"
	MethodFederated = "oidc"
)

// Session es el resultado de una autenticación completa. El transporte
// (cookie, header) es problema de la capa web, no de este subsistema.
type Session struct {
	ClientID      string
	Email         string
	Method        string // MethodLocal | MethodFederated
	Provider      string // solo sesiones federadas
	EstablishedAt time.Time
}

// TotpOutcome es el resultado de CompleteTotp. Exactamente uno de los dos
// campos está poblado: ProvisioningURI cuando el cliente todavía no enroló su
// app de autenticación, Session cuando el código coincidió.
type TotpOutcome struct {
	ProvisioningURI string
	Session         *Session
}
