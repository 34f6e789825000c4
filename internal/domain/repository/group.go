package repository

// Group identifica el origen de autenticación de un cliente.
// Es una variante cerrada: GroupLocal o el issuer URL de un proveedor OIDC.
type Group string

// GroupLocal es el grupo de cuentas locales (password + TOTP).
const GroupLocal Group = "Local"

// IsLocal indica si el grupo corresponde a una cuenta local.
func (g Group) IsLocal() bool { return g == GroupLocal }

// GroupResolver traduce issuer URLs a nombres de proveedor para mostrar.
// Se construye desde la configuración OIDC; un issuer desconocido se muestra
// tal cual (no se inventa un nombre).
type GroupResolver struct {
	byIssuer map[string]string
}

// NewGroupResolver crea un resolver desde un mapping issuer -> display name.
func NewGroupResolver(byIssuer map[string]string) *GroupResolver {
	m := make(map[string]string, len(byIssuer))
	for iss, name := range byIssuer {
		m[iss] = name
	}
	return &GroupResolver{byIssuer: m}
}

// Resolve retorna la etiqueta para mostrar de un grupo.
func (r *GroupResolver) Resolve(g Group) string {
	if g.IsLocal() {
		return string(GroupLocal)
	}
	if r != nil {
		if name, ok := r.byIssuer[string(g)]; ok {
			return name
		}
	}
	return string(g)
}
