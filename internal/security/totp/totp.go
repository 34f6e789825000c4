package totp

import (
	"fmt"
	"net/url"

	"github.com/pquerna/otp/totp"
)

// Issuer es el nombre que ven los clientes en su app de autenticación.
const Issuer = "Peergate Client"

// GenerateSecret retorna un secreto TOTP nuevo en base32 sin padding.
func GenerateSecret() (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      Issuer,
		AccountName: "pending",
	})
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

// Verify valida un código de 6 dígitos contra el secreto (RFC 6238,
// período 30s, ventana por defecto de la librería).
func Verify(secret, code string) bool {
	if secret == "" || code == "" {
		return false
	}
	return totp.Validate(code, secret)
}

// ProvisioningURI construye la URL otpauth:// para el QR de enrolamiento.
// accountLabel es normalmente el email del cliente.
func ProvisioningURI(secret, accountLabel string) string {
	// otpauth://totp/{issuer}:{account}?secret=...&issuer=...&algorithm=SHA1&digits=6&period=30
	label := url.PathEscape(fmt.Sprintf("%s:%s", Issuer, accountLabel))
	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", Issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", "6")
	q.Set("period", "30")
	return fmt.Sprintf("otpauth://totp/%s?%s", label, q.Encode())
}
