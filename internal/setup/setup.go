// Package setup arma los componentes del subsistema desde la configuración.
// Lo usan la CLI y la capa web que embebe este módulo; acá vive la única
// traducción de config a constructores concretos.
package setup

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/peergate/internal/challenge"
	"github.com/dropDatabas3/peergate/internal/config"
	"github.com/dropDatabas3/peergate/internal/oidc"
)

// Registry construye el registro de challenge tokens según
// challenge.backend: "memory" o "redis".
func Registry(cfg *config.Config) (challenge.Registry, error) {
	switch cfg.Challenge.Backend {
	case "", "memory":
		return challenge.NewMemory(cfg.ChallengeTTL()), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Challenge.Redis.Addr,
			Password: cfg.Challenge.Redis.Password,
			DB:       cfg.Challenge.Redis.DB,
		})
		return challenge.NewRedis(rdb, cfg.ChallengeTTL(), cfg.Challenge.Redis.Prefix), nil
	default:
		return nil, fmt.Errorf("setup: unknown challenge backend %q", cfg.Challenge.Backend)
	}
}

// Verifier construye el verificador OIDC desde los proveedores configurados.
// Sin proveedores retorna nil: el orquestador trata nil como federación no
// configurada.
func Verifier(cfg *config.Config) oidc.Verifier {
	if len(cfg.OIDC) == 0 {
		return nil
	}
	pcs := make([]oidc.ProviderConfig, 0, len(cfg.OIDC))
	for _, p := range cfg.OIDC {
		pcs = append(pcs, oidc.ProviderConfig{
			Name:     p.Name,
			Issuer:   p.Issuer,
			ClientID: p.ClientID,
		})
	}
	return oidc.New(pcs)
}
