package oidc

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/peergate/internal/domain/repository"
	"github.com/dropDatabas3/peergate/internal/observability/logger"
)

// ProviderConfig configura un proveedor OIDC.
type ProviderConfig struct {
	Name     string // nombre para mostrar, ej: "Google"
	Issuer   string // issuer URL, base del discovery
	ClientID string
}

type discoveryDoc struct {
	Issuer             string `json:"issuer"`
	JWKSURI            string `json:"jwks_uri"`
	EndSessionEndpoint string `json:"end_session_endpoint"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"` // base64url
	E   string `json:"e"` // base64url
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

type provider struct {
	cfg ProviderConfig

	mu     sync.RWMutex
	disc   *discoveryDoc
	discAt time.Time
	jwks   *jwks
	jwksAt time.Time
}

// Client implementa Verifier para un conjunto de proveedores configurados.
type Client struct {
	http      *http.Client
	providers map[string]*provider // key: nombre del proveedor
	byIssuer  map[string]string    // issuer -> nombre
	sf        singleflight.Group
}

// New crea un Client desde la configuración de proveedores.
func New(cfgs []ProviderConfig) *Client {
	c := &Client{
		http:      &http.Client{Timeout: 10 * time.Second},
		providers: make(map[string]*provider, len(cfgs)),
		byIssuer:  make(map[string]string, len(cfgs)),
	}
	for _, pc := range cfgs {
		c.providers[pc.Name] = &provider{cfg: pc}
		c.byIssuer[pc.Issuer] = pc.Name
	}
	return c
}

func (c *Client) DisplayNames() map[string]string {
	out := make(map[string]string, len(c.byIssuer))
	for iss, name := range c.byIssuer {
		out[iss] = name
	}
	return out
}

func (c *Client) discovery(ctx context.Context, p *provider) (*discoveryDoc, error) {
	p.mu.RLock()
	disc := p.disc
	stale := time.Since(p.discAt) > 24*time.Hour
	p.mu.RUnlock()
	if disc != nil && !stale {
		return disc, nil
	}

	// singleflight: N requests concurrentes al mismo discovery hacen un fetch.
	v, err, _ := c.sf.Do("disc:"+p.cfg.Issuer, func() (any, error) {
		u := strings.TrimRight(p.cfg.Issuer, "/") + "/.well-known/openid-configuration"
		req, _ := http.NewRequestWithContext(ctx, "GET", u, nil)
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: discovery: %v", repository.ErrExternalService, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			return nil, fmt.Errorf("%w: discovery http %d", repository.ErrExternalService, resp.StatusCode)
		}
		var dd discoveryDoc
		if err := json.NewDecoder(resp.Body).Decode(&dd); err != nil {
			return nil, fmt.Errorf("%w: discovery decode: %v", repository.ErrExternalService, err)
		}
		p.mu.Lock()
		p.disc = &dd
		p.discAt = time.Now()
		p.mu.Unlock()
		return &dd, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*discoveryDoc), nil
}

func (c *Client) getJWKS(ctx context.Context, p *provider, uri string) (*jwks, error) {
	p.mu.RLock()
	j := p.jwks
	age := time.Since(p.jwksAt)
	p.mu.RUnlock()
	if j != nil && age < time.Hour {
		return j, nil
	}

	v, err, _ := c.sf.Do("jwks:"+p.cfg.Issuer, func() (any, error) {
		req, _ := http.NewRequestWithContext(ctx, "GET", uri, nil)
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: jwks: %v", repository.ErrExternalService, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			return nil, fmt.Errorf("%w: jwks http %d", repository.ErrExternalService, resp.StatusCode)
		}
		var jj jwks
		if err := json.NewDecoder(resp.Body).Decode(&jj); err != nil {
			return nil, fmt.Errorf("%w: jwks decode: %v", repository.ErrExternalService, err)
		}
		p.mu.Lock()
		p.jwks = &jj
		p.jwksAt = time.Now()
		p.mu.Unlock()
		return &jj, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*jwks), nil
}

func (c *Client) rsaKeyForKid(ctx context.Context, p *provider, kid string) (*rsa.PublicKey, error) {
	disc, err := c.discovery(ctx, p)
	if err != nil {
		return nil, err
	}
	jj, err := c.getJWKS(ctx, p, disc.JWKSURI)
	if err != nil {
		return nil, err
	}
	for _, k := range jj.Keys {
		if k.Kid == kid && strings.EqualFold(k.Kty, "RSA") {
			nb, err := base64.RawURLEncoding.DecodeString(k.N)
			if err != nil {
				return nil, err
			}
			eb, err := base64.RawURLEncoding.DecodeString(k.E)
			if err != nil {
				return nil, err
			}
			n := new(big.Int).SetBytes(nb)
			e := 65537
			if len(eb) > 0 {
				e = 0
				for _, b := range eb {
					e = (e << 8) | int(b)
				}
			}
			return &rsa.PublicKey{N: n, E: e}, nil
		}
	}
	return nil, errors.New("kid not found")
}

// Verify valida firma, iss, aud, exp y (opcional) nonce del ID token.
func (c *Client) Verify(ctx context.Context, params VerifyParams) (*Claims, error) {
	p, ok := c.providers[params.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: unknown provider %q", repository.ErrValidation, params.Provider)
	}

	var header struct {
		Alg string `json:"alg"`
		Kid string `json:"kid"`
	}
	parts := strings.Split(params.IDToken, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: bad jwt format", repository.ErrAuthentication)
	}
	hb, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: bad jwt header", repository.ErrAuthentication)
	}
	if err := json.Unmarshal(hb, &header); err != nil {
		return nil, fmt.Errorf("%w: bad jwt header", repository.ErrAuthentication)
	}
	if header.Alg != "RS256" {
		return nil, fmt.Errorf("%w: unexpected alg %s", repository.ErrAuthentication, header.Alg)
	}

	key, err := c.rsaKeyForKid(ctx, p, header.Kid)
	if err != nil {
		if errors.Is(err, repository.ErrExternalService) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", repository.ErrAuthentication, err)
	}
	tok, err := jwtv5.Parse(params.IDToken,
		func(t *jwtv5.Token) (any, error) { return key, nil },
		jwtv5.WithValidMethods([]string{"RS256"}),
	)
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: invalid id_token", repository.ErrAuthentication)
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: claims type", repository.ErrAuthentication)
	}

	iss, _ := claims["iss"].(string)
	if iss != p.cfg.Issuer {
		return nil, fmt.Errorf("%w: bad iss %s", repository.ErrAuthentication, iss)
	}
	audOK := false
	switch a := claims["aud"].(type) {
	case string:
		audOK = a == p.cfg.ClientID
	case []any:
		for _, v := range a {
			if s, _ := v.(string); s == p.cfg.ClientID {
				audOK = true
				break
			}
		}
	}
	if !audOK {
		return nil, fmt.Errorf("%w: bad aud", repository.ErrAuthentication)
	}
	if params.Nonce != "" {
		if got, _ := claims["nonce"].(string); got != params.Nonce {
			return nil, fmt.Errorf("%w: bad nonce", repository.ErrAuthentication)
		}
	}
	if expf, ok := claims["exp"].(float64); ok {
		if time.Unix(int64(expf), 0).Before(time.Now().Add(-30 * time.Second)) {
			return nil, fmt.Errorf("%w: token expired", repository.ErrAuthentication)
		}
	}

	return &Claims{
		Issuer:    iss,
		Subject:   strClaim(claims, "sub"),
		Email:     strClaim(claims, "email"),
		Name:      strClaim(claims, "name"),
		SessionID: strClaim(claims, "sid"),
	}, nil
}

// EndSession llama al end_session_endpoint del proveedor. Best-effort.
func (c *Client) EndSession(ctx context.Context, providerName, idTokenHint string) error {
	p, ok := c.providers[providerName]
	if !ok {
		return fmt.Errorf("%w: unknown provider %q", repository.ErrValidation, providerName)
	}
	disc, err := c.discovery(ctx, p)
	if err != nil {
		return err
	}
	if disc.EndSessionEndpoint == "" {
		logger.Named("oidc").Debug("provider has no end_session_endpoint",
			logger.Provider(providerName))
		return nil
	}
	u, err := url.Parse(disc.EndSessionEndpoint)
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("id_token_hint", idTokenHint)
	u.RawQuery = q.Encode()

	req, _ := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: end session: %v", repository.ErrExternalService, err)
	}
	resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: end session http %d", repository.ErrExternalService, resp.StatusCode)
	}
	return nil
}

func strClaim(m jwtv5.MapClaims, k string) string {
	s, _ := m[k].(string)
	return s
}
