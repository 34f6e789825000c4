package resettoken

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/peergate/internal/audit"
	"github.com/dropDatabas3/peergate/internal/domain/repository"
	"github.com/dropDatabas3/peergate/internal/store/mem"
)

func newManager(t *testing.T) (*Manager, *mem.Store, string, *audit.Recorder) {
	t.Helper()
	s := mem.New()
	id, err := s.CreateLocal(context.Background(), repository.CreateLocalInput{
		Email:        "a@b.com",
		PasswordHash: "h",
		TotpSecret:   "s",
	})
	if err != nil {
		t.Fatalf("CreateLocal err: %v", err)
	}
	rec := audit.NewRecorder()
	m := New(s, s, rec, nil, 30*time.Minute)
	return m, s, id, rec
}

func TestGenerate_Format(t *testing.T) {
	ctx := context.Background()
	m, _, id, rec := newManager(t)

	tok, err := m.Generate(ctx, id)
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if len(tok) != 6 {
		t.Fatalf("token %q: want 6 digits", tok)
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			t.Fatalf("token %q: non-digit %q", tok, r)
		}
	}
	evs := rec.Events()
	if len(evs) != 1 || evs[0].Action != "client.reset_token.generate" {
		t.Fatalf("audit events: %+v", evs)
	}
}

func TestGenerate_SupersedesPrevious(t *testing.T) {
	ctx := context.Background()
	m, s, id, _ := newManager(t)

	tok1, err := m.Generate(ctx, id)
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	tok2, err := m.Generate(ctx, id)
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if n := s.ActiveResetTokens(id); n != 1 {
		t.Fatalf("active tokens: got %d want 1", n)
	}

	ok, err := m.Validate(ctx, id, tok1)
	if err != nil || ok {
		t.Fatalf("superseded token: ok=%v err=%v", ok, err)
	}
	ok, err = m.Validate(ctx, id, tok2)
	if err != nil || !ok {
		t.Fatalf("current token: ok=%v err=%v", ok, err)
	}
}

func TestGenerate_UnknownClient(t *testing.T) {
	ctx := context.Background()
	m, _, _, _ := newManager(t)

	if _, err := m.Generate(ctx, "no-such-client"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("got %v want ErrNotFound", err)
	}
}

func TestValidate_ExpiryAndRevoke(t *testing.T) {
	ctx := context.Background()
	m, s, id, _ := newManager(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	s.Now = func() time.Time { return base }

	tok, err := m.Generate(ctx, id)
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}

	ok, _ := m.Validate(ctx, id, tok)
	if !ok {
		t.Fatalf("fresh token invalid")
	}

	// Justo antes del vencimiento sigue siendo válido.
	m.now = func() time.Time { return base.Add(30*time.Minute - time.Second) }
	if ok, _ := m.Validate(ctx, id, tok); !ok {
		t.Fatalf("token invalid before expiry")
	}

	// En el vencimiento deja de serlo.
	m.now = func() time.Time { return base.Add(30 * time.Minute) }
	if ok, _ := m.Validate(ctx, id, tok); ok {
		t.Fatalf("token valid at expiry")
	}

	// Revoke sobre un token fresco lo mata al instante.
	m.now = func() time.Time { return base }
	tok2, _ := m.Generate(ctx, id)
	if err := m.Revoke(ctx, id, tok2); err != nil {
		t.Fatalf("Revoke err: %v", err)
	}
	if ok, _ := m.Validate(ctx, id, tok2); ok {
		t.Fatalf("token valid after Revoke")
	}
	// Revoke repetido es inofensivo.
	if err := m.Revoke(ctx, id, tok2); err != nil {
		t.Fatalf("second Revoke err: %v", err)
	}
}

func TestValidate_WrongClientOrToken(t *testing.T) {
	ctx := context.Background()
	m, s, id, _ := newManager(t)

	tok, _ := m.Generate(ctx, id)

	// Cliente inexistente: false sin error.
	ok, err := m.Validate(ctx, "no-such-client", tok)
	if err != nil || ok {
		t.Fatalf("unknown client: ok=%v err=%v", ok, err)
	}
	// Token de otro cliente.
	otherID, _ := s.CreateLocal(ctx, repository.CreateLocalInput{Email: "c@d.com", PasswordHash: "h", TotpSecret: "s"})
	ok, err = m.Validate(ctx, otherID, tok)
	if err != nil || ok {
		t.Fatalf("foreign token: ok=%v err=%v", ok, err)
	}
	// Token que nunca existió.
	wrong := "000000"
	if tok == wrong {
		wrong = "000001"
	}
	ok, err = m.Validate(ctx, id, wrong)
	if err != nil || ok {
		t.Fatalf("unknown token: ok=%v err=%v", ok, err)
	}
}
