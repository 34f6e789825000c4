package mem

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/peergate/internal/domain/repository"
)

func TestCreateLocal_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.CreateLocal(ctx, repository.CreateLocalInput{Email: "a@b.com", PasswordHash: "h", TotpSecret: "s"})
	if err != nil {
		t.Fatalf("first CreateLocal err: %v", err)
	}
	// Unicidad case-insensitive.
	_, err = s.CreateLocal(ctx, repository.CreateLocalInput{Email: "A@B.COM", PasswordHash: "h", TotpSecret: "s"})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("got %v want ErrConflict", err)
	}
}

func TestSoftDelete_FreesEmail(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.CreateLocal(ctx, repository.CreateLocalInput{Email: "a@b.com", PasswordHash: "h", TotpSecret: "s"})
	if err != nil {
		t.Fatalf("CreateLocal err: %v", err)
	}
	if err := s.SoftDelete(ctx, id); err != nil {
		t.Fatalf("SoftDelete err: %v", err)
	}

	// El cliente borrado no aparece en lookups.
	if _, err := s.GetByID(ctx, id); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("GetByID after delete: got %v want ErrNotFound", err)
	}
	if _, err := s.FindByEmailLocal(ctx, "a@b.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("FindByEmailLocal after delete: got %v want ErrNotFound", err)
	}

	// El email queda libre para un registro nuevo.
	id2, err := s.CreateLocal(ctx, repository.CreateLocalInput{Email: "a@b.com", PasswordHash: "h2", TotpSecret: "s2"})
	if err != nil {
		t.Fatalf("re-register err: %v", err)
	}
	if id2 == id {
		t.Fatalf("new registration reused old id")
	}

	// Borrar dos veces falla.
	if err := s.SoftDelete(ctx, id); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second SoftDelete: got %v want ErrNotFound", err)
	}
}

func TestFindByEmailLocal_CaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, _ := s.CreateLocal(ctx, repository.CreateLocalInput{Email: "User@Example.com", PasswordHash: "h", TotpSecret: "s"})
	c, err := s.FindByEmailLocal(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("FindByEmailLocal err: %v", err)
	}
	if c.ID != id {
		t.Fatalf("got id %q want %q", c.ID, id)
	}
	// El email se conserva tal como se registró.
	if c.Email != "User@Example.com" {
		t.Fatalf("email mutated: %q", c.Email)
	}
}

func TestCreateFederated_DuplicateSubject(t *testing.T) {
	ctx := context.Background()
	s := New()

	in := repository.CreateFederatedInput{
		Issuer:  "https://accounts.example",
		Subject: "sub-1",
		Email:   "fed@example.com",
		Name:    "Fed User",
	}
	id, err := s.CreateFederated(ctx, in)
	if err != nil {
		t.Fatalf("CreateFederated err: %v", err)
	}
	if _, err := s.CreateFederated(ctx, in); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("duplicate: got %v want ErrConflict", err)
	}

	c, err := s.FindByFederatedSubject(ctx, in.Issuer, in.Subject)
	if err != nil {
		t.Fatalf("FindByFederatedSubject err: %v", err)
	}
	if c.ID != id {
		t.Fatalf("got id %q want %q", c.ID, id)
	}
	if c.Group != repository.Group(in.Issuer) {
		t.Fatalf("got group %q want issuer", c.Group)
	}
}

func TestListGrouped(t *testing.T) {
	ctx := context.Background()
	s := New()

	s.CreateLocal(ctx, repository.CreateLocalInput{Email: "b@local.com", PasswordHash: "h", TotpSecret: "s"})
	s.CreateLocal(ctx, repository.CreateLocalInput{Email: "a@local.com", PasswordHash: "h", TotpSecret: "s"})
	delID, _ := s.CreateLocal(ctx, repository.CreateLocalInput{Email: "gone@local.com", PasswordHash: "h", TotpSecret: "s"})
	s.SoftDelete(ctx, delID)
	s.CreateFederated(ctx, repository.CreateFederatedInput{
		Issuer: "https://accounts.example", Subject: "s1", Email: "fed@example.com", Name: "Fed",
	})

	groups, err := s.ListGrouped(ctx)
	if err != nil {
		t.Fatalf("ListGrouped err: %v", err)
	}
	local := groups[repository.GroupLocal]
	if len(local) != 2 {
		t.Fatalf("local group: got %d entries want 2", len(local))
	}
	// Orden por email dentro del grupo.
	if local[0].Email != "a@local.com" || local[1].Email != "b@local.com" {
		t.Fatalf("local group misordered: %v", local)
	}
	fed := groups[repository.Group("https://accounts.example")]
	if len(fed) != 1 || fed[0].Name != "Fed" {
		t.Fatalf("federated group: %v", fed)
	}
}

func TestResetCredentials(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, _ := s.CreateLocal(ctx, repository.CreateLocalInput{Email: "a@b.com", PasswordHash: "h1", TotpSecret: "s1"})
	if err := s.SetTotpVerified(ctx, id); err != nil {
		t.Fatalf("SetTotpVerified err: %v", err)
	}
	if err := s.ResetCredentials(ctx, id, "h2", "s2"); err != nil {
		t.Fatalf("ResetCredentials err: %v", err)
	}

	c, _ := s.GetByID(ctx, id)
	if c.PasswordHash != "h2" || c.TotpSecret != "s2" {
		t.Fatalf("credentials not replaced: %+v", c)
	}
	if c.TotpVerified {
		t.Fatalf("TotpVerified not cleared")
	}
}

func TestResetTokens_SingleActive(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return base }

	id, _ := s.CreateLocal(ctx, repository.CreateLocalInput{Email: "a@b.com", PasswordHash: "h", TotpSecret: "s"})

	mk := func(tok string) repository.ResetToken {
		return repository.ResetToken{Token: tok, ClientID: id, CreatedAt: base, ExpiresAt: base.Add(30 * time.Minute)}
	}
	if err := s.Create(ctx, mk("111111")); err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if err := s.Create(ctx, mk("222222")); err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if n := s.ActiveResetTokens(id); n != 1 {
		t.Fatalf("active tokens: got %d want 1", n)
	}

	ok, err := s.FindValid(ctx, id, "111111", base)
	if err != nil || ok {
		t.Fatalf("expired token still valid: ok=%v err=%v", ok, err)
	}
	ok, err = s.FindValid(ctx, id, "222222", base)
	if err != nil || !ok {
		t.Fatalf("fresh token invalid: ok=%v err=%v", ok, err)
	}

	// Expire consume el token activo.
	if err := s.Expire(ctx, id, "222222", base); err != nil {
		t.Fatalf("Expire err: %v", err)
	}
	ok, _ = s.FindValid(ctx, id, "222222", base)
	if ok {
		t.Fatalf("token still valid after Expire")
	}
}

func TestResetTokens_SameCodeDifferentClients(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return base }

	id1, _ := s.CreateLocal(ctx, repository.CreateLocalInput{Email: "a@b.com", PasswordHash: "h", TotpSecret: "s"})
	id2, _ := s.CreateLocal(ctx, repository.CreateLocalInput{Email: "c@d.com", PasswordHash: "h", TotpSecret: "s"})

	tok := repository.ResetToken{Token: "123456", CreatedAt: base, ExpiresAt: base.Add(30 * time.Minute)}
	tok.ClientID = id1
	if err := s.Create(ctx, tok); err != nil {
		t.Fatalf("Create err: %v", err)
	}
	tok.ClientID = id2
	if err := s.Create(ctx, tok); err != nil {
		t.Fatalf("Create err: %v", err)
	}

	// El mismo código emitido a dos clientes vive para ambos.
	for _, id := range []string{id1, id2} {
		ok, err := s.FindValid(ctx, id, "123456", base)
		if err != nil || !ok {
			t.Fatalf("client %s: ok=%v err=%v", id, ok, err)
		}
	}

	// Expirarlo para uno no toca al otro.
	if err := s.Expire(ctx, id1, "123456", base); err != nil {
		t.Fatalf("Expire err: %v", err)
	}
	if ok, _ := s.FindValid(ctx, id1, "123456", base); ok {
		t.Fatalf("expired token still valid for first client")
	}
	if ok, _ := s.FindValid(ctx, id2, "123456", base); !ok {
		t.Fatalf("second client's token was invalidated")
	}
}

func TestResetTokens_ReissueSameCode(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return base }

	id, _ := s.CreateLocal(ctx, repository.CreateLocalInput{Email: "a@b.com", PasswordHash: "h", TotpSecret: "s"})

	old := repository.ResetToken{Token: "123456", ClientID: id, CreatedAt: base.Add(-2 * time.Hour), ExpiresAt: base.Add(-time.Hour)}
	if err := s.Create(ctx, old); err != nil {
		t.Fatalf("Create err: %v", err)
	}

	// El mismo código vuelve a salir sorteado: pisa la fila expirada.
	fresh := repository.ResetToken{Token: "123456", ClientID: id, CreatedAt: base, ExpiresAt: base.Add(30 * time.Minute)}
	if err := s.Create(ctx, fresh); err != nil {
		t.Fatalf("reissue err: %v", err)
	}
	ok, err := s.FindValid(ctx, id, "123456", base)
	if err != nil || !ok {
		t.Fatalf("reissued token invalid: ok=%v err=%v", ok, err)
	}
	if n := s.ActiveResetTokens(id); n != 1 {
		t.Fatalf("active tokens: got %d want 1", n)
	}
}
