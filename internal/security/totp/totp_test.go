package totp

import (
	"strings"
	"testing"
	"time"

	ptotp "github.com/pquerna/otp/totp"
)

func TestGenerateSecret(t *testing.T) {
	s1, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret err: %v", err)
	}
	s2, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret err: %v", err)
	}
	if s1 == "" || s1 == s2 {
		t.Fatalf("secrets must be non-empty and unique: %q %q", s1, s2)
	}
}

func TestVerify_MatchesGeneratedCode(t *testing.T) {
	secret, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret err: %v", err)
	}
	code, err := ptotp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode err: %v", err)
	}
	if !Verify(secret, code) {
		t.Fatalf("valid code rejected")
	}
	if Verify(secret, "000000") && code != "000000" {
		t.Fatalf("arbitrary code accepted")
	}
	if Verify("", code) || Verify(secret, "") {
		t.Fatalf("empty inputs must not verify")
	}
}

func TestProvisioningURI(t *testing.T) {
	uri := ProvisioningURI("SECRETB32", "a@x.com")
	if !strings.HasPrefix(uri, "otpauth://totp/") {
		t.Fatalf("bad scheme: %q", uri)
	}
	if !strings.Contains(uri, "a%40x.com") && !strings.Contains(uri, "a@x.com") {
		t.Fatalf("account label missing: %q", uri)
	}
	if !strings.Contains(uri, "secret=SECRETB32") {
		t.Fatalf("secret missing: %q", uri)
	}
	if !strings.Contains(uri, "digits=6") || !strings.Contains(uri, "period=30") {
		t.Fatalf("expected standard params: %q", uri)
	}
}
