package repository

import "testing"

func TestGroupResolver(t *testing.T) {
	r := NewGroupResolver(map[string]string{
		"https://accounts.example": "Example ID",
	})

	cases := []struct {
		in   Group
		want string
	}{
		{GroupLocal, "Local"},
		{Group("https://accounts.example"), "Example ID"},
		// Issuer no configurado: se muestra tal cual.
		{Group("https://other.example"), "https://other.example"},
	}
	for _, c := range cases {
		if got := r.Resolve(c.in); got != c.want {
			t.Fatalf("Resolve(%q): got %q want %q", c.in, got, c.want)
		}
	}
}

func TestGroupIsLocal(t *testing.T) {
	if !GroupLocal.IsLocal() {
		t.Fatalf("GroupLocal.IsLocal() = false")
	}
	if Group("https://accounts.example").IsLocal() {
		t.Fatalf("issuer group reported as local")
	}
}

func TestGroupResolver_Empty(t *testing.T) {
	r := NewGroupResolver(nil)
	if got := r.Resolve(GroupLocal); got != "Local" {
		t.Fatalf("got %q", got)
	}
	if got := r.Resolve(Group("https://x")); got != "https://x" {
		t.Fatalf("got %q", got)
	}
}
