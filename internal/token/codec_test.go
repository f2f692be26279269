package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := New("unit-test-secret", "HS256", 15*time.Minute)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return c
}

func TestNew_ConfigErrors(t *testing.T) {
	cases := []struct {
		name   string
		secret string
		alg    string
		ttl    time.Duration
	}{
		{"empty secret", "", "HS256", time.Minute},
		{"unknown alg", "s", "RS256", time.Minute},
		{"none alg", "s", "none", time.Minute},
		{"zero ttl", "s", "HS256", 0},
		{"negative ttl", "s", "HS256", -time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.secret, tc.alg, tc.ttl); err == nil {
				t.Fatal("expected config error")
			}
		})
	}
}

func TestIssueValidate_RoundTrip(t *testing.T) {
	c := newTestCodec(t)

	signed, exp, err := c.Issue("a@x.com", map[string]any{"provider": "email"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !exp.After(time.Now().UTC().Add(14 * time.Minute)) {
		t.Fatalf("exp too early: %s", exp)
	}

	sub, err := c.Validate(signed)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if sub != "a@x.com" {
		t.Fatalf("subject = %q, want a@x.com", sub)
	}
}

func TestValidate_ExpiredImmediately(t *testing.T) {
	c := newTestCodec(t)

	signed, _, err := c.IssueWithTTL("a@x.com", nil, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := c.Validate(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for ttl=0, got %v", err)
	}
}

func TestValidate_TamperedSignature(t *testing.T) {
	c := newTestCodec(t)

	signed, _, err := c.Issue("a@x.com", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Voltear un byte del segmento de firma.
	parts := strings.Split(signed, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected jwt format: %q", signed)
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := c.Validate(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered signature, got %v", err)
	}
}

func TestValidate_MissingSubject(t *testing.T) {
	c := newTestCodec(t)

	if _, _, err := c.IssueWithTTL("", nil, time.Minute); err == nil {
		t.Fatal("issue without subject must fail")
	}

	// Token con firma válida (mismo secreto) pero sin claim sub: inválido.
	claims := jwtv5.MapClaims{
		"iat": time.Now().UTC().Unix(),
		"exp": time.Now().UTC().Add(time.Minute).Unix(),
	}
	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte("unit-test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := c.Validate(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for missing sub, got %v", err)
	}
}

func TestValidate_WrongAlgorithmRejected(t *testing.T) {
	c := newTestCodec(t)

	hs512, err := New("unit-test-secret", "HS512", 15*time.Minute)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	signed, _, err := hs512.Issue("a@x.com", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	// Mismo secreto, algoritmo distinto al configurado: inválido.
	if _, err := c.Validate(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for alg mismatch, got %v", err)
	}
}

func TestValidate_Garbage(t *testing.T) {
	c := newTestCodec(t)
	for _, tok := range []string{"", "x", "a.b", "a.b.c.d", "??.??.??"} {
		if _, err := c.Validate(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Validate(%q) = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestIssue_ExtraClaimsCannotOverrideSubject(t *testing.T) {
	c := newTestCodec(t)

	signed, _, err := c.Issue("a@x.com", map[string]any{"sub": "attacker@x.com", "exp": 0})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	sub, err := c.Validate(signed)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if sub != "a@x.com" {
		t.Fatalf("subject = %q, want a@x.com", sub)
	}
}
