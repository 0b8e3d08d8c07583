package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/talendarch/storygraph/internal/platform/errors"
)

const testIssuer = "https://cognito-idp.us-west-2.amazonaws.com/us-west-2_test"

type tokenSpec struct {
	email    string
	groups   []string
	issuer   string
	expireIn time.Duration
	method   jwt.SigningMethod
	key      any
}

func newTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return key
}

func signToken(t *testing.T, key *rsa.PrivateKey, spec tokenSpec) string {
	t.Helper()
	if spec.issuer == "" {
		spec.issuer = testIssuer
	}
	if spec.expireIn == 0 {
		spec.expireIn = time.Hour
	}
	if spec.method == nil {
		spec.method = jwt.SigningMethodRS256
	}
	signingKey := spec.key
	if signingKey == nil {
		signingKey = key
	}

	token := jwt.NewWithClaims(spec.method, jwt.MapClaims{
		"iss":            spec.issuer,
		"exp":            time.Now().Add(spec.expireIn).Unix(),
		"email":          spec.email,
		"cognito:groups": spec.groups,
	})
	signed, err := token.SignedString(signingKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newTestGate(t *testing.T, key *rsa.PrivateKey, cfg Config) *Gate {
	t.Helper()
	cfg.Issuer = testIssuer
	cfg.Keyfunc = func(token *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}
	gate, err := NewGate(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}
	return gate
}

func TestAuthorizeAdminEmail(t *testing.T) {
	key := newTestKey(t)
	gate := newTestGate(t, key, Config{AdminEmail: "admin@example.com"})
	token := signToken(t, key, tokenSpec{email: "admin@example.com"})

	identity, err := gate.Authorize(context.Background(), token)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if identity.Email != "admin@example.com" {
		t.Fatalf("expected identity email, got %q", identity.Email)
	}
}

func TestAuthorizeEditorGroup(t *testing.T) {
	key := newTestKey(t)
	gate := newTestGate(t, key, Config{EditorGroup: "editors"})
	token := signToken(t, key, tokenSpec{email: "writer@example.com", groups: []string{"readers", "editors"}})

	if _, err := gate.Authorize(context.Background(), token); err != nil {
		t.Fatalf("authorize: %v", err)
	}
}

func TestAuthorizeBearerPrefix(t *testing.T) {
	key := newTestKey(t)
	gate := newTestGate(t, key, Config{AdminEmail: "admin@example.com"})
	token := signToken(t, key, tokenSpec{email: "admin@example.com"})

	if _, err := gate.Authorize(context.Background(), "Bearer "+token); err != nil {
		t.Fatalf("authorize with bearer prefix: %v", err)
	}
}

func TestAuthorizeMissingToken(t *testing.T) {
	key := newTestKey(t)
	gate := newTestGate(t, key, Config{AdminEmail: "admin@example.com"})

	_, err := gate.Authorize(context.Background(), "  ")
	if apperrors.CodeOf(err) != apperrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestAuthorizeForbiddenWhenPolicyFails(t *testing.T) {
	key := newTestKey(t)
	gate := newTestGate(t, key, Config{AdminEmail: "admin@example.com", EditorGroup: "editors"})
	token := signToken(t, key, tokenSpec{email: "stranger@example.com", groups: []string{"readers"}})

	_, err := gate.Authorize(context.Background(), token)
	if apperrors.CodeOf(err) != apperrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAuthorizeExpiredToken(t *testing.T) {
	key := newTestKey(t)
	gate := newTestGate(t, key, Config{AdminEmail: "admin@example.com"})
	token := signToken(t, key, tokenSpec{email: "admin@example.com", expireIn: -time.Minute})

	_, err := gate.Authorize(context.Background(), token)
	if apperrors.CodeOf(err) != apperrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for expired token, got %v", err)
	}
}

func TestAuthorizeWrongIssuer(t *testing.T) {
	key := newTestKey(t)
	gate := newTestGate(t, key, Config{AdminEmail: "admin@example.com"})
	token := signToken(t, key, tokenSpec{email: "admin@example.com", issuer: "https://evil.example.com"})

	_, err := gate.Authorize(context.Background(), token)
	if apperrors.CodeOf(err) != apperrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for wrong issuer, got %v", err)
	}
}

func TestAuthorizeRejectsNonRS256(t *testing.T) {
	key := newTestKey(t)
	gate := newTestGate(t, key, Config{AdminEmail: "admin@example.com"})
	token := signToken(t, key, tokenSpec{
		email:  "admin@example.com",
		method: jwt.SigningMethodHS256,
		key:    []byte("shared-secret"),
	})

	_, err := gate.Authorize(context.Background(), token)
	if apperrors.CodeOf(err) != apperrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for HS256 token, got %v", err)
	}
}

func TestAuthorizeBadSignature(t *testing.T) {
	key := newTestKey(t)
	otherKey := newTestKey(t)
	gate := newTestGate(t, key, Config{AdminEmail: "admin@example.com"})
	token := signToken(t, otherKey, tokenSpec{email: "admin@example.com"})

	_, err := gate.Authorize(context.Background(), token)
	if apperrors.CodeOf(err) != apperrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for bad signature, got %v", err)
	}
}

func TestNewGateRequiresPolicy(t *testing.T) {
	_, err := NewGate(context.Background(), Config{
		Issuer:  testIssuer,
		Keyfunc: func(token *jwt.Token) (any, error) { return nil, errors.New("unused") },
	})
	if err == nil {
		t.Fatal("expected error when neither admin email nor editor group is set")
	}
}

func TestNewGateRequiresIssuer(t *testing.T) {
	_, err := NewGate(context.Background(), Config{AdminEmail: "admin@example.com"})
	if err == nil {
		t.Fatal("expected error for missing issuer")
	}
}

func TestIssuerDerivation(t *testing.T) {
	issuer := IssuerForUserPool("us-west-2", "us-west-2_abc")
	want := "https://cognito-idp.us-west-2.amazonaws.com/us-west-2_abc"
	if issuer != want {
		t.Fatalf("expected issuer %q, got %q", want, issuer)
	}
	jwksURL := JWKSURLForIssuer(issuer)
	if jwksURL != want+"/.well-known/jwks.json" {
		t.Fatalf("unexpected jwks url %q", jwksURL)
	}
}
