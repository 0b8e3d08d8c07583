// Package auth verifies editor bearer tokens against the identity provider
// and authorizes them for story writes.
package auth

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/talendarch/storygraph/internal/platform/errors"
)

// signingAlgorithm is the only token algorithm the identity provider issues.
const signingAlgorithm = "RS256"

// Identity captures the verified claims the service cares about.
type Identity struct {
	Email  string
	Groups []string
}

// Config defines how editor tokens are verified and authorized. At least one
// of AdminEmail or EditorGroup must be set; both may be.
type Config struct {
	// Issuer is the expected token issuer.
	Issuer string
	// JWKSURL locates the identity provider's published signing keys.
	JWKSURL string
	// AdminEmail allows a single identity by email claim.
	AdminEmail string
	// EditorGroup allows any identity whose group claim list contains it.
	EditorGroup string
	// Keyfunc overrides remote key resolution. Tests use it to supply a
	// static public key.
	Keyfunc jwt.Keyfunc
}

// claims is the internal claims type used for token parsing.
type claims struct {
	jwt.RegisteredClaims
	Email  string   `json:"email"`
	Groups []string `json:"cognito:groups"`
}

// Gate authenticates and authorizes editors.
type Gate struct {
	keyfunc     jwt.Keyfunc
	issuer      string
	adminEmail  string
	editorGroup string
}

// IssuerForUserPool derives the token issuer from identity-provider region
// and user-pool configuration.
func IssuerForUserPool(region, userPoolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
}

// JWKSURLForIssuer returns the issuer's published JWKS endpoint.
func JWKSURLForIssuer(issuer string) string {
	return strings.TrimSuffix(issuer, "/") + "/.well-known/jwks.json"
}

// NewGate builds a gate. Unless Config.Keyfunc is supplied, signing keys are
// fetched from Config.JWKSURL and cached across invocations.
func NewGate(ctx context.Context, cfg Config) (*Gate, error) {
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		return nil, fmt.Errorf("issuer is required")
	}
	adminEmail := strings.TrimSpace(cfg.AdminEmail)
	editorGroup := strings.TrimSpace(cfg.EditorGroup)
	if adminEmail == "" && editorGroup == "" {
		return nil, fmt.Errorf("at least one of admin email or editor group is required")
	}

	resolve := cfg.Keyfunc
	if resolve == nil {
		jwksURL := strings.TrimSpace(cfg.JWKSURL)
		if jwksURL == "" {
			jwksURL = JWKSURLForIssuer(issuer)
		}
		jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
		if err != nil {
			return nil, fmt.Errorf("load jwks from %s: %w", jwksURL, err)
		}
		resolve = jwks.Keyfunc
	}

	return &Gate{
		keyfunc:     resolve,
		issuer:      issuer,
		adminEmail:  adminEmail,
		editorGroup: editorGroup,
	}, nil
}

// Authorize verifies the bearer token from an authorization header value and
// checks the configured editor policy. It returns an UNAUTHORIZED domain
// error for missing or unverifiable tokens and FORBIDDEN for verified tokens
// that fail the policy.
func (g *Gate) Authorize(ctx context.Context, authorization string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, apperrors.Wrap(apperrors.CodeUnauthorized, "authorization aborted", err)
	}
	if g == nil || g.keyfunc == nil {
		return Identity{}, apperrors.New(apperrors.CodeUnauthorized, "auth gate is not configured")
	}

	token := stripBearer(authorization)
	if token == "" {
		return Identity{}, apperrors.New(apperrors.CodeUnauthorized, "no token provided")
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, g.keyfunc,
		jwt.WithValidMethods([]string{signingAlgorithm}),
		jwt.WithIssuer(g.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Identity{}, apperrors.Wrap(apperrors.CodeUnauthorized, "invalid token", err)
	}

	identity := Identity{Email: parsed.Email, Groups: parsed.Groups}
	if !g.allowed(identity) {
		return Identity{}, apperrors.New(apperrors.CodeForbidden, "not authorized")
	}
	return identity, nil
}

// allowed is the single configurable authorization predicate: admin email
// match or editor group membership.
func (g *Gate) allowed(identity Identity) bool {
	if g.adminEmail != "" && identity.Email == g.adminEmail {
		return true
	}
	if g.editorGroup != "" && slices.Contains(identity.Groups, g.editorGroup) {
		return true
	}
	return false
}

func stripBearer(authorization string) string {
	value := strings.TrimSpace(authorization)
	if len(value) > 7 && strings.EqualFold(value[:7], "bearer ") {
		value = strings.TrimSpace(value[7:])
	}
	return value
}
