package echoapi

import (
	"sort"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/services/backend"
)

const contextTokenKey = "userToken"

// Claims represents the authorization claims transmitted via a JWT.
// The backend issues the tokens; the API only verifies them and forwards them as is.
type Claims struct {
	jwt.StandardClaims
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	SchoolID string   `json:"school_id,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// NewClaims returns claims valid for conf.Server.JWTExpirationDelta.
func NewClaims(conf *core.Config, actor core.Actor, roles ...string) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   actor.ID,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: actor.Username,
		Email:    actor.Email,
		SchoolID: actor.SchoolID,
		Roles:    roles,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func contextActor(ctx echo.Context) (core.Actor, bool) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return core.Actor{}, false
	}
	return core.Actor{
		ID:       claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
		SchoolID: claims.SchoolID,
	}, true
}

func contextHasAnyRole(ctx echo.Context, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	if claims, err := getContextClaims(ctx); err == nil {
		sort.Strings(claims.Roles)
		for _, role := range roles {
			if i := sort.SearchStrings(claims.Roles, role); i < len(claims.Roles) {
				if match := claims.Roles[i]; role == match {
					return true
				}
			}
		}
	}
	return false
}

// bearerToken returns the raw token of the request, the one the backend expects.
func bearerToken(ctx echo.Context) string {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok && token.Raw != "" {
		return token.Raw
	}
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	return strings.TrimSpace(strings.TrimPrefix(auth, middleware.DefaultJWTConfig.AuthScheme))
}

// forwardTokenMiddleware hands the caller's token over to the backend client through the request context.
func forwardTokenMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if token := bearerToken(ctx); token != "" {
			req := ctx.Request()
			ctx.SetRequest(req.WithContext(backend.WithToken(req.Context(), token)))
		}
		return next(ctx)
	}
}
