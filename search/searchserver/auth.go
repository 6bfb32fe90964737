package searchserver

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meidoworks/nekoq-search/http/chi2"
)

const (
	ScopeWrite = "search:write"
	ScopeRead  = "search:read"

	scopeClaim = "scope"
)

var (
	ErrJwtTokenInvalid = errors.New("jwt token invalid")
	ErrJwtScopeMissing = errors.New("jwt token does not carry the required scope")
)

// IssueToken signs an HS256 token carrying the space separated scopes
func IssueToken(secret []byte, subject string, ttl time.Duration, scopes ...string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      subject,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
		scopeClaim: strings.Join(scopes, " "),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func VerifyToken(secret []byte, token string, scope string) error {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return errors.Join(ErrJwtTokenInvalid, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return ErrJwtTokenInvalid
	}
	scopes, _ := claims[scopeClaim].(string)
	if !slices.Contains(strings.Fields(scopes), scope) {
		return ErrJwtScopeMissing
	}
	return nil
}

// ValidateJwtToken checks the bearer token of the request for the scope.
// A nil secret disables the check.
func ValidateJwtToken(secret []byte, scope string) func(w http.ResponseWriter, r *http.Request) chi2.Render {
	return func(w http.ResponseWriter, r *http.Request) chi2.Render {
		if len(secret) == 0 {
			return nil
		}
		auth := strings.TrimSpace(r.Header.Get("Authorization"))
		auths := strings.Split(auth, " ")
		if len(auths) != 2 {
			return chi2.NewStatusRender(http.StatusUnauthorized)
		}
		if strings.TrimSpace(auths[0]) != "Bearer" {
			return chi2.NewStatusRender(http.StatusUnauthorized)
		}
		if err := VerifyToken(secret, strings.TrimSpace(auths[1]), scope); err != nil {
			logWarn("reject request", r.Method, r.URL.Path, err)
			return chi2.NewStatusRender(http.StatusUnauthorized)
		}
		return nil
	}
}
