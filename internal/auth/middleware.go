package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "marina/pkg/errors"
	httputil "marina/pkg/http"

	"github.com/julienschmidt/httprouter"
)

const (
	CookieName        = "token"
	AccessTokenHeader = "X-Access-Token"

	ReasonTokenRequired = "token_required"
	ReasonTokenNotValid = "token_not_valid"

	bearerPrefix = "bearer "
)

type claimsKey struct{}

// ExtractCredential returns the first non-empty credential found in the
// Authorization bearer header, the X-Access-Token header or the token cookie.
func ExtractCredential(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) >= len(bearerPrefix) && strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		if token := strings.TrimSpace(h[len(bearerPrefix):]); token != "" {
			return token
		}
	}
	if token := strings.TrimSpace(r.Header.Get(AccessTokenHeader)); token != "" {
		return token
	}
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// Authenticate resolves the caller of r. The reason is empty on success.
func (g *Gate) Authenticate(r *http.Request) (*Claims, string) {
	credential := ExtractCredential(r)
	if credential == "" {
		return nil, ReasonTokenRequired
	}

	claims, err := g.Verify(r.Context(), credential)
	if err != nil {
		if !errors.Is(err, ErrExpired) {
			g.log.Debug("Credential rejected", "path", r.URL.Path, "error", err)
		}
		return nil, ReasonTokenNotValid
	}
	return claims, ""
}

// RequireAPI answers unauthenticated API calls with 401 JSON.
func (g *Gate) RequireAPI(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		claims, reason := g.Authenticate(r)
		if claims == nil {
			if err := httputil.WriteError(w, apperrors.Unauthorized(reason)); err != nil {
				g.log.Error("failed to write error response", "handler", "RequireAPI", "operation", "WriteError", "error", err)
			}
			return
		}
		next(w, r.WithContext(WithClaims(r.Context(), claims)), ps)
	}
}

// RequirePage redirects unauthenticated browsers to the login page.
func (g *Gate) RequirePage(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		claims, reason := g.Authenticate(r)
		if claims == nil {
			target := "/?error=invalid_token"
			if reason == ReasonTokenRequired {
				target = "/?error=missing_token"
			}
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next(w, r.WithContext(WithClaims(r.Context(), claims)), ps)
	}
}

// Require picks the API or page behaviour from the request path.
func (g *Gate) Require(next httprouter.Handle) httprouter.Handle {
	api := g.RequireAPI(next)
	page := g.RequirePage(next)
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if httputil.IsAPIRequest(r) {
			api(w, r, ps)
			return
		}
		page(w, r, ps)
	}
}
