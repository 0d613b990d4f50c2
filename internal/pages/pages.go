package pages

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"marina/internal/auth"
	apperrors "marina/pkg/errors"
	httputil "marina/pkg/http"
	"marina/pkg/logger"
	"marina/pkg/model"

	"github.com/julienschmidt/httprouter"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	dateLayout  = "02/01/2006 15:04"
	todayLayout = "Monday, 2 January 2006"
)

var loginErrors = map[string]string{
	"missing":         "Email and password are required.",
	"bad_credentials": "Invalid email or password.",
	"missing_token":   "Please log in to continue.",
	"invalid_token":   "Your session has expired, please log in again.",
}

type BerthReader interface {
	List(ctx context.Context) ([]*model.BerthView, error)
	GetByNumber(ctx context.Context, number int) (*model.BerthView, error)
}

type ReservationReader interface {
	ListForBerth(ctx context.Context, berthNumber int) ([]*model.Reservation, error)
}

type AccountSessions interface {
	List(ctx context.Context) ([]*model.Account, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	Logout(ctx context.Context, claims *auth.Claims) error
}

// Route documents one API endpoint on the docs page.
type Route struct {
	Method string
	Path   string
	Gated  bool
}

type pageData struct {
	Title        string
	User         *model.Identity
	Error        string
	Today        string
	Berths       []*model.BerthView
	Berth        *model.BerthView
	Reservations []*model.Reservation
	Accounts     []*model.Account
	Routes       []Route
}

type PageHandler struct {
	berths       BerthReader
	reservations ReservationReader
	accounts     AccountSessions
	gate         *auth.Gate
	cookieSecure bool
	templates    *template.Template
	now          func() time.Time
	log          *logger.Logger
}

func NewPageHandler(
	berths BerthReader,
	reservations ReservationReader,
	accounts AccountSessions,
	gate *auth.Gate,
	cookieSecure bool,
	log *logger.Logger,
) *PageHandler {
	templates := template.Must(template.New("pages").Funcs(template.FuncMap{
		"formatDate": formatDate,
	}).ParseFS(templateFS, "templates/*.html"))

	return &PageHandler{
		berths:       berths,
		reservations: reservations,
		accounts:     accounts,
		gate:         gate,
		cookieSecure: cookieSecure,
		templates:    templates,
		now:          time.Now,
		log:          log,
	}
}

func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(dateLayout)
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.UTC().Format(dateLayout)
	default:
		return ""
	}
}

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.render(w, http.StatusOK, "index.html", &pageData{
		Title: "Sign in",
		Error: loginErrors[r.URL.Query().Get("error")],
	})
}

func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/?error=missing", http.StatusSeeOther)
		return
	}

	resp, err := h.accounts.Login(r.Context(), &model.LoginRequest{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	})
	if err != nil {
		switch {
		case apperrors.HasCode(err, apperrors.CodeMissingFields):
			http.Redirect(w, r, "/?error=missing", http.StatusSeeOther)
		case apperrors.HasCode(err, apperrors.CodeUnauthorized):
			http.Redirect(w, r, "/?error=bad_credentials", http.StatusSeeOther)
		default:
			h.renderError(w, r, err)
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    resp.Token,
		Path:     "/",
		MaxAge:   int(auth.TokenLifetime.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *PageHandler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if claims, _ := h.gate.Authenticate(r); claims != nil {
		if err := h.accounts.Logout(r.Context(), claims); err != nil {
			h.log.Warn("Failed to revoke session on logout", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	berths, err := h.berths.List(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, http.StatusOK, "dashboard.html", &pageData{
		Title:  "Dashboard",
		User:   currentUser(r),
		Today:  h.now().Format(todayLayout),
		Berths: berths,
	})
}

func (h *PageHandler) Berths(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	berths, err := h.berths.List(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, http.StatusOK, "berths.html", &pageData{
		Title:  "Berths",
		User:   currentUser(r),
		Berths: berths,
	})
}

func (h *PageHandler) BerthDetail(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	number, err := httputil.PositiveIntParam(ps.ByName("number"), "berth number")
	if err != nil {
		http.Error(w, "Berth not found", http.StatusNotFound)
		return
	}

	berth, err := h.berths.GetByNumber(r.Context(), number)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			http.Error(w, "Berth not found", http.StatusNotFound)
			return
		}
		h.renderError(w, r, err)
		return
	}

	reservations, err := h.reservations.ListForBerth(r.Context(), number)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, http.StatusOK, "berth.html", &pageData{
		Title:        "Berth",
		User:         currentUser(r),
		Berth:        berth,
		Reservations: reservations,
	})
}

func (h *PageHandler) Accounts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, http.StatusOK, "accounts.html", &pageData{
		Title:    "Accounts",
		User:     currentUser(r),
		Accounts: accounts,
	})
}

func (h *PageHandler) Docs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	data := &pageData{Title: "API", Routes: APIRoutes}
	if claims, _ := h.gate.Authenticate(r); claims != nil {
		data.User = &claims.User
	}
	h.render(w, http.StatusOK, "docs.html", data)
}

func currentUser(r *http.Request) *model.Identity {
	if claims, ok := auth.ClaimsFrom(r.Context()); ok {
		return &claims.User
	}
	return nil
}

func (h *PageHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error("Page request failed", "path", r.URL.Path, "error", err)
	h.render(w, http.StatusInternalServerError, "error.html", &pageData{
		Title: "Error",
		User:  currentUser(r),
		Error: "Server error, please try again later.",
	})
}

// render executes into a buffer so a template failure never leaves a half-written page.
func (h *PageHandler) render(w http.ResponseWriter, status int, name string, data *pageData) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.Error("Failed to render page", "template", name, "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Error("failed to write page", "template", name, "error", err)
	}
}

func (h *PageHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/", h.Index)
	router.POST("/login", h.Login)
	router.GET("/logout", h.Logout)
	router.GET("/docs", h.Docs)

	router.GET("/dashboard", h.gate.RequirePage(h.Dashboard))
	router.GET("/berths", h.gate.RequirePage(h.Berths))
	router.GET("/berths/:number", h.gate.RequirePage(h.BerthDetail))
	router.GET("/accounts", h.gate.RequirePage(h.Accounts))
}
