package handler

import (
	"net/http"

	"marina/internal/accounts/service"
	"marina/internal/auth"
	"marina/pkg/contracts"
	apperrors "marina/pkg/errors"
	httputil "marina/pkg/http"
	"marina/pkg/logger"
	"marina/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AccountHandler struct {
	service service.AccountService
	guard   contracts.Guard
	log     *logger.Logger
}

func NewAccountHandler(service service.AccountService, guard contracts.Guard, log *logger.Logger) *AccountHandler {
	return &AccountHandler{
		service: service,
		guard:   guard,
		log:     log,
	}
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Login", err)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Login", err)
		return
	}

	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		h.writeError(w, "Logout", apperrors.Unauthorized(auth.ReasonTokenRequired))
		return
	}

	if err := h.service.Logout(r.Context(), claims); err != nil {
		h.writeError(w, "Logout", err)
		return
	}

	if err := httputil.WriteMessage(w, "Logged out"); err != nil {
		h.log.Error("failed to write message response", "handler", "Logout", "operation", "WriteMessage", "error", err)
	}
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		h.writeError(w, "Me", apperrors.Unauthorized(auth.ReasonTokenRequired))
		return
	}

	account, err := h.service.Me(r.Context(), claims)
	if err != nil {
		h.writeError(w, "Me", err)
		return
	}

	if err := httputil.WriteSuccess(w, account); err != nil {
		h.log.Error("failed to write success response", "handler", "Me", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WriteSuccess(w, accounts); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AccountHandler) GetByEmail(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	account, err := h.service.GetByEmail(r.Context(), ps.ByName("email"))
	if err != nil {
		h.writeError(w, "GetByEmail", err)
		return
	}

	if err := httputil.WriteSuccess(w, account); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByEmail", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.AccountInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	account, err := h.service.Create(r.Context(), &input)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, account); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.AccountUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	account, err := h.service.Update(r.Context(), ps.ByName("email"), &update)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, account); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("email")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AccountHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AccountHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/accounts/login", h.Login)
	router.POST("/api/accounts/logout", h.guard(h.Logout))
	router.GET("/api/me", h.guard(h.Me))

	router.GET("/api/accounts", h.guard(h.List))
	router.POST("/api/accounts", h.guard(h.Create))
	router.GET("/api/accounts/:email", h.guard(h.GetByEmail))
	router.PUT("/api/accounts/:email", h.guard(h.Update))
	router.PATCH("/api/accounts/:email", h.guard(h.Update))
	router.DELETE("/api/accounts/:email", h.guard(h.Delete))
}
