package handler

import (
	"net/http"

	"marina/internal/berths/service"
	"marina/pkg/contracts"
	httputil "marina/pkg/http"
	"marina/pkg/logger"
	"marina/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BerthHandler struct {
	service service.BerthService
	guard   contracts.Guard
	log     *logger.Logger
}

func NewBerthHandler(service service.BerthService, guard contracts.Guard, log *logger.Logger) *BerthHandler {
	return &BerthHandler{
		service: service,
		guard:   guard,
		log:     log,
	}
}

func (h *BerthHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	berths, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WriteSuccess(w, berths); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BerthHandler) GetByNumber(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	number, err := httputil.PositiveIntParam(ps.ByName("number"), "berth number")
	if err != nil {
		h.writeError(w, "GetByNumber", err)
		return
	}

	berth, err := h.service.GetByNumber(r.Context(), number)
	if err != nil {
		h.writeError(w, "GetByNumber", err)
		return
	}

	if err := httputil.WriteSuccess(w, berth); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByNumber", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BerthHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.BerthInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	berth, err := h.service.Create(r.Context(), &input)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, berth); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BerthHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	number, err := httputil.PositiveIntParam(ps.ByName("number"), "berth number")
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	var update model.BerthStatusUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	berth, err := h.service.UpdateStatus(r.Context(), number, &update)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, berth); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BerthHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	number, err := httputil.PositiveIntParam(ps.ByName("number"), "berth number")
	if err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := h.service.Delete(r.Context(), number); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BerthHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BerthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/berths", h.List)
	router.GET("/api/berths/:number", h.GetByNumber)
	router.POST("/api/berths", h.guard(h.Create))
	router.PUT("/api/berths/:number", h.guard(h.UpdateStatus))
	router.DELETE("/api/berths/:number", h.guard(h.Delete))
}
