package handler

import (
	"net/http"

	"marina/internal/reservations/service"
	"marina/pkg/contracts"
	httputil "marina/pkg/http"
	"marina/pkg/logger"
	"marina/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	service service.ReservationService
	guard   contracts.Guard
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, guard contracts.Guard, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		guard:   guard,
		log:     log,
	}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	berthNumber, err := httputil.PositiveIntParam(ps.ByName("number"), "berth number")
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var input model.ReservationInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	reservation, err := h.service.Create(r.Context(), berthNumber, &input)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, reservation); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) ListForBerth(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	berthNumber, err := httputil.PositiveIntParam(ps.ByName("number"), "berth number")
	if err != nil {
		h.writeError(w, "ListForBerth", err)
		return
	}

	reservations, err := h.service.ListForBerth(r.Context(), berthNumber)
	if err != nil {
		h.writeError(w, "ListForBerth", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservations); err != nil {
		h.log.Error("failed to write success response", "handler", "ListForBerth", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) GetForBerth(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	berthNumber, err := httputil.PositiveIntParam(ps.ByName("number"), "berth number")
	if err != nil {
		h.writeError(w, "GetForBerth", err)
		return
	}

	reservation, err := h.service.GetForBerth(r.Context(), berthNumber, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetForBerth", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetForBerth", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservation, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	reservations, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, reservations, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	berthNumber, err := httputil.PositiveIntParam(ps.ByName("number"), "berth number")
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	var input model.ReservationInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	reservation, err := h.service.Update(r.Context(), berthNumber, ps.ByName("id"), &input)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	berthNumber, err := httputil.PositiveIntParam(ps.ByName("number"), "berth number")
	if err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := h.service.Delete(r.Context(), berthNumber, ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/berths/:number/reservations", h.ListForBerth)
	router.GET("/api/berths/:number/reservations/:id", h.GetForBerth)
	router.POST("/api/berths/:number/reservations", h.guard(h.Create))
	router.PUT("/api/berths/:number/reservations/:id", h.guard(h.Update))
	router.PATCH("/api/berths/:number/reservations/:id", h.guard(h.Update))
	router.DELETE("/api/berths/:number/reservations/:id", h.guard(h.Delete))

	router.GET("/api/reservations", h.GetAll)
	router.GET("/api/reservations/:id", h.GetByID)
}
