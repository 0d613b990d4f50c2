package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marina/pkg/contracts"
	apperrors "marina/pkg/errors"
	httputil "marina/pkg/http"
	"marina/pkg/logger"
	"marina/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockReservationService struct {
	createFunc       func(ctx context.Context, berthNumber int, input *model.ReservationInput) (*model.Reservation, error)
	getForBerthFunc  func(ctx context.Context, berthNumber int, id string) (*model.Reservation, error)
	listForBerthFunc func(ctx context.Context, berthNumber int) ([]*model.Reservation, error)
	getAllFunc       func(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error)
	updateFunc       func(ctx context.Context, berthNumber int, id string, input *model.ReservationInput) (*model.Reservation, error)
	deleteFunc       func(ctx context.Context, berthNumber int, id string) error
}

func (m *mockReservationService) Create(ctx context.Context, berthNumber int, input *model.ReservationInput) (*model.Reservation, error) {
	return m.createFunc(ctx, berthNumber, input)
}

func (m *mockReservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	return m.getForBerthFunc(ctx, 0, id)
}

func (m *mockReservationService) GetForBerth(ctx context.Context, berthNumber int, id string) (*model.Reservation, error) {
	return m.getForBerthFunc(ctx, berthNumber, id)
}

func (m *mockReservationService) ListForBerth(ctx context.Context, berthNumber int) ([]*model.Reservation, error) {
	return m.listForBerthFunc(ctx, berthNumber)
}

func (m *mockReservationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error) {
	return m.getAllFunc(ctx, limit, offset)
}

func (m *mockReservationService) Update(ctx context.Context, berthNumber int, id string, input *model.ReservationInput) (*model.Reservation, error) {
	return m.updateFunc(ctx, berthNumber, id, input)
}

func (m *mockReservationService) Delete(ctx context.Context, berthNumber int, id string) error {
	return m.deleteFunc(ctx, berthNumber, id)
}

// headerGuard admits requests carrying X-Test-Auth.
func headerGuard(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if r.Header.Get("X-Test-Auth") == "" {
			_ = httputil.WriteError(w, apperrors.Unauthorized(apperrors.ReasonTokenRequired))
			return
		}
		next(w, r, ps)
	}
}

func newRouter(svc *mockReservationService, guard contracts.Guard) *httprouter.Router {
	router := httprouter.New()
	NewReservationHandler(svc, guard, logger.Discard()).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("X-Test-Auth", "1")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreate_Created(t *testing.T) {
	var gotBerth int
	var gotInput *model.ReservationInput
	svc := &mockReservationService{
		createFunc: func(ctx context.Context, berthNumber int, input *model.ReservationInput) (*model.Reservation, error) {
			gotBerth, gotInput = berthNumber, input
			return &model.Reservation{
				ID:          "65f0c0ffee0123456789abcd",
				BerthNumber: berthNumber,
				ClientName:  input.ClientName,
				StartDate:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
				EndDate:     time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
			}, nil
		},
	}

	body := `{"client_name":"Ann","vessel_name":"Breeze","start_date":"2025-06-01","end_date":"2025-06-05"}`
	rec := serve(newRouter(svc, contracts.Open), http.MethodPost, "/api/berths/3/reservations", body, false)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotBerth != 3 || gotInput.StartDate != "2025-06-01" {
		t.Errorf("service got berth %d input %+v", gotBerth, gotInput)
	}

	var created model.Reservation
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if created.BerthNumber != 3 || created.ClientName != "Ann" {
		t.Errorf("unexpected body %+v", created)
	}
}

func TestCreate_ServiceErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing", apperrors.MissingFields("client_name"), http.StatusBadRequest},
		{"range", apperrors.InvalidRange("start_date must be before end_date"), http.StatusBadRequest},
		{"overlap", apperrors.Conflict("Berth 3 is already reserved"), http.StatusConflict},
		{"berth", apperrors.NotFoundWithID("Berth", "3"), http.StatusNotFound},
		{"store", apperrors.Internal("Failed to create reservation", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockReservationService{
				createFunc: func(context.Context, int, *model.ReservationInput) (*model.Reservation, error) {
					return nil, tt.err
				},
			}
			rec := serve(newRouter(svc, contracts.Open), http.MethodPost, "/api/berths/3/reservations", `{}`, false)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestCreate_BadInput(t *testing.T) {
	svc := &mockReservationService{
		createFunc: func(context.Context, int, *model.ReservationInput) (*model.Reservation, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	router := newRouter(svc, contracts.Open)

	if rec := serve(router, http.MethodPost, "/api/berths/abc/reservations", `{}`, false); rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric berth: expected 400, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodPost, "/api/berths/3/reservations", `{"client_name":`, false); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON: expected 400, got %d", rec.Code)
	}
}

func TestWritesAreGated(t *testing.T) {
	called := false
	svc := &mockReservationService{
		createFunc: func(context.Context, int, *model.ReservationInput) (*model.Reservation, error) {
			called = true
			return &model.Reservation{}, nil
		},
		deleteFunc: func(context.Context, int, string) error {
			called = true
			return nil
		},
		listForBerthFunc: func(context.Context, int) ([]*model.Reservation, error) {
			return []*model.Reservation{}, nil
		},
	}
	router := newRouter(svc, headerGuard)

	if rec := serve(router, http.MethodPost, "/api/berths/3/reservations", `{}`, false); rec.Code != http.StatusUnauthorized {
		t.Errorf("create without credential: expected 401, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodDelete, "/api/berths/3/reservations/x", "", false); rec.Code != http.StatusUnauthorized {
		t.Errorf("delete without credential: expected 401, got %d", rec.Code)
	}
	if called {
		t.Error("service reached without credential")
	}

	if rec := serve(router, http.MethodGet, "/api/berths/3/reservations", "", false); rec.Code != http.StatusOK {
		t.Errorf("reads are public: expected 200, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodDelete, "/api/berths/3/reservations/x", "", true); rec.Code != http.StatusNoContent {
		t.Errorf("authorised delete: expected 204, got %d", rec.Code)
	}
}

func TestGetAll_Paginated(t *testing.T) {
	svc := &mockReservationService{
		getAllFunc: func(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error) {
			if limit != 5 || offset != 10 {
				t.Errorf("unexpected paging %d/%d", limit, offset)
			}
			return []*model.Reservation{{BerthNumber: 1}}, 11, nil
		},
	}

	rec := serve(newRouter(svc, contracts.Open), http.MethodGet, "/api/reservations?limit=5&offset=10", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var page httputil.PaginatedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.TotalCount != 11 || page.Limit != 5 || page.Offset != 10 {
		t.Errorf("unexpected page metadata %+v", page)
	}
}

func TestUpdate_PassesBerthAndID(t *testing.T) {
	svc := &mockReservationService{
		updateFunc: func(ctx context.Context, berthNumber int, id string, input *model.ReservationInput) (*model.Reservation, error) {
			if berthNumber != 4 || id != "abc" || input.VesselName != "Gull" {
				t.Errorf("unexpected call %d %s %+v", berthNumber, id, input)
			}
			return &model.Reservation{ID: id, BerthNumber: berthNumber, VesselName: input.VesselName}, nil
		},
	}

	rec := serve(newRouter(svc, contracts.Open), http.MethodPatch, "/api/berths/4/reservations/abc", `{"vessel_name":"Gull"}`, false)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
