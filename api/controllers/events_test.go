package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/poiquest/poiquest-backend/internal/events"
	pkgerrors "github.com/poiquest/poiquest-backend/pkg/errors"
	"github.com/poiquest/poiquest-backend/pkg/pagination"
)

type stubEventService struct {
	event *events.EventDTO
	page  *events.EventListDTO
	err   error

	gotUpdate events.UpdateEventInput
	gotParams pagination.Params
}

func (s *stubEventService) Create(ctx context.Context, input events.CreateEventInput) (*events.EventDTO, error) {
	return s.event, s.err
}

func (s *stubEventService) GetByUUID(ctx context.Context, id uuid.UUID) (*events.EventDTO, error) {
	return s.event, s.err
}

func (s *stubEventService) ListByCategory(ctx context.Context, categoryID uuid.UUID, params pagination.Params) (*events.EventListDTO, error) {
	s.gotParams = params
	return s.page, s.err
}

func (s *stubEventService) Update(ctx context.Context, id uuid.UUID, input events.UpdateEventInput) (*events.EventDTO, error) {
	s.gotUpdate = input
	return s.event, s.err
}

func (s *stubEventService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.err
}

func requestWithParam(method, target, key, value string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestAdminCreateEventSuccess(t *testing.T) {
	svc := &stubEventService{event: &events.EventDTO{ID: uuid.New(), Title: "Night Market"}}
	handler := AdminCreateEvent(svc, nil)

	body := []byte(`{"title":"Night Market","start_date":"2026-09-01T18:00:00Z","end_date":"2026-09-01T23:00:00Z","category_id":"` + uuid.NewString() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminCreateEventRejectsUnknownFields(t *testing.T) {
	handler := AdminCreateEvent(&stubEventService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/events", bytes.NewReader([]byte(`{"title":"x","bogus":true}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetEventRejectsMalformedID(t *testing.T) {
	handler := GetEvent(&stubEventService{}, nil)

	req := requestWithParam(http.MethodGet, "/api/v1/events/not-a-uuid", "eventID", "not-a-uuid", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetEventNotFound(t *testing.T) {
	svc := &stubEventService{err: pkgerrors.New(pkgerrors.CodeNotFound, "event not found")}
	handler := GetEvent(svc, nil)

	req := requestWithParam(http.MethodGet, "/api/v1/events/"+uuid.NewString(), "eventID", uuid.NewString(), nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAdminUpdateEventOmittedImagesStaysNil(t *testing.T) {
	svc := &stubEventService{event: &events.EventDTO{ID: uuid.New()}}
	handler := AdminUpdateEvent(svc, nil)

	id := uuid.NewString()
	req := requestWithParam(http.MethodPatch, "/api/admin/v1/events/"+id, "eventID", id, []byte(`{"title":"Renamed"}`))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotUpdate.Images != nil {
		t.Fatalf("an omitted images field must decode to nil, got %v", svc.gotUpdate.Images)
	}
}

func TestAdminUpdateEventEmptyImagesDecodesNonNil(t *testing.T) {
	svc := &stubEventService{event: &events.EventDTO{ID: uuid.New()}}
	handler := AdminUpdateEvent(svc, nil)

	id := uuid.NewString()
	req := requestWithParam(http.MethodPatch, "/api/admin/v1/events/"+id, "eventID", id, []byte(`{"images":[]}`))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotUpdate.Images == nil || len(*svc.gotUpdate.Images) != 0 {
		t.Fatalf("an explicit empty list must survive decoding, got %v", svc.gotUpdate.Images)
	}
}

func TestListEventsByCategoryForwardsPagination(t *testing.T) {
	svc := &stubEventService{page: &events.EventListDTO{Items: []events.EventDTO{}}}
	handler := ListEventsByCategory(svc, nil)

	id := uuid.NewString()
	req := requestWithParam(http.MethodGet, "/api/v1/categories/"+id+"/events?limit=5&cursor=abc", "categoryID", id, nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotParams.Limit != 5 || svc.gotParams.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", svc.gotParams)
	}
}

func TestAdminDeleteEvent(t *testing.T) {
	handler := AdminDeleteEvent(&stubEventService{}, nil)

	id := uuid.NewString()
	req := requestWithParam(http.MethodDelete, "/api/admin/v1/events/"+id, "eventID", id, nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
}
