package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/poiquest/poiquest-backend/internal/pois"
	pkgerrors "github.com/poiquest/poiquest-backend/pkg/errors"
	"github.com/poiquest/poiquest-backend/pkg/pagination"
)

type stubPOIService struct {
	poi  *pois.POIDTO
	page *pois.POIListDTO
	err  error

	gotCode string
}

func (s *stubPOIService) Create(ctx context.Context, input pois.CreatePOIInput) (*pois.POIDTO, error) {
	return s.poi, s.err
}

func (s *stubPOIService) GetByUUID(ctx context.Context, id uuid.UUID) (*pois.POIDTO, error) {
	return s.poi, s.err
}

func (s *stubPOIService) GetByQRCode(ctx context.Context, code string) (*pois.POIDTO, error) {
	s.gotCode = code
	return s.poi, s.err
}

func (s *stubPOIService) List(ctx context.Context, params pagination.Params) (*pois.POIListDTO, error) {
	return s.page, s.err
}

func (s *stubPOIService) Update(ctx context.Context, id uuid.UUID, input pois.UpdatePOIInput) (*pois.POIDTO, error) {
	return s.poi, s.err
}

func (s *stubPOIService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.err
}

func TestGetPOIByQRCodeResolvesScan(t *testing.T) {
	svc := &stubPOIService{poi: &pois.POIDTO{ID: uuid.New(), Name: "Fountain", QRCode: "pq-fountain-01"}}
	handler := GetPOIByQRCode(svc, nil)

	req := requestWithParam(http.MethodGet, "/api/v1/pois/qr/pq-fountain-01", "code", "pq-fountain-01", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotCode != "pq-fountain-01" {
		t.Fatalf("service received code %q", svc.gotCode)
	}

	var envelope struct {
		Data *pois.POIDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data == nil || envelope.Data.Name != "Fountain" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestGetPOIByQRCodeUnknownScan(t *testing.T) {
	svc := &stubPOIService{err: pkgerrors.New(pkgerrors.CodeNotFound, "poi not found")}
	handler := GetPOIByQRCode(svc, nil)

	req := requestWithParam(http.MethodGet, "/api/v1/pois/qr/unknown", "code", "unknown", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAdminCreatePOIDuplicateQRCode(t *testing.T) {
	svc := &stubPOIService{err: pkgerrors.New(pkgerrors.CodeConflict, "qr code already registered")}
	handler := AdminCreatePOI(svc, nil)

	body := []byte(`{"name":"Fountain","coord_x":1.5,"coord_y":2.5,"qr_code":"pq-fountain-01"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/pois", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}
