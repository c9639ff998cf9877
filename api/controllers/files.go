package controllers

import (
	"net/http"
	"strings"

	"github.com/poiquest/poiquest-backend/api/responses"
	"github.com/poiquest/poiquest-backend/api/validators"
	"github.com/poiquest/poiquest-backend/internal/media"
	pkgerrors "github.com/poiquest/poiquest-backend/pkg/errors"
	"github.com/poiquest/poiquest-backend/pkg/logger"
)

// PresignUpload hands back a signed PUT URL for a direct client upload.
func PresignUpload(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		var body media.PresignUploadInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.PresignUpload(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, out)
	}
}

// PresignDownload hands back a signed GET URL for an existing object.
func PresignDownload(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		bucket := strings.TrimSpace(r.URL.Query().Get("bucket"))
		fileKey := strings.TrimSpace(r.URL.Query().Get("file_key"))
		if fileKey == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file_key is required"))
			return
		}

		out, err := svc.PresignDownload(r.Context(), bucket, fileKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, out)
	}
}

// AdminDeleteObject removes an object from storage. Admin only.
func AdminDeleteObject(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		bucket := strings.TrimSpace(r.URL.Query().Get("bucket"))
		fileKey := strings.TrimSpace(r.URL.Query().Get("file_key"))
		if fileKey == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file_key is required"))
			return
		}

		if err := svc.DeleteObject(r.Context(), bucket, fileKey); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
