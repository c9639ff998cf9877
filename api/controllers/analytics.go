package controllers

import (
	"net/http"

	"github.com/poiquest/poiquest-backend/api/responses"
	"github.com/poiquest/poiquest-backend/internal/analytics"
	pkgerrors "github.com/poiquest/poiquest-backend/pkg/errors"
	"github.com/poiquest/poiquest-backend/pkg/logger"
)

// AdminAnalyticsOverview returns platform-wide counters. Admin only.
func AdminAnalyticsOverview(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		overview, err := svc.Overview(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, overview)
	}
}

// AdminAnalyticsEventsByCategory returns event counts per category. Admin only.
func AdminAnalyticsEventsByCategory(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		counts, err := svc.EventsByCategory(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, counts)
	}
}

// AdminAnalyticsRegistrations returns monthly signup counts for the trailing
// year. Admin only.
func AdminAnalyticsRegistrations(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		counts, err := svc.RegistrationsByMonth(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, counts)
	}
}
