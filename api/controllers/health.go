package controllers

import (
	"context"
	"net/http"

	"github.com/poiquest/poiquest-backend/api/responses"
	"github.com/poiquest/poiquest-backend/pkg/config"
	pkgerrors "github.com/poiquest/poiquest-backend/pkg/errors"
	"github.com/poiquest/poiquest-backend/pkg/logger"
)

type dependencyPinger interface {
	Ping(ctx context.Context) error
}

// HealthPingers names the dependencies the readiness probe checks. A nil
// entry is skipped, which keeps partial wiring usable in tests.
type HealthPingers struct {
	DB      dependencyPinger
	Redis   dependencyPinger
	Storage dependencyPinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PoiQuest-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, pingers HealthPingers, logg *logger.Logger) http.HandlerFunc {
	checks := []struct {
		name   string
		pinger dependencyPinger
	}{
		{"db", pingers.DB},
		{"redis", pingers.Redis},
		{"storage", pingers.Storage},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PoiQuest-Env", cfg.App.Env)

		for _, check := range checks {
			if check.pinger == nil {
				continue
			}
			if err := check.pinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, check.name+" unreachable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
