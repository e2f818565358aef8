package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/sweettreats-backend/api/responses"
	pkgerrors "github.com/angelmondragon/sweettreats-backend/pkg/errors"
	"github.com/angelmondragon/sweettreats-backend/pkg/logger"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

const envHeader = "X-SweetTreats-Env"

func HealthLive(env string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings cart storage and any optional dependencies. Nil pingers
// are skipped.
func HealthReady(env string, logg *logger.Logger, storage Pinger, optional map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, env)
		checks := map[string]string{}
		var failed bool

		if storage != nil {
			if err := storage.Ping(r.Context()); err != nil {
				checks["storage"] = err.Error()
				failed = true
			} else {
				checks["storage"] = "ok"
			}
		}
		for name, p := range optional {
			if p == nil {
				continue
			}
			if err := p.Ping(r.Context()); err != nil {
				checks[name] = err.Error()
				failed = true
				continue
			}
			checks[name] = "ok"
		}

		if failed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
