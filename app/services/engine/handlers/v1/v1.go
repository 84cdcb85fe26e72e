// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/tumigisla/zenpool/app/services/engine/handlers/v1/public"
	"github.com/tumigisla/zenpool/foundation/events"
	"github.com/tumigisla/zenpool/foundation/pulse/state"
	"github.com/tumigisla/zenpool/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/stress", pbl.Stress)
	app.Handle(http.MethodGet, version, "/sounds", pbl.Sounds)
	app.Handle(http.MethodGet, version, "/particles", pbl.Particles)
	app.Handle(http.MethodGet, version, "/session", pbl.Session)
	app.Handle(http.MethodGet, version, "/counters", pbl.Counters)
	app.Handle(http.MethodGet, version, "/controls", pbl.Controls)
	app.Handle(http.MethodPost, version, "/controls", pbl.UpdateControls)
	app.Handle(http.MethodGet, version, "/events", pbl.Events)
}
