// Package public maintains the group of handlers for public access to the
// engine's derived state.
package public

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tumigisla/zenpool/foundation/events"
	"github.com/tumigisla/zenpool/foundation/pulse/state"
	"github.com/tumigisla/zenpool/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of engine endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide engine events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Subscribe(v.TraceID)
	defer h.Evts.Unsubscribe(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Stress returns the current congestion scalar.
func (h Handlers) Stress(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	info := stressInfo{
		Congestion: h.State.Congestion(),
	}

	return web.Respond(ctx, w, info, http.StatusOK)
}

// Sounds returns the recent sound events retained for display.
func (h Handlers) Sounds(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sounds := h.State.Sounds()

	infos := make([]soundInfo, len(sounds))
	for i, snd := range sounds {
		infos[i] = toSoundInfo(snd)
	}

	return web.Respond(ctx, w, infos, http.StatusOK)
}

// Particles returns the current particle list and container bounds for the
// render surface.
func (h Handlers) Particles(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	particles, width, height := h.State.Particles()

	info := fieldInfo{
		Width:     width,
		Height:    height,
		Particles: make([]particleInfo, len(particles)),
	}
	for i, p := range particles {
		info.Particles[i] = toParticleInfo(p)
	}

	return web.Respond(ctx, w, info, http.StatusOK)
}

// Session returns the block session snapshot.
func (h Handlers) Session(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Session(), http.StatusOK)
}

// Counters returns the in-memory session counters.
func (h Handlers) Counters(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Counters(), http.StatusOK)
}

// Controls returns the current output gates.
func (h Handlers) Controls(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Controls(), http.StatusOK)
}

// UpdateControls applies a partial update to the output gates.
func (h Handlers) UpdateControls(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var upd updateControls
	if err := web.Decode(r, &upd); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	c := h.State.Controls()
	if upd.Ambient != nil {
		c.Ambient = *upd.Ambient
	}
	if upd.PerEvent != nil {
		c.PerEvent = *upd.PerEvent
	}
	if upd.Strike != nil {
		c.Strike = *upd.Strike
	}
	if upd.Particles != nil {
		c.Particles = *upd.Particles
	}
	if upd.MasterGain != nil {
		c.MasterGain = *upd.MasterGain
	}
	h.State.SetControls(c)

	h.Log.Infow("controls updated", "traceid", v.TraceID, "controls", c)

	return web.Respond(ctx, w, c, http.StatusOK)
}
