package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/tumigisla/zenpool/app/services/engine/handlers"
	"github.com/tumigisla/zenpool/foundation/events"
	"github.com/tumigisla/zenpool/foundation/feed"
	"github.com/tumigisla/zenpool/foundation/logger"
	"github.com/tumigisla/zenpool/foundation/pulse/particle"
	"github.com/tumigisla/zenpool/foundation/pulse/state"
	"github.com/tumigisla/zenpool/foundation/pulse/stress"
	"github.com/tumigisla/zenpool/foundation/pulse/tone"
	"github.com/tumigisla/zenpool/foundation/pulse/worker"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ENGINE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7280"`
			PublicHost      string        `conf:"default:0.0.0.0:8280"`
		}
		Feed struct {
			URL            string        `conf:"default:wss://mempool.space/api/v1/ws"`
			ReconnectWait  time.Duration `conf:"default:5s"`
		}
		Engine struct {
			AdmitPreset   string        `conf:"default:ambient"`
			StressWindow  time.Duration `conf:"default:5s"`
			StressMinRate float64       `conf:"default:500"`
			StressMaxRate float64       `conf:"default:50000"`
			FieldWidth    float64       `conf:"default:800"`
			FieldHeight   float64       `conf:"default:600"`
			MaxParticles  int           `conf:"default:300"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "ENGINE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Engine Support

	// The core packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	defer evts.Shutdown()

	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	// The state value represents a running session and provides the API the
	// handlers and the feed intake use.
	session, err := state.New(state.Config{
		Stress: stress.Config{
			Window:  cfg.Engine.StressWindow,
			MinRate: cfg.Engine.StressMinRate,
			MaxRate: cfg.Engine.StressMaxRate,
		},
		AdmitPreset: cfg.Engine.AdmitPreset,
		Particle: particle.Config{
			Width:        cfg.Engine.FieldWidth,
			Height:       cfg.Engine.FieldHeight,
			MaxParticles: cfg.Engine.MaxParticles,
		},
		Seed:      time.Now().UnixNano(),
		EvHandler: ev,
	})
	if err != nil {
		return fmt.Errorf("constructing session: %w", err)
	}
	defer session.Shutdown()

	// Emissions are fanned out as events so connected clients (the audio
	// backend among them) hear about them.
	session.OnSound(func(snd tone.Sound) {
		if data, err := json.Marshal(snd); err == nil {
			evts.Send(fmt.Sprintf("sound: %s", data))
		}
	})
	session.OnStrike(func(st tone.Strike) {
		if data, err := json.Marshal(st); err == nil {
			evts.Send(fmt.Sprintf("strike: %s", data))
		}
	})
	session.OnSweep(func(d time.Duration) {
		evts.Send(fmt.Sprintf("sweep: %s", d))
	})

	// The worker package drives the stress and simulation tickers. The
	// worker will register itself with the state.
	worker.Run(session, ev)

	// =========================================================================
	// Feed Intake

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Read the live mempool stream and forward decoded events into the
	// session. The connection is retried on a fixed wait; the engine just
	// tolerates the gap.
	go func() {
		client := feed.NewClient(cfg.Feed.URL, feed.Handlers{
			Transaction: session.SubmitTransaction,
			Block:       session.SubmitBlock,
			Dropped: func(err error) {
				session.RecordMalformed()
				log.Debugw("feed", "status", "dropped message", "ERROR", err)
			},
		})

		for {
			if err := client.Run(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Errorw("feed", "status", "connection lost", "ERROR", err)
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(cfg.Feed.ReconnectWait):
				log.Infow("feed", "status", "reconnecting", "url", cfg.Feed.URL)
			}
		}
	}()

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	debugMux := handlers.DebugMux(build, log)
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    session,
		Evts:     evts,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Stop the feed intake before taking the API away.
		cancel()

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
