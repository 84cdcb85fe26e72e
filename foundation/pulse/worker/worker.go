// Package worker drives the periodic work for a session: the stress
// recomputation ticker and the simulation frame ticker.
package worker

import (
	"sync"
	"time"

	"github.com/tumigisla/zenpool/foundation/pulse/state"
)

// stressInterval is the period of the congestion scalar recomputation.
const stressInterval = 250 * time.Millisecond

// frameInterval is the period of the simulation tick, roughly 30 frames
// per second.
const frameInterval = 33 * time.Millisecond

// =============================================================================

// Worker manages the tick goroutines for a session.
type Worker struct {
	state        *state.State
	wg           sync.WaitGroup
	stressTicker *time.Ticker
	frameTicker  *time.Ticker
	shut         chan struct{}
	evHandler    state.EventHandler
}

// Run creates a worker, registers it with the session, and starts up the
// tick goroutines.
func Run(st *state.State, evHandler state.EventHandler) {
	w := Worker{
		state:        st,
		stressTicker: time.NewTicker(stressInterval),
		frameTicker:  time.NewTicker(frameInterval),
		shut:         make(chan struct{}),
		evHandler:    evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.stressOperations,
		w.frameOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work. No timers are left
// orphaned.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop tickers")
	w.stressTicker.Stop()
	w.frameTicker.Stop()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// =============================================================================

// stressOperations recomputes the congestion scalar on a fixed period.
func (w *Worker) stressOperations() {
	w.evHandler("worker: stressOperations: G started")
	defer w.evHandler("worker: stressOperations: G completed")

	for {
		select {
		case t := <-w.stressTicker.C:
			if !w.isShutdown() {
				w.state.TickStress(t.UTC())
			}
		case <-w.shut:
			w.evHandler("worker: stressOperations: received shut signal")
			return
		}
	}
}

// frameOperations advances the particle simulation and the block session
// timing on the frame period.
func (w *Worker) frameOperations() {
	w.evHandler("worker: frameOperations: G started")
	defer w.evHandler("worker: frameOperations: G completed")

	for {
		select {
		case t := <-w.frameTicker.C:
			if !w.isShutdown() {
				w.state.TickSim(t.UTC())
			}
		case <-w.shut:
			w.evHandler("worker: frameOperations: received shut signal")
			return
		}
	}
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
