package services

import (
	"sync"
	"time"

	"research-hand/models"
)

// Parameter der Fortschritts-Simulation. Der Zähler wächst pro Tick um einen
// festen Schritt; die Prozentanzeige ist auf 99 gedeckelt, die 100 setzt
// ausschließlich der Orchestrator beim echten Abschluss.
const (
	progressTotal   = 100
	progressStep    = 2
	progressCeiling = 95
	progressStatus  = "Researching sources..."

	defaultProgressTick = 400 * time.Millisecond
)

// progressEmitter ist der simulierte Fortschritts-Timer eines Suchlaufs.
// Pro Orchestrator-Instanz ist höchstens ein Emitter aktiv.
type progressEmitter struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// startProgressEmitter startet die Simulation und meldet jeden Tick an
// onProgress. Der Emitter stoppt sich selbst, sobald der Zähler die
// Schwelle erreicht. 100 % meldet er nie.
func startProgressEmitter(onProgress ProgressFunc, tick time.Duration) *progressEmitter {
	if tick <= 0 {
		tick = defaultProgressTick
	}
	e := &progressEmitter{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(e.done)
		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		state := models.ProgressState{
			Status: progressStatus,
			Total:  progressTotal,
		}
		for {
			select {
			case <-e.stop:
				return
			case <-ticker.C:
				state.Completed += progressStep
				pct := state.Completed * 100 / state.Total
				if pct > 99 {
					pct = 99
				}
				state.Percentage = pct
				if onProgress != nil {
					onProgress(state)
				}
				if state.Completed >= progressCeiling {
					return
				}
			}
		}
	}()

	return e
}

// Stop beendet die Simulation und kehrt erst zurück, wenn keine weiteren
// Callbacks mehr ausgelöst werden. Mehrfacher Aufruf ist ein No-op.
func (e *progressEmitter) Stop() {
	e.stopOnce.Do(func() {
		close(e.stop)
	})
	<-e.done
}
