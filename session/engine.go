// Package session implements the pomodoro countdown state machine.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomomo-focus"
)

var tickRate = time.Second

var (
	ErrNoTaskSelected      = errors.New("select a task before starting a work session")
	ErrTaskSelectionLocked = errors.New("tasks can only be selected while a work session is stopped")
)

// State is a snapshot of the engine.
type State struct {
	Phase            pomomo.Phase
	RemainingSeconds int
	TotalSeconds     int
	Running          bool
	SessionIndex     int
	LongBreakAfter   int
	TaskID           pomomo.TaskID
}

// LastMinute reports whether a work phase is in its final minute.
func (s State) LastMinute() bool {
	return s.Phase == pomomo.WorkPhase && s.RemainingSeconds <= 60
}

// Progress returns the elapsed fraction of the current phase in [0, 1].
func (s State) Progress() float64 {
	if s.TotalSeconds <= 0 {
		return 0
	}
	p := float64(s.TotalSeconds-s.RemainingSeconds) / float64(s.TotalSeconds)
	return max(0, min(1, p))
}

type Option func(*Engine)

// WithManualTick disables the internal ticker. The caller drives the
// countdown through Tick.
func WithManualTick() Option {
	return func(e *Engine) {
		e.manualTick = true
	}
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.l = l
	}
}

type Engine struct {
	mu        sync.Mutex
	settings  pomomo.PomodoroSettings
	staged    *pomomo.PomodoroSettings
	phase     pomomo.Phase
	remaining int
	running   bool
	index     int
	taskID    pomomo.TaskID

	onSessionComplete []func(context.Context, pomomo.SessionComplete)
	onUpdate          []func(State)

	manualTick bool
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	l          *log.Logger
}

func NewEngine(ctx context.Context, settings pomomo.PomodoroSettings, opts ...Option) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		settings: settings,
		phase:    pomomo.WorkPhase,
		index:    1,
		l:        log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.remaining = e.total()
	e.ctx, e.cancel = context.WithCancel(ctx)

	if !e.manualTick {
		e.startTicker()
	}
	return e, nil
}

func (e *Engine) startTicker() {
	e.wg.Go(func() {
		ticker := time.NewTicker(tickRate)
		defer ticker.Stop()
		for {
			select {
			case <-e.ctx.Done():
				return
			case <-ticker.C:
				e.Tick()
			}
		}
	})
}

// Shutdown stops the ticker and waits for it to exit.
func (e *Engine) Shutdown() {
	e.cancel()
	e.wg.Wait()
}

// OnSessionComplete registers a handler called whenever a phase ends.
func (e *Engine) OnSessionComplete(handler func(context.Context, pomomo.SessionComplete)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onSessionComplete = append(e.onSessionComplete, handler)
}

// OnUpdate registers a handler called with the new state after every change.
func (e *Engine) OnUpdate(handler func(State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onUpdate = append(e.onUpdate, handler)
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state()
}

// Settings returns the active settings and, when a change is waiting for the
// next transition, the staged ones.
func (e *Engine) Settings() (active pomomo.PomodoroSettings, staged *pomomo.PomodoroSettings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.staged != nil {
		s := *e.staged
		staged = &s
	}
	return e.settings, staged
}

// Configure replaces the settings. A countdown that has not moved picks them
// up immediately. Otherwise they apply on the next transition, except that
// Reset takes the new durations early.
func (e *Engine) Configure(settings pomomo.PomodoroSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	if !e.running && e.remaining == e.total() {
		e.settings = settings
		e.staged = nil
		e.clampIndex()
		e.remaining = e.total()
	} else {
		e.staged = &settings
	}
	e.l.Debug("configured session engine", "settings", settings, "staged", e.staged != nil)
	e.unlockAndNotify(nil)
	return nil
}

// SelectTask associates the work session with a task. An empty id clears it.
func (e *Engine) SelectTask(id pomomo.TaskID) error {
	e.mu.Lock()
	if e.phase != pomomo.WorkPhase || e.running {
		e.mu.Unlock()
		return ErrTaskSelectionLocked
	}
	e.taskID = id
	e.unlockAndNotify(nil)
	return nil
}

func (e *Engine) Start() error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	if e.phase == pomomo.WorkPhase && e.taskID == "" {
		e.mu.Unlock()
		return ErrNoTaskSelected
	}
	e.running = true
	e.unlockAndNotify(nil)
	return nil
}

func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.unlockAndNotify(nil)
}

// Reset stops the countdown and restores the current phase's full duration.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.running = false
	e.applyStagedDurations()
	e.remaining = e.total()
	e.unlockAndNotify(nil)
}

// Skip completes the current phase immediately.
func (e *Engine) Skip() {
	e.mu.Lock()
	event := e.complete()
	e.unlockAndNotify(&event)
}

// Tick advances a running countdown by one second.
func (e *Engine) Tick() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.remaining--
	if e.remaining > 0 {
		e.unlockAndNotify(nil)
		return
	}
	event := e.complete()
	e.unlockAndNotify(&event)
}

// complete ends the current phase. Caller holds mu.
func (e *Engine) complete() pomomo.SessionComplete {
	finished := e.phase
	event := pomomo.SessionComplete{
		Phase:    finished,
		Duration: e.settings.Minutes(finished),
	}

	e.applyStaged()
	switch finished {
	case pomomo.WorkPhase:
		event.Type = pomomo.WorkSession
		event.TaskID = e.taskID
		if e.index%e.settings.LongBreakAfter == 0 {
			e.phase = pomomo.LongBreakPhase
		} else {
			e.phase = pomomo.ShortBreakPhase
		}
	default:
		event.Type = pomomo.BreakSession
		if finished == pomomo.LongBreakPhase {
			e.index = 1
		} else {
			e.index++
		}
		e.phase = pomomo.WorkPhase
	}
	e.clampIndex()
	e.remaining = e.total()
	e.running = false

	e.l.Debug("phase complete", "finished", finished, "next", e.phase, "session", e.index)
	return event
}

func (e *Engine) applyStaged() {
	if e.staged == nil {
		return
	}
	e.settings = *e.staged
	e.staged = nil
	e.clampIndex()
}

// applyStagedDurations takes the staged phase durations without touching the
// session index. A staged LongBreakAfter stays pending until the next
// transition.
func (e *Engine) applyStagedDurations() {
	if e.staged == nil {
		return
	}
	longBreakAfter := e.settings.LongBreakAfter
	e.settings = *e.staged
	e.settings.LongBreakAfter = longBreakAfter
	if e.staged.LongBreakAfter == longBreakAfter {
		e.staged = nil
	}
}

func (e *Engine) clampIndex() {
	if e.index > e.settings.LongBreakAfter {
		e.index = e.settings.LongBreakAfter
	}
}

func (e *Engine) total() int {
	return int(e.settings.Duration(e.phase) / time.Second)
}

func (e *Engine) state() State {
	return State{
		Phase:            e.phase,
		RemainingSeconds: e.remaining,
		TotalSeconds:     e.total(),
		Running:          e.running,
		SessionIndex:     e.index,
		LongBreakAfter:   e.settings.LongBreakAfter,
		TaskID:           e.taskID,
	}
}

// unlockAndNotify releases mu and runs the registered handlers outside it.
func (e *Engine) unlockAndNotify(event *pomomo.SessionComplete) {
	state := e.state()
	onUpdate := e.onUpdate
	onComplete := e.onSessionComplete
	e.mu.Unlock()

	if event != nil {
		for _, h := range onComplete {
			h(e.ctx, *event)
		}
	}
	for _, h := range onUpdate {
		h(state)
	}
}

func (s State) String() string {
	return fmt.Sprintf("%s %02d:%02d (%d/%d)", s.Phase, s.RemainingSeconds/60, s.RemainingSeconds%60, s.SessionIndex, s.LongBreakAfter)
}
