package engine

import (
	"sync"
	"time"

	"photosynthesis-lab/internal/domain"
)

// DefaultRunDuration is how long a simulation runs before stopping itself.
const DefaultRunDuration = 5 * time.Second

// SimulationOptions configures a Simulation. Zero values fall back to the
// system scheduler, time.Now and DefaultRunDuration.
type SimulationOptions struct {
	Scheduler   Scheduler
	Now         func() time.Time
	RunDuration time.Duration
	// OnChange is called after every applied transition, outside the lock.
	OnChange func()
}

// Simulation tracks the slider inputs and the oxygen bubbles released while
// an experiment runs.
type Simulation struct {
	sched    Scheduler
	now      func() time.Time
	runFor   time.Duration
	onChange func()

	mu         sync.Mutex
	inputs     domain.EnvironmentalInputs
	running    bool
	bubbles    []domain.Bubble
	seq        int
	generation uint64
	ticker     Timer
	stopper    Timer
}

func NewSimulation(opts SimulationOptions) *Simulation {
	if opts.Scheduler == nil {
		opts.Scheduler = SystemScheduler()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RunDuration <= 0 {
		opts.RunDuration = DefaultRunDuration
	}
	return &Simulation{
		sched:    opts.Scheduler,
		now:      opts.Now,
		runFor:   opts.RunDuration,
		onChange: opts.OnChange,
		inputs:   DefaultInputs,
	}
}

// Start begins a run. It is a no-op while a run is in progress.
func (s *Simulation) Start() bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return false
	}
	s.running = true
	s.bubbles = nil
	s.seq = 0
	s.generation++
	gen := s.generation
	s.armTickLocked(gen)
	s.stopper = s.sched.AfterFunc(s.runFor, func() { s.autoStop(gen) })
	s.mu.Unlock()

	s.notify()
	return true
}

// Reset restores default inputs, drops bubbles and stops any run.
func (s *Simulation) Reset() bool {
	s.mu.Lock()
	s.inputs = DefaultInputs
	s.bubbles = nil
	s.seq = 0
	s.running = false
	s.generation++
	s.cancelTimersLocked()
	s.mu.Unlock()

	s.notify()
	return true
}

// Halt stops a run and cancels pending callbacks without notifying observers.
// Used when the owning workspace is torn down.
func (s *Simulation) Halt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.generation++
	s.cancelTimersLocked()
}

func (s *Simulation) SetLight(v int) bool {
	return s.setInput(func(in *domain.EnvironmentalInputs) { in.Light = v })
}

func (s *Simulation) SetWater(v int) bool {
	return s.setInput(func(in *domain.EnvironmentalInputs) { in.Water = v })
}

func (s *Simulation) SetTemperature(v int) bool {
	return s.setInput(func(in *domain.EnvironmentalInputs) { in.Temperature = v })
}

// Running reports whether a run is in progress.
func (s *Simulation) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Snapshot returns a copy of the current state with the derived rate.
func (s *Simulation) Snapshot() domain.SimulationSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SimulationSnapshot{
		Inputs:  s.inputs,
		Rate:    ComputeRate(s.inputs),
		Running: s.running,
		Bubbles: append([]domain.Bubble{}, s.bubbles...),
		Hints:   Hints(s.inputs),
	}
}

func (s *Simulation) setInput(apply func(*domain.EnvironmentalInputs)) bool {
	s.mu.Lock()
	next := s.inputs
	apply(&next)
	next = ClampInputs(next)
	changed := next != s.inputs
	s.inputs = next
	s.mu.Unlock()

	if changed {
		s.notify()
	}
	return true
}

// armTickLocked schedules the next emission using the rate at this moment.
func (s *Simulation) armTickLocked(gen uint64) {
	interval := EmissionInterval(ComputeRate(s.inputs).Value)
	s.ticker = s.sched.AfterFunc(interval, func() { s.tick(gen) })
}

func (s *Simulation) tick(gen uint64) {
	s.mu.Lock()
	if !s.running || gen != s.generation {
		s.mu.Unlock()
		return
	}
	emitted := false
	if ComputeRate(s.inputs).Value > BubbleThreshold {
		s.seq++
		s.bubbles = append(s.bubbles, domain.Bubble{Seq: s.seq, At: s.now()})
		emitted = true
	}
	s.armTickLocked(gen)
	s.mu.Unlock()

	if emitted {
		s.notify()
	}
}

func (s *Simulation) autoStop(gen uint64) {
	s.mu.Lock()
	if !s.running || gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancelTimersLocked()
	s.mu.Unlock()

	s.notify()
}

func (s *Simulation) cancelTimersLocked() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	if s.stopper != nil {
		s.stopper.Stop()
		s.stopper = nil
	}
}

func (s *Simulation) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
