package tick

import (
	"log"

	"dynasty/internal/sim"
)

// Dynasty is the slice of the core the scheduler drives.
type Dynasty interface {
	Started() bool
	DayCount() int
	TriggerDailyTick() sim.TickReport
}

type State string

const (
	// Idle: dynasty not started or gameplay paused; nothing to do.
	StateIdle State = "Idle"
	// WaitingForSync: active but the external clock has not been aligned
	// with the dynasty day yet.
	StateWaitingForSync State = "WaitingForSync"
	// ArmedForTick: synced and waiting for the tick hour.
	StateArmedForTick State = "ArmedForTick"
	// Fired: today's tick ran; waiting for the hour to leave the tick
	// hour before re-arming.
	StateFired State = "Fired"
)

// Scheduler decides when to run the daily simulation step: exactly once per
// external day, at the tick hour, however many times Evaluate is called
// while the clock sits there. Evaluate is the cooperative turn entry point
// and is expected to be called frequently (the host's update loop).
type Scheduler struct {
	dyn   Dynasty
	clock GameClock

	tickHour    int
	morningHour int

	state         State
	firedToday    bool
	lastHour      int
	synced        bool
	lastSyncedDay int
}

func NewScheduler(dyn Dynasty, clock GameClock, tickHour, morningHour int) *Scheduler {
	return &Scheduler{
		dyn:         dyn,
		clock:       clock,
		tickHour:    tickHour,
		morningHour: morningHour,
		state:       StateIdle,
		lastHour:    -1,
	}
}

// State reports the scheduler's current state.
func (s *Scheduler) State() State { return s.state }

// Evaluate runs one scheduling decision. Returns the tick report when this
// evaluation fired the daily tick, nil otherwise.
func (s *Scheduler) Evaluate() *sim.TickReport {
	if s.clock.Paused() || !s.dyn.Started() {
		s.state = StateIdle
		return nil
	}

	if s.state == StateIdle {
		s.state = StateWaitingForSync
	}

	// Align the external clock with the dynasty day on first activation
	// and whenever the dynasty day changes (right after a tick bumps the
	// day count). The external clock's own midnight rollover is NOT a
	// resync trigger: snapping it back would rewind the hour and the tick
	// hour would never be reached.
	day := s.dyn.DayCount()
	if !s.synced || s.lastSyncedDay != day {
		s.resync(day)
	}

	hour := s.clock.Hour()
	if hour != s.lastHour {
		// Leaving the tick hour re-arms for tomorrow.
		if hour != s.tickHour {
			s.firedToday = false
			if s.state == StateFired {
				s.state = StateArmedForTick
			}
		}
		s.lastHour = hour
	}

	if hour == s.tickHour && !s.firedToday {
		rep := s.dyn.TriggerDailyTick()
		s.firedToday = true
		s.state = StateFired
		log.Printf("dynasty: daily tick fired (day=%d)", rep.Day)
		return &rep
	}

	return nil
}

func (s *Scheduler) resync(day int) {
	s.clock.SetDay(day)
	// Brand-new dynasties start in the morning instead of wherever the
	// host clock happened to be.
	if day == 0 {
		s.clock.SetHour(s.morningHour)
	}
	s.synced = true
	s.lastSyncedDay = day
	if s.firedToday {
		// Resync right after a tick (the day count just advanced) must
		// not re-arm until the hour moves off the tick hour.
		s.state = StateFired
	} else {
		s.state = StateArmedForTick
	}
	log.Printf("dynasty: synced world clock to dynasty day %d", day)
}
