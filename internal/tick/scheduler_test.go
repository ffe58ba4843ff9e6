package tick

import (
	"testing"

	"dynasty/internal/sim"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDynasty struct {
	started bool
	day     int
	ticks   int
}

func (d *fakeDynasty) Started() bool { return d.started }
func (d *fakeDynasty) DayCount() int { return d.day }

func (d *fakeDynasty) TriggerDailyTick() sim.TickReport {
	d.ticks++
	d.day++
	return sim.TickReport{Day: d.day}
}

func TestEvaluate_IdleWhenNotStarted(t *testing.T) {
	dyn := &fakeDynasty{}
	clock := NewFakeGameClock(0, 4)
	s := NewScheduler(dyn, clock, 4, 8)

	assert.Nil(t, s.Evaluate())
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, 0, dyn.ticks)
}

func TestEvaluate_IdleWhenPaused(t *testing.T) {
	dyn := &fakeDynasty{started: true}
	clock := NewFakeGameClock(3, 4)
	clock.SetPaused(true)
	s := NewScheduler(dyn, clock, 4, 8)

	assert.Nil(t, s.Evaluate())
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, 0, dyn.ticks)
}

func TestEvaluate_FiresExactlyOncePerTickHour(t *testing.T) {
	dyn := &fakeDynasty{started: true, day: 3}
	clock := NewFakeGameClock(3, 4)
	s := NewScheduler(dyn, clock, 4, 8)

	rep := s.Evaluate()
	require.NotNil(t, rep)
	assert.Equal(t, 4, rep.Day)

	// The host calls Evaluate many times while the clock sits at the tick
	// hour. Only the first fires.
	for i := 0; i < 20; i++ {
		clock.SetDay(dyn.day)
		assert.Nil(t, s.Evaluate())
	}
	assert.Equal(t, 1, dyn.ticks)
	assert.Equal(t, StateFired, s.State())
}

func TestEvaluate_RearmsAfterLeavingTickHour(t *testing.T) {
	dyn := &fakeDynasty{started: true, day: 3}
	clock := NewFakeGameClock(3, 4)
	s := NewScheduler(dyn, clock, 4, 8)

	require.NotNil(t, s.Evaluate())

	clock.SetHour(5)
	assert.Nil(t, s.Evaluate())
	assert.Equal(t, StateArmedForTick, s.State())

	// Next day, same hour: fires again.
	clock.SetHour(4)
	rep := s.Evaluate()
	require.NotNil(t, rep)
	assert.Equal(t, 5, rep.Day)
	assert.Equal(t, 2, dyn.ticks)
}

func TestEvaluate_NewDynastySyncsToMorning(t *testing.T) {
	dyn := &fakeDynasty{started: true, day: 0}
	clock := NewFakeGameClock(17, 22)
	s := NewScheduler(dyn, clock, 4, 8)

	assert.Nil(t, s.Evaluate())

	// Day 0 resync forces the external clock back to a fresh morning.
	assert.Equal(t, 0, clock.Day())
	assert.Equal(t, 8, clock.Hour())
	assert.Equal(t, StateArmedForTick, s.State())
}

func TestEvaluate_ResyncKeepsExistingHourForOngoingDynasty(t *testing.T) {
	dyn := &fakeDynasty{started: true, day: 42}
	clock := NewFakeGameClock(7, 13)
	s := NewScheduler(dyn, clock, 4, 8)

	assert.Nil(t, s.Evaluate())

	// The day is forced to match but the hour is left alone.
	assert.Equal(t, 42, clock.Day())
	assert.Equal(t, 13, clock.Hour())
}

func TestEvaluate_MidnightRolloverIsNotDaySkew(t *testing.T) {
	dyn := &fakeDynasty{started: true, day: 0}
	clock := NewFakeGameClock(0, 8)
	s := NewScheduler(dyn, clock, 4, 8)

	assert.Nil(t, s.Evaluate())

	// A fresh dynasty starts at morning (8), after the tick hour (4). The
	// external clock must be allowed to roll through midnight and reach
	// the tick hour naturally; treating the rollover as day-skew would
	// reset the hour to morning forever and the first tick would never
	// fire.
	fired := false
	for step := 0; step < 48 && !fired; step++ {
		hour := clock.Hour() + 1
		if hour >= 24 {
			hour = 0
			clock.SetDay(clock.Day() + 1)
		}
		clock.SetHour(hour)
		if rep := s.Evaluate(); rep != nil {
			fired = true
			assert.Equal(t, 1, rep.Day)
		}
	}

	assert.True(t, fired, "first daily tick never fired")
	assert.Equal(t, 4, clock.Hour())
	assert.Equal(t, 1, dyn.ticks)
}

func TestEvaluate_PostTickResyncAlignsExternalDay(t *testing.T) {
	dyn := &fakeDynasty{started: true, day: 10}
	clock := NewFakeGameClock(3, 4)
	s := NewScheduler(dyn, clock, 4, 8)

	require.NotNil(t, s.Evaluate())

	// The tick advanced the dynasty day; the next evaluation snaps the
	// external day to match.
	assert.Nil(t, s.Evaluate())
	assert.Equal(t, 11, clock.Day())
}

func TestEvaluate_FullDayCycle(t *testing.T) {
	dyn := &fakeDynasty{started: true, day: 0}
	clock := NewFakeGameClock(0, 8)
	s := NewScheduler(dyn, clock, 4, 8)

	ticks := 0
	// Three in-game days, one Evaluate per hour.
	for day := 0; day < 3; day++ {
		for step := 0; step < 24; step++ {
			if rep := s.Evaluate(); rep != nil {
				ticks++
			}
			hour := clock.Hour() + 1
			if hour >= 24 {
				hour = 0
				clock.SetDay(clock.Day() + 1)
			}
			clock.SetHour(hour)
		}
	}

	assert.Equal(t, 3, ticks)
	assert.Equal(t, 3, dyn.ticks)
}

func TestEvaluate_PauseMidDayDoesNotDoubleFire(t *testing.T) {
	dyn := &fakeDynasty{started: true, day: 5}
	clock := NewFakeGameClock(5, 4)
	s := NewScheduler(dyn, clock, 4, 8)

	require.NotNil(t, s.Evaluate())

	clock.SetPaused(true)
	assert.Nil(t, s.Evaluate())
	assert.Equal(t, StateIdle, s.State())

	// Unpause while still in the tick hour: the fired flag survives the
	// idle excursion.
	clock.SetPaused(false)
	clock.SetDay(dyn.day)
	assert.Nil(t, s.Evaluate())
	assert.Equal(t, 1, dyn.ticks)
}
