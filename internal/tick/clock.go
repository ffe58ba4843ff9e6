package tick

import "sync"

// GameClock is the external day/hour clock owned by the game runtime. The
// scheduler both reads it and writes it: on resync the external day is
// forced to match the dynasty's day count.
type GameClock interface {
	Day() int
	Hour() int
	Paused() bool
	SetDay(day int)
	SetHour(hour int)
}

// FakeGameClock is deterministic and test-friendly.
type FakeGameClock struct {
	mu     sync.Mutex
	day    int
	hour   int
	paused bool
}

func NewFakeGameClock(day, hour int) *FakeGameClock {
	return &FakeGameClock{day: day, hour: hour}
}

func (c *FakeGameClock) Day() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.day
}

func (c *FakeGameClock) Hour() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hour
}

func (c *FakeGameClock) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *FakeGameClock) SetDay(day int) {
	c.mu.Lock()
	c.day = day
	c.mu.Unlock()
}

func (c *FakeGameClock) SetHour(hour int) {
	c.mu.Lock()
	c.hour = hour
	c.mu.Unlock()
}

func (c *FakeGameClock) SetPaused(paused bool) {
	c.mu.Lock()
	c.paused = paused
	c.mu.Unlock()
}
