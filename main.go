package main

import (
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"dynasty/internal/config"
	"dynasty/internal/core"
	"dynasty/internal/journal"
	"dynasty/internal/permadeath"
	"dynasty/internal/save"
	"dynasty/internal/server"
	"dynasty/internal/tick"
)

const savePrefix = "DynastySave"

func main() {
	cfg, err := config.ServerFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	balance, err := config.LoadBalance(cfg)
	if err != nil {
		log.Fatal(err)
	}

	app, scheduler, clock, err := buildApp(cfg, balance)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Journal.Close()

	// Drive the built-in game clock and the daily-tick scheduler. With a
	// real host attached these would be the host's update loop instead.
	go runClock(scheduler, clock, cfg.HourSeconds)

	mux := http.NewServeMux()
	rr := &server.RouteRegistry{}
	server.RegisterAPIRoutes(mux, rr, app)

	addr := ":" + cfg.Port
	fmt.Printf("dynasty listening on %s (data=%s)\n", addr, cfg.DataDir)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func buildApp(cfg config.Server, balance config.Balance) (*server.App, *tick.Scheduler, *hostClock, error) {
	var identity save.IdentityProvider = save.NoIdentity
	if cfg.Identity != "" {
		identity = save.StaticIdentity(cfg.Identity)
	}

	store, err := save.NewStore(cfg.DataDir, savePrefix, identity)
	if err != nil {
		return nil, nil, nil, err
	}

	journalPath := cfg.JournalPath
	if journalPath == "" {
		journalPath = filepath.Join(cfg.DataDir, "journal.sqlite")
	}
	jrnl, err := journal.Open(journalPath)
	if err != nil {
		return nil, nil, nil, err
	}

	feed := server.NewFeed(100)
	c := core.New(store, balance, jrnl, feed)

	death := permadeath.NewManager(c, permadeath.NewMemoryInventory(cfg.BypassTokens))
	death.Relocate = func() {
		feed.Notify("You wake somewhere safe.")
	}

	clock := &hostClock{hour: balance.MorningHour}
	scheduler := tick.NewScheduler(c, clock, balance.TickHour, balance.MorningHour)

	app := &server.App{
		Core:    c,
		Death:   death,
		Journal: jrnl,
		Feed:    feed,
		BootNow: time.Now(),
	}
	return app, scheduler, clock, nil
}

func runClock(scheduler *tick.Scheduler, clock *hostClock, hourSeconds int) {
	if hourSeconds <= 0 {
		hourSeconds = 60
	}
	interval := time.Duration(hourSeconds) * time.Second

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	scheduler.Evaluate()
	for range ticker.C {
		clock.advanceHour()
		scheduler.Evaluate()
	}
}

// hostClock stands in for the host game's time-of-day system when running
// standalone: one in-game hour per fixed real interval.
type hostClock struct {
	mu     sync.Mutex
	day    int
	hour   int
	paused bool
}

func (c *hostClock) Day() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.day
}

func (c *hostClock) Hour() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hour
}

func (c *hostClock) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *hostClock) SetDay(day int) {
	c.mu.Lock()
	c.day = day
	c.mu.Unlock()
}

func (c *hostClock) SetHour(hour int) {
	c.mu.Lock()
	c.hour = hour
	c.mu.Unlock()
}

func (c *hostClock) advanceHour() {
	c.mu.Lock()
	c.hour++
	if c.hour >= 24 {
		c.hour = 0
		c.day++
	}
	c.mu.Unlock()
}
