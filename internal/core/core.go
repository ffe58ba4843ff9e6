package core

import (
	"context"
	"log"
	"sync"

	"dynasty/internal/config"
	"dynasty/internal/dynasty"
	"dynasty/internal/journal"
	"dynasty/internal/save"
	"dynasty/internal/sim"
)

// Notifier renders a fire-and-forget message to the player. Supplied by the
// host integration layer; the core never touches UI directly.
type Notifier interface {
	Notify(message string)
}

// NopNotifier drops every message.
type NopNotifier struct{}

func (NopNotifier) Notify(string) {}

// Core owns the single live WorldState for this process and every mutation
// path into it. Collaborators (scheduler, event hooks, permadeath, HTTP
// handlers) all go through Core rather than sharing the state directly.
type Core struct {
	mu sync.Mutex

	store    *save.Store
	engine   sim.Engine
	journal  *journal.Journal
	notifier Notifier
	balance  config.Balance

	state   *dynasty.WorldState
	enabled bool
}

// New loads (or creates) the dynasty state and seeds defaults. The journal
// may be nil; the notifier defaults to a no-op.
func New(store *save.Store, balance config.Balance, jrnl *journal.Journal, notifier Notifier) *Core {
	balance.ApplyDefaults()
	if notifier == nil {
		notifier = NopNotifier{}
	}

	st := store.Load()
	dynasty.EnsureDefaults(st)

	c := &Core{
		store:    store,
		engine:   sim.New(balance),
		journal:  jrnl,
		notifier: notifier,
		balance:  balance,
		state:    st,
		enabled:  true,
	}

	store.BindHook = func(identity string) {
		c.record(journal.EventStagingBound, map[string]any{"identity": identity})
	}

	log.Printf("dynasty: core initialized (started=%v day=%d)", st.DynastyStarted, st.DayCount)
	return c
}

// Store exposes the save store for collaborators that need the raw
// persistence entry points (permadeath, admin wipe).
func (c *Core) Store() *save.Store { return c.store }

// Balance reports the active balance configuration.
func (c *Core) Balance() config.Balance { return c.balance }

// Snapshot returns a deep copy of the current state for readers.
func (c *Core) Snapshot() dynasty.WorldState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Started reports whether the dynasty run is active.
func (c *Core) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.DynastyStarted
}

// ApocalypseActive reports whether the apocalypse has begun.
func (c *Core) ApocalypseActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.IsApocalypseActive
}

// DayCount reports the current in-world day.
func (c *Core) DayCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.DayCount
}

// Enable turns the session toggle on.
func (c *Core) Enable() { c.setEnabled(true) }

// Disable turns the session toggle off; every hook becomes inert.
func (c *Core) Disable() { c.setEnabled(false) }

func (c *Core) setEnabled(v bool) {
	c.mu.Lock()
	c.enabled = v
	c.mu.Unlock()
	log.Printf("dynasty: session toggle enabled=%v", v)
}

// Enabled reports the session toggle.
func (c *Core) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// StartDynasty marks the run started and persists. The identity may still
// be unknown at this point; the record lands in staging until it binds.
func (c *Core) StartDynasty() error {
	c.mu.Lock()
	c.state.DynastyStarted = true
	c.mu.Unlock()
	return c.SaveDynasty()
}

// MarkPlayerPlaced records that the player entered the world and persists.
func (c *Core) MarkPlayerPlaced() error {
	c.mu.Lock()
	c.state.PlayerPlaced = true
	c.mu.Unlock()
	return c.SaveDynasty()
}

// SaveDynasty persists the live state. A refused or failed write is
// reported and logged; the in-memory state stays the source of truth.
// The state is cloned under the lock so a concurrent tick cannot mutate
// fields while the store is encoding them.
func (c *Core) SaveDynasty() error {
	c.mu.Lock()
	st := c.state.Clone()
	c.mu.Unlock()

	if err := c.store.Save(&st); err != nil {
		log.Printf("dynasty: save skipped: %v", err)
		return err
	}
	return nil
}

// TriggerDailyTick advances the simulation one day and persists. This is
// the single tick path: the scheduler calls it on the day boundary and
// tests call it on demand.
func (c *Core) TriggerDailyTick() sim.TickReport {
	c.mu.Lock()
	rep := c.engine.AdvanceOneDay(c.state)
	c.mu.Unlock()

	if err := c.SaveDynasty(); err != nil {
		log.Printf("dynasty: tick for day %d not persisted: %v", rep.Day, err)
	}
	c.record(journal.EventDayTick, map[string]any{
		"day":              rep.Day,
		"apocalypse_began": rep.ApocalypseBegan,
	})
	return rep
}

// OnPurchase rewards influence for a qualifying purchase and persists.
func (c *Core) OnPurchase(quantity int, itemRef string) {
	if quantity < 1 {
		return
	}
	c.mu.Lock()
	if !c.hookActiveLocked() {
		c.mu.Unlock()
		return
	}
	c.state.Influence += c.balance.InfluencePerPurchase
	c.mu.Unlock()

	if err := c.SaveDynasty(); err != nil {
		log.Printf("dynasty: purchase reward not persisted: %v", err)
	}
	c.record(journal.EventPurchase, map[string]any{"item": itemRef, "quantity": quantity})
}

// OnSiege rewards bonds for a siege event, damages the named town's gate
// when it exists (an unknown town is tolerated), and persists.
func (c *Core) OnSiege(townID string) {
	c.mu.Lock()
	if !c.hookActiveLocked() {
		c.mu.Unlock()
		return
	}
	c.state.Bonds += c.balance.BondsPerSiege
	if town := c.state.TownByID(townID); town != nil {
		town.GateHP -= c.balance.SiegeGateDamage
		if town.GateHP < 0 {
			town.GateHP = 0
		}
	}
	c.mu.Unlock()

	if err := c.SaveDynasty(); err != nil {
		log.Printf("dynasty: siege result not persisted: %v", err)
	}
	c.record(journal.EventSiege, map[string]any{"town": townID})
}

// hookActiveLocked gates the incremental event hooks: session toggle on,
// run started, and not in the reserved banned state.
func (c *Core) hookActiveLocked() bool {
	return c.enabled && c.state.DynastyStarted && !c.state.PermadeathBanned
}

// WipeCurrent atomically replaces the current run: delete the identity's
// record, reset the in-memory state to a fresh seeded dynasty, and persist
// (which re-binds the fresh record under the identity). The reason string
// is informational only.
func (c *Core) WipeCurrent(reason string) {
	c.mu.Lock()
	c.store.DeleteCurrent()
	fresh := dynasty.NewWorldState()
	dynasty.EnsureDefaults(fresh)
	c.state = fresh
	c.mu.Unlock()

	if err := c.SaveDynasty(); err != nil {
		log.Printf("dynasty: fresh state after wipe not persisted: %v", err)
	}
	c.record(journal.EventDynastyWiped, map[string]any{"reason": reason})
	log.Printf("dynasty: wiped current run (reason=%s)", reason)
}

// WipeAll deletes every record on disk and resets the in-memory state to a
// fresh seeded dynasty.
func (c *Core) WipeAll() error {
	c.mu.Lock()
	err := c.store.DeleteAll()
	fresh := dynasty.NewWorldState()
	dynasty.EnsureDefaults(fresh)
	c.state = fresh
	c.mu.Unlock()

	c.record(journal.EventWipeAll, nil)
	return err
}

// Notify forwards a fire-and-forget message to the player.
func (c *Core) Notify(message string) {
	c.notifier.Notify(message)
}

// RecordRevive journals a bypass-token revive.
func (c *Core) RecordRevive() {
	c.record(journal.EventDynastyRevived, nil)
}

func (c *Core) record(typ journal.EventType, metadata map[string]any) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Record(context.Background(), typ, metadata); err != nil {
		log.Printf("dynasty: journal %s: %v", typ, err)
	}
}
