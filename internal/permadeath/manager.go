package permadeath

import (
	"log"
	"sync"
	"time"
)

// ReasonPermadeath and ReasonApocalypse label why a wipe happened. The
// label is informational only; the transaction is identical either way.
const (
	ReasonPermadeath = "Permadeath"
	ReasonApocalypse = "Apocalypse Death"
)

// Dynasty is the slice of the core the death transaction needs.
type Dynasty interface {
	Started() bool
	ApocalypseActive() bool
	WipeCurrent(reason string)
	Notify(message string)
	RecordRevive()
}

// Inventory exposes the player's bypass tokens (a consumable that cancels
// one wipe). Supplied by the host integration layer.
type Inventory interface {
	BypassTokens() int
	ConsumeBypassToken() bool
}

// NoInventory reports zero tokens, so every death wipes.
type NoInventory struct{}

func (NoInventory) BypassTokens() int        { return 0 }
func (NoInventory) ConsumeBypassToken() bool { return false }

// MemoryInventory is a simple counted token pouch for standalone runs and
// tests.
type MemoryInventory struct {
	mu     sync.Mutex
	tokens int
}

func NewMemoryInventory(tokens int) *MemoryInventory {
	return &MemoryInventory{tokens: tokens}
}

func (i *MemoryInventory) BypassTokens() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.tokens
}

func (i *MemoryInventory) ConsumeBypassToken() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.tokens <= 0 {
		return false
	}
	i.tokens--
	return true
}

// Outcome reports what a death signal did.
type Outcome struct {
	Revived bool   `json:"revived"`
	Wiped   bool   `json:"wiped"`
	Reason  string `json:"reason,omitempty"`
}

// Manager runs the permadeath transaction on a death signal.
type Manager struct {
	dyn       Dynasty
	inventory Inventory

	// Relocate is invoked RelocateDelay after a wipe so the caller can
	// return the identity to a neutral location. Optional.
	Relocate      func()
	RelocateDelay time.Duration
}

func NewManager(dyn Dynasty, inventory Inventory) *Manager {
	if inventory == nil {
		inventory = NoInventory{}
	}
	return &Manager{
		dyn:           dyn,
		inventory:     inventory,
		RelocateDelay: 2 * time.Second,
	}
}

// OnDeath handles one identity-death signal.
//
// A run that never started is untouched. A bypass token, when available,
// is consumed and the state left alone. Otherwise the current record is
// deleted, the in-memory state replaced with a fresh seeded dynasty, and
// the fresh state persisted. Every step goes through the core's single
// lock and the store's single mutex, so a concurrent tick never sees a
// half-wiped state. No ban is recorded: the same identity may start a new
// dynasty immediately.
func (m *Manager) OnDeath() Outcome {
	if !m.dyn.Started() {
		return Outcome{}
	}

	if m.inventory.BypassTokens() > 0 && m.inventory.ConsumeBypassToken() {
		m.dyn.RecordRevive()
		m.dyn.Notify("An Echo shatters... You live again.")
		log.Printf("dynasty: death bypassed by token")
		return Outcome{Revived: true}
	}

	reason := ReasonPermadeath
	if m.dyn.ApocalypseActive() {
		reason = ReasonApocalypse
	}

	m.dyn.WipeCurrent(reason)
	m.dyn.Notify("PERMADEATH: Your dynasty was wiped. You can start a new dynasty.")

	if m.Relocate != nil {
		time.AfterFunc(m.RelocateDelay, m.Relocate)
	}

	return Outcome{Wiped: true, Reason: reason}
}
