package sim

import (
	"dynasty/internal/config"
	"dynasty/internal/dynasty"
)

// TickReport summarizes one simulated day for the journal and API.
type TickReport struct {
	Day              int      `json:"day"`
	ApocalypseBegan  bool     `json:"apocalypse_began"`
	BanditGainTowns  []string `json:"bandit_gain_towns,omitempty"`
	Mobilized        []string `json:"mobilized,omitempty"`
	DeclaredWar      []string `json:"declared_war,omitempty"`
	StoodDown        []string `json:"stood_down,omitempty"`
}

// Engine advances a WorldState one in-world day at a time. It is pure
// data-in data-out: no I/O, no clock, no host access. The caller owns
// persistence.
type Engine struct {
	Balance config.Balance
}

func New(balance config.Balance) Engine {
	balance.ApplyDefaults()
	return Engine{Balance: balance}
}

// AdvanceOneDay mutates state by exactly one day and reports what happened.
//
// Per-faction order each tick is fixed: population growth, then economy
// drift, then the war machine. Within the war machine the escalation check
// runs before the player-support de-escalation check, on the same tick's
// already-updated fields. That means a faction can be pushed to Mobilizing
// and immediately stood down within one tick when the player's support is
// high enough. This ordering is observable behavior, not an accident.
func (e Engine) AdvanceOneDay(state *dynasty.WorldState) TickReport {
	b := e.Balance
	rep := TickReport{}
	if state == nil {
		return rep
	}

	state.DayCount++
	rep.Day = state.DayCount

	// Apocalypse trigger. One-way: never reverts.
	if state.DayCount >= b.ApocalypseDay && !state.IsApocalypseActive {
		state.IsApocalypseActive = true
		state.ScourgeMultiplier = b.ScourgeMultiplier
		rep.ApocalypseBegan = true
	}

	// Weak gates feed the owning faction's bandits. A town whose owner
	// no longer exists is skipped: ownership is a soft reference.
	for i := range state.Towns {
		town := &state.Towns[i]
		if town.GateHP >= b.GateHPThreshold {
			continue
		}
		faction := state.FactionByName(town.OwnerFaction)
		if faction == nil {
			continue
		}
		faction.BanditStrength += b.BanditGain
		rep.BanditGainTowns = append(rep.BanditGainTowns, town.ID)
	}

	for i := range state.Factions {
		f := &state.Factions[i]

		// Population growth: at least one settler a day.
		growth := float64(f.Immigration) / 1000.0
		delta := int(float64(f.Population) * growth)
		if delta < 1 {
			delta = 1
		}
		f.Population += delta

		// Economy drifts with growth.
		f.EconomyScore = clamp(f.EconomyScore+delta/1000, 0, 100)

		// War machine: escalation first.
		wasMobilizing := f.WarStatus == dynasty.WarMobilizing
		if f.Aggression > b.WarAggressionMin && f.EconomyScore < b.WarEconomyMax {
			switch f.WarStatus {
			case dynasty.WarPeace:
				f.WarStatus = dynasty.WarMobilizing
				rep.Mobilized = append(rep.Mobilized, f.Name)
			case dynasty.WarMobilizing:
				f.WarStatus = dynasty.WarAtWar
				rep.DeclaredWar = append(rep.DeclaredWar, f.Name)
			}
		}

		// Player diplomacy stands a mobilizing faction down, and cancels
		// an escalation decided moments earlier in this same tick: a
		// faction that entered the tick mobilizing goes to Peace even if
		// the escalation check just declared war. A faction at war since
		// an earlier tick is past talking to.
		if f.PlayerSupport > b.SupportPeaceMin &&
			(f.WarStatus == dynasty.WarMobilizing || wasMobilizing) {
			f.WarStatus = dynasty.WarPeace
			f.PlayerSupport -= b.SupportPeaceCost
			if f.PlayerSupport < 0 {
				f.PlayerSupport = 0
			}
			rep.StoodDown = append(rep.StoodDown, f.Name)
		}
	}

	return rep
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
