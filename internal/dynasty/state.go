package dynasty

import "strings"

// CurrentVersion is written into every save. Old saves with missing fields
// decode to zero values and are repaired by Normalize, so bumping this is
// only needed when a field changes meaning.
const CurrentVersion = 2

// NoHost marks a state that is not bound to any host character.
const NoHost = "NONE"

type WarStatus string

const (
	WarPeace      WarStatus = "Peace"
	WarMobilizing WarStatus = "Mobilizing"
	WarAtWar      WarStatus = "AtWar"
)

// WorldState is the full persistent record of one dynasty run. It is pure
// data: the simulation, save store and permadeath transaction all operate on
// it but it has no behavior of its own beyond normalization helpers.
type WorldState struct {
	Version int `json:"version"`

	DynastyStarted bool `json:"dynasty_started"`
	PlayerPlaced   bool `json:"player_placed"`

	// Reserved ban markers. Nothing sets these today; permadeath resets
	// instead of banning. Kept in the record so older saves round-trip.
	PermadeathBanned bool   `json:"permadeath_banned"`
	BanReason        string `json:"ban_reason"`
	BanTimestamp     string `json:"ban_timestamp"`

	DayCount           int     `json:"day_count"`
	IsApocalypseActive bool    `json:"is_apocalypse_active"`
	ScourgeMultiplier  float64 `json:"scourge_multiplier"`

	Bonds     int `json:"bonds"`
	Influence int `json:"influence"`

	HostCharacterID string `json:"host_character_id"`

	CitizenIDs []string  `json:"citizen_ids"`
	Towns      []Town    `json:"towns"`
	Factions   []Faction `json:"factions"`
}

type Town struct {
	ID           string  `json:"id"`
	OwnerFaction string  `json:"owner_faction"`
	GateHP       float64 `json:"gate_hp"`
	EntryTax     int     `json:"entry_tax"`
}

type Faction struct {
	Name string `json:"name"`

	Aggression   int `json:"aggression"`
	Immigration  int `json:"immigration"`
	Population   int `json:"population"`
	EconomyScore int `json:"economy_score"`

	PlayerSupport  float64 `json:"player_support"`
	NationBills    float64 `json:"nation_bills"`
	BanditStrength float64 `json:"bandit_strength"`

	WarStatus WarStatus `json:"war_status"`
}

// NewWorldState returns a fresh, not-started dynasty with all defaults.
func NewWorldState() *WorldState {
	return &WorldState{
		Version:           CurrentVersion,
		BanReason:         NoHost,
		BanTimestamp:      NoHost,
		ScourgeMultiplier: 1.0,
		HostCharacterID:   NoHost,
		CitizenIDs:        []string{},
		Towns:             []Town{},
		Factions:          []Faction{},
	}
}

// FactionByName returns a pointer into the Factions slice, or nil. Town
// ownership is a soft reference: a missing match is expected and callers
// must tolerate it.
func (s *WorldState) FactionByName(name string) *Faction {
	for i := range s.Factions {
		if s.Factions[i].Name == name {
			return &s.Factions[i]
		}
	}
	return nil
}

// TownByID returns a pointer into the Towns slice, or nil.
func (s *WorldState) TownByID(id string) *Town {
	for i := range s.Towns {
		if s.Towns[i].ID == id {
			return &s.Towns[i]
		}
	}
	return nil
}

// AddCitizen records a citizen ID once. Reports whether it was new.
func (s *WorldState) AddCitizen(id string) bool {
	if id == "" {
		return false
	}
	for _, c := range s.CitizenIDs {
		if c == id {
			return false
		}
	}
	s.CitizenIDs = append(s.CitizenIDs, id)
	return true
}

// Clone returns a deep copy, safe to hand to readers while the original
// keeps mutating.
func (s *WorldState) Clone() WorldState {
	out := *s
	out.CitizenIDs = append([]string{}, s.CitizenIDs...)
	out.Towns = append([]Town{}, s.Towns...)
	out.Factions = append([]Faction{}, s.Factions...)
	return out
}

// Normalize repairs a decoded state in place so the rest of the system can
// assume its invariants. Saves written by older versions (or by hand) may
// have nil slices, legacy war status spellings, negative counters or a
// scourge multiplier that disagrees with the apocalypse flag.
func (s *WorldState) Normalize() {
	if s.Version == 0 {
		s.Version = CurrentVersion
	}
	if s.HostCharacterID == "" {
		s.HostCharacterID = NoHost
	}
	if s.BanReason == "" {
		s.BanReason = NoHost
	}
	if s.BanTimestamp == "" {
		s.BanTimestamp = NoHost
	}
	if s.CitizenIDs == nil {
		s.CitizenIDs = []string{}
	}
	if s.Towns == nil {
		s.Towns = []Town{}
	}
	if s.Factions == nil {
		s.Factions = []Faction{}
	}

	if s.DayCount < 0 {
		s.DayCount = 0
	}
	if s.Bonds < 0 {
		s.Bonds = 0
	}
	if s.Influence < 0 {
		s.Influence = 0
	}

	// Scourge multiplier tracks the apocalypse flag, never the other way.
	if s.IsApocalypseActive {
		s.ScourgeMultiplier = 2.0
	} else {
		s.ScourgeMultiplier = 1.0
	}

	// Drop duplicate faction names, first occurrence wins.
	seen := make(map[string]bool, len(s.Factions))
	kept := s.Factions[:0]
	for _, f := range s.Factions {
		if f.Name == "" || seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		f.normalize()
		kept = append(kept, f)
	}
	s.Factions = kept

	for i := range s.Towns {
		s.Towns[i].normalize()
	}
}

func (f *Faction) normalize() {
	if f.Population < 0 {
		f.Population = 0
	}
	if f.EconomyScore < 0 {
		f.EconomyScore = 0
	}
	if f.EconomyScore > 100 {
		f.EconomyScore = 100
	}
	if f.PlayerSupport < 0 {
		f.PlayerSupport = 0
	}
	if f.BanditStrength < 0 {
		f.BanditStrength = 0
	}
	f.WarStatus = canonicalWarStatus(f.WarStatus)
}

func (t *Town) normalize() {
	if t.ID == "" {
		t.ID = "UNKNOWN"
	}
	if t.OwnerFaction == "" {
		t.OwnerFaction = NoHost
	}
	if t.GateHP < 0 {
		t.GateHP = 0
	}
	if t.EntryTax < 0 {
		t.EntryTax = 0
	}
}

// canonicalWarStatus maps legacy spellings ("PEACE", "At War") onto the
// canonical constants. Unknown values fall back to Peace.
func canonicalWarStatus(ws WarStatus) WarStatus {
	switch strings.ToLower(strings.ReplaceAll(string(ws), " ", "")) {
	case "mobilizing":
		return WarMobilizing
	case "atwar":
		return WarAtWar
	default:
		return WarPeace
	}
}
