package dynasty

// EnsureDefaults seeds the starting factions and towns into a state whose
// collections are empty. It is called at first boot and again after a
// permadeath wipe, so it must be safe to call on an already-populated state.
func EnsureDefaults(s *WorldState) {
	if s == nil {
		return
	}
	if s.Factions == nil {
		s.Factions = []Faction{}
	}
	if s.Towns == nil {
		s.Towns = []Town{}
	}

	if len(s.Factions) == 0 {
		s.Factions = append(s.Factions,
			Faction{Name: "Blue Chamber", EconomyScore: 60, Population: 500, Aggression: 30, Immigration: 20, WarStatus: WarPeace},
			Faction{Name: "Heroic Kingdom", EconomyScore: 55, Population: 450, Aggression: 45, Immigration: 15, WarStatus: WarPeace},
			Faction{Name: "Holy Mission", EconomyScore: 50, Population: 420, Aggression: 35, Immigration: 25, WarStatus: WarPeace},
			Faction{Name: "Sorobor Academy", EconomyScore: 70, Population: 300, Aggression: 20, Immigration: 10, WarStatus: WarPeace},
		)
	}

	if len(s.Towns) == 0 {
		s.Towns = append(s.Towns,
			Town{ID: "Cierzo", OwnerFaction: "Blue Chamber", GateHP: 1000},
			Town{ID: "Berg", OwnerFaction: "Blue Chamber", GateHP: 1000},
			Town{ID: "Levant", OwnerFaction: "Heroic Kingdom", GateHP: 1000},
			Town{ID: "Monsoon", OwnerFaction: "Holy Mission", GateHP: 1000},
		)
	}
}
