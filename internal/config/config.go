package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Balance holds the simulation tuning knobs. Zero values mean "use default"
// so a partial YAML file only overrides what it names.
type Balance struct {
	// Apocalypse
	ApocalypseDay     int     `yaml:"apocalypse_day" json:"apocalypse_day"`
	ScourgeMultiplier float64 `yaml:"scourge_multiplier" json:"scourge_multiplier"`

	// Bandits
	GateHPThreshold float64 `yaml:"gate_hp_threshold" json:"gate_hp_threshold"`
	BanditGain      float64 `yaml:"bandit_gain" json:"bandit_gain"`

	// War machine
	WarAggressionMin int     `yaml:"war_aggression_min" json:"war_aggression_min"`
	WarEconomyMax    int     `yaml:"war_economy_max" json:"war_economy_max"`
	SupportPeaceMin  float64 `yaml:"support_peace_min" json:"support_peace_min"`
	SupportPeaceCost float64 `yaml:"support_peace_cost" json:"support_peace_cost"`

	// Clock
	TickHour    int `yaml:"tick_hour" json:"tick_hour"`
	MorningHour int `yaml:"morning_hour" json:"morning_hour"`

	// Event hooks
	InfluencePerPurchase int     `yaml:"influence_per_purchase" json:"influence_per_purchase"`
	BondsPerSiege        int     `yaml:"bonds_per_siege" json:"bonds_per_siege"`
	SiegeGateDamage      float64 `yaml:"siege_gate_damage" json:"siege_gate_damage"`
}

// Default returns the stock balance.
func Default() Balance {
	return Balance{
		ApocalypseDay:        500,
		ScourgeMultiplier:    2.0,
		GateHPThreshold:      500,
		BanditGain:           5,
		WarAggressionMin:     70,
		WarEconomyMax:        40,
		SupportPeaceMin:      50,
		SupportPeaceCost:     10,
		TickHour:             4,
		MorningHour:          8,
		InfluencePerPurchase: 1,
		BondsPerSiege:        1,
		SiegeGateDamage:      50,
	}
}

// ApplyDefaults fills any zero or negative field from Default.
func (b *Balance) ApplyDefaults() {
	d := Default()
	if b.ApocalypseDay <= 0 {
		b.ApocalypseDay = d.ApocalypseDay
	}
	if b.ScourgeMultiplier <= 0 {
		b.ScourgeMultiplier = d.ScourgeMultiplier
	}
	if b.GateHPThreshold <= 0 {
		b.GateHPThreshold = d.GateHPThreshold
	}
	if b.BanditGain <= 0 {
		b.BanditGain = d.BanditGain
	}
	if b.WarAggressionMin <= 0 {
		b.WarAggressionMin = d.WarAggressionMin
	}
	if b.WarEconomyMax <= 0 {
		b.WarEconomyMax = d.WarEconomyMax
	}
	if b.SupportPeaceMin <= 0 {
		b.SupportPeaceMin = d.SupportPeaceMin
	}
	if b.SupportPeaceCost <= 0 {
		b.SupportPeaceCost = d.SupportPeaceCost
	}
	if b.TickHour <= 0 {
		b.TickHour = d.TickHour
	}
	if b.MorningHour <= 0 {
		b.MorningHour = d.MorningHour
	}
	if b.InfluencePerPurchase <= 0 {
		b.InfluencePerPurchase = d.InfluencePerPurchase
	}
	if b.BondsPerSiege <= 0 {
		b.BondsPerSiege = d.BondsPerSiege
	}
	if b.SiegeGateDamage <= 0 {
		b.SiegeGateDamage = d.SiegeGateDamage
	}
}

// Load reads a YAML balance file and applies defaults for anything missing.
func Load(path string) (Balance, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Balance{}, err
	}
	var out Balance
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return Balance{}, err
	}
	out.ApplyDefaults()
	return out, nil
}
