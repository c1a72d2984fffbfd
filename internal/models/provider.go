package models

import (
	"fmt"

	"barberbook/internal/timeparse"

	"gopkg.in/yaml.v3"
)

type Provider struct {
	ID           int64              `yaml:"id" json:"id"`
	Name         string             `yaml:"name" json:"name"`
	Address      string             `yaml:"address" json:"address,omitempty"`
	LocalityKey  string             `yaml:"locality_key" json:"locality_key"`
	Availability string             `yaml:"availability" json:"availability"` // template or slots
	Hours        WorkingHours       `yaml:"hours" json:"hours"`
	Services     []Service          `yaml:"services" json:"-"`
	Slots        []AvailabilitySlot `yaml:"slots" json:"-"`
	IsActive     bool               `yaml:"is_active" json:"is_active"`
}

// WorkingHours is the weekly template a provider books against.
// Days is indexed by time.Weekday (Sunday = 0).
type WorkingHours struct {
	Days     WeekdaySet `yaml:"days" json:"days"`
	Start    string     `yaml:"start" json:"start"`
	End      string     `yaml:"end" json:"end"`
	Interval int        `yaml:"interval" json:"interval"` // minutes
}

type Service struct {
	ID         int64  `yaml:"id" json:"id"`
	ProviderID int64  `yaml:"-" json:"provider_id"`
	Name       string `yaml:"name" json:"name"`
	Price      int64  `yaml:"price" json:"price"` // minor currency units
	Duration   int    `yaml:"duration" json:"duration"`
}

// AvailabilitySlot is one bookable unit. Time may be stored in either
// display or 24-hour form.
type AvailabilitySlot struct {
	Date string `yaml:"date" json:"date"`
	Time string `yaml:"time" json:"time"`
}

// WeekdaySet flags working days. In YAML it is a list of weekday names.
type WeekdaySet [7]bool

func (w *WeekdaySet) UnmarshalYAML(value *yaml.Node) error {
	var names []string
	if err := value.Decode(&names); err != nil {
		return err
	}
	var set WeekdaySet
	for _, name := range names {
		wd, ok := timeparse.ParseWeekday(name)
		if !ok {
			return fmt.Errorf("unknown weekday %q", name)
		}
		set[wd] = true
	}
	*w = set
	return nil
}
