package service

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	dErrors "impactx/pkg/domain-errors"
)

// RosterEntry is one oracle in a roster file.
type RosterEntry struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Weight int64  `yaml:"weight"`
	Active *bool  `yaml:"active,omitempty"`
}

// Roster is the YAML document used to seed the registry at startup:
//
//	oracles:
//	  - id: 02a1...
//	    name: field-auditor-1
//	    weight: 3
type Roster struct {
	Oracles []RosterEntry `yaml:"oracles"`
}

// LoadRoster reads and parses a roster file.
func LoadRoster(path string) (*Roster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read oracle roster: %w", err)
	}
	return ParseRoster(raw)
}

func ParseRoster(raw []byte) (*Roster, error) {
	var roster Roster
	if err := yaml.Unmarshal(raw, &roster); err != nil {
		return nil, fmt.Errorf("parse oracle roster: %w", err)
	}
	return &roster, nil
}

// Seed registers every roster entry. Entries already registered are skipped,
// so seeding is safe on every start.
func (s *Service) Seed(ctx context.Context, roster *Roster) (int, error) {
	registered := 0
	for i, entry := range roster.Oracles {
		o, err := s.Register(ctx, entry.ID, entry.Name, entry.Weight)
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			continue
		}
		if err != nil {
			return registered, fmt.Errorf("roster entry %d: %w", i, err)
		}
		if entry.Active != nil && !*entry.Active {
			if _, err := s.Deactivate(ctx, o.ID); err != nil {
				return registered, fmt.Errorf("roster entry %d: %w", i, err)
			}
		}
		registered++
	}
	return registered, nil
}
