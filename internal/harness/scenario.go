// Package harness runs declarative end-to-end scenarios: a YAML file seeds
// targets and rules on a fresh in-memory store, drives materialization,
// clock movement, and instance actions step by step, and the resulting
// queue is snapshotted against a golden file.
package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cadence/internal/rule"
)

// Scenario is one declarative end-to-end case.
type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Now         time.Time   `yaml:"now"`
	Tier        string      `yaml:"tier"`
	Targets     []TargetDef `yaml:"targets"`
	Rules       []RuleDef   `yaml:"rules"`
	Steps       []Step      `yaml:"steps"`
	Queue       QueueDef    `yaml:"queue"`
}

// TargetDef seeds one target row.
type TargetDef struct {
	ID           string     `yaml:"id"`
	Owner        string     `yaml:"owner"`
	Name         string     `yaml:"name"`
	LastActivity *time.Time `yaml:"last_activity"`
}

// RuleDef seeds one rule. Priority defaults to medium and the interval
// anchor to last_activity, mirroring the CUE definition defaults.
type RuleDef struct {
	ID       string       `yaml:"id"`
	Owner    string       `yaml:"owner"`
	Target   string       `yaml:"target"`
	Type     string       `yaml:"type"`
	Priority string       `yaml:"priority"`
	Title    string       `yaml:"title"`
	Offsets  []int        `yaml:"offsets"`
	Fixed    *FixedDef    `yaml:"fixed"`
	Interval *IntervalDef `yaml:"interval"`
}

// FixedDef is the annual-event payload of a scenario rule.
type FixedDef struct {
	Month int `yaml:"month"`
	Day   int `yaml:"day"`
	Year  int `yaml:"year"`
}

// IntervalDef is the every-N-days payload of a scenario rule.
type IntervalDef struct {
	Days   int    `yaml:"days"`
	Anchor string `yaml:"anchor"`
	Date   string `yaml:"date"`
}

// Step is one scripted action. Op selects the action; the other fields are
// its arguments.
type Step struct {
	// Op is one of: materialize, rematerialize_target, advance_days,
	// complete, snooze, unsnooze, skip, touch_target, prune.
	Op     string    `yaml:"op"`
	Owner  string    `yaml:"owner"`
	Key    string    `yaml:"key"`
	Days   int       `yaml:"days"`
	Until  time.Time `yaml:"until"`
	Target string    `yaml:"target"`
}

// QueueDef selects the final queue whose shape the golden file records.
type QueueDef struct {
	Owner     string `yaml:"owner"`
	TodayOnly bool   `yaml:"today_only"`
}

// LoadScenario reads and strictly decodes a scenario file. Unknown YAML
// fields are errors so a typo in a scenario cannot silently weaken it.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", path, err)
	}

	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if sc.Now.IsZero() {
		return nil, fmt.Errorf("scenario %s: now is required", path)
	}
	if sc.Tier == "" {
		sc.Tier = "base"
	}
	return &sc, nil
}

// buildRule converts a scenario rule definition into a validated domain
// rule, the same way the CUE loader does.
func (d RuleDef) buildRule(createdAt time.Time) (*rule.Rule, error) {
	r := &rule.Rule{
		ID:        d.ID,
		OwnerID:   d.Owner,
		TargetID:  d.Target,
		Type:      rule.Type(d.Type),
		Priority:  rule.Priority(d.Priority),
		Offsets:   d.Offsets,
		Active:    true,
		Title:     rule.NormalizeText(d.Title),
		CreatedAt: createdAt,
	}
	if r.Priority == "" {
		r.Priority = rule.PriorityMedium
	}

	if d.Fixed != nil {
		r.Fixed = &rule.FixedDate{Month: d.Fixed.Month, Day: d.Fixed.Day, Year: d.Fixed.Year}
	}
	if d.Interval != nil {
		iv := &rule.IntervalSpec{
			Days:       d.Interval.Days,
			AnchorMode: rule.AnchorMode(d.Interval.Anchor),
		}
		if iv.AnchorMode == "" {
			iv.AnchorMode = rule.AnchorLastActivity
		}
		if d.Interval.Date != "" {
			date, err := time.Parse("2006-01-02", d.Interval.Date)
			if err != nil {
				return nil, fmt.Errorf("rule %s: interval date: %w", d.ID, err)
			}
			iv.AnchorDate = date.UTC()
		}
		r.Interval = iv
	}

	switch {
	case r.Fixed != nil && r.Interval != nil:
		r.Kind = rule.KindHybrid
	case r.Fixed != nil:
		r.Kind = rule.KindFixedDate
	case r.Interval != nil:
		r.Kind = rule.KindInterval
	default:
		return nil, fmt.Errorf("rule %s: needs a fixed or interval payload", d.ID)
	}

	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("rule %s: %w", d.ID, err)
	}
	return r, nil
}
