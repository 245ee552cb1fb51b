package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/cadence/internal/recurrence"
	"github.com/roach88/cadence/internal/rule"
)

// ruleSchema is the CUE definition every rule entry must satisfy. Files are
// unified against it before decoding, so structural errors surface with CUE
// positions instead of as half-decoded rules.
const ruleSchema = `
#Rule: {
	id?:      string
	owner:    string & !=""
	target?:  string
	type:     "birthday" | "anniversary" | "follow_up" | "custom"
	priority: *"medium" | "high" | "low"
	title?:   string
	notes?:   string
	offsets:  *[0] | [...int & >=0 & <=30]
	rrule?:   string
	fixed?: {
		month: int & >=1 & <=12
		day:   int & >=1 & <=31
		year?: int & >0
	}
	interval?: {
		days:   int & >=1
		anchor: *"last_activity" | "rule_creation" | "explicit_date"
		date?:  string
	}
}

rules: [...#Rule]
`

// fileRule mirrors the CUE #Rule shape for decoding.
type fileRule struct {
	ID       string `json:"id"`
	Owner    string `json:"owner"`
	Target   string `json:"target"`
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Title    string `json:"title"`
	Notes    string `json:"notes"`
	Offsets  []int  `json:"offsets"`
	RRule    string `json:"rrule"`
	Fixed    *struct {
		Month int `json:"month"`
		Day   int `json:"day"`
		Year  int `json:"year"`
	} `json:"fixed"`
	Interval *struct {
		Days   int    `json:"days"`
		Anchor string `json:"anchor"`
		Date   string `json:"date"`
	} `json:"interval"`
}

// LoadRules loads every .cue file in dir, validates each rules entry against
// the embedded schema, and converts them to validated domain rules. IDs are
// minted with gen when a file does not pin one; now stamps CreatedAt.
//
// Errors are collected per file/entry and returned together - a broken
// entry must not hide the rest of a definition directory.
func LoadRules(dir string, gen rule.IDGenerator, now time.Time) ([]*rule.Rule, []error) {
	files, err := findCUEFiles(dir)
	if err != nil {
		return nil, []error{err}
	}
	if len(files) == 0 {
		return nil, []error{fmt.Errorf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(ruleSchema, cue.Filename("rule_schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, []error{fmt.Errorf("compile rule schema: %w", err)}
	}

	var (
		rules []*rule.Rule
		errs  []error
	)
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}

		value := ctx.CompileBytes(data, cue.Filename(path))
		if err := value.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}

		unified := value.Unify(schema)
		if err := unified.Validate(cue.Concrete(true)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}

		list := unified.LookupPath(cue.ParsePath("rules"))
		if !list.Exists() {
			errs = append(errs, fmt.Errorf("%s: no rules list", path))
			continue
		}

		iter, err := list.List()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		for i := 0; iter.Next(); i++ {
			var fr fileRule
			if err := iter.Value().Decode(&fr); err != nil {
				errs = append(errs, fmt.Errorf("%s: rules[%d]: %w", path, i, err))
				continue
			}
			r, err := convertFileRule(fr, gen, now)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: rules[%d]: %w", path, i, err))
				continue
			}
			rules = append(rules, r)
		}
	}

	return rules, errs
}

// convertFileRule turns a decoded file entry into a validated rule,
// expanding an rrule: shorthand into its native payload.
func convertFileRule(fr fileRule, gen rule.IDGenerator, now time.Time) (*rule.Rule, error) {
	r := &rule.Rule{
		ID:        fr.ID,
		OwnerID:   fr.Owner,
		TargetID:  fr.Target,
		Type:      rule.Type(fr.Type),
		Priority:  rule.Priority(fr.Priority),
		Offsets:   fr.Offsets,
		Active:    true,
		Title:     rule.NormalizeText(fr.Title),
		Notes:     rule.NormalizeText(fr.Notes),
		CreatedAt: now,
	}
	if r.ID == "" {
		r.ID = gen.NewID()
	}

	if fr.RRule != "" {
		if fr.Fixed != nil || fr.Interval != nil {
			return nil, fmt.Errorf("rrule is exclusive with fixed/interval payloads")
		}
		kind, fixed, interval, err := rule.FromRRule(fr.RRule)
		if err != nil {
			return nil, err
		}
		r.Kind, r.Fixed, r.Interval = kind, fixed, interval
	} else {
		if fr.Fixed != nil {
			r.Fixed = &rule.FixedDate{Month: fr.Fixed.Month, Day: fr.Fixed.Day, Year: fr.Fixed.Year}
		}
		if fr.Interval != nil {
			iv := &rule.IntervalSpec{
				Days:       fr.Interval.Days,
				AnchorMode: rule.AnchorMode(fr.Interval.Anchor),
			}
			if fr.Interval.Date != "" {
				d, err := recurrence.ParseDay(fr.Interval.Date)
				if err != nil {
					return nil, fmt.Errorf("interval date: %w", err)
				}
				iv.AnchorDate = d
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
			return nil, fmt.Errorf("rule needs a fixed, interval, or rrule payload")
		}
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// findCUEFiles returns the sorted .cue files directly inside dir.
func findCUEFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("definitions directory not found: %s", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("access definitions directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan definitions directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".cue") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
