package rule

import (
	"fmt"
	"strings"

	"github.com/teambition/rrule-go"
)

// FromRRule converts an RFC 5545 RRULE string into a native recurrence
// payload. This is an import-boundary convenience so rule definition files
// can carry an `rrule:` field instead of spelling out the payload; the
// engine itself never evaluates RRULE strings.
//
// Supported mappings:
//
//	FREQ=YEARLY;BYMONTH=m;BYMONTHDAY=d  -> fixed_date (m, d)
//	FREQ=DAILY;INTERVAL=n               -> interval n days
//	FREQ=WEEKLY;INTERVAL=n              -> interval 7n days
//
// Anything else (MONTHLY, BYDAY sets, COUNT/UNTIL bounds) has no day-exact
// native equivalent and is rejected.
func FromRRule(raw string) (Kind, *FixedDate, *IntervalSpec, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "RRULE:")

	opt, err := rrule.StrToROption(raw)
	if err != nil {
		return "", nil, nil, fmt.Errorf("parse rrule: %w", err)
	}
	if opt.Count > 0 || !opt.Until.IsZero() {
		return "", nil, nil, fmt.Errorf("rrule %q: COUNT/UNTIL bounds are not supported", raw)
	}

	interval := opt.Interval
	if interval < 1 {
		interval = 1
	}

	switch opt.Freq {
	case rrule.YEARLY:
		if len(opt.Bymonth) != 1 || len(opt.Bymonthday) != 1 {
			return "", nil, nil, fmt.Errorf("rrule %q: YEARLY requires exactly one BYMONTH and one BYMONTHDAY", raw)
		}
		if interval != 1 {
			return "", nil, nil, fmt.Errorf("rrule %q: YEARLY with INTERVAL > 1 is not supported", raw)
		}
		return KindFixedDate, &FixedDate{Month: opt.Bymonth[0], Day: opt.Bymonthday[0]}, nil, nil

	case rrule.DAILY:
		return KindInterval, nil, &IntervalSpec{Days: interval, AnchorMode: AnchorRuleCreation}, nil

	case rrule.WEEKLY:
		if len(opt.Byweekday) > 0 {
			return "", nil, nil, fmt.Errorf("rrule %q: BYDAY is not supported", raw)
		}
		return KindInterval, nil, &IntervalSpec{Days: 7 * interval, AnchorMode: AnchorRuleCreation}, nil

	default:
		return "", nil, nil, fmt.Errorf("rrule %q: unsupported frequency", raw)
	}
}
