package recurrence

import (
	"fmt"
	"strings"
	"time"
)

// Ordinal selects which weekday occurrence within an anchor month a rule
// expands to. It is meaningful only for month-stepped rules; day-granular
// rules always carry OrdinalNext.
type Ordinal int

const (
	// OrdinalNext resolves each weekday within the anchor date's own week.
	OrdinalNext Ordinal = iota
	// OrdinalFirst resolves the first occurrence of the weekday in the month.
	OrdinalFirst
	// OrdinalSecond resolves the second occurrence of the weekday in the month.
	OrdinalSecond
	// OrdinalThird resolves the third occurrence of the weekday in the month.
	OrdinalThird
	// OrdinalFourth resolves the fourth occurrence of the weekday in the month.
	OrdinalFourth
	// OrdinalLast resolves the final occurrence of the weekday in the month.
	OrdinalLast
)

var ordinalNames = map[Ordinal]string{
	OrdinalNext:   "NEXT",
	OrdinalFirst:  "FIRST",
	OrdinalSecond: "SECOND",
	OrdinalThird:  "THIRD",
	OrdinalFourth: "FOURTH",
	OrdinalLast:   "LAST",
}

// String returns the canonical storage name for the ordinal.
func (o Ordinal) String() string {
	if name, ok := ordinalNames[o]; ok {
		return name
	}
	return "NEXT"
}

// ParseOrdinal converts a stored ordinal name back to its typed value.
func ParseOrdinal(value string) (Ordinal, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for ordinal, name := range ordinalNames {
		if name == normalized {
			return ordinal, nil
		}
	}
	return OrdinalNext, fmt.Errorf("recurrence: unknown ordinal %q", value)
}

// nth reports the 1-based month occurrence the ordinal addresses, or 0 when
// the ordinal is not a fixed Nth selection.
func (o Ordinal) nth() int {
	switch o {
	case OrdinalFirst:
		return 1
	case OrdinalSecond:
		return 2
	case OrdinalThird:
		return 3
	case OrdinalFourth:
		return 4
	default:
		return 0
	}
}

// Rule describes how often, and on which weekdays, a service recurs. The only
// way to obtain a Rule is through Daily or EveryNMonths, which keeps invalid
// frequency/ordinal combinations unrepresentable: a day-granular rule can
// never carry a month ordinal.
type Rule struct {
	stepMonths int
	ordinal    Ordinal
	weekdays   []time.Weekday
}

// Daily returns a day-granular rule. It covers the NONE, DAILY and WEEKLY
// service frequencies, which all iterate one calendar day at a time. An empty
// weekday list matches every day.
func Daily(weekdays ...time.Weekday) Rule {
	return Rule{weekdays: normalizeWeekdays(weekdays)}
}

// EveryNMonths returns a rule that advances its anchor by n calendar months
// per round, resolving each weekday according to the ordinal. Values of n
// below one are clamped to one.
func EveryNMonths(n int, ordinal Ordinal, weekdays ...time.Weekday) Rule {
	if n < 1 {
		n = 1
	}
	return Rule{
		stepMonths: n,
		ordinal:    ordinal,
		weekdays:   normalizeWeekdays(weekdays),
	}
}

// StepMonths reports the month stride of the rule; zero means day-granular.
func (r Rule) StepMonths() int {
	return r.stepMonths
}

// Ordinal reports the weekday-occurrence selection of the rule.
func (r Rule) Ordinal() Ordinal {
	if r.stepMonths == 0 {
		return OrdinalNext
	}
	return r.ordinal
}

// Weekdays returns a copy of the rule's weekday selection.
func (r Rule) Weekdays() []time.Weekday {
	out := make([]time.Weekday, len(r.weekdays))
	copy(out, r.weekdays)
	return out
}

// matches reports whether the weekday qualifies under the rule's selection.
// Day-granular rules treat an empty selection as "every day"; month-stepped
// rules require an explicit selection and are handled by the generator.
func (r Rule) matches(day time.Weekday) bool {
	if len(r.weekdays) == 0 {
		return r.stepMonths == 0
	}
	for _, weekday := range r.weekdays {
		if weekday == day {
			return true
		}
	}
	return false
}

func normalizeWeekdays(weekdays []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]struct{}, len(weekdays))
	out := make([]time.Weekday, 0, len(weekdays))
	for _, weekday := range weekdays {
		if weekday < time.Sunday || weekday > time.Saturday {
			continue
		}
		if _, ok := seen[weekday]; ok {
			continue
		}
		seen[weekday] = struct{}{}
		out = append(out, weekday)
	}
	return out
}
