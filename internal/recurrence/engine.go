package recurrence

import (
	"sort"
	"time"
)

// maxIterations bounds every expansion loop. Malformed rules truncate their
// results at the bound instead of failing.
const maxIterations = 10000

// Options carries the bounds for a single expansion.
type Options struct {
	// Count is the number of occurrences to produce. For day-granular rules
	// it is ignored whenever Until is set; the walk always continues to the
	// end date in that case.
	Count int
	// Until is the inclusive upper bound of the expansion, compared on
	// calendar dates only.
	Until *time.Time
}

// Expand produces the ordered calendar dates on which a rule occurs, starting
// at from (inclusive). It never fails: unsatisfiable bounds yield a partial or
// empty result once the iteration budget runs out. All returned dates are
// normalized to midnight UTC.
func Expand(rule Rule, from time.Time, opts Options) []time.Time {
	if rule.stepMonths > 0 {
		if rule.Ordinal() == OrdinalNext {
			return expandMonthlyNext(rule, from, opts)
		}
		return expandMonthlyOrdinal(rule, from, opts)
	}
	if opts.Until != nil {
		return expandDailyUntil(rule, from, *opts.Until)
	}
	return expandDailyCount(rule, from, opts.Count)
}

// ExpandCount produces exactly count occurrences of the rule starting at
// from, fewer only when the iteration budget is exhausted first. This is the
// mode used when a series shifts to a new anchor and every forward row needs
// a replacement date.
func ExpandCount(rule Rule, from time.Time, count int) []time.Time {
	return Expand(rule, from, Options{Count: count})
}

// ExpandUntil walks a day-granular rule from from through until inclusive and
// returns every qualifying date, however many that is. This is the mode used
// when a recurring submission books its whole series up front.
func ExpandUntil(rule Rule, from, until time.Time) []time.Time {
	return Expand(rule, from, Options{Until: &until})
}

// DateOnly strips the time-of-day and zone from an instant, leaving the
// calendar date at midnight UTC. All generator comparisons happen on these
// values so local clock offsets can never shift an occurrence across days.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether two instants fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

func expandDailyCount(rule Rule, from time.Time, count int) []time.Time {
	if count <= 0 {
		return nil
	}
	out := make([]time.Time, 0, count)
	day := DateOnly(from)
	for i := 0; i < maxIterations && len(out) < count; i++ {
		if rule.matches(day.Weekday()) {
			out = append(out, day)
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}

func expandDailyUntil(rule Rule, from, until time.Time) []time.Time {
	end := DateOnly(until)
	day := DateOnly(from)
	out := make([]time.Time, 0)
	for i := 0; i < maxIterations && !day.After(end); i++ {
		if rule.matches(day.Weekday()) {
			out = append(out, day)
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}

// expandMonthlyNext steps an anchor forward by the rule's month stride and,
// for every selected weekday, resolves the date in the anchor's own week. The
// resolved date may precede the anchor within that week; only candidates at
// or after the start date survive.
func expandMonthlyNext(rule Rule, from time.Time, opts Options) []time.Time {
	if opts.Count <= 0 || len(rule.weekdays) == 0 {
		return nil
	}

	start := DateOnly(from)
	var end time.Time
	hasEnd := opts.Until != nil
	if hasEnd {
		end = DateOnly(*opts.Until)
	}

	out := make([]time.Time, 0, opts.Count)
	anchor := start
	for round := 0; round < maxIterations && len(out) < opts.Count; round++ {
		if hasEnd && monthAfter(anchor, end) {
			break
		}
		for _, weekday := range rule.weekdays {
			candidate := anchor.AddDate(0, 0, int(weekday)-int(anchor.Weekday()))
			if candidate.Before(start) {
				continue
			}
			if hasEnd && monthAfter(candidate, end) {
				continue
			}
			out = append(out, candidate)
		}
		anchor = anchor.AddDate(0, rule.stepMonths, 0)
	}

	sortDates(out)
	if len(out) > opts.Count {
		out = out[:opts.Count]
	}
	return out
}

// expandMonthlyOrdinal resolves the Nth or last selected weekday of each
// anchor month. Months where the Nth occurrence does not exist (a fifth
// Friday, say) contribute nothing for that weekday.
func expandMonthlyOrdinal(rule Rule, from time.Time, opts Options) []time.Time {
	if opts.Count <= 0 || len(rule.weekdays) == 0 {
		return nil
	}

	start := DateOnly(from)
	var end time.Time
	hasEnd := opts.Until != nil
	if hasEnd {
		end = DateOnly(*opts.Until)
	}

	out := make([]time.Time, 0, opts.Count)
	anchor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for round := 0; round < maxIterations && len(out) < opts.Count; round++ {
		if hasEnd && monthAfter(anchor, end) {
			break
		}
		for _, weekday := range rule.weekdays {
			var candidate time.Time
			if rule.ordinal == OrdinalLast {
				candidate = lastWeekdayOfMonth(anchor, weekday)
			} else {
				var ok bool
				candidate, ok = nthWeekdayOfMonth(anchor, weekday, rule.ordinal.nth())
				if !ok {
					continue
				}
			}
			if candidate.Before(start) {
				continue
			}
			if hasEnd && candidate.After(end) {
				continue
			}
			out = append(out, candidate)
		}
		anchor = anchor.AddDate(0, rule.stepMonths, 0)
	}

	sortDates(out)
	if len(out) > opts.Count {
		out = out[:opts.Count]
	}
	return out
}

// nthWeekdayOfMonth resolves the nth occurrence of a weekday within the month
// that firstOfMonth starts. The second result is false when the month has no
// such occurrence.
func nthWeekdayOfMonth(firstOfMonth time.Time, weekday time.Weekday, n int) (time.Time, bool) {
	if n < 1 {
		return time.Time{}, false
	}
	offset := (int(weekday)-int(firstOfMonth.Weekday())+7)%7 + (n-1)*7
	candidate := firstOfMonth.AddDate(0, 0, offset)
	if candidate.Month() != firstOfMonth.Month() {
		return time.Time{}, false
	}
	return candidate, true
}

// lastWeekdayOfMonth walks backward from the final day of the month to the
// nearest matching weekday.
func lastWeekdayOfMonth(firstOfMonth time.Time, weekday time.Weekday) time.Time {
	day := firstOfMonth.AddDate(0, 1, -1)
	for day.Weekday() != weekday {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// monthAfter reports whether t falls in a later calendar month than bound.
func monthAfter(t, bound time.Time) bool {
	if t.Year() != bound.Year() {
		return t.Year() > bound.Year()
	}
	return t.Month() > bound.Month()
}

func sortDates(dates []time.Time) {
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
}
