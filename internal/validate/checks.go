package validate

import (
	"fmt"
	"time"
)

// DefaultCutoff is how long before a service's start time request submission
// closes when the caller does not configure a cutoff.
const DefaultCutoff = time.Hour

// MaxRecurringSpanMonths bounds how far ahead a recurring submission may book.
const MaxRecurringSpanMonths = 3

// Result reports the outcome of a single booking check. Checks never fail the
// program: business violations come back as a failed Result with a reason the
// caller can surface verbatim.
type Result struct {
	OK     bool
	Reason string
}

func pass() Result {
	return Result{OK: true}
}

func fail(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// Timing checks that now has not passed the submission cutoff for a candidate
// request date. The service start is the request date combined with the
// service's HH:MM start time; the cutoff falls that long before it. The
// evaluation instant must be the caller's clock at submission time.
func Timing(timeOfDay string, requestDate, now time.Time, cutoff time.Duration) Result {
	if cutoff <= 0 {
		cutoff = DefaultCutoff
	}

	parsed, err := time.Parse("15:04", timeOfDay)
	if err != nil {
		return fail("service start time %q is not a valid HH:MM value", timeOfDay)
	}

	serviceStart := time.Date(
		requestDate.Year(), requestDate.Month(), requestDate.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, now.Location(),
	)
	closesAt := serviceStart.Add(-cutoff)

	if now.After(closesAt) {
		return fail("requests for the %s service on %s closed at %s",
			timeOfDay, serviceStart.Format("2006-01-02"), closesAt.Format("2006-01-02 15:04"))
	}
	return pass()
}

// Weekday checks that the candidate date falls on the weekday the chosen
// service day expects.
func Weekday(expected time.Weekday, requestDate time.Time) Result {
	if requestDate.Weekday() != expected {
		return fail("%s falls on a %s; this service day runs on %s",
			requestDate.Format("2006-01-02"), requestDate.Weekday(), expected)
	}
	return pass()
}

// RecurringSpan checks the end date supplied with a recurring submission: it
// is mandatory, must not precede the request date, and may reach at most
// three months past it. The three-month boundary itself is allowed. The check
// passes trivially for non-recurring requests.
func RecurringSpan(recurring bool, requestDate time.Time, endDate *time.Time) Result {
	if !recurring {
		return pass()
	}
	if endDate == nil {
		return fail("recurring requests require an end date")
	}

	start := dateOnly(requestDate)
	end := dateOnly(*endDate)
	if end.Before(start) {
		return fail("end date %s is before the request date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	if limit := start.AddDate(0, MaxRecurringSpanMonths, 0); end.After(limit) {
		return fail("recurring requests may extend at most %d months past the request date", MaxRecurringSpanMonths)
	}
	return pass()
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
