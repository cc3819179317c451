package validate

import (
	"strings"
	"testing"
	"time"
)

func TestTiming(t *testing.T) {
	t.Parallel()

	serviceDay := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	t.Run("fails inside the cutoff window", func(t *testing.T) {
		t.Parallel()

		// 09:00 service with a one hour cutoff closes at 08:00.
		now := time.Date(2024, time.March, 10, 8, 30, 0, 0, time.UTC)
		res := Timing("09:00", serviceDay, now, time.Hour)

		if res.OK {
			t.Fatal("expected timing check to fail at 08:30 for a 09:00 service")
		}
		if res.Reason == "" {
			t.Fatal("expected a reason for the failure")
		}
	})

	t.Run("passes before the cutoff", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2024, time.March, 9, 8, 30, 0, 0, time.UTC)
		if res := Timing("09:00", serviceDay, now, time.Hour); !res.OK {
			t.Fatalf("expected prior day submission to pass, got: %s", res.Reason)
		}
	})

	t.Run("passes exactly at the cutoff", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)
		if res := Timing("09:00", serviceDay, now, time.Hour); !res.OK {
			t.Fatalf("expected submission at the cutoff instant to pass, got: %s", res.Reason)
		}
	})

	t.Run("defaults the cutoff to one hour", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2024, time.March, 10, 8, 30, 0, 0, time.UTC)
		if res := Timing("09:00", serviceDay, now, 0); res.OK {
			t.Fatal("expected default cutoff to apply when none configured")
		}
	})

	t.Run("rejects malformed service times", func(t *testing.T) {
		t.Parallel()

		res := Timing("morning", serviceDay, serviceDay, time.Hour)
		if res.OK {
			t.Fatal("expected malformed time of day to fail")
		}
		if !strings.Contains(res.Reason, "HH:MM") {
			t.Fatalf("unexpected reason: %s", res.Reason)
		}
	})
}

func TestWeekday(t *testing.T) {
	t.Parallel()

	monday := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	if res := Weekday(time.Monday, monday); !res.OK {
		t.Fatalf("expected monday to match, got: %s", res.Reason)
	}

	res := Weekday(time.Sunday, monday)
	if res.OK {
		t.Fatal("expected monday to mismatch a sunday service day")
	}
	if !strings.Contains(res.Reason, "Sunday") {
		t.Fatalf("expected the reason to name the expected weekday, got: %s", res.Reason)
	}
}

func TestRecurringSpan(t *testing.T) {
	t.Parallel()

	requestDate := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	t.Run("non-recurring requests pass without an end date", func(t *testing.T) {
		t.Parallel()

		if res := RecurringSpan(false, requestDate, nil); !res.OK {
			t.Fatalf("expected pass, got: %s", res.Reason)
		}
	})

	t.Run("recurring requests require an end date", func(t *testing.T) {
		t.Parallel()

		if res := RecurringSpan(true, requestDate, nil); res.OK {
			t.Fatal("expected missing end date to fail")
		}
	})

	t.Run("end date before the request date fails", func(t *testing.T) {
		t.Parallel()

		end := requestDate.AddDate(0, 0, -1)
		if res := RecurringSpan(true, requestDate, &end); res.OK {
			t.Fatal("expected earlier end date to fail")
		}
	})

	t.Run("exactly three months is allowed", func(t *testing.T) {
		t.Parallel()

		end := requestDate.AddDate(0, 3, 0)
		if res := RecurringSpan(true, requestDate, &end); !res.OK {
			t.Fatalf("expected inclusive three month boundary to pass, got: %s", res.Reason)
		}
	})

	t.Run("beyond three months fails", func(t *testing.T) {
		t.Parallel()

		end := requestDate.AddDate(0, 3, 1)
		if res := RecurringSpan(true, requestDate, &end); res.OK {
			t.Fatal("expected span past three months to fail")
		}
	})
}
