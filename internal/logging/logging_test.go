package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := ContextWithLogger(context.Background(), logger)

	if got := FromContext(ctx); got != logger {
		t.Fatalf("expected the attached logger back, got %v", got)
	}
	if got := FromContext(context.Background()); got != nil {
		t.Fatalf("expected nil for a bare context, got %v", got)
	}
}

func TestNewFormatsAndLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, "json", "warn")
	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Fatalf("info record should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"loud"`) {
		t.Fatalf("expected JSON warn record, got: %s", out)
	}

	buf.Reset()
	New(&buf, "text", "debug").Debug("verbose")
	if !strings.Contains(buf.String(), "msg=verbose") {
		t.Fatalf("expected text debug record, got: %s", buf.String())
	}
}
