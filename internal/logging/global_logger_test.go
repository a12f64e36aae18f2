package logging

import (
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

func TestLogFormatter(t *testing.T) {
	formatter := &LogFormatter{}
	entry := &log.Entry{
		Logger:  log.New(),
		Time:    time.Date(2026, 8, 31, 20, 14, 4, 0, time.UTC),
		Level:   log.InfoLevel,
		Message: "waiting for callback\n",
		Data:    log.Fields{"flow_id": "a1b2c3d4", "port": 15000},
	}

	out, err := formatter.Format(entry)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	line := string(out)

	if !strings.HasPrefix(line, "[2026-08-31 20:14:04] [a1b2c3d4] [info ]") {
		t.Fatalf("unexpected prefix: %q", line)
	}
	if !strings.Contains(line, "waiting for callback") {
		t.Fatalf("message missing from %q", line)
	}
	if !strings.Contains(line, "port=15000") {
		t.Fatalf("ordered field missing from %q", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Fatalf("line %q should end with a newline", line)
	}
}

func TestLogFormatterWithoutFlowID(t *testing.T) {
	formatter := &LogFormatter{}
	entry := &log.Entry{
		Logger:  log.New(),
		Time:    time.Date(2026, 8, 31, 20, 14, 4, 0, time.UTC),
		Level:   log.WarnLevel,
		Message: "hello",
	}

	out, err := formatter.Format(entry)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	line := string(out)

	if !strings.Contains(line, "[--------]") {
		t.Fatalf("placeholder flow id missing from %q", line)
	}
	if !strings.Contains(line, "[warn ]") {
		t.Fatalf("warning level should render as warn: %q", line)
	}
}
