package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := context.Background()
	ctx = log.WithRequestID(ctx, "req-123")

	log.Error(ctx, "boom", errors.New("boom"))

	if !bytes.Contains(buf.Bytes(), []byte("\"request_id\"")) {
		t.Fatalf("expected request_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("expected stack trace on error; entry=%s", buf.String())
	}
}

func TestRequestIDIsReadableFromContext(t *testing.T) {
	log := New(Options{ServiceName: "test", Output: &bytes.Buffer{}})
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
	ctx := log.WithRequestID(context.Background(), "req-9")
	if got := RequestIDFromContext(ctx); got != "req-9" {
		t.Fatalf("expected req-9, got %q", got)
	}
}

func TestLoggerActorFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})

	log.Info(log.WithActor(context.Background(), "u-1", "store", ""), "acting")
	if !bytes.Contains(buf.Bytes(), []byte(`"actor_role":"store"`)) || bytes.Contains(buf.Bytes(), []byte("company_id")) {
		t.Fatalf("unexpected actor fields entry=%s", buf.String())
	}
}

func TestLoggerSubOrderFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithSubOrder(context.Background(), "aggregated", "sub-1")
	ctx = log.WithCompanyID(ctx, "co-9")
	log.Info(ctx, "transitioned")

	for _, field := range []string{`"order_kind":"aggregated"`, `"sub_order_id":"sub-1"`, `"company_id":"co-9"`} {
		if !bytes.Contains(buf.Bytes(), []byte(field)) {
			t.Fatalf("expected %s in entry=%s", field, buf.String())
		}
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf, WarnStack: true})
	log.Warn(context.Background(), "warny")
	if !bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("expected stack when warn stack enabled")
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
	if lvl := ParseLevel(" DEBUG "); lvl != zerolog.DebugLevel {
		t.Fatalf("expected debug, got %v", lvl)
	}
}

func TestConsoleFormatIsNotJSON(t *testing.T) {
	jsonBuf, consoleBuf := &bytes.Buffer{}, &bytes.Buffer{}
	New(Options{ServiceName: "test", Output: jsonBuf}).Info(context.Background(), "hello")
	New(Options{ServiceName: "test", Format: "console", Output: consoleBuf}).Info(context.Background(), "hello")

	if !bytes.HasPrefix(jsonBuf.Bytes(), []byte("{")) {
		t.Fatalf("expected json entry, got %s", jsonBuf.String())
	}
	if bytes.HasPrefix(consoleBuf.Bytes(), []byte("{")) || !bytes.Contains(consoleBuf.Bytes(), []byte("hello")) {
		t.Fatalf("expected console entry, got %s", consoleBuf.String())
	}
}
