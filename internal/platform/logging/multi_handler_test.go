package logging

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type failingHandler struct {
	slog.Handler
}

func (failingHandler) Handle(context.Context, slog.Record) error { //nolint:gocritic // slog.Handler interface requires value
	return errors.New("disk full")
}

func TestMultiHandler_Enabled(t *testing.T) {
	debug := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	errorOnly := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError})

	assert.True(t, NewMultiHandler(debug, errorOnly).Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, NewMultiHandler(errorOnly, errorOnly).Enabled(context.Background(), slog.LevelWarn))
	assert.False(t, NewMultiHandler().Enabled(context.Background(), slog.LevelError))
}

func TestMultiHandler_HandleRespectsEachLevel(t *testing.T) {
	var console, file bytes.Buffer

	logger := slog.New(NewMultiHandler(
		slog.NewJSONHandler(&console, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelInfo}),
	))

	logger.Info("call analysed")
	logger.Debug("transcript received")

	assert.Contains(t, console.String(), "call analysed")
	assert.Contains(t, console.String(), "transcript received")
	assert.Contains(t, file.String(), "call analysed")
	assert.NotContains(t, file.String(), "transcript received")
}

func TestMultiHandler_HandleReturnsFirstError(t *testing.T) {
	var buf bytes.Buffer

	multi := NewMultiHandler(
		failingHandler{Handler: slog.NewJSONHandler(io.Discard, nil)},
		slog.NewJSONHandler(&buf, nil),
	)

	err := multi.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "stored", 0))

	assert.EqualError(t, err, "disk full")
	assert.Contains(t, buf.String(), "stored", "later handlers still receive the record")
}

func TestMultiHandler_AttrsAndGroups(t *testing.T) {
	var a, b bytes.Buffer

	multi := NewMultiHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil))
	logger := slog.New(multi.WithAttrs([]slog.Attr{slog.String("component", "events")}).WithGroup("call"))

	logger.Info("queued", slog.String("id", "c-1"))

	for _, out := range []string{a.String(), b.String()} {
		assert.Contains(t, out, `"component":"events"`)
		assert.Contains(t, out, `"call":{"id":"c-1"}`)
	}
}
