package tracing

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanTree(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "ingest", "")
	require.NotEmpty(t, root.TraceID)

	_, child := StartChildSpan(ctx, "tokenize")
	child.SetAttr("words", 4)
	child.End(nil)
	_, failed := StartChildSpan(ctx, "store")
	failed.End(errors.New("duplicate"))
	root.End(nil)

	require.Len(t, root.Children, 2)
	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Same(t, root, SpanFromContext(ctx))

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	root.Log(logger)

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "msg=span"))
	assert.Contains(t, out, "words=4")
	assert.Contains(t, out, "error=duplicate")
}

func TestChildWithoutParent(t *testing.T) {
	_, span := StartChildSpan(context.Background(), "orphan")
	assert.NotEmpty(t, span.TraceID)
	assert.Empty(t, span.Children)
}
