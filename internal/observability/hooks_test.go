package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	searchOp   = OperationInfo{Service: "TMDB", Operation: "SearchMovies"}
	searchReq  = RequestInfo{Method: "GET", URL: "https://api.themoviedb.org/3/search/movie?query=heat"}
	searchResp = RequestResult{StatusCode: 200, Duration: 45 * time.Millisecond}
)

func runSearch(h Hooks) {
	ctx := context.Background()
	opCtx := h.OnOperationStart(ctx, searchOp)
	reqCtx := h.OnRequestStart(opCtx, searchReq)
	h.OnRequestEnd(reqCtx, searchReq, searchResp)
	h.OnOperationEnd(opCtx, searchOp, nil, 50*time.Millisecond)
}

func TestCLIHooks_SetLevel(t *testing.T) {
	h := NewCLIHooks(0, nil, nil)

	assert.Equal(t, 0, h.Level())

	h.SetLevel(2)
	assert.Equal(t, 2, h.Level())
}

func TestCLIHooks_Level0_Silent(t *testing.T) {
	var buf bytes.Buffer
	collector := NewSessionCollector()
	h := NewCLIHooks(0, collector, NewTraceWriterTo(&buf))

	runSearch(h)

	assert.Equal(t, 0, buf.Len(), "expected no output at level 0")

	summary := collector.Summary()
	assert.Equal(t, 1, summary.TotalOperations)
	assert.Equal(t, 1, summary.TotalRequests)
}

func TestCLIHooks_Level1_OperationsOnly(t *testing.T) {
	var buf bytes.Buffer
	h := NewCLIHooks(1, nil, NewTraceWriterTo(&buf))

	runSearch(h)

	output := buf.String()
	assert.Contains(t, output, "Calling TMDB.SearchMovies")
	assert.Contains(t, output, "Completed TMDB.SearchMovies")
	assert.NotContains(t, output, "GET", "unexpected request output at level 1")
}

func TestCLIHooks_Level2_OperationsAndRequests(t *testing.T) {
	var buf bytes.Buffer
	h := NewCLIHooks(2, nil, NewTraceWriterTo(&buf))

	runSearch(h)

	output := buf.String()
	assert.Contains(t, output, "Calling TMDB.SearchMovies")
	assert.Contains(t, output, "-> GET https://api.themoviedb.org/3/search/movie?query=heat")
	assert.Contains(t, output, "<- 200")
}

func TestCLIHooks_OperationError(t *testing.T) {
	var buf, logs bytes.Buffer
	collector := NewSessionCollector()
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	h := NewCLIHooks(1, collector, NewTraceWriterTo(&buf)).WithLogger(logger)

	ctx := h.OnOperationStart(context.Background(), searchOp)
	h.OnOperationEnd(ctx, searchOp, errors.New("Failed to fetch movies: Unauthorized"), 50*time.Millisecond)

	assert.Contains(t, buf.String(), "Failed TMDB.SearchMovies")
	assert.Contains(t, buf.String(), "Unauthorized")
	assert.Contains(t, logs.String(), "operation failed")
	assert.Contains(t, logs.String(), "operation=SearchMovies")

	summary := collector.Summary()
	assert.Equal(t, 1, summary.TotalOperations)
	assert.Equal(t, 1, summary.FailedOps)
}

func TestCLIHooks_FailedRequestCounted(t *testing.T) {
	collector := NewSessionCollector()
	h := NewCLIHooks(0, collector, nil)

	h.OnRequestEnd(context.Background(), searchReq, RequestResult{StatusCode: 500})
	h.OnRequestEnd(context.Background(), searchReq, RequestResult{Error: errors.New("connection refused")})
	h.OnRequestEnd(context.Background(), searchReq, searchResp)

	summary := collector.Summary()
	assert.Equal(t, 3, summary.TotalRequests)
	assert.Equal(t, 2, summary.FailedRequests)
}

func TestCLIHooks_DebugLogScrubsSecrets(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := NewCLIHooks(0, nil, nil).WithLogger(logger)

	info := RequestInfo{Method: "GET", URL: "https://api.themoviedb.org/3/search/movie?api_key=hunter2&query=heat"}
	h.OnRequestEnd(context.Background(), info, searchResp)

	assert.Contains(t, logs.String(), "http request")
	assert.NotContains(t, logs.String(), "hunter2")
}

func TestCLIHooks_NilCollector(t *testing.T) {
	var buf bytes.Buffer
	h := NewCLIHooks(2, nil, NewTraceWriterTo(&buf))

	runSearch(h)

	assert.True(t, buf.Len() > 0, "expected output even with nil collector")
}

func TestCLIHooks_NilWriter(t *testing.T) {
	collector := NewSessionCollector()
	h := NewCLIHooks(2, collector, nil)

	runSearch(h)

	summary := collector.Summary()
	assert.Equal(t, 1, summary.TotalOperations)
	assert.Equal(t, 1, summary.TotalRequests)
}

func TestNopHooks(t *testing.T) {
	ctx := context.Background()
	var h Hooks = NopHooks{}
	assert.Equal(t, ctx, h.OnOperationStart(ctx, searchOp))
	assert.Equal(t, ctx, h.OnRequestStart(ctx, searchReq))
	h.OnRequestEnd(ctx, searchReq, searchResp)
	h.OnOperationEnd(ctx, searchOp, nil, 0)
}
