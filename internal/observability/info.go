package observability

import (
	"context"
	"time"
)

// OperationInfo describes a semantic client operation such as a movie search.
type OperationInfo struct {
	Service   string // e.g., "TMDB", "Appwrite"
	Operation string // e.g., "SearchMovies", "RecordSearch"
}

// RequestInfo describes an outgoing HTTP request.
type RequestInfo struct {
	Method string
	URL    string
}

// RequestResult describes the outcome of an HTTP request.
type RequestResult struct {
	StatusCode int
	Duration   time.Duration
	Error      error
}

// Hooks receives lifecycle callbacks from the HTTP clients.
type Hooks interface {
	OnOperationStart(ctx context.Context, op OperationInfo) context.Context
	OnOperationEnd(ctx context.Context, op OperationInfo, err error, duration time.Duration)
	OnRequestStart(ctx context.Context, info RequestInfo) context.Context
	OnRequestEnd(ctx context.Context, info RequestInfo, result RequestResult)
}

// NopHooks ignores every callback.
type NopHooks struct{}

func (NopHooks) OnOperationStart(ctx context.Context, _ OperationInfo) context.Context { return ctx }
func (NopHooks) OnOperationEnd(context.Context, OperationInfo, error, time.Duration)   {}
func (NopHooks) OnRequestStart(ctx context.Context, _ RequestInfo) context.Context     { return ctx }
func (NopHooks) OnRequestEnd(context.Context, RequestInfo, RequestResult)              {}
