package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reelscout/reelscout/internal/observability"
	"github.com/reelscout/reelscout/internal/output"
	"github.com/reelscout/reelscout/internal/tmdb"
	"github.com/reelscout/reelscout/internal/version"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// AppwriteOptions configures an AppwriteStore.
type AppwriteOptions struct {
	Endpoint     string
	ProjectID    string
	DatabaseID   string
	CollectionID string
	APIKey       string
	ImageBaseURL string
	HTTPClient   *http.Client
	Hooks        observability.Hooks
}

// AppwriteStore keeps search counts in an Appwrite database collection.
// Documents carry searchTerm, count, movie_id, title and poster_url.
type AppwriteStore struct {
	opts  AppwriteOptions
	http  *http.Client
	hooks observability.Hooks
	newID func() string
}

// NewAppwriteStore creates a store for the configured collection.
func NewAppwriteStore(opts AppwriteOptions) *AppwriteStore {
	opts.Endpoint = strings.TrimSuffix(opts.Endpoint, "/")
	s := &AppwriteStore{
		opts:  opts,
		http:  opts.HTTPClient,
		hooks: opts.Hooks,
		newID: func() string { return uuid.NewString() },
	}
	if s.http == nil {
		s.http = &http.Client{Timeout: 15 * time.Second}
	}
	if s.hooks == nil {
		s.hooks = observability.NopHooks{}
	}
	return s
}

type appwriteDocument struct {
	ID         string `json:"$id"`
	UpdatedAt  string `json:"$updatedAt"`
	SearchTerm string `json:"searchTerm"`
	Count      int    `json:"count"`
	MovieID    int64  `json:"movie_id"`
	Title      string `json:"title"`
	PosterURL  string `json:"poster_url"`
}

type documentList struct {
	Total     int                `json:"total"`
	Documents []appwriteDocument `json:"documents"`
}

// query encodes an Appwrite query as the JSON object the REST API expects.
func query(method, attribute string, values ...any) string {
	q := map[string]any{"method": method}
	if attribute != "" {
		q["attribute"] = attribute
	}
	if len(values) > 0 {
		q["values"] = values
	}
	b, _ := json.Marshal(q)
	return string(b)
}

// RecordSearch increments the document for term or creates it.
func (s *AppwriteStore) RecordSearch(ctx context.Context, term string, movie tmdb.Movie) (err error) {
	op := observability.OperationInfo{Service: "Appwrite", Operation: "RecordSearch"}
	start := time.Now()
	ctx = s.hooks.OnOperationStart(ctx, op)
	defer func() { s.hooks.OnOperationEnd(ctx, op, err, time.Since(start)) }()

	key := normalizeTerm(term)
	if key == "" {
		return ErrEmptyTerm
	}

	var list documentList
	if err := s.do(ctx, http.MethodGet, s.documentsPath(), url.Values{
		"queries[]": {query("equal", "searchTerm", key)},
	}, nil, &list); err != nil {
		return err
	}

	if len(list.Documents) > 0 {
		doc := list.Documents[0]
		body := map[string]any{"data": map[string]any{"count": doc.Count + 1}}
		return s.do(ctx, http.MethodPatch, s.documentsPath()+"/"+url.PathEscape(doc.ID), nil, body, nil)
	}

	body := map[string]any{
		"documentId": s.newID(),
		"data": map[string]any{
			"searchTerm": key,
			"count":      1,
			"movie_id":   movie.ID,
			"title":      movie.Title,
			"poster_url": movie.PosterURL(s.opts.ImageBaseURL),
		},
	}
	return s.do(ctx, http.MethodPost, s.documentsPath(), nil, body, nil)
}

// Trending lists the documents with the highest counts.
func (s *AppwriteStore) Trending(ctx context.Context, limit int) (searches []Search, err error) {
	op := observability.OperationInfo{Service: "Appwrite", Operation: "Trending"}
	start := time.Now()
	ctx = s.hooks.OnOperationStart(ctx, op)
	defer func() { s.hooks.OnOperationEnd(ctx, op, err, time.Since(start)) }()

	if limit <= 0 {
		limit = DefaultTrendingLimit
	}

	var list documentList
	if err := s.do(ctx, http.MethodGet, s.documentsPath(), url.Values{
		"queries[]": {query("limit", "", limit), query("orderDesc", "count")},
	}, nil, &list); err != nil {
		return nil, err
	}

	searches = make([]Search, 0, len(list.Documents))
	for _, doc := range list.Documents {
		updated, _ := time.Parse(time.RFC3339Nano, doc.UpdatedAt)
		searches = append(searches, Search{
			Term:      doc.SearchTerm,
			Count:     doc.Count,
			MovieID:   doc.MovieID,
			Title:     doc.Title,
			PosterURL: doc.PosterURL,
			UpdatedAt: updated,
		})
	}
	return searches, nil
}

func (s *AppwriteStore) documentsPath() string {
	return fmt.Sprintf("/databases/%s/collections/%s/documents",
		url.PathEscape(s.opts.DatabaseID), url.PathEscape(s.opts.CollectionID))
}

func (s *AppwriteStore) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	rawURL := s.opts.Endpoint + path
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return err
	}
	req.Header.Set("X-Appwrite-Project", s.opts.ProjectID)
	req.Header.Set("X-Appwrite-Key", s.opts.APIKey)
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	info := observability.RequestInfo{Method: method, URL: rawURL}
	reqCtx := s.hooks.OnRequestStart(ctx, info)
	start := time.Now()

	resp, err := s.http.Do(req)
	if err != nil {
		s.hooks.OnRequestEnd(reqCtx, info, observability.RequestResult{Duration: time.Since(start), Error: err})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return output.ErrNetwork(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err == nil && len(data) > maxResponseBytes {
		err = fmt.Errorf("response exceeds %d bytes", maxResponseBytes)
	}
	s.hooks.OnRequestEnd(reqCtx, info, observability.RequestResult{
		StatusCode: resp.StatusCode,
		Duration:   time.Since(start),
		Error:      err,
	})
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		msg := fmt.Sprintf("Appwrite request failed (HTTP %d)", resp.StatusCode)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			msg = "Appwrite: " + apiErr.Message
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return output.ErrAuthHint(msg, "Run: reelscout auth login --appwrite")
		case http.StatusForbidden:
			return output.ErrForbidden(msg)
		case http.StatusNotFound:
			return output.ErrNotFound("collection", s.opts.CollectionID)
		default:
			return output.ErrAPI(resp.StatusCode, msg)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
