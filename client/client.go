// Package client is a typed Go client for the admin HTTP API. It keeps a
// per-collection cache of records and applies drag-and-drop reorders and flag
// toggles optimistically: the local cache changes first, the server is asked
// to persist, and any persistence failure discards the optimistic state by
// refetching the collection. Callers decide whether to retry; the client
// never does.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shulesite/core/content"
)

// ErrSessionExpired is returned when the API rejects the token; the caller
// should send the user back through login rather than treat it as a data error.
var ErrSessionExpired = errors.New("session expired")

const defaultTimeout = 10 * time.Second

type collectionKey struct {
	kind content.Kind
	page string
}

type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	timeout time.Duration

	mu    sync.RWMutex
	cache map[collectionKey][]content.Record
}

// NewClient returns a client for the API at baseURL authenticating with token.
// timeout bounds every request; 0 falls back to a sane default so a hung
// server cannot stall the admin UI.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: timeout},
		timeout: timeout,
		cache:   make(map[collectionKey][]content.Record),
	}
}

// Load refetches the collection from the server and replaces the cache.
func (c *Client) Load(ctx context.Context, kind content.Kind, page string) ([]content.Record, error) {
	path := fmt.Sprintf("/v1/admin/content/%s", kind)
	if page != "" {
		path += "?page=" + url.QueryEscape(page)
	}

	var records []content.Record
	if err := c.do(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[collectionKey{kind, page}] = records
	c.mu.Unlock()
	return c.Records(ctx, kind, page)
}

// Records returns the cached collection, loading it on first use. The
// returned slice is a copy; mutating it does not affect the cache.
func (c *Client) Records(ctx context.Context, kind content.Kind, page string) ([]content.Record, error) {
	c.mu.RLock()
	records, ok := c.cache[collectionKey{kind, page}]
	c.mu.RUnlock()
	if !ok {
		return c.Load(ctx, kind, page)
	}
	cp := make([]content.Record, len(records))
	copy(cp, records)
	return cp, nil
}

// Reorder moves the record at src to dst within the collection. The cache is
// updated immediately and the new orders are persisted in one atomic call; if
// persistence fails for any reason (rejection, timeout, dead server) the
// optimistic state is discarded by refetching and the error is returned.
func (c *Client) Reorder(ctx context.Context, kind content.Kind, page string, src, dst int) ([]content.Record, error) {
	current, err := c.Records(ctx, kind, page)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(current))
	for i, r := range current {
		ids[i] = r.ID
	}
	pairs, err := content.ReorderSequence(ids, src, dst)
	if err != nil {
		return nil, err
	}

	moved, err := content.MoveRecord(current, src, dst)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.cache[collectionKey{kind, page}] = moved
	c.mu.Unlock()

	data := reorderRequest{Page: page, Items: content.ChangedPairs(pairs, current)}
	path := fmt.Sprintf("/v1/admin/content/%s/reorder", kind)
	if err := c.do(ctx, http.MethodPut, path, data, nil); err != nil {
		if _, lerr := c.Load(ctx, kind, page); lerr != nil {
			// server truth is unreachable too; drop the stale cache so the
			// next read refetches.
			c.mu.Lock()
			delete(c.cache, collectionKey{kind, page})
			c.mu.Unlock()
		}
		return nil, err
	}
	return c.Records(ctx, kind, page)
}

// SetVisible flips the record's visible flag, optimistically in the cache
// first; on failure the collection is refetched and the error returned.
func (c *Client) SetVisible(ctx context.Context, kind content.Kind, page, id string, visible bool) (content.Record, error) {
	c.flip(kind, page, id, func(r *content.Record) { r.Visible = visible })

	var rec content.Record
	path := fmt.Sprintf("/v1/admin/content/%s/%s/visible", kind, id)
	if err := c.do(ctx, http.MethodPut, path, visibleRequest{Visible: &visible}, &rec); err != nil {
		_, _ = c.Load(ctx, kind, page)
		return content.Record{}, err
	}
	c.replace(kind, page, rec)
	return rec, nil
}

// SetPublished flips the record's published flag with the same optimistic
// policy as SetVisible.
func (c *Client) SetPublished(ctx context.Context, kind content.Kind, page, id string, published bool) (content.Record, error) {
	c.flip(kind, page, id, func(r *content.Record) { r.Published = &published })

	var rec content.Record
	path := fmt.Sprintf("/v1/admin/content/%s/%s/published", kind, id)
	if err := c.do(ctx, http.MethodPut, path, publishedRequest{Published: &published}, &rec); err != nil {
		_, _ = c.Load(ctx, kind, page)
		return content.Record{}, err
	}
	c.replace(kind, page, rec)
	return rec, nil
}

func (c *Client) flip(kind content.Kind, page, id string, apply func(*content.Record)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	records := c.cache[collectionKey{kind, page}]
	for i := range records {
		if records[i].ID == id {
			apply(&records[i])
			return
		}
	}
}

func (c *Client) replace(kind content.Kind, page string, rec content.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	records := c.cache[collectionKey{kind, page}]
	for i := range records {
		if records[i].ID == rec.ID {
			records[i] = rec
			return
		}
	}
}

// wire types mirroring the admin API requests

type (
	reorderRequest struct {
		Page  string              `json:"page,omitempty"`
		Items []content.OrderPair `json:"items"`
	}

	visibleRequest struct {
		Visible *bool `json:"visible"`
	}

	publishedRequest struct {
		Published *bool `json:"published"`
	}

	apiError struct {
		Error string `json:"error"`
	}
)

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshalling request body")
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrSessionExpired
	case resp.StatusCode == http.StatusNotFound:
		return content.ErrNotFound
	case resp.StatusCode >= 400:
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return errors.Errorf("%s %s: %s (%d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return errors.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(err, "decoding response body")
		}
	}
	return nil
}
