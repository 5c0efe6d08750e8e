package devtools

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

	"github.com/gorilla/websocket"
	"github.com/vango-dev/observable/pkg/observable"
	"github.com/vango-dev/observable/pkg/snapshot"
	"github.com/vango-dev/observable/pkg/store"
)

// APIError is returned by Client when the server answers with a non-2xx
// status. 404 responses unwrap to store.ErrNotFound or snapshot.ErrNotFound
// depending on the route.
type APIError struct {
	Status  int
	Message string

	notFound error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("devtools: %d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// Unwrap returns the package sentinel matching a 404 response.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return e.notFound
	}
	return nil
}

// Client talks to a running devtools Server.
type Client struct {
	baseURL string
	client  *http.Client
	dialer  *websocket.Dialer
}

// NewClient creates a client for the server at baseURL, e.g.
// "http://localhost:7070".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		dialer: websocket.DefaultDialer,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, notFound error, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("devtools: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error, notFound: notFound}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("devtools: decode %s response: %w", path, err)
	}
	return nil
}

// Cells lists every cell on the server.
func (c *Client) Cells(ctx context.Context) ([]CellInfo, error) {
	var cells []CellInfo
	err := c.do(ctx, http.MethodGet, "/cells", nil, store.ErrNotFound, &cells)
	return cells, err
}

// Cell returns one cell.
func (c *Client) Cell(ctx context.Context, name string) (CellInfo, error) {
	var info CellInfo
	err := c.do(ctx, http.MethodGet, "/cells/"+url.PathEscape(name), nil, store.ErrNotFound, &info)
	return info, err
}

// Set writes a JSON-encoded value to a cell and returns the cell after the
// write. A vetoed write returns the unchanged cell.
func (c *Client) Set(ctx context.Context, name string, value json.RawMessage) (CellInfo, error) {
	var info CellInfo
	err := c.do(ctx, http.MethodPut, "/cells/"+url.PathEscape(name), value, store.ErrNotFound, &info)
	return info, err
}

// Snapshots lists the stored snapshot keys.
func (c *Client) Snapshots(ctx context.Context) ([]string, error) {
	var keys []string
	err := c.do(ctx, http.MethodGet, "/snapshots", nil, snapshot.ErrNotFound, &keys)
	return keys, err
}

// SaveSnapshot stores the server's cells under key.
func (c *Client) SaveSnapshot(ctx context.Context, key string) (SnapshotInfo, error) {
	var info SnapshotInfo
	err := c.do(ctx, http.MethodPut, "/snapshots/"+url.PathEscape(key), nil, snapshot.ErrNotFound, &info)
	return info, err
}

// Snapshot returns the document stored under key.
func (c *Client) Snapshot(ctx context.Context, key string) (*snapshot.Document, error) {
	var doc snapshot.Document
	if err := c.do(ctx, http.MethodGet, "/snapshots/"+url.PathEscape(key), nil, snapshot.ErrNotFound, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteSnapshot removes the snapshot under key.
func (c *Client) DeleteSnapshot(ctx context.Context, key string) error {
	return c.do(ctx, http.MethodDelete, "/snapshots/"+url.PathEscape(key), nil, snapshot.ErrNotFound, nil)
}

// RestoreSnapshot writes the snapshot under key back into the server's cells.
func (c *Client) RestoreSnapshot(ctx context.Context, key string) (SnapshotInfo, error) {
	var info SnapshotInfo
	err := c.do(ctx, http.MethodPost, "/snapshots/"+url.PathEscape(key)+"/restore", nil, snapshot.ErrNotFound, &info)
	return info, err
}

// Watch streams the changes of a cell to fn until ctx is done or the
// connection drops. The first call carries the current value.
func (c *Client) Watch(ctx context.Context, name string, fn func(observable.AnyChange)) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/cells/" + url.PathEscape(name) + "/watch"
	conn, resp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return &APIError{Status: resp.StatusCode, Message: "cell not found: " + name, notFound: store.ErrNotFound}
		}
		return fmt.Errorf("devtools: watch %q: %w", name, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	for {
		var change observable.AnyChange
		if err := conn.ReadJSON(&change); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("devtools: watch %q: %w", name, err)
		}
		fn(change)
	}
}
