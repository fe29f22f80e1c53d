package warehouse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the production warehouse endpoint. Tests point the client
// at an httptest server instead.
const DefaultBaseURL = "https://bigquery.googleapis.com"

var (
	// ErrTransport covers HTTP failures and non-2xx responses.
	ErrTransport = errors.New("warehouse: transport error")
	// ErrDeserialize covers responses that cannot be parsed into a result set.
	ErrDeserialize = errors.New("warehouse: failed to deserialize response")
)

// Client executes SQL texts against the warehouse. It is stateless; each
// Query fetches a token and performs one POST.
type Client struct {
	base    string
	project string
	tokens  TokenSource
	http    *http.Client
	log     *zap.SugaredLogger
}

func NewClient(base, project string, tokens TokenSource, log *zap.SugaredLogger) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		base:    base,
		project: project,
		tokens:  tokens,
		http:    &http.Client{Timeout: 60 * time.Second},
		log:     log,
	}
}

type queryRequest struct {
	Kind         string `json:"kind"`
	Query        string `json:"query"`
	UseLegacySQL bool   `json:"useLegacySql"`
}

type queryResponse struct {
	JobComplete bool `json:"jobComplete"`
	Schema      struct {
		Fields []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"fields"`
	} `json:"schema"`
	Rows []struct {
		F []struct {
			V interface{} `json:"v"`
		} `json:"f"`
	} `json:"rows"`
}

// Query runs sql and returns the finite, non-restartable cursor over the
// response rows.
func (c *Client) Query(ctx context.Context, sql string) (*ResultSet, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	payload, err := json.Marshal(queryRequest{
		Kind:         "bigquery#queryResponse",
		Query:        sql,
		UseLegacySQL: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query request: %w", err)
	}

	url := fmt.Sprintf("%s/bigquery-like/v2/projects/%s/queries", c.base, c.project)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build query request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: warehouse returned %d", ErrTransport, resp.StatusCode)
	}

	var body queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserialize, err)
	}
	if !body.JobComplete {
		return nil, fmt.Errorf("%w: job did not complete", ErrDeserialize)
	}

	columns := make(map[string]int, len(body.Schema.Fields))
	for i, f := range body.Schema.Fields {
		columns[f.Name] = i
	}
	rows := make([][]interface{}, 0, len(body.Rows))
	for _, r := range body.Rows {
		cells := make([]interface{}, len(r.F))
		for i, cell := range r.F {
			cells[i] = cell.V
		}
		rows = append(rows, cells)
	}
	c.log.Debugw("warehouse query complete", "rows", len(rows))
	return &ResultSet{columns: columns, rows: rows, pos: -1}, nil
}
