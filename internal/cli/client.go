package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adarsh-anand15/quantum-learning/internal/modules/runs"
	"github.com/adarsh-anand15/quantum-learning/internal/synthesis"
	"github.com/adarsh-anand15/quantum-learning/internal/targets"
)

// Client is a thin HTTP client for the server's JSON API. Responses arrive
// wrapped in a {data, metadata} envelope; errors as {error}.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the given server base URL.
func NewClient(server string) *Client {
	return &Client{
		base: strings.TrimRight(server, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// TargetCatalog is the /api/targets payload.
type TargetCatalog struct {
	Gates  []targets.Info `json:"gates"`
	States []targets.Info `json:"states"`
}

// SubmitRun submits an experiment. The body is sent as-is, so partial
// specs keep the server-side defaults for every omitted field.
func (c *Client) SubmitRun(body interface{}) (*runs.Run, error) {
	var run runs.Run
	if err := c.post("/api/runs", body, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns lists runs, newest first. Empty filter values are omitted and a
// limit of 0 means no limit.
func (c *Client) ListRuns(status, kind string, limit int) ([]*runs.Run, error) {
	query := make([]string, 0, 3)
	if status != "" {
		query = append(query, "status="+status)
	}
	if kind != "" {
		query = append(query, "kind="+kind)
	}
	if limit > 0 {
		query = append(query, "limit="+strconv.Itoa(limit))
	}
	path := "/api/runs"
	if len(query) > 0 {
		path += "?" + strings.Join(query, "&")
	}

	var payload struct {
		Runs []*runs.Run `json:"runs"`
	}
	if err := c.get(path, &payload); err != nil {
		return nil, err
	}
	return payload.Runs, nil
}

// GetRun fetches one run by ID.
func (c *Client) GetRun(id string) (*runs.Run, error) {
	var run runs.Run
	if err := c.get("/api/runs/"+id, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// CancelRun requests cancellation and returns the updated run.
func (c *Client) CancelRun(id string) (*runs.Run, error) {
	var run runs.Run
	if err := c.post("/api/runs/"+id+"/cancel", nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// Trace fetches the per-iteration training trace of a run.
func (c *Client) Trace(id string) ([]synthesis.TracePoint, error) {
	var payload struct {
		Trace []synthesis.TracePoint `json:"trace"`
	}
	if err := c.get("/api/runs/"+id+"/trace", &payload); err != nil {
		return nil, err
	}
	return payload.Trace, nil
}

// Params fetches the optimized parameter vector of a run.
func (c *Client) Params(id string) ([]float64, error) {
	var payload struct {
		Params []float64 `json:"params"`
	}
	if err := c.get("/api/runs/"+id+"/params", &payload); err != nil {
		return nil, err
	}
	return payload.Params, nil
}

// Presets lists the experiment presets known to the server.
func (c *Client) Presets() ([]runs.Preset, error) {
	var payload struct {
		Presets []runs.Preset `json:"presets"`
	}
	if err := c.get("/api/presets", &payload); err != nil {
		return nil, err
	}
	return payload.Presets, nil
}

// Targets fetches the gate and state target catalogs.
func (c *Client) Targets() (*TargetCatalog, error) {
	var catalog TargetCatalog
	if err := c.get("/api/targets", &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

func (c *Client) get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(http.MethodPost, c.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do sends the request, surfaces server errors as Go errors, and decodes
// the data half of the envelope into out.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach server at %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var failure struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &failure) == nil && failure.Error != "" {
			return fmt.Errorf("%s", failure.Error)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}
