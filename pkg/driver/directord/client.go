package directord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPClient talks to a directord-compatible orchestration API over
// HTTP. directord itself ships no Go SDK, so this is a small hand-written
// client against its documented orchestrate/poll REST shape — the same
// vendor-specific boundary the Python DirectordConnect wrapper crossed.
type HTTPClient struct {
	Endpoint string
	HTTP     *http.Client
}

func (c *HTTPClient) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

type orchestrateRequest struct {
	Orchestrations []orchestration `json:"orchestrations"`
	DefinedTargets []string        `json:"defined_targets"`
}

type orchestration struct {
	Jobs []string `json:"jobs"`
}

type orchestrateResponse struct {
	JobIDs []string `json:"job_ids"`
}

// Orchestrate submits jobs against targets and returns the job ids
// directord assigned them.
func (c *HTTPClient) Orchestrate(ctx context.Context, jobs []string, targets []string) ([]string, error) {
	body, err := json.Marshal(orchestrateRequest{
		Orchestrations: []orchestration{{Jobs: jobs}},
		DefinedTargets: targets,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/orchestrate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("directord orchestrate returned %d: %s", resp.StatusCode, data)
	}

	var out orchestrateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.JobIDs, nil
}

type pollResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Poll fetches the current status of a single job id.
func (c *HTTPClient) Poll(ctx context.Context, jobID string) (bool, string, error) {
	url := fmt.Sprintf("%s/job/%s", c.Endpoint, jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, "", err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return false, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		data, _ := io.ReadAll(resp.Body)
		return false, "", fmt.Errorf("directord poll returned %d: %s", resp.StatusCode, data)
	}

	var out pollResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, "", err
	}
	return out.Success, out.Message, nil
}
