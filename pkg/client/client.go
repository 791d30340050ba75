package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/permupdate/permtrack/backend/internal/types"
)

// Client provides a typed interface to the prediction API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithToken sets the bearer token sent on every request
func (c *Client) WithToken(token string) *Client {
	c.token = token
	return c
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.httpClient.Do(req)
}

// Predict requests a queue-position estimate
func (c *Client) Predict(submitDate, employerFirstLetter, caseNumber string) (*types.EstimateResult, error) {
	payload := map[string]string{
		"submitDate":          submitDate,
		"employerFirstLetter": employerFirstLetter,
	}
	if caseNumber != "" {
		payload["caseNumber"] = caseNumber
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/api/predictions/from-date", c.baseURL), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var result types.EstimateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

// PercentileEstimate requests the percentile-only estimate
func (c *Client) PercentileEstimate(submitDate string) (*types.SimpleEstimateResult, error) {
	req, err := http.NewRequest(http.MethodGet,
		fmt.Sprintf("%s/api/predictions/percentile-estimate?submit_date=%s", c.baseURL, submitDate), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var result types.SimpleEstimateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ExpectedTime retrieves the latest processing-time percentiles
func (c *Client) ExpectedTime() (*types.ProcessingTimePercentiles, error) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/api/predictions/expected-time", c.baseURL), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var pt types.ProcessingTimePercentiles
	if err := json.NewDecoder(resp.Body).Decode(&pt); err != nil {
		return nil, err
	}

	return &pt, nil
}

// Dashboard retrieves the full dashboard bundle
func (c *Client) Dashboard() (*types.DashboardData, error) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/api/data/dashboard", c.baseURL), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var data types.DashboardData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}

	return &data, nil
}

// Health checks if the service is healthy
func (c *Client) Health() error {
	resp, err := c.httpClient.Get(fmt.Sprintf("%s/health", c.baseURL))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status code %d", resp.StatusCode)
	}

	return nil
}
