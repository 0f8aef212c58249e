package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pefman/cosmic-race/internal/models"
)

var httpClient = &http.Client{Timeout: 8 * time.Second}

// Config holds API configuration
type Config struct {
	BaseURL string
}

// Client talks to the stats API. It satisfies game.Recorder.
type Client struct {
	config Config
	http   *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		config: Config{BaseURL: baseURL},
		http:   httpClient,
	}
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.config.BaseURL, "/") + path
}

func (c *Client) apiGet(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) apiPost(ctx context.Context, path string, in interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("api status %d", resp.StatusCode)
	}
	return nil
}

// RecordResult posts a finished race.
func (c *Client) RecordResult(ctx context.Context, r models.RaceResult) error {
	if err := c.apiPost(ctx, "/api/results", r); err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

func (c *Client) Summary(ctx context.Context) (models.ResultsSummary, error) {
	var out models.ResultsSummary
	if err := c.apiGet(ctx, "/api/results/summary", &out); err != nil {
		return models.ResultsSummary{}, fmt.Errorf("fetch summary: %w", err)
	}
	return out, nil
}

func (c *Client) Today(ctx context.Context) (models.ResultsSummary, error) {
	var out models.ResultsSummary
	if err := c.apiGet(ctx, "/api/results/today", &out); err != nil {
		return models.ResultsSummary{}, fmt.Errorf("fetch today: %w", err)
	}
	return out, nil
}
