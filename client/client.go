// Package client is a small HTTP client for the calculator API, used by the
// terminal shell when it talks to a running server instead of a local store.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giygas/pediatric-drug-calculator/entities"
	"github.com/go-resty/resty/v2"
)

// ErrBadRequest mirrors a 400 from the API
var ErrBadRequest = errors.New("bad request")

// APIError is the JSON error body returned by the API
type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Client calls the lookup endpoints
type Client struct {
	http *resty.Client
}

// New creates a client for the API at baseURL
func New(baseURL string) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{http: http}
}

// Systems lists the medical systems
func (c *Client) Systems(ctx context.Context) ([]entities.MedicalSystem, error) {
	var out []entities.MedicalSystem
	if err := c.get(ctx, "/systems", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Drugs lists the drugs of a medical system
func (c *Client) Drugs(ctx context.Context, systemID string) ([]entities.Drug, error) {
	var out []entities.Drug
	if err := c.get(ctx, "/drugs", map[string]string{"systemId": systemID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DosageBands lists the dosage bands of a drug
func (c *Client) DosageBands(ctx context.Context, drugID string) ([]entities.DosageBand, error) {
	var out []entities.DosageBand
	if err := c.get(ctx, "/dosages", map[string]string{"drugId": drugID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, result any) error {
	var apiErr APIError
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(result).
		SetError(&apiErr).
		Get(path)
	if err != nil {
		return fmt.Errorf("GET %s failed: %w", path, err)
	}

	if resp.IsError() {
		if resp.StatusCode() == 400 {
			return fmt.Errorf("%w: %s", ErrBadRequest, apiErr.Message)
		}
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode(), apiErr.Message)
	}
	return nil
}
