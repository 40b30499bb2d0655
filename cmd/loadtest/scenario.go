package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const seedSize = 15

type loadMode string

const (
	modeRead   loadMode = "read"
	modeCreate loadMode = "create"
	modeCRUD   loadMode = "crud"
)

func parseMode(value string) (loadMode, error) {
	switch mode := loadMode(value); mode {
	case modeRead, modeCreate, modeCRUD:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", value)
	}
}

type godResponse struct {
	Data struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}

type statusError struct {
	method string
	got    int
	want   int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d, want %d", e.method, e.got, e.want)
}

// apiClient выполняет запросы к /greekgods и пишет каждую попытку в collector.
type apiClient struct {
	http    *http.Client
	baseURL string
	timeout time.Duration
	col     *collector
}

func (c *apiClient) call(method, op, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.col.record(op, time.Since(start), transportStatus(err), false)
		return err
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	latency := time.Since(start)
	ok := resp.StatusCode == want && readErr == nil
	c.col.record(op, latency, strconv.Itoa(resp.StatusCode), ok)

	if readErr != nil {
		return readErr
	}
	if resp.StatusCode != want {
		return &statusError{method: op, got: resp.StatusCode, want: want}
	}
	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}

func transportStatus(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "transport_error"
}

// runScenario выполняет один сценарий выбранного режима.
func runScenario(c *apiClient, mode loadMode, index int, runID string) (err error) {
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "failed"
		}
		c.col.record(scenarioOp, time.Since(start), status, err == nil)
	}()

	switch mode {
	case modeRead:
		if index%10 == 9 {
			return c.call(http.MethodGet, "List", "/greekgods", nil, http.StatusOK, nil)
		}
		return c.call(http.MethodGet, "Get", "/greekgods/"+strconv.Itoa(index%seedSize+1), nil, http.StatusOK, nil)
	case modeCreate:
		_, err := create(c, index, runID)
		return err
	case modeCRUD:
		return crud(c, index, runID)
	default:
		return fmt.Errorf("unsupported mode: %s", mode)
	}
}

func create(c *apiClient, index int, runID string) (int64, error) {
	var created godResponse
	body := map[string]any{
		"name":  fmt.Sprintf("load-%s-%d", runID, index),
		"power": "Load",
	}
	if err := c.call(http.MethodPost, "Create", "/greekgods", body, http.StatusCreated, &created); err != nil {
		return 0, err
	}
	if created.Data.ID <= 0 {
		return 0, errors.New("create response returned empty id")
	}
	return created.Data.ID, nil
}

func crud(c *apiClient, index int, runID string) error {
	id, err := create(c, index, runID)
	if err != nil {
		return err
	}
	path := "/greekgods/" + strconv.FormatInt(id, 10)

	if err := c.call(http.MethodPatch, "PartialUpdate", path, map[string]any{"isDemiGod": index%2 == 0}, http.StatusOK, nil); err != nil {
		return err
	}
	replace := map[string]any{"name": fmt.Sprintf("load-%s-%d-replaced", runID, index)}
	if err := c.call(http.MethodPut, "Replace", path, replace, http.StatusOK, nil); err != nil {
		return err
	}
	if err := c.call(http.MethodGet, "Get", path, nil, http.StatusOK, nil); err != nil {
		return err
	}
	return c.call(http.MethodDelete, "Delete", path, nil, http.StatusOK, nil)
}
