// Package workflow drives the asynchronous screening pipeline through an
// external workflow engine exposed over HTTP. The engine runs the
// search-then-score state machine; this client only starts executions
// and polls their status.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/turtacn/EntityRisk-Intelligence/internal/config"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

// Execution states reported by the engine.
const (
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusTimedOut  = "TIMED_OUT"
	StatusAborted   = "ABORTED"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultPollInterval = 2 * time.Second
	defaultPollCeiling  = 60 * time.Second

	maxResponseBytes = 1 << 20
)

// ErrPollCeilingReached reports that a synchronous wait gave up before
// the execution finished. The execution keeps running in the engine.
var ErrPollCeilingReached = errors.New(errors.ErrCodeWorkflowTimeout, "workflow still running after poll ceiling")

// ExecutionRef identifies a started execution for later status lookups.
type ExecutionRef struct {
	ExecutionID  string `json:"execution_id"`
	StateMachine string `json:"state_machine"`
}

// ExecutionStatus is the engine's view of an execution.
type ExecutionStatus struct {
	Status string          `json:"status"`
	Output json.RawMessage `json:"output,omitempty"`
}

// Terminal reports whether the execution has stopped.
func (s ExecutionStatus) Terminal() bool {
	return s.Status != StatusRunning
}

// Client talks to the workflow engine's HTTP API.
type Client struct {
	baseURL      string
	stateMachine string
	httpClient   *http.Client
	pollInterval time.Duration
	pollCeiling  time.Duration
	logger       logging.Logger
}

type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client, used in tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithPollInterval overrides the synchronous-wait poll interval.
func WithPollInterval(d time.Duration) ClientOption {
	return func(c *Client) { c.pollInterval = d }
}

func NewClient(cfg config.WorkflowConfig, log logging.Logger, opts ...ClientOption) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "workflow base url is required")
	}
	if cfg.StateMachine == "" {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "workflow state machine is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL:      cfg.BaseURL,
		stateMachine: cfg.StateMachine,
		httpClient:   &http.Client{Timeout: timeout},
		pollInterval: cfg.PollInterval,
		pollCeiling:  cfg.PollCeiling,
		logger:       log,
	}
	if c.pollInterval == 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.pollCeiling == 0 {
		c.pollCeiling = defaultPollCeiling
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type startRequest struct {
	StateMachine string          `json:"state_machine"`
	Name         string          `json:"name"`
	Input        json.RawMessage `json:"input"`
}

// Start launches an execution of the configured state machine. The name
// must be unique per execution; the store record ID works well.
func (c *Client) Start(ctx context.Context, name string, input interface{}) (ExecutionRef, error) {
	if name == "" {
		return ExecutionRef{}, errors.InvalidParam("execution name is required")
	}

	encoded, err := json.Marshal(input)
	if err != nil {
		return ExecutionRef{}, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode workflow input")
	}

	var ref ExecutionRef
	err = c.doJSON(ctx, http.MethodPost, "/v1/executions", startRequest{
		StateMachine: c.stateMachine,
		Name:         name,
		Input:        encoded,
	}, &ref)
	if err != nil {
		return ExecutionRef{}, errors.Wrap(err, errors.ErrCodeWorkflowStartFailed, "failed to start execution")
	}
	if ref.StateMachine == "" {
		ref.StateMachine = c.stateMachine
	}

	c.logger.Info("workflow execution started",
		logging.String("execution_id", ref.ExecutionID),
		logging.String("state_machine", ref.StateMachine),
	)
	return ref, nil
}

// Describe fetches the current status of an execution.
func (c *Client) Describe(ctx context.Context, ref ExecutionRef) (ExecutionStatus, error) {
	if ref.ExecutionID == "" {
		return ExecutionStatus{}, errors.InvalidParam("execution id is required")
	}

	var status ExecutionStatus
	err := c.doJSON(ctx, http.MethodGet, "/v1/executions/"+ref.ExecutionID, nil, &status)
	if err != nil {
		return ExecutionStatus{}, errors.Wrap(err, errors.ErrCodeWorkflowDescribeFailed, "failed to describe execution")
	}
	return status, nil
}

// Wait polls the execution until it reaches a terminal state or the
// poll ceiling elapses. On ceiling it returns ErrPollCeilingReached and
// the last observed status; callers downgrade to asynchronous handling.
func (c *Client) Wait(ctx context.Context, ref ExecutionRef) (ExecutionStatus, error) {
	deadline := time.Now().Add(c.pollCeiling)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	var last ExecutionStatus
	for {
		status, err := c.Describe(ctx, ref)
		if err != nil {
			return last, err
		}
		last = status
		if status.Terminal() {
			return status, nil
		}
		if time.Now().After(deadline) {
			return last, ErrPollCeilingReached
		}

		select {
		case <-ctx.Done():
			return last, errors.Wrap(ctx.Err(), errors.ErrCodeWorkflowTimeout, "wait cancelled")
		case <-ticker.C:
		}
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return errors.New(errors.ErrCodeNotFound, "execution not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("engine returned status %d: %s", resp.StatusCode, truncateBody(raw))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func truncateBody(raw []byte) string {
	const limit = 256
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}
