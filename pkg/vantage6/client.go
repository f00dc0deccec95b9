package vantage6

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/uuid"

	"github.com/strongaya/fdm-portal/pkg/utils/retry"
)

// ErrTaskFailed means the server reports a task as failed, crashed or
// killed, so its results will never arrive.
var ErrTaskFailed = errors.New("task failed")

// Database names a node database by its label.
type Database struct {
	Label string `json:"label"`
}

// TaskSpec is a task to be submitted.
type TaskSpec struct {
	Name        string
	Image       string
	Description string

	// Input is the algorithm input, e.g. {"method": "central"}.
	Input map[string]any

	Databases []Database
}

// Task is the server's view of a submitted task.
type Task struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// task statuses the server settles on.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCrashed   = "crashed"
	StatusKilled    = "killed"
)

type Client interface {
	// Authenticate obtains (or renews) an access token.
	//
	// The other operations authenticate on demand, so calling this
	// explicitly is only needed to probe credentials.
	Authenticate(ctx context.Context) error

	// CreateTask submits a task to the configured collaboration,
	// addressed to the aggregating organisation.
	//
	// The task name gets a random suffix so resubmissions stay
	// distinguishable on the server.
	CreateTask(ctx context.Context, spec TaskSpec) (Task, error)

	// GetTask reads a task's current state.
	GetTask(ctx context.Context, taskID int) (Task, error)

	// WaitForResults polls a task until it completes.
	//
	// It returns ErrTaskFailed (wrapped) when the task ends in a
	// failed, crashed or killed state, and ctx.Err() on cancellation.
	WaitForResults(ctx context.Context, taskID int) (Task, error)

	// GetResults reads the result payload of a completed task.
	//
	// The payload is returned verbatim; algorithms encode their own
	// result format, usually JSON.
	GetResults(ctx context.Context, taskID int) (string, error)

	Retriever
}

type client struct {
	httpclient *http.Client
	api        string
	conf       Config

	pollInterval time.Duration

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

type Option func(*client) *client

// WithHTTPClient replaces the underlying HTTP client, e.g. for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) *client {
		c.httpclient = hc
		return c
	}
}

// WithPollInterval sets how often WaitForResults asks for the task status.
func WithPollInterval(d time.Duration) Option {
	return func(c *client) *client {
		c.pollInterval = d
		return c
	}
}

// NewClient creates a Client for the given Config.
func NewClient(conf Config, options ...Option) (Client, error) {
	if err := conf.Verify(); err != nil {
		return nil, err
	}

	c := &client{
		httpclient:   new(http.Client),
		api:          conf.APIRoot(),
		conf:         conf,
		pollInterval: 3 * time.Second,
	}
	for _, opt := range options {
		c = opt(c)
	}
	return c, nil
}

// build URL with path
func (c *client) apipath(path ...string) string {
	parts := make([]string, 0, len(path)+1)
	parts = append(parts, c.api)
	for _, p := range path {
		parts = append(parts, strings.TrimPrefix(strings.TrimSuffix(p, "/"), "/"))
	}
	return strings.Join(parts, "/")
}

func (c *client) Authenticate(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"username": c.conf.Username,
		"password": c.conf.Password,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apipath("token", "user"), bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	token := struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}{}
	if err := unmarshalJsonResponse(resp, &token, MessageFor{
		Status4xx: "authentication is rejected. is the configuration correct?",
		Status5xx: "server error during authentication",
	}); err != nil {
		return err
	}
	if token.AccessToken == "" {
		return errors.New("the server returned no access token")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token.AccessToken
	c.tokenExp = tokenExpiry(token.AccessToken)
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature.
// Verification is the server's business; we only need to know when
// to renew. Unreadable tokens get a short lifetime.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Now().Add(time.Minute)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Now().Add(time.Minute)
	}
	return exp.Time
}

// ensureToken authenticates when there is no token yet or the current
// one is about to expire.
func (c *client) ensureToken(ctx context.Context) error {
	c.mu.Lock()
	valid := c.token != "" && time.Now().Add(30*time.Second).Before(c.tokenExp)
	c.mu.Unlock()

	if valid {
		return nil
	}
	return c.Authenticate(ctx)
}

func (c *client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return "Bearer " + c.token
}

func (c *client) CreateTask(ctx context.Context, spec TaskSpec) (Task, error) {
	if _, err := name.ParseReference(spec.Image); err != nil {
		return Task{}, fmt.Errorf("not a valid algorithm image reference: %s: %w", spec.Image, err)
	}
	if err := c.ensureToken(ctx); err != nil {
		return Task{}, err
	}

	input, err := json.Marshal(spec.Input)
	if err != nil {
		return Task{}, err
	}

	body, err := json.Marshal(map[string]any{
		"name":             fmt.Sprintf("%s (%s)", spec.Name, uuid.NewString()[:8]),
		"image":            spec.Image,
		"description":      spec.Description,
		"collaboration_id": c.conf.Collaboration,
		"organizations": []map[string]any{
			{
				"id":    c.conf.AggregatingOrganisation,
				"input": base64.StdEncoding.EncodeToString(input),
			},
		},
		"databases": spec.Databases,
	})
	if err != nil {
		return Task{}, err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apipath("task"), bytes.NewReader(body),
	)
	if err != nil {
		return Task{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.bearer())

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return Task{}, err
	}
	defer resp.Body.Close()

	task := Task{}
	if err := unmarshalJsonResponse(resp, &task, MessageFor{
		Status4xx: "the server rejected the task. are the collaboration and organisation ids correct?",
		Status5xx: "server error during task creation",
	}); err != nil {
		return Task{}, err
	}
	return task, nil
}

func (c *client) GetTask(ctx context.Context, taskID int) (Task, error) {
	if err := c.ensureToken(ctx); err != nil {
		return Task{}, err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("task", fmt.Sprintf("%d", taskID)), nil,
	)
	if err != nil {
		return Task{}, err
	}
	req.Header.Set("Authorization", c.bearer())

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return Task{}, err
	}
	defer resp.Body.Close()

	task := Task{}
	if err := unmarshalJsonResponse(resp, &task, MessageFor{
		Status4xx: fmt.Sprintf("task %d is not found", taskID),
		Status5xx: "server error while reading the task",
	}); err != nil {
		return Task{}, err
	}
	return task, nil
}

func (c *client) WaitForResults(ctx context.Context, taskID int) (Task, error) {
	return retry.Blocking(ctx, retry.StaticBackoff(c.pollInterval), func() (Task, error) {
		task, err := c.GetTask(ctx, taskID)
		if err != nil {
			return task, err
		}
		switch task.Status {
		case StatusCompleted:
			return task, nil
		case StatusFailed, StatusCrashed, StatusKilled:
			return task, fmt.Errorf("%w: task %d is %s", ErrTaskFailed, taskID, task.Status)
		}
		return task, retry.ErrRetry
	})
}

func (c *client) GetResults(ctx context.Context, taskID int) (string, error) {
	if err := c.ensureToken(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, fmt.Sprintf("%s?task_id=%d", c.apipath("result"), taskID), nil,
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.bearer())

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	results := struct {
		Data []struct {
			Result string `json:"result"`
		} `json:"data"`
	}{}
	if err := unmarshalJsonResponse(resp, &results, MessageFor{
		Status4xx: fmt.Sprintf("results of task %d are not found", taskID),
		Status5xx: "server error while reading results",
	}); err != nil {
		return "", err
	}

	if len(results.Data) == 0 {
		return "", fmt.Errorf("task %d has no results yet", taskID)
	}
	return results.Data[0].Result, nil
}
