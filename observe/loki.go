// Package observe forwards application logs to the Loki backend. Metric
// and trace ingestion are accepted at the API layer but collected by
// scraping, so this package only carries the log push path.
package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gnishant95/forge/errors"
)

// LokiClient pushes log entries to Loki's HTTP push API
type LokiClient struct {
	url    string
	job    string
	client *http.Client
}

// NewLokiClient creates a client for the Loki instance at baseURL.
// job is the default stream label attached to every pushed entry.
func NewLokiClient(baseURL, job string) *LokiClient {
	return &LokiClient{
		url:    baseURL,
		job:    job,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// pushRequest is the Loki push API payload shape
type pushRequest struct {
	Streams []stream `json:"streams"`
}

type stream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

// Push sends a single log line with the given level and extra labels
func (c *LokiClient) Push(ctx context.Context, level, message string, labels map[string]string) error {
	if level == "" {
		level = "info"
	}

	streamLabels := map[string]string{
		"job":   c.job,
		"level": level,
	}
	for k, v := range labels {
		streamLabels[k] = v
	}

	payload := pushRequest{
		Streams: []stream{{
			Stream: streamLabels,
			Values: [][]string{
				{strconv.FormatInt(time.Now().UnixNano(), 10), message},
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.WrapFatal(err, "observe", "Push", "marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.url+"/loki/api/v1/push", bytes.NewReader(body))
	if err != nil {
		return errors.WrapInvalid(err, "observe", "Push", "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.WrapTransient(err, "observe", "Push", "send to loki")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errors.WrapTransient(
			fmt.Errorf("loki push failed: %d", resp.StatusCode),
			"observe", "Push", "send to loki")
	}

	return nil
}
