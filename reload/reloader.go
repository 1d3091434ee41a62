package reload

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/gnishant95/forge/errors"
)

// Reloader signals an external process to re-read its generated
// configuration.
type Reloader interface {
	Reload(ctx context.Context) error
}

// ExecReloader reloads by running a command, e.g.
// "docker exec forge-nginx nginx -s reload".
type ExecReloader struct {
	Command string
	Args    []string
}

// Reload runs the configured command and treats a non-zero exit as failure
func (r *ExecReloader) Reload(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, r.Command, r.Args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.WrapTransient(
			fmt.Errorf("%w: %s: %v", errors.ErrReloadFailed, strings.TrimSpace(string(output)), err),
			"ExecReloader", "Reload", r.Command)
	}
	return nil
}

// HTTPReloader reloads by POSTing to a control endpoint, e.g. Promtail's
// /reload when runtime reload is enabled.
type HTTPReloader struct {
	URL    string
	Client *http.Client
}

// Reload POSTs to the control endpoint and treats any non-2xx as failure
func (r *HTTPReloader) Reload(ctx context.Context) error {
	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, nil)
	if err != nil {
		return errors.WrapInvalid(err, "HTTPReloader", "Reload", "build request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return errors.WrapTransient(err, "HTTPReloader", "Reload", "signal "+r.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.WrapTransient(
			fmt.Errorf("%w: unexpected status %s", errors.ErrReloadFailed, resp.Status),
			"HTTPReloader", "Reload", "signal "+r.URL)
	}

	return nil
}
