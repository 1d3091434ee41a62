package reload

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gnishant95/forge/errors"
)

// Kind identifies which external configuration a reload applies to
type Kind string

const (
	// KindRoutes covers the reverse-proxy routing table
	KindRoutes Kind = "routes"
	// KindLogSources covers the log-shipper scrape configuration
	KindLogSources Kind = "logsources"
)

// Outcome is the ephemeral result of applying a configuration change.
// StoreOK reports the durable store write; ReloadOK reports whether the
// external process accepted the regenerated artifact. The two are
// deliberately independent: a durable write with a failed reload is a
// success with a warning, never a rollback.
type Outcome struct {
	StoreOK  bool   `json:"store_write_ok"`
	ReloadOK bool   `json:"reload_ok"`
	Message  string `json:"message,omitempty"`
}

// Target binds one Kind to its artifact renderer, artifact path, and the
// external process signal.
type Target struct {
	// Render produces the complete artifact from current store state
	Render func() ([]byte, error)
	// ArtifactPath is where the generated configuration is written
	ArtifactPath string
	// Reloader signals the external process after the artifact is written
	Reloader Reloader
}

// Coordinator regenerates external configuration artifacts from store
// state and signals the owning process to apply them. Reload triggers for
// the same kind are serialized so concurrent mutations cannot thrash the
// external process with interleaved writes.
type Coordinator struct {
	mu      sync.Mutex
	targets map[Kind]*targetState
	timeout time.Duration
}

type targetState struct {
	mu sync.Mutex // serializes regeneration + signaling per kind
	Target
}

// NewCoordinator creates a coordinator with the given per-reload timeout
func NewCoordinator(timeout time.Duration) *Coordinator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Coordinator{
		targets: make(map[Kind]*targetState),
		timeout: timeout,
	}
}

// Register binds a kind to its target. Must be called before Apply or
// Reload for that kind.
func (c *Coordinator) Register(kind Kind, t Target) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targets[kind] = &targetState{Target: t}
}

// Apply regenerates the artifact for kind from the full current record
// set and signals the external process. It is invoked after every
// successful store mutation of that kind. The caller's store write has
// already committed, so every failure here is reported as a reload
// warning in the Outcome rather than an error: configuration intent is
// never lost because the proxy or shipper was transiently down.
//
// The work runs on a context detached from the caller's: a client
// disconnect must not cancel propagation of a durable write.
func (c *Coordinator) Apply(ctx context.Context, kind Kind) Outcome {
	c.mu.Lock()
	ts, ok := c.targets[kind]
	c.mu.Unlock()
	if !ok {
		return Outcome{StoreOK: true, ReloadOK: false,
			Message: "no reload target registered for " + string(kind)}
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	applyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	if err := c.writeArtifact(ts); err != nil {
		slog.Warn("reload: artifact generation failed",
			"kind", kind, "path", ts.ArtifactPath, "err", err)
		return Outcome{StoreOK: true, ReloadOK: false, Message: err.Error()}
	}

	if err := ts.Reloader.Reload(applyCtx); err != nil {
		slog.Warn("reload: signal failed", "kind", kind, "err", err)
		return Outcome{StoreOK: true, ReloadOK: false, Message: err.Error()}
	}

	slog.Info("reload: applied", "kind", kind, "artifact", ts.ArtifactPath)
	return Outcome{StoreOK: true, ReloadOK: true}
}

// Reload is the explicit manual trigger. It performs the same full
// regeneration as Apply and is safe to call with no pending changes.
func (c *Coordinator) Reload(ctx context.Context, kind Kind) Outcome {
	return c.Apply(ctx, kind)
}

// writeArtifact renders the artifact and writes it to disk
func (c *Coordinator) writeArtifact(ts *targetState) error {
	data, err := ts.Render()
	if err != nil {
		return errors.Wrap(err, "Coordinator", "writeArtifact", "render")
	}

	if err := os.MkdirAll(filepath.Dir(ts.ArtifactPath), 0o755); err != nil {
		return errors.WrapTransient(err, "Coordinator", "writeArtifact", "mkdir")
	}
	if err := os.WriteFile(ts.ArtifactPath, data, 0o644); err != nil {
		return errors.WrapTransient(err, "Coordinator", "writeArtifact", "write "+ts.ArtifactPath)
	}

	return nil
}
