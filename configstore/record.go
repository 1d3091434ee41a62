package configstore

import (
	"strings"

	"github.com/gnishant95/forge/errors"
)

// Route represents a dynamic reverse-proxy route. Name is the unique key;
// upserting an existing name replaces the record entirely.
type Route struct {
	Name        string            `json:"name" yaml:"name"`
	Path        string            `json:"path" yaml:"path"`
	Upstream    string            `json:"upstream" yaml:"upstream"`
	Methods     []string          `json:"methods,omitempty" yaml:"methods,omitempty"`
	StripPrefix bool              `json:"strip_prefix" yaml:"strip_prefix"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// Key returns the unique store key for the route
func (r Route) Key() string { return r.Name }

// Validate checks that all required route fields are present
func (r Route) Validate() error {
	if r.Name == "" {
		return errors.WrapInvalid(errors.ErrNameRequired, "Route", "Validate", "name")
	}
	if r.Path == "" {
		return errors.WrapInvalid(errors.ErrEmptyField, "Route", "Validate", "path is required")
	}
	if r.Upstream == "" {
		return errors.WrapInvalid(errors.ErrEmptyField, "Route", "Validate", "upstream is required")
	}
	return nil
}

// Normalize returns a copy with the path guaranteed to carry leading and
// trailing slashes, and HTTP methods upper-cased. The proxy config
// generator relies on this shape.
func (r Route) Normalize() Route {
	if !strings.HasPrefix(r.Path, "/") {
		r.Path = "/" + r.Path
	}
	if !strings.HasSuffix(r.Path, "/") {
		r.Path = r.Path + "/"
	}
	if len(r.Methods) > 0 {
		methods := make([]string, len(r.Methods))
		for i, m := range r.Methods {
			methods[i] = strings.ToUpper(m)
		}
		r.Methods = methods
	}
	return r
}

// Multiline configures multiline log collection for a source
type Multiline struct {
	FirstLine string `json:"first_line" yaml:"first_line"`
	MaxLines  int    `json:"max_lines,omitempty" yaml:"max_lines,omitempty"`
}

// LogSource represents a log file pattern shipped to the log backend.
// Name is the unique key with the same upsert semantics as Route.
type LogSource struct {
	Name      string            `json:"name" yaml:"name"`
	Path      string            `json:"path" yaml:"path"`
	Job       string            `json:"job,omitempty" yaml:"job,omitempty"`
	Labels    map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Multiline *Multiline        `json:"multiline,omitempty" yaml:"multiline,omitempty"`
}

// Key returns the unique store key for the log source
func (s LogSource) Key() string { return s.Name }

// Validate checks that all required log source fields are present
func (s LogSource) Validate() error {
	if s.Name == "" {
		return errors.WrapInvalid(errors.ErrNameRequired, "LogSource", "Validate", "name")
	}
	if s.Path == "" {
		return errors.WrapInvalid(errors.ErrEmptyField, "LogSource", "Validate", "path is required")
	}
	return nil
}

// Normalize returns a copy with the job name defaulted from the source name
func (s LogSource) Normalize() LogSource {
	if s.Job == "" {
		s.Job = s.Name
	}
	return s
}
