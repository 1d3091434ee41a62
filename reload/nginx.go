package reload

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gnishant95/forge/configstore"
)

// RenderNginx generates nginx location blocks for the full route set.
// Regeneration is always from the complete current record set, never an
// incremental diff, so the artifact cannot drift from store truth.
func RenderNginx(routes []configstore.Route) []byte {
	var sb strings.Builder

	sb.WriteString("# Dynamic routes - auto-generated, do not edit\n")
	sb.WriteString("# Managed by Forge gateway\n\n")

	for _, r := range routes {
		sb.WriteString(fmt.Sprintf("# Route: %s\n", r.Name))
		sb.WriteString(fmt.Sprintf("location %s {\n", r.Path))

		if len(r.Methods) > 0 {
			// limit_except denies everything outside the allowed verbs
			sb.WriteString(fmt.Sprintf("    limit_except %s {\n", strings.Join(r.Methods, " ")))
			sb.WriteString("        deny all;\n")
			sb.WriteString("    }\n")
		}

		if r.StripPrefix {
			// Trailing slash on the upstream makes nginx strip the prefix
			upstream := r.Upstream
			if !strings.HasSuffix(upstream, "/") {
				upstream = upstream + "/"
			}
			sb.WriteString(fmt.Sprintf("    proxy_pass %s;\n", upstream))
		} else {
			upstream := strings.TrimSuffix(r.Upstream, "/")
			sb.WriteString(fmt.Sprintf("    proxy_pass %s;\n", upstream))
		}

		sb.WriteString("    proxy_http_version 1.1;\n")
		sb.WriteString("    proxy_set_header Host $host;\n")
		sb.WriteString("    proxy_set_header X-Real-IP $remote_addr;\n")
		sb.WriteString("    proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;\n")
		sb.WriteString("    proxy_set_header X-Forwarded-Proto $scheme;\n")
		sb.WriteString("    proxy_set_header Upgrade $http_upgrade;\n")
		sb.WriteString("    proxy_set_header Connection \"upgrade\";\n")

		for _, k := range sortedKeys(r.Headers) {
			sb.WriteString(fmt.Sprintf("    proxy_set_header %s %q;\n", k, r.Headers[k]))
		}

		sb.WriteString("}\n\n")
	}

	return []byte(sb.String())
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
