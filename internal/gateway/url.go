package gateway

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"latencygen/internal/addrutil"
)

// groupingPrefix marks a gateway URL that already carries its grouping key.
const groupingPrefix = "/metrics/job/"

// PushURL builds the Pushgateway URL for job and instance. A gateway that
// already contains /metrics/job/ is taken verbatim; a bare host:port gains http://.
func PushURL(gateway, job, instance string) (string, error) {
	base := strings.TrimSpace(gateway)
	if base == "" {
		return "", fmt.Errorf("gateway url is required")
	}
	base = addrutil.NormalizeBaseURL(base)

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid gateway url %q: %w", gateway, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid gateway url %q: missing host", gateway)
	}
	if strings.Contains(u.Path, groupingPrefix) {
		return base, nil
	}
	if job == "" {
		return "", fmt.Errorf("job is required when gateway has no /metrics/job/ path")
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	b.WriteString("/metrics")
	writeLabel(&b, "job", job)
	if instance != "" {
		writeLabel(&b, "instance", instance)
	}
	return b.String(), nil
}

// writeLabel appends /name/value, switching to the name@base64 form when the
// value contains a slash.
func writeLabel(b *strings.Builder, name, value string) {
	b.WriteByte('/')
	b.WriteString(name)
	if strings.Contains(value, "/") {
		b.WriteString("@base64/")
		b.WriteString(base64.RawURLEncoding.EncodeToString([]byte(value)))
		return
	}
	b.WriteByte('/')
	b.WriteString(url.PathEscape(value))
}
