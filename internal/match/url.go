package match

import (
	"net/url"
	"strings"
)

// jobIDParam is the one query parameter that carries identity on job board
// URLs; every other parameter is tracking noise and is dropped.
const jobIDParam = "currentJobId"

// CanonicalURL reduces a raw posting URL to a stable lookup key.
// It drops query string and fragment (re-appending the identifying job-id
// parameter when present) and strips the trailing slash from the path.
// Normalizing an already-canonical URL returns the same string. Empty input
// yields an empty string, which callers must treat as "no usable identity".
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return canonicalFallback(raw)
	}

	jobID := u.Query().Get(jobIDParam)

	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	out := u.String()
	if jobID != "" {
		out += "?" + jobIDParam + "=" + url.QueryEscape(jobID)
	}
	return out
}

// canonicalFallback applies the same rules to strings that do not parse as
// absolute URLs: split off the fragment, then the query, keeping only the
// identifying parameter.
func canonicalFallback(raw string) string {
	base := raw
	if i := strings.Index(base, "#"); i >= 0 {
		base = base[:i]
	}

	jobID := ""
	if i := strings.Index(base, "?"); i >= 0 {
		query := base[i+1:]
		base = base[:i]
		for _, pair := range strings.Split(query, "&") {
			k, v, ok := strings.Cut(pair, "=")
			if ok && k == jobIDParam && v != "" {
				jobID = v
				break
			}
		}
	}

	base = strings.TrimSuffix(base, "/")
	if base == "" {
		return ""
	}
	if jobID != "" {
		return base + "?" + jobIDParam + "=" + jobID
	}
	return base
}
