// Package locator rewrites video URLs into forms the remote fetcher handles reliably.
package locator

import (
	"net/url"
	"strings"
)

const (
	githubHost = "github.com"
	rawHost    = "raw.githubusercontent.com"
)

// Normalize converts GitHub web "raw" links into direct raw.githubusercontent.com links:
//
//	https://github.com/<owner>/<repo>/raw/<branch>/<path>
//	https://github.com/<owner>/<repo>/raw/refs/heads/<branch>/<path>
//
// both become https://raw.githubusercontent.com/<owner>/<repo>/<branch>/<path>.
// Any other URL, or a GitHub raw link too short to map, is returned unchanged.
func Normalize(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host != githubHost {
		return raw
	}

	segs := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	// owner, repo, "raw", branch, path...
	if len(segs) < 5 || segs[2] != "raw" {
		return raw
	}
	owner, repo := segs[0], segs[1]

	rest := segs[3:]
	if len(rest) >= 2 && rest[0] == "refs" && rest[1] == "heads" {
		rest = rest[2:]
	}
	if len(rest) < 2 {
		return raw
	}
	branch, path := rest[0], rest[1:]
	for _, s := range append([]string{owner, repo, branch}, path...) {
		if s == "" {
			return raw
		}
	}

	out := "https://" + rawHost + "/" + strings.Join([]string{owner, repo, branch, strings.Join(path, "/")}, "/")
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	return out
}
