package trac

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// Trac's multi-environment index page lists the environments as anchors.
var envAnchorRe = regexp.MustCompile(`<a\s+href="([^"?#]+)/?"[^>]*>`)

// ListEnvironments scrapes the environment index page below baseURL and
// returns the environment ids found there.
func ListEnvironments(ctx context.Context, baseURL string, client *http.Client) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("%w: %q", ErrBadBaseURL, baseURL)
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: index: %v", ErrRPC, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: index: %v", ErrRPC, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: index: %s", ErrHTTPStatus, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: index: %v", ErrDecode, err)
	}

	seen := make(map[string]struct{})
	var envs []string
	for _, m := range envAnchorRe.FindAllStringSubmatch(string(body), -1) {
		id := strings.Trim(m[1], "/")
		if i := strings.LastIndexByte(id, '/'); i >= 0 {
			id = id[i+1:]
		}
		if id == "" || strings.Contains(id, ":") {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		envs = append(envs, id)
	}
	return envs, nil
}
