// Package github wraps the GitHub API calls the migration needs: repository
// setup, label management and issue import.
package github

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	gh "github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

// Sentinel errors for GitHub operations.
var (
	ErrBadRepoName = errors.New("invalid repository name")
	ErrAPI         = errors.New("github api call failed")
)

// MigratedLabel marks every imported issue. The color is a fixed brown so
// migrated issues are recognizable at a glance.
const (
	MigratedLabel      = "migrated"
	migratedLabelColor = "662200"
)

const defaultAbuseWait = 300 * time.Second

var repoNameRe = regexp.MustCompile(`^(?:([\w\d\-_]+)/)?([\w\d\-_]+)$`)

// ParseRepoName splits "owner/name" into its parts. The owner part is
// optional; defaultOwner fills the gap.
func ParseRepoName(full, defaultOwner string) (owner, name string, err error) {
	m := repoNameRe.FindStringSubmatch(full)
	if m == nil {
		return "", "", fmt.Errorf("%w: %q", ErrBadRepoName, full)
	}
	owner = m[1]
	if owner == "" {
		owner = defaultOwner
	}
	if owner == "" {
		return "", "", fmt.Errorf("%w: %q has no owner and no default namespace is set", ErrBadRepoName, full)
	}
	return owner, m[2], nil
}

// Client wraps an authenticated GitHub API client with a per-repository
// label cache.
type Client struct {
	api       *gh.Client
	abuseWait time.Duration
	log       glog.Logger

	mu     sync.Mutex
	labels map[string]map[string]*gh.Label
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAbuseWait sets the fallback wait before retrying a request the API
// rejected as abusive, used when the response names no retry delay.
func WithAbuseWait(d time.Duration) ClientOption {
	return func(c *Client) {
		c.abuseWait = d
	}
}

// WithLogger sets the client logger.
func WithLogger(log glog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithAPIClient replaces the underlying API client, for tests.
func WithAPIClient(api *gh.Client) ClientOption {
	return func(c *Client) {
		c.api = api
	}
}

// NewClient creates a token-authenticated client.
func NewClient(ctx context.Context, token string, opts ...ClientOption) *Client {
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	c := &Client{
		api:       gh.NewClient(hc),
		abuseWait: defaultAbuseWait,
		log:       glog.NewLogger(),
		labels:    make(map[string]map[string]*gh.Label),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureRepo returns the repository, creating it when missing. Created
// repositories have issues enabled and the builtin wiki disabled, since the
// migrated wiki lives on a branch instead.
func (c *Client) EnsureRepo(ctx context.Context, owner, name string) (*gh.Repository, error) {
	repo, resp, err := c.api.Repositories.Get(ctx, owner, name)
	if err == nil {
		return repo, nil
	}
	if resp == nil || resp.StatusCode != 404 {
		return nil, fmt.Errorf("%w: get %s/%s: %v", ErrAPI, owner, name, err)
	}

	c.log.Info("creating repository", "owner", owner, "name", name)

	// Creating under an organization needs the org name; creating under the
	// authenticated user needs it empty.
	org := owner
	if user, _, err := c.api.Users.Get(ctx, ""); err == nil && user.GetLogin() == owner {
		org = ""
	}
	repo, _, err = c.api.Repositories.Create(ctx, org, &gh.Repository{
		Name:      gh.String(name),
		HasIssues: gh.Bool(true),
		HasWiki:   gh.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create %s/%s: %v", ErrAPI, owner, name, err)
	}
	return repo, nil
}

// AnyIssues reports whether the repository already has issues, including
// closed ones. The migration refuses to import into such a repository
// unless forced, because issue numbers would no longer match ticket ids.
func (c *Client) AnyIssues(ctx context.Context, owner, name string) (bool, error) {
	issues, _, err := c.api.Issues.ListByRepo(ctx, owner, name, &gh.IssueListByRepoOptions{
		State:       "all",
		ListOptions: gh.ListOptions{PerPage: 1},
	})
	if err != nil {
		return false, fmt.Errorf("%w: list issues %s/%s: %v", ErrAPI, owner, name, err)
	}
	return len(issues) > 0, nil
}

// HighestIssueNumber returns the largest issue number in the repository,
// or 0 when there are none. An interrupted import resumes after it.
func (c *Client) HighestIssueNumber(ctx context.Context, owner, name string) (int, error) {
	issues, _, err := c.api.Issues.ListByRepo(ctx, owner, name, &gh.IssueListByRepoOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: 1},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: list issues %s/%s: %v", ErrAPI, owner, name, err)
	}
	if len(issues) == 0 {
		return 0, nil
	}
	return issues[0].GetNumber(), nil
}

// GetOrCreateLabel returns the named label, creating it with a random color
// when the repository does not have it yet. Results are cached per
// repository so a migration touches the label API once per distinct label.
func (c *Client) GetOrCreateLabel(ctx context.Context, owner, name, label string) (*gh.Label, error) {
	repoKey := owner + "/" + name

	c.mu.Lock()
	cache, ok := c.labels[repoKey]
	c.mu.Unlock()

	if !ok {
		var err error
		cache, err = c.loadLabels(ctx, owner, name)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.labels[repoKey] = cache
		c.mu.Unlock()
	}

	c.mu.Lock()
	if l, ok := cache[label]; ok {
		c.mu.Unlock()
		return l, nil
	}
	c.mu.Unlock()

	color := migratedLabelColor
	if label != MigratedLabel {
		color = randomLabelColor()
	}
	created, _, err := c.api.Issues.CreateLabel(ctx, owner, name, &gh.Label{
		Name:  gh.String(label),
		Color: gh.String(color),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create label %q: %v", ErrAPI, label, err)
	}
	c.log.Debug("created label", "repo", repoKey, "label", label, "color", color)

	c.mu.Lock()
	cache[label] = created
	c.mu.Unlock()
	return created, nil
}

func (c *Client) loadLabels(ctx context.Context, owner, name string) (map[string]*gh.Label, error) {
	cache := make(map[string]*gh.Label)
	opts := &gh.ListOptions{PerPage: 100}
	for {
		labels, resp, err := c.api.Issues.ListLabels(ctx, owner, name, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: list labels %s/%s: %v", ErrAPI, owner, name, err)
		}
		for _, l := range labels {
			cache[l.GetName()] = l
		}
		if resp.NextPage == 0 {
			return cache, nil
		}
		opts.Page = resp.NextPage
	}
}

func randomLabelColor() string {
	var buf [3]byte
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}

// CreateIssue imports one issue and returns its number. Requests the API
// throttles as abusive are retried after the advertised delay.
func (c *Client) CreateIssue(ctx context.Context, owner, name, title, body string, labels []string) (int, error) {
	req := &gh.IssueRequest{
		Title:  gh.String(title),
		Body:   gh.String(body),
		Labels: &labels,
	}
	issue, err := retryOnAbuse(ctx, c, func() (*gh.Issue, error) {
		issue, _, err := c.api.Issues.Create(ctx, owner, name, req)
		return issue, err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: create issue %q: %v", ErrAPI, title, err)
	}
	return issue.GetNumber(), nil
}

// CreateComment adds a comment to an issue.
func (c *Client) CreateComment(ctx context.Context, owner, name string, number int, body string) error {
	_, err := retryOnAbuse(ctx, c, func() (*gh.IssueComment, error) {
		comment, _, err := c.api.Issues.CreateComment(ctx, owner, name, number, &gh.IssueComment{
			Body: gh.String(body),
		})
		return comment, err
	})
	if err != nil {
		return fmt.Errorf("%w: comment on #%d: %v", ErrAPI, number, err)
	}
	return nil
}

// CloseIssue marks an issue closed.
func (c *Client) CloseIssue(ctx context.Context, owner, name string, number int) error {
	_, err := retryOnAbuse(ctx, c, func() (*gh.Issue, error) {
		issue, _, err := c.api.Issues.Edit(ctx, owner, name, number, &gh.IssueRequest{
			State: gh.String("closed"),
		})
		return issue, err
	})
	if err != nil {
		return fmt.Errorf("%w: close #%d: %v", ErrAPI, number, err)
	}
	return nil
}

// CreateDeletedTicketIssue creates the closed placeholder that keeps issue
// numbers aligned with ticket ids when a ticket was deleted in the tracker.
func (c *Client) CreateDeletedTicketIssue(ctx context.Context, owner, name string, ticketID int) error {
	title := fmt.Sprintf("Deleted Trac Ticket #%d", ticketID)
	body := "This ticket was deleted in the original tracker. " +
		"The issue exists only to keep issue numbers aligned with ticket ids."
	number, err := c.CreateIssue(ctx, owner, name, title, body, []string{MigratedLabel})
	if err != nil {
		return err
	}
	return c.CloseIssue(ctx, owner, name, number)
}

// retryOnAbuse runs fn and retries it once per abuse rejection, sleeping
// for the delay the API names or the configured fallback.
func retryOnAbuse[T any](ctx context.Context, c *Client, fn func() (T, error)) (T, error) {
	for {
		result, err := fn()
		var abuse *gh.AbuseRateLimitError
		if !errors.As(err, &abuse) {
			return result, err
		}
		wait := c.abuseWait
		if abuse.RetryAfter != nil {
			wait = *abuse.RetryAfter
		}
		c.log.Warn("abuse rate limit hit, backing off", "wait", wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return result, ctx.Err()
		}
	}
}
