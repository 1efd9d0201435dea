// Package githubapi is the single chokepoint for outbound GitHub REST
// calls. Every other component reaches GitHub through this client so
// rate limiting, retries, and absent-vs-error semantics are enforced in
// exactly one place.
package githubapi

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/time/rate"

	"github.com/ckerr6/talentgraph/internal/logging"
)

// Config controls the client's pacing and retry behavior. Zero values
// are replaced with the spec defaults by NewClient.
type Config struct {
	Token            string
	RequestDelay     time.Duration // D: minimum inter-request delay
	RateLimitBuffer  int           // R_buffer: block when remaining drops below this
	MaxRetries       int           // M
	RetryBackoffBase time.Duration
}

func (c Config) withDefaults() Config {
	if c.RequestDelay <= 0 {
		c.RequestDelay = 720 * time.Millisecond
	}
	if c.RateLimitBuffer <= 0 {
		c.RateLimitBuffer = 100
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoffBase <= 0 {
		c.RetryBackoffBase = 2 * time.Second
	}
	return c
}

// Client wraps go-github with a single logical request channel: a
// monotonic inter-request delay, remaining-budget tracking from
// response headers, and backoff retry on transient failure.
type Client struct {
	gh     *github.Client
	cfg    Config
	pacer  *rate.Limiter
	remaining int
	resetAt   time.Time
}

// NewClient builds a client authenticated with token. An empty token
// still works but collapses the rate limit to ~60 req/hr.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()

	gh := github.NewClient(nil)
	if cfg.Token != "" {
		gh = gh.WithAuthToken(cfg.Token)
	}

	return &Client{
		gh:        gh,
		cfg:       cfg,
		pacer:     rate.NewLimiter(rate.Every(cfg.RequestDelay), 1),
		remaining: math.MaxInt32,
	}
}

// SetBaseURLForTesting redirects a client's REST and upload endpoints,
// letting other packages' tests point it at an httptest server.
func SetBaseURLForTesting(c *Client, base *url.URL) {
	c.gh.BaseURL = base
	c.gh.UploadURL = base
}

// Result wraps a successful response with its absence state: a 404 is
// reported via Absent=true, not an error.
type Result[T any] struct {
	Value  T
	Absent bool
}

// throttle blocks until the pacer admits the next request and, if the
// remaining budget has dropped below the configured buffer, until the
// rate-limit window resets.
func (c *Client) throttle(ctx context.Context) error {
	if c.remaining < c.cfg.RateLimitBuffer && !c.resetAt.IsZero() {
		wait := time.Until(c.resetAt.Add(time.Second))
		if wait > 0 {
			logging.Warn("rate limit buffer exhausted, sleeping until reset",
				"remaining", c.remaining, "wait", wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return c.pacer.Wait(ctx)
}

func (c *Client) recordRateLimit(resp *github.Response) {
	if resp == nil {
		return
	}
	c.remaining = resp.Rate.Remaining
	if !resp.Rate.Reset.IsZero() {
		c.resetAt = resp.Rate.Reset.Time
	}
}

func isRateLimitBody(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit")
}

// call executes op, retrying transient failures with exponential
// backoff, and handling 403-rate-limit-body and 404-absent specially.
// It emits a structured event for every attempt.
func (c *Client) call(ctx context.Context, endpoint string, op func() (*github.Response, error)) error {
	var lastErr error
	rateLimitRetried := false

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.throttle(ctx); err != nil {
			return err
		}

		start := time.Now()
		resp, err := op()
		elapsed := time.Since(start)
		c.recordRateLimit(resp)

		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		logging.Debug("github api request",
			"endpoint", endpoint, "attempt", attempt, "status", status,
			"elapsed", elapsed, "remaining", c.remaining)

		if err == nil {
			return nil
		}

		if status == 404 {
			return errAbsent
		}

		if status == 403 && isRateLimitBody(err) {
			if rateLimitRetried {
				return fmt.Errorf("github api %s: rate limited again after reset wait: %w", endpoint, err)
			}
			rateLimitRetried = true
			wait := time.Until(c.resetAt.Add(time.Second))
			if wait > 0 {
				logging.Warn("rate limit exceeded, waiting for reset", "endpoint", endpoint, "wait", wait)
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			lastErr = err
			continue // single retry after the wait
		}

		if status >= 500 || status == 0 {
			lastErr = err
			backoff := time.Duration(float64(c.cfg.RetryBackoffBase) * math.Pow(2, float64(attempt)))
			logging.Warn("transient github api error, retrying",
				"endpoint", endpoint, "attempt", attempt, "backoff", backoff, "error", err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		// Non-retryable (auth, 4xx other than 404/403-ratelimit): fatal.
		return fmt.Errorf("github api %s: %w", endpoint, err)
	}

	return fmt.Errorf("github api %s: exhausted retries: %w", endpoint, lastErr)
}

var errAbsent = fmt.Errorf("absent")

// IsAbsent reports whether err represents a 404 "not found" result
// rather than a genuine failure.
func IsAbsent(err error) bool {
	return err == errAbsent
}

// GetUser fetches a user's profile. A 404 is reported as IsAbsent(err).
func (c *Client) GetUser(ctx context.Context, login string) (*github.User, error) {
	var user *github.User
	err := c.call(ctx, "GetUser", func() (*github.Response, error) {
		u, resp, err := c.gh.Users.Get(ctx, login)
		user = u
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ListUserRepos returns every repository owned by login, paginated.
func (c *Client) ListUserRepos(ctx context.Context, login string) ([]*github.Repository, error) {
	opts := &github.RepositoryListOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []*github.Repository
	for {
		var page []*github.Repository
		var nextPage int
		err := c.call(ctx, "ListUserRepos", func() (*github.Response, error) {
			repos, resp, err := c.gh.Repositories.List(ctx, login, opts)
			page = repos
			if resp != nil {
				nextPage = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if nextPage == 0 {
			break
		}
		opts.Page = nextPage
	}
	return all, nil
}

// GetRepo fetches a single repository by owner/name. A 404 is reported
// as IsAbsent(err).
func (c *Client) GetRepo(ctx context.Context, owner, name string) (*github.Repository, error) {
	var repo *github.Repository
	err := c.call(ctx, "GetRepo", func() (*github.Response, error) {
		r, resp, err := c.gh.Repositories.Get(ctx, owner, name)
		repo = r
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// GetOrg fetches an organization's profile.
func (c *Client) GetOrg(ctx context.Context, name string) (*github.Organization, error) {
	var org *github.Organization
	err := c.call(ctx, "GetOrg", func() (*github.Response, error) {
		o, resp, err := c.gh.Organizations.Get(ctx, name)
		org = o
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// ListOrgMembers returns every public member of an organization.
func (c *Client) ListOrgMembers(ctx context.Context, org string) ([]*github.User, error) {
	opts := &github.ListMembersOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []*github.User
	for {
		var page []*github.User
		var nextPage int
		err := c.call(ctx, "ListOrgMembers", func() (*github.Response, error) {
			members, resp, err := c.gh.Organizations.ListMembers(ctx, org, opts)
			page = members
			if resp != nil {
				nextPage = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if nextPage == 0 {
			break
		}
		opts.Page = nextPage
	}
	return all, nil
}

// ListOrgRepos returns every repository owned by an organization.
func (c *Client) ListOrgRepos(ctx context.Context, org string) ([]*github.Repository, error) {
	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []*github.Repository
	for {
		var page []*github.Repository
		var nextPage int
		err := c.call(ctx, "ListOrgRepos", func() (*github.Response, error) {
			repos, resp, err := c.gh.Repositories.ListByOrg(ctx, org, opts)
			page = repos
			if resp != nil {
				nextPage = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if nextPage == 0 {
			break
		}
		opts.Page = nextPage
	}
	return all, nil
}

// maxContributorPages bounds contributor pagination to ~1,000
// contributors so long-tail repos don't dominate crawl time.
const maxContributorPages = 10

// ListRepoContributors returns a repo's contributors, excluding bot
// accounts (type != "User"), paginated up to maxContributorPages.
func (c *Client) ListRepoContributors(ctx context.Context, owner, name string) ([]*github.Contributor, error) {
	opts := &github.ListContributorsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []*github.Contributor
	for page := 0; page < maxContributorPages; page++ {
		var batch []*github.Contributor
		var nextPage int
		err := c.call(ctx, "ListRepoContributors", func() (*github.Response, error) {
			contributors, resp, err := c.gh.Repositories.ListContributors(ctx, owner, name, opts)
			batch = contributors
			if resp != nil {
				nextPage = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}

		for _, contributor := range batch {
			if contributor.GetType() != "" && contributor.GetType() != "User" {
				continue
			}
			all = append(all, contributor)
		}

		if nextPage == 0 {
			break
		}
		opts.Page = nextPage
	}
	return all, nil
}

// GetRepoLanguages returns a map of language name to byte count.
func (c *Client) GetRepoLanguages(ctx context.Context, owner, name string) (map[string]int64, error) {
	var langs map[string]int
	err := c.call(ctx, "GetRepoLanguages", func() (*github.Response, error) {
		l, resp, err := c.gh.Repositories.ListLanguages(ctx, owner, name)
		langs = l
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(langs))
	for k, v := range langs {
		out[k] = int64(v)
	}
	return out, nil
}

// RateLimitStatus is the result of CheckRateLimit.
type RateLimitStatus struct {
	Remaining int
	ResetAt   time.Time
}

// CheckRateLimit returns the client's last observed remaining budget and
// reset time without issuing a new request.
func (c *Client) CheckRateLimit() RateLimitStatus {
	return RateLimitStatus{Remaining: c.remaining, ResetAt: c.resetAt}
}
