package githubapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(Config{
		RequestDelay:     time.Millisecond,
		RetryBackoffBase: time.Millisecond,
		MaxRetries:       2,
	})

	base, err := url.Parse(server.URL + "/")
	if err != nil {
		t.Fatalf("parse test server URL: %v", err)
	}
	c.gh.BaseURL = base
	c.gh.UploadURL = base
	return c
}

func TestGetUserNotFoundReportsAbsent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	}))

	_, err := c.GetUser(context.Background(), "ghost")
	if err == nil {
		t.Fatal("expected an error for a 404 response")
	}
	if !IsAbsent(err) {
		t.Fatalf("expected IsAbsent(err) to be true, got %v", err)
	}
}

func TestGetUserRetriesTransientServerErrorThenSucceeds(t *testing.T) {
	var attempts int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"message":"internal error"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"login":"octocat","id":1}`)
	}))

	user, err := c.GetUser(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("GetUser() error: %v", err)
	}
	if user.GetLogin() != "octocat" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", got)
	}
}

func TestGetUserExhaustsRetriesOnPersistentServerError(t *testing.T) {
	var attempts int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message":"internal error"}`)
	}))

	_, err := c.GetUser(context.Background(), "flaky")
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if IsAbsent(err) {
		t.Fatal("persistent 500s should not be reported as absent")
	}
	// MaxRetries=2 means attempts 0, 1, 2 are made: 3 total.
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Fatalf("expected 3 attempts (initial + 2 retries), got %d", got)
	}
}

func TestListRepoContributorsFiltersBotAccounts(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"login":"alice","type":"User","contributions":40},
			{"login":"dependabot[bot]","type":"Bot","contributions":12},
			{"login":"bob","type":"User","contributions":9}
		]`)
	}))

	contributors, err := c.ListRepoContributors(context.Background(), "acme", "widgets")
	if err != nil {
		t.Fatalf("ListRepoContributors() error: %v", err)
	}
	if len(contributors) != 2 {
		t.Fatalf("expected bot account filtered out, got %d contributors", len(contributors))
	}
	for _, contributor := range contributors {
		if contributor.GetLogin() == "dependabot[bot]" {
			t.Fatal("bot account should have been filtered out")
		}
	}
}

func TestGetRepoLanguagesConvertsToInt64(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"Go":123456,"Solidity":7890}`)
	}))

	langs, err := c.GetRepoLanguages(context.Background(), "acme", "widgets")
	if err != nil {
		t.Fatalf("GetRepoLanguages() error: %v", err)
	}
	if langs["Go"] != 123456 || langs["Solidity"] != 7890 {
		t.Fatalf("unexpected languages: %+v", langs)
	}
}
