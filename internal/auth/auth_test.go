package auth

import (
	"context"
	"testing"
	"time"

	"github.com/vexlio/courier/internal/fault"
)

func testUsers() []UserACL {
	return []UserACL{
		{Username: "opsbot", Password: "opsbot", Eauth: "pam", Functions: []string{"jobs.*", "status.ping"}},
		{Username: "root", Password: "hunter2", Eauth: "pam"},
	}
}

func TestStaticAuthorizeAllows(t *testing.T) {
	s := NewStatic(testUsers(), 0)
	creds := &Credentials{Username: "opsbot", Password: "opsbot", Eauth: "pam"}

	for _, fun := range []string{"jobs.list_jobs", "jobs.active", "status.ping"} {
		if err := s.Authorize(context.Background(), creds, fun); err != nil {
			t.Fatalf("authorize %s: %v", fun, err)
		}
	}
}

func TestStaticAuthorizeScopeDenied(t *testing.T) {
	s := NewStatic(testUsers(), 0)
	creds := &Credentials{Username: "opsbot", Password: "opsbot", Eauth: "pam"}

	err := s.Authorize(context.Background(), creds, "test.fail")
	if fault.KindOf(err) != fault.KindAuthorization {
		t.Fatalf("expected authorization fault, got %v", err)
	}
}

func TestStaticAuthorizeBadPassword(t *testing.T) {
	s := NewStatic(testUsers(), 0)
	creds := &Credentials{Username: "opsbot", Password: "wrong", Eauth: "pam"}

	if err := s.Authorize(context.Background(), creds, "jobs.active"); err == nil {
		t.Fatal("bad password must be denied")
	}
}

func TestStaticAuthorizeUnknownUser(t *testing.T) {
	s := NewStatic(testUsers(), 0)
	creds := &Credentials{Username: "ghost", Password: "x", Eauth: "pam"}

	if err := s.Authorize(context.Background(), creds, "status.ping"); err == nil {
		t.Fatal("unknown user must be denied")
	}
}

func TestStaticUnrestrictedUser(t *testing.T) {
	s := NewStatic(testUsers(), 0)
	creds := &Credentials{Username: "root", Password: "hunter2", Eauth: "pam"}

	if err := s.Authorize(context.Background(), creds, "anything.at_all"); err != nil {
		t.Fatalf("empty pattern list must allow everything: %v", err)
	}
}

func TestEmptyCredentialsBypass(t *testing.T) {
	s := NewStatic(nil, 0)
	if err := s.Authorize(context.Background(), &Credentials{}, "status.ping"); err != nil {
		t.Fatalf("empty credentials must bypass the check: %v", err)
	}
	if err := s.Authorize(context.Background(), nil, "status.ping"); err != nil {
		t.Fatalf("nil credentials must bypass the check: %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	s := NewStatic(testUsers(), time.Minute)
	ctx := context.Background()

	tok, err := s.IssueToken(ctx, &Credentials{Username: "opsbot", Password: "opsbot", Eauth: "pam"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if err := s.Authorize(ctx, &Credentials{Token: tok}, "jobs.active"); err != nil {
		t.Fatalf("token authorize: %v", err)
	}
	if err := s.Authorize(ctx, &Credentials{Token: "bogus"}, "jobs.active"); err == nil {
		t.Fatal("bogus token must be denied")
	}
}

func TestTokenExpiry(t *testing.T) {
	s := NewStatic(testUsers(), time.Minute)
	ctx := context.Background()

	tok, err := s.IssueToken(ctx, &Credentials{Username: "opsbot", Password: "opsbot", Eauth: "pam"})
	if err != nil {
		t.Fatal(err)
	}
	s.mu.Lock()
	entry := s.tokens[tok]
	entry.expires = time.Now().Add(-time.Second)
	s.tokens[tok] = entry
	s.mu.Unlock()

	if err := s.Authorize(ctx, &Credentials{Token: tok}, "jobs.active"); err == nil {
		t.Fatal("expired token must be denied")
	}
}

func TestIssueTokenBadCredentials(t *testing.T) {
	s := NewStatic(testUsers(), 0)
	if _, err := s.IssueToken(context.Background(), &Credentials{Username: "opsbot", Password: "nope", Eauth: "pam"}); err == nil {
		t.Fatal("token must not be issued for bad credentials")
	}
}
