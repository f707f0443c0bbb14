// Package auth holds the credential model and the authorization
// collaborator used by dispatch. Requests without credentials bypass
// authorization entirely (trusted local caller); requests carrying any
// credential field must pass the configured Authorizer before any
// operation code runs.
package auth

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vexlio/courier/internal/fault"
)

// Credentials is the authentication metadata extracted from an
// invocation request. Zero-value fields were absent from the request.
type Credentials struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Eauth    string `json:"eauth,omitempty"`
	Token    string `json:"token,omitempty"`
	Client   string `json:"client,omitempty"`
}

// Empty reports whether no credential field was supplied.
func (c *Credentials) Empty() bool {
	return c == nil || *c == Credentials{}
}

// Authorizer decides whether a set of credentials may execute a
// named function.
type Authorizer interface {
	Authorize(ctx context.Context, creds *Credentials, fun string) error
}

// UserACL grants one eauth user access to a set of function patterns.
// Patterns use path.Match globs ("jobs.*", "status.ping"); an empty
// pattern list grants access to every function.
type UserACL struct {
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	Eauth     string   `json:"eauth"`
	Functions []string `json:"functions"`
}

// Static is a fixed-table Authorizer: users are checked against a
// configured ACL list, and tokens issued by this instance are honored
// until they expire.
type Static struct {
	users []UserACL

	mu       sync.Mutex
	tokens   map[string]tokenEntry
	tokenTTL time.Duration
}

type tokenEntry struct {
	acl     UserACL
	expires time.Time
}

// NewStatic builds a Static authorizer from an ACL table.
func NewStatic(users []UserACL, tokenTTL time.Duration) *Static {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &Static{
		users:    users,
		tokens:   make(map[string]tokenEntry),
		tokenTTL: tokenTTL,
	}
}

// Authorize validates the credentials and checks the target function
// against the matching user's allowed patterns.
func (s *Static) Authorize(_ context.Context, creds *Credentials, fun string) error {
	if creds.Empty() {
		return nil
	}

	var acl *UserACL
	if creds.Token != "" {
		entry, ok := s.lookupToken(creds.Token)
		if !ok {
			return fault.Authorization("invalid or expired token")
		}
		acl = &entry.acl
	} else {
		for i := range s.users {
			u := &s.users[i]
			if u.Username == creds.Username && u.Eauth == creds.Eauth {
				if u.Password != creds.Password {
					return fault.Authorization("invalid password for " + creds.Username)
				}
				acl = u
				break
			}
		}
		if acl == nil {
			return fault.Authorization("no " + creds.Eauth + " entry for user " + creds.Username)
		}
	}

	if !matchScope(acl.Functions, fun) {
		return fault.Authorization("user " + acl.Username + " is not allowed to run " + fun)
	}
	return nil
}

// IssueToken authenticates the credentials and returns a fresh token
// bound to the matching user's ACL.
func (s *Static) IssueToken(_ context.Context, creds *Credentials) (string, error) {
	if creds.Empty() || creds.Username == "" {
		return "", fault.Authorization("token request requires username credentials")
	}
	for i := range s.users {
		u := &s.users[i]
		if u.Username == creds.Username && u.Eauth == creds.Eauth && u.Password == creds.Password {
			tok := uuid.NewString()
			s.mu.Lock()
			s.tokens[tok] = tokenEntry{acl: *u, expires: time.Now().Add(s.tokenTTL)}
			s.mu.Unlock()
			return tok, nil
		}
	}
	return "", fault.Authorization("authentication failed for " + creds.Username)
}

func (s *Static) lookupToken(tok string) (tokenEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tokens[tok]
	if !ok {
		return tokenEntry{}, false
	}
	if time.Now().After(entry.expires) {
		delete(s.tokens, tok)
		return tokenEntry{}, false
	}
	return entry, true
}

// matchScope checks a function name against glob patterns. An empty
// pattern list means no restriction.
func matchScope(patterns []string, fun string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if p == fun {
			return true
		}
		if ok, _ := path.Match(p, fun); ok {
			return true
		}
	}
	return false
}

// AllowAll is an Authorizer that accepts every request. Used when no
// external auth is configured.
type AllowAll struct{}

func (AllowAll) Authorize(context.Context, *Credentials, string) error { return nil }
