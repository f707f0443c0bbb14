// Package call turns a loosely-shaped invocation request into a
// canonical call record: function name, credentials, and residual
// kwargs, with the credential keys partitioned out by a fixed
// allow-list so they can never leak into operation arguments.
package call

import (
	"github.com/vexlio/courier/internal/auth"
	"github.com/vexlio/courier/internal/fault"
)

// credentialKeys is the fixed set of authentication-related keys
// recognized in an invocation request. Checked as a whole in a single
// partition pass; extraction order does not matter.
var credentialKeys = map[string]struct{}{
	"username": {},
	"password": {},
	"eauth":    {},
	"token":    {},
	"client":   {},
}

// controlKeys are request-level flags consumed by the dispatch layer,
// never forwarded to operations.
var controlKeys = map[string]struct{}{
	"doc":   {},
	"async": {},
	"quiet": {},
	"arg":   {},
	"out":   {},
}

// Call is the canonical invocation record derived from one request.
type Call struct {
	Function    string
	Credentials *auth.Credentials
	Kwargs      map[string]any
}

// HasCredentials reports whether the request carried any credential key.
func (c *Call) HasCredentials() bool {
	return !c.Credentials.Empty()
}

// Normalize partitions a raw request map into a canonical Call. The
// input map is not mutated. A request without a "fun" key fails with a
// missing-function fault before any later stage can run.
func Normalize(req map[string]any) (*Call, error) {
	funVal, ok := req["fun"]
	fun, isStr := funVal.(string)
	if !ok || !isStr || fun == "" {
		return nil, fault.MissingFunction()
	}

	creds := &auth.Credentials{}
	kwargs := make(map[string]any, len(req))
	for k, v := range req {
		if k == "fun" {
			continue
		}
		if _, isCred := credentialKeys[k]; isCred {
			s, _ := v.(string)
			switch k {
			case "username":
				creds.Username = s
			case "password":
				creds.Password = s
			case "eauth":
				creds.Eauth = s
			case "token":
				creds.Token = s
			case "client":
				creds.Client = s
			}
			continue
		}
		if _, isCtl := controlKeys[k]; isCtl {
			continue
		}
		kwargs[k] = v
	}

	return &Call{Function: fun, Credentials: creds, Kwargs: kwargs}, nil
}
