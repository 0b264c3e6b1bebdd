// Package guard decides whether a protected view may render for the
// current session.
//
// The guard is advisory. It exists so the client does not flash a view the
// user cannot use; it is not a security boundary. Every read and write it
// gates is checked again by the server's access policy (internal/policy),
// and a client that skips the guard is still rejected there.
package guard

import (
	"github.com/Shivanand-hulikatti/eventix/internal/model"
	"github.com/Shivanand-hulikatti/eventix/internal/session"
)

// Kind is the outcome of a guard decision.
type Kind int

const (
	// Wait means the session is still resolving; render a loading state.
	Wait Kind = iota
	// RedirectToLogin means nobody is signed in.
	RedirectToLogin
	// Deny means the signed-in user lacks the required role.
	Deny
	// Allow means the view may render.
	Allow
)

func (k Kind) String() string {
	switch k {
	case Wait:
		return "wait"
	case RedirectToLogin:
		return "redirect_to_login"
	case Deny:
		return "deny"
	case Allow:
		return "allow"
	default:
		return "unknown"
	}
}

// Decision is what the guard returns. ReturnPath is set only for
// RedirectToLogin.
type Decision struct {
	Kind       Kind
	ReturnPath string
}

// Decide evaluates st against the required role. An empty required role
// only asks for a signed-in user. Decide has no side effects; call it again
// whenever the session changes.
func Decide(st session.State, required model.Role, location string) Decision {
	switch {
	case st.Resolving:
		return Decision{Kind: Wait}
	case st.Identity == nil:
		return Decision{Kind: RedirectToLogin, ReturnPath: location}
	case required != "" && (st.Profile == nil || st.Profile.UserType != required):
		return Decision{Kind: Deny}
	default:
		return Decision{Kind: Allow}
	}
}
