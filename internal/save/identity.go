package save

import "strings"

// IdentityProvider reports the identity token of the current player, when
// one is observable. During scene transitions the host may briefly report
// nothing; the store papers over that window with its identity cache.
type IdentityProvider interface {
	CurrentIdentity() (string, bool)
}

// IdentityFunc adapts a plain function to IdentityProvider.
type IdentityFunc func() (string, bool)

func (f IdentityFunc) CurrentIdentity() (string, bool) { return f() }

// NoIdentity is a provider that never resolves. Useful before any host
// integration is attached, and in tests.
var NoIdentity = IdentityFunc(func() (string, bool) { return "", false })

// StaticIdentity always resolves to the given token.
func StaticIdentity(id string) IdentityProvider {
	return IdentityFunc(func() (string, bool) { return id, id != "" })
}

// sanitizeToken strips characters that are illegal in a file name so an
// identity token can be embedded in a save file key.
func sanitizeToken(token string) string {
	out := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return -1
		}
	}, token)
	if out == "" {
		return "UNKNOWN"
	}
	return out
}
