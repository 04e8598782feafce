package auth

import (
	"errors"
	"regexp"
	"strings"
)

// IdentifierKind says which user column an identifier should be looked up by.
type IdentifierKind int

const (
	IdentifierNone IdentifierKind = iota
	IdentifierEmail
	IdentifierUsername
)

func (k IdentifierKind) String() string {
	switch k {
	case IdentifierEmail:
		return "email"
	case IdentifierUsername:
		return "username"
	default:
		return "none"
	}
}

// Identifier is a normalized login identifier plus its classification.
type Identifier struct {
	Value string
	Kind  IdentifierKind
}

// Valid reports whether the identifier matched one of the patterns.
func (i Identifier) Valid() bool { return i.Kind != IdentifierNone }

var usernamePattern = regexp.MustCompile(`^[a-z0-9]+$`)

// IdentityResolver classifies login identifiers as an email or a username.
//
// Both patterns allow lowercase letters and digits only; the email pattern
// additionally requires "@<domain>". Because a username can never contain
// "@", no input matches both.
type IdentityResolver struct {
	domain       string
	emailPattern *regexp.Regexp
}

// NewIdentityResolver builds a resolver that accepts emails on domain only
// (for example "gmail.com").
func NewIdentityResolver(domain string) (*IdentityResolver, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" || strings.ContainsAny(domain, "@ ") {
		return nil, errors.New("auth: email domain must be a bare host name like gmail.com")
	}
	return &IdentityResolver{
		domain:       domain,
		emailPattern: regexp.MustCompile(`^[a-z0-9]+@` + regexp.QuoteMeta(domain) + `$`),
	}, nil
}

// Domain is the accepted email domain.
func (r *IdentityResolver) Domain() string { return r.domain }

// Normalize trims and lowercases an identifier, username or email.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Resolve normalizes raw and classifies it. Empty or whitespace-only input,
// and anything matching neither pattern, yields Kind == IdentifierNone.
func (r *IdentityResolver) Resolve(raw string) Identifier {
	v := Normalize(raw)
	switch {
	case v == "":
		return Identifier{}
	case r.emailPattern.MatchString(v):
		return Identifier{Value: v, Kind: IdentifierEmail}
	case usernamePattern.MatchString(v):
		return Identifier{Value: v, Kind: IdentifierUsername}
	default:
		return Identifier{Value: v}
	}
}

// ValidEmail reports whether an already-normalized value is an accepted email.
func (r *IdentityResolver) ValidEmail(v string) bool {
	return r.emailPattern.MatchString(v)
}

// ValidUsername reports whether an already-normalized value is a valid username.
func ValidUsername(v string) bool {
	return usernamePattern.MatchString(v)
}
