package authz

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ErrEmptyAllowList is returned when no usable allow-list entry was configured.
var ErrEmptyAllowList = errors.New("allow-list has no entries")

// AllowList is an ordered, immutable set of email-domain suffixes.
type AllowList struct {
	entries []string
}

// NewAllowList normalizes raw entries and rejects ones that would match a whole public suffix.
// A leading "@" or "." is stripped; blank entries are dropped. Case is preserved.
func NewAllowList(raw []string) (AllowList, error) {
	entries := make([]string, 0, len(raw))
	for _, r := range raw {
		e := normalizeEntry(r)
		if e == "" {
			continue
		}
		if isPublicSuffix(e) {
			return AllowList{}, fmt.Errorf("allow-list entry %q is a public suffix", e)
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return AllowList{}, ErrEmptyAllowList
	}
	return AllowList{entries: entries}, nil
}

// Entries returns a copy of the normalized entries in evaluation order.
func (a AllowList) Entries() []string {
	return append([]string(nil), a.entries...)
}

// Len reports the number of entries.
func (a AllowList) Len() int { return len(a.entries) }

// Evaluate decides whether email belongs to an allowed domain.
// The domain part must equal an entry or end with "."+entry. The first matching
// entry is returned. An empty list, an empty email, or one without a domain is denied.
func (a AllowList) Evaluate(email string) (Decision, string) {
	domain := emailDomain(email)
	if domain == "" {
		return DecisionDenied, ""
	}
	for i := range a.entries {
		if matchSuffix(domain, a.entries[i]) {
			return DecisionApproved, a.entries[i]
		}
	}
	return DecisionDenied, ""
}

func matchSuffix(domain, entry string) bool {
	if domain == entry {
		return true
	}
	if !strings.HasSuffix(domain, entry) {
		return false
	}
	// Require a label boundary so "evilacme.com" does not match "acme.com".
	return domain[len(domain)-len(entry)-1] == '.'
}

// emailDomain returns the part after the single "@", or "" when the address
// has no local part, no domain or more than one "@".
func emailDomain(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return ""
	}
	return domain
}

func normalizeEntry(raw string) string {
	e := strings.TrimSpace(raw)
	e = strings.TrimPrefix(e, "@")
	e = strings.TrimLeft(e, ".")
	return e
}

func isPublicSuffix(entry string) bool {
	e := strings.ToLower(entry)
	ps, _ := publicsuffix.PublicSuffix(e)
	return ps == e
}
