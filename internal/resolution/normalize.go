package resolution

import (
	"regexp"
	"strings"
)

var (
	companySuffixes  = regexp.MustCompile(`(?i)\b(inc|llc|ltd|corp|corporation|co|company|gmbh|plc)\b\.?`)
	nonAlphanumeric  = regexp.MustCompile(`[^a-z0-9]+`)
	collapsibleSpace = regexp.MustCompile(`\s+`)
	linkedInSlugRe   = regexp.MustCompile(`linkedin\.com/(?:in|company)/([A-Za-z0-9\-_%]+)`)
)

// NormalizeCompany strips legal suffixes and punctuation so "Acme Inc."
// and "acme" collapse to the same key. Idempotent: normalizing an
// already-normalized name is a no-op.
func NormalizeCompany(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = companySuffixes.ReplaceAllString(n, " ")
	n = nonAlphanumeric.ReplaceAllString(n, " ")
	n = collapsibleSpace.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// ExtractLinkedInSlug pulls the /in/ or /company/ slug out of free-form
// bio text, or "" if none is present.
func ExtractLinkedInSlug(bio string) string {
	m := linkedInSlugRe.FindStringSubmatch(bio)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// linkedInProfilePath matches only the personal-profile form,
// linkedin.com/in/<slug>; company and school pages don't identify a
// person and are rejected.
var linkedInProfilePath = regexp.MustCompile(`^linkedin\.com/in/([a-z0-9\-_%]+)`)

// NormalizeLinkedInURL lowercases and strips the scheme, host, and any
// trailing slash/query so two differently-formatted URLs referencing
// the same profile compare equal. Only the linkedin.com/in/<slug> form
// is retained; anything else (company pages, bare domains, non-LinkedIn
// URLs) normalizes to "". Idempotent.
func NormalizeLinkedInURL(rawURL string) string {
	u := strings.ToLower(strings.TrimSpace(rawURL))
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "www.")
	if idx := strings.Index(u, "?"); idx >= 0 {
		u = u[:idx]
	}
	u = strings.TrimSuffix(u, "/")

	m := linkedInProfilePath.FindStringSubmatch(u)
	if m == nil {
		return ""
	}
	return "linkedin.com/in/" + m[1]
}

// SplitName takes a GitHub display name and returns (firstName,
// lastName) per the resolver's convention: the first whitespace token
// is the first name, everything else is the last name.
func SplitName(name string) (first, last string) {
	fields := strings.Fields(strings.TrimSpace(name))
	if len(fields) == 0 {
		return "", ""
	}
	if len(fields) == 1 {
		return fields[0], ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}
