package match

import "strings"

const (
	// descPrefixLen is how much of a normalized description participates in
	// the fingerprint. Long postings differ in boilerplate tails; the head is
	// the stable part.
	descPrefixLen = 500

	// minDescLen below which a description is too thin to identify a posting
	// and the location is used instead.
	minDescLen = 50
)

type FingerprintInput struct {
	Title       string
	Company     string
	Description string
	Location    string
}

// Fingerprint derives a content-based identity for a posting, used when URL
// identity is unavailable or unreliable. Stable under letter-case and
// whitespace variation in any field.
func Fingerprint(in FingerprintInput) string {
	title := normalizeText(in.Title)
	company := normalizeText(in.Company)
	desc := normalizeText(in.Description)

	if len([]rune(desc)) >= minDescLen {
		r := []rune(desc)
		if len(r) > descPrefixLen {
			r = r[:descPrefixLen]
		}
		return title + "|" + company + "|" + string(r)
	}

	return title + "|" + company + "|" + normalizeText(in.Location)
}

// normalizeText lowercases and collapses all internal whitespace runs to a
// single space.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
