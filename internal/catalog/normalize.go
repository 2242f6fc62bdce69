package catalog

import (
	"regexp"
	"strings"

	"valvefinder/internal"
	"valvefinder/internal/util"
)

var (
	rePathSegment = regexp.MustCompile(`(?i)/valve/([A-Za-z0-9_-]+)`)
	reQueryID     = regexp.MustCompile(`(?i)[?&]id=([A-Za-z0-9_-]+)`)
)

// KeyLookup is the read side of a catalog that FindValveID searches.
type KeyLookup interface {
	Has(key string) bool
	All() []internal.ValveRecord
}

// Normalizer derives candidate lookup keys from scanned or typed codes.
// Schemes lists the wrapper schemes accepted as "scheme:<id>" and
// "scheme://<id>"; the zero value accepts "valve".
type Normalizer struct {
	Schemes []string
}

var defaultNormalizer = Normalizer{Schemes: []string{"valve"}}

// CandidateKeys returns the keys to try for input, most specific first.
func CandidateKeys(input string) []string {
	return defaultNormalizer.CandidateKeys(input)
}

// FindValveID resolves input against keys using the default normalizer.
func FindValveID(keys KeyLookup, input string) (string, bool) {
	return defaultNormalizer.FindValveID(keys, input)
}

func (n Normalizer) CandidateKeys(input string) []string {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return nil
	}

	bases := make([]string, 0, 2)
	if extracted := n.extract(raw); extracted != "" {
		bases = append(bases, extracted)
	}
	bases = append(bases, raw)

	seen := map[string]struct{}{}
	out := make([]string, 0, len(bases)*3)
	add := func(k string) {
		if k == "" {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	for _, b := range bases {
		lower := strings.ToLower(b)
		add(b)
		add(lower)
		add(util.Slug(lower))
	}
	return out
}

// FindValveID returns the first candidate key present in keys, falling back
// to a case- and accent-insensitive exact match on record names. The lookup
// has no side effects.
func (n Normalizer) FindValveID(keys KeyLookup, input string) (string, bool) {
	if keys == nil {
		return "", false
	}
	candidates := n.CandidateKeys(input)
	if len(candidates) == 0 {
		return "", false
	}
	for _, c := range candidates {
		if keys.Has(c) {
			return c, true
		}
	}

	// candidates[0] is the extracted id when a wrapper matched, otherwise the raw input.
	want := util.FoldName(candidates[0])
	for _, r := range keys.All() {
		if util.FoldName(r.Name) == want {
			return r.ID, true
		}
	}
	return "", false
}

func (n Normalizer) extract(raw string) string {
	schemes := n.Schemes
	if len(schemes) == 0 {
		schemes = defaultNormalizer.Schemes
	}
	for _, scheme := range schemes {
		if id := extractScheme(raw, scheme); id != "" {
			return id
		}
	}
	if m := rePathSegment.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if m := reQueryID.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

// extractScheme matches "scheme:<id>" (optional spaces after the colon) and
// "scheme://<id>", where <id> holds no whitespace, '?', '#' or '/'.
func extractScheme(raw, scheme string) string {
	if len(raw) <= len(scheme)+1 || !strings.EqualFold(raw[:len(scheme)], scheme) || raw[len(scheme)] != ':' {
		return ""
	}
	rest := raw[len(scheme)+1:]
	if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
	} else {
		rest = strings.TrimLeft(rest, " \t")
	}
	if rest == "" || strings.ContainsAny(rest, " \t\r\n?#/") {
		return ""
	}
	return rest
}
