package catalog

import (
	"regexp"
	"sort"
	"strings"

	"valvefinder/internal"
	"valvefinder/internal/util"
)

// Banks is the fixed bank vocabulary, in display order.
var Banks = []string{"A", "B", "C", "D"}

type bankPattern struct {
	tag     string
	phrases []*regexp.Regexp
}

// bankPatterns matches "Banco A" / "Bank A" style phrases. Input is
// upper-cased before matching.
var bankPatterns = buildBankPatterns(Banks)

func buildBankPatterns(tags []string) []bankPattern {
	out := make([]bankPattern, 0, len(tags))
	for _, tag := range tags {
		out = append(out, bankPattern{
			tag: tag,
			phrases: []*regexp.Regexp{
				regexp.MustCompile(`BANC?O\s*` + tag + `\b`),
				regexp.MustCompile(`\bBANK\s*` + tag + `\b`),
			},
		})
	}
	return out
}

// BankSet is a set of bank tags.
type BankSet map[string]struct{}

func NewBankSet(tags ...string) BankSet {
	s := BankSet{}
	for _, t := range tags {
		s.Add(t)
	}
	return s
}

// ParseBanks builds a set from "a,c" style input, ignoring anything outside the vocabulary.
func ParseBanks(input string) BankSet {
	s := BankSet{}
	for _, part := range strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' || r == ';' }) {
		s.Add(part)
	}
	return s
}

// Add inserts tag when it belongs to the vocabulary.
func (s BankSet) Add(tag string) {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	if isBank(tag) {
		s[tag] = struct{}{}
	}
}

func (s BankSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

func (s BankSet) Intersects(other BankSet) bool {
	for t := range s {
		if other.Has(t) {
			return true
		}
	}
	return false
}

// Sorted returns the tags in vocabulary order.
func (s BankSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func isBank(tag string) bool {
	for _, b := range Banks {
		if b == tag {
			return true
		}
	}
	return false
}

// matchBankPhrase returns the tag named by a bank phrase in s, or the value
// itself when s is exactly a vocabulary letter.
func matchBankPhrase(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	for _, p := range bankPatterns {
		for _, re := range p.phrases {
			if re.MatchString(s) {
				return p.tag
			}
		}
		if s == p.tag {
			return p.tag
		}
	}
	return ""
}

// CanonicalBank maps an explicit bank value ("b", "Banco B", "BANK B") to its
// vocabulary tag; anything else yields "".
func CanonicalBank(value string) string {
	return matchBankPhrase(value)
}

// GetBank infers the single canonical bank of a record. Fields are scanned in
// priority order: explicit bank, name, location, notes, id, ref.
func GetBank(r internal.ValveRecord) string {
	fields := make([]string, 0, 5+len(r.Location))
	fields = append(fields, r.Bank, r.Name)
	fields = append(fields, r.Location...)
	fields = append(fields, r.Notes, r.ID, r.Ref)
	for _, f := range fields {
		if tag := matchBankPhrase(f); tag != "" {
			return tag
		}
	}
	return ""
}

// GetBanks returns every bank a record belongs to for filtering: the canonical
// bank plus whatever each location token names. A token that is not a bank
// phrase but starts with a vocabulary letter counts as that bank, so
// "Almacén" yields A and "Banco A" yields both A and B.
func GetBanks(r internal.ValveRecord) BankSet {
	out := BankSet{}
	if b := GetBank(r); b != "" {
		out.Add(b)
	}
	for _, loc := range r.Location {
		for _, tok := range util.SplitLocation(loc) {
			if tag := bankFromToken(tok); tag != "" {
				out.Add(tag)
			}
		}
	}
	return out
}

func bankFromToken(tok string) string {
	if tag := matchBankPhrase(tok); tag != "" {
		return tag
	}
	s := strings.ToUpper(strings.TrimSpace(tok))
	if s == "" {
		return ""
	}
	if first := s[:1]; isBank(first) {
		return first
	}
	return ""
}

// DatasetHasBanks reports whether any record yields at least one bank, i.e.
// whether bank filtering means anything for the loaded dataset.
func DatasetHasBanks(records []internal.ValveRecord) bool {
	for _, r := range records {
		if len(GetBanks(r)) > 0 {
			return true
		}
	}
	return false
}

// CountByBank returns how many records fall under each bank.
func CountByBank(records []internal.ValveRecord) map[string]int {
	out := map[string]int{}
	for _, r := range records {
		for t := range GetBanks(r) {
			out[t]++
		}
	}
	return out
}
