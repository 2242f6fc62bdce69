package util

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reSlugUnsafe  = regexp.MustCompile(`[^a-z0-9_-]+`)
	reSeparators  = regexp.MustCompile(`[_-]+`)
	reValveWord   = regexp.MustCompile(`(?i)\bvalvula\b`)
	reSpaces      = regexp.MustCompile(`\s+`)
	reLocationSep = regexp.MustCompile(`[/|;,.\-]+`)
	reExtension   = regexp.MustCompile(`\.[^.]+$`)
)

// Slug lowercases input and collapses every run of characters outside
// [a-z0-9_-] into a single dash.
func Slug(input string) string {
	return reSlugUnsafe.ReplaceAllString(strings.ToLower(input), "-")
}

// FoldName lowercases and strips accents so "Válvula" and "valvula" compare equal.
func FoldName(input string) string {
	// Chained transformers carry state; build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(input)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(input))
	}
	return out
}

// TitleFromFilename turns a file base name into a display title:
// "valvula_bola-2" -> "Válvula bola 2".
func TitleFromFilename(base string) string {
	pretty := reSeparators.ReplaceAllString(base, " ")
	if loc := reValveWord.FindStringIndex(pretty); loc != nil {
		pretty = pretty[:loc[0]] + "Válvula" + pretty[loc[1]:]
	}
	pretty = strings.TrimSpace(pretty)
	if pretty == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(pretty)
	return string(unicode.ToUpper(first)) + pretty[size:]
}

// FileBase strips any directory (either separator) from a path-like string.
func FileBase(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	return path
}

// StripExt removes the last extension of a file name.
func StripExt(file string) string {
	return reExtension.ReplaceAllString(file, "")
}

// SplitLocation splits free-form location text on the usual separators
// (/ | ; , . -) and whitespace, dropping empty tokens.
func SplitLocation(input string) []string {
	out := []string{}
	for _, part := range reLocationSep.Split(input, -1) {
		for _, tok := range strings.Fields(part) {
			if tok = strings.TrimSpace(tok); tok != "" {
				out = append(out, tok)
			}
		}
	}
	return out
}

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func Deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// DiceCoefficient scores two strings by shared character bigrams.
func DiceCoefficient(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	pairs := func(s string) []string {
		r := []rune(s)
		if len(r) < 2 {
			return nil
		}
		out := make([]string, 0, len(r)-1)
		for i := 0; i < len(r)-1; i++ {
			out = append(out, string(r[i:i+2]))
		}
		return out
	}

	aPairs := pairs(a)
	bPairs := pairs(b)
	if len(aPairs) == 0 || len(bPairs) == 0 {
		return 0
	}

	bCount := map[string]int{}
	for _, p := range bPairs {
		bCount[p]++
	}
	inter := 0
	for _, p := range aPairs {
		if bCount[p] > 0 {
			inter++
			bCount[p]--
		}
	}

	return float64(2*inter) / float64(len(aPairs)+len(bPairs))
}
