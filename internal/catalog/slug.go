package catalog

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugger derives stable, URL- and path-safe slugs and keeps them unique
// within each sibling set. It is an explicit per-run object so concurrent
// builds (and tests) never share collision state.
type Slugger struct {
	// taken maps a sibling scope to the slugs already handed out there,
	// with the count of how often each base slug was requested.
	taken map[string]map[string]int
	// memo caches the resolved slug per entity key for idempotence
	// within a run.
	memo map[string]string
}

// NewSlugger creates an empty per-run slug resolver.
func NewSlugger() *Slugger {
	return &Slugger{
		taken: make(map[string]map[string]int),
		memo:  make(map[string]string),
	}
}

// Resolve returns the slug for an entity within its sibling scope. The
// first caller of a given base slug gets it untouched; later collisions in
// the same scope get deterministic -2, -3… suffixes in call (input) order.
// Repeated calls for the same entity key return the memoized slug.
func (s *Slugger) Resolve(scope, entityKey, title string) string {
	memoKey := scope + "\x00" + entityKey
	if slug, ok := s.memo[memoKey]; ok {
		return slug
	}

	base := Slugify(title)
	if base == "" {
		base = Slugify(entityKey)
	}
	if base == "" {
		base = "untitled"
	}

	siblings := s.taken[scope]
	if siblings == nil {
		siblings = make(map[string]int)
		s.taken[scope] = siblings
	}

	siblings[base]++
	slug := base
	if n := siblings[base]; n > 1 {
		slug = fmt.Sprintf("%s-%d", base, n)
		// The suffixed form could itself collide with an explicit title
		// like "Ocean Colour 2"; bump until free.
		for siblings[slug] > 0 {
			n++
			siblings[base] = n
			slug = fmt.Sprintf("%s-%d", base, n)
		}
		siblings[slug]++
	}

	s.memo[memoKey] = slug
	return slug
}

// stripMarks removes combining marks after NFD decomposition, so that e.g.
// "é" transliterates to "e".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases, transliterates to ASCII and hyphen-separates a title.
// Runs of non-alphanumeric characters collapse into single hyphens.
func Slugify(title string) string {
	flat, _, err := transform.String(stripMarks, title)
	if err != nil {
		flat = title
	}

	var sb strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(flat) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				sb.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(sb.String(), "-")
}
