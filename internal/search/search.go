// Package search matches school names against a free-text query.
package search

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/couchcryptid/school-map-service/internal/domain"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	// MinQueryLength is the shortest query, in characters, that is searched.
	MinQueryLength = 2
	// MaxResults caps the rows returned.
	MaxResults = 10
)

// Hit is one matching school.
type Hit struct {
	School *domain.School
	Start  int // byte offset of the match in School.Name
	End    int
	Prefix bool // the name starts with the query
}

// Result is a complete search outcome; each call replaces the previous one.
type Result struct {
	Query   string
	Cleared bool // query too short, nothing searched
	Hits    []Hit
	Total   int
}

// More returns how many matches were cut by the cap.
func (r Result) More() int {
	return r.Total - len(r.Hits)
}

// Matcher scans the school list for name matches.
type Matcher struct {
	schools []domain.School

	// collate.Collator is not safe for concurrent use.
	mu       sync.Mutex
	collator *collate.Collator
}

// collationTag selects the Norwegian alphabet order (Æ, Ø, Å after Z).
// x/text carries that tailoring for nynorsk only; the no and nb tags fall
// back to the root order, which sorts Æ and Å next to A.
var collationTag = language.MustParse("nn")

// NewMatcher creates a Matcher over schools, ordering names by the
// Norwegian alphabet.
func NewMatcher(schools []domain.School) *Matcher {
	return &Matcher{
		schools:  schools,
		collator: collate.New(collationTag, collate.IgnoreCase),
	}
}

// Search returns schools whose name contains query, ignoring case. Names
// starting with the query come first; each group is ordered by name.
func (m *Matcher) Search(query string) Result {
	q := strings.TrimSpace(query)
	res := Result{Query: q}
	if utf8.RuneCountInString(q) < MinQueryLength {
		res.Cleared = true
		return res
	}

	var hits []Hit
	for i := range m.schools {
		s := &m.schools[i]
		start, end, ok := indexFold(s.Name, q)
		if !ok {
			continue
		}
		hits = append(hits, Hit{School: s, Start: start, End: end, Prefix: start == 0})
	}

	m.mu.Lock()
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Prefix != hits[j].Prefix {
			return hits[i].Prefix
		}
		return m.collator.CompareString(hits[i].School.Name, hits[j].School.Name) < 0
	})
	m.mu.Unlock()

	res.Total = len(hits)
	if len(hits) > MaxResults {
		hits = hits[:MaxResults]
	}
	res.Hits = hits
	return res
}

// indexFold finds the first case-insensitive occurrence of substr in s and
// returns its byte range in s.
func indexFold(s, substr string) (start, end int, ok bool) {
	n := utf8.RuneCountInString(substr)
	for i := range s {
		j, k := i, 0
		for k < n && j < len(s) {
			j += runeLen(s[j:])
			k++
		}
		if k == n && strings.EqualFold(s[i:j], substr) {
			return i, j, true
		}
	}
	return 0, 0, false
}

func runeLen(s string) int {
	_, size := utf8.DecodeRuneInString(s)
	return size
}
