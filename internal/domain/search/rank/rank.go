// Package rank scores records against a free-text query with trigram
// similarity compatible with PostgreSQL's pg_trgm.
package rank

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kailas-cloud/dareg/internal/domain/entity"
)

// Threshold is the minimum best-field similarity a candidate needs.
const Threshold = 0.1

// Scored is a ranked candidate.
type Scored struct {
	Record entity.Record
	Score  float64
}

// Rank scores candidates on textFields, drops those under Threshold and
// orders the rest by descending score. Equal scores keep input order.
func Rank(candidates []entity.Record, textFields []string, query string) []Scored {
	if len(textFields) == 0 {
		return nil
	}
	q := Trigrams(query)
	out := make([]Scored, 0, len(candidates))
	for _, rec := range candidates {
		score := bestScore(rec, textFields, q)
		if score >= Threshold {
			out = append(out, Scored{Record: rec, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func bestScore(rec entity.Record, fields []string, q Set) float64 {
	best := 0.0
	for _, f := range fields {
		text := ""
		if v, ok := rec.Get(f); ok {
			text, _ = v.AsString()
		}
		if s := q.Similarity(Trigrams(text)); s > best {
			best = s
		}
	}
	return best
}

// Similarity returns the trigram similarity of two strings in [0, 1].
func Similarity(a, b string) float64 {
	return Trigrams(a).Similarity(Trigrams(b))
}

// Set is a set of trigrams.
type Set map[string]struct{}

// Trigrams extracts the pg_trgm trigram set of s: lower-cased alphanumeric
// words, each padded with two leading blanks and one trailing blank.
func Trigrams(s string) Set {
	set := make(Set)
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		padded := []rune("  " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}
	return set
}

// Similarity is |a∩b| / |a∪b|, zero when either set is empty.
func (a Set) Similarity(b Set) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	common := 0
	for t := range a {
		if _, ok := b[t]; ok {
			common++
		}
	}
	return float64(common) / float64(len(a)+len(b)-common)
}
