// Package search ranks user-directory prefix matches.
package search

import (
	"sort"
	"strings"

	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/normalize"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Match types.
const (
	MatchUsername = "username"
	MatchName     = "name"
)

// Limit is the maximum number of directory results.
const Limit = 20

// Window is how many prefix matches are fetched per field before ranking.
// Matches are fetched in field order but ranked by display name, so a field
// with more than Window matches can still hide a user from the top Limit.
const Window = 5 * Limit

// Candidate is one user returned by a prefix query.
type Candidate struct {
	ID        primitive.ObjectID
	Name      string
	Username  string
	MatchType string
}

// DisplayName is the name shown in results.
func (c Candidate) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Username
}

// UsernamePrefix is the query as compared against stored usernames.
func UsernamePrefix(q string) string {
	return normalize.Username(q)
}

// NamePrefix is the query as compared against stored name_ci values.
func NamePrefix(q string) string {
	return text.Fold(normalize.Name(q))
}

// IsExact reports whether q equals the candidate's username or name.
func IsExact(q string, c Candidate) bool {
	if u := UsernamePrefix(q); u != "" && u == c.Username {
		return true
	}
	n := NamePrefix(q)
	return n != "" && n == text.Fold(c.Name)
}

// Rank de-duplicates candidates by id and orders them: exact matches first,
// then by display name, then by id. At most limit results are returned.
// When a user matched on both fields the username match wins.
func Rank(q string, cands []Candidate, limit int) []Candidate {
	byID := make(map[primitive.ObjectID]int, len(cands))
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if i, ok := byID[c.ID]; ok {
			if c.MatchType == MatchUsername {
				out[i].MatchType = MatchUsername
			}
			continue
		}
		byID[c.ID] = len(out)
		out = append(out, c)
	}

	exact := make(map[primitive.ObjectID]bool, len(out))
	for _, c := range out {
		exact[c.ID] = IsExact(q, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if exact[a.ID] != exact[b.ID] {
			return exact[a.ID]
		}
		an, bn := text.Fold(a.DisplayName()), text.Fold(b.DisplayName())
		if an != bn {
			return an < bn
		}
		return strings.Compare(a.ID.Hex(), b.ID.Hex()) < 0
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
