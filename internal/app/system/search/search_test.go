package search

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func names(cs []Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Username)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRank(t *testing.T) {
	alice := Candidate{ID: primitive.NewObjectID(), Name: "alice", Username: "abby", MatchType: MatchUsername}
	bob := Candidate{ID: primitive.NewObjectID(), Name: "bob", Username: "abbot", MatchType: MatchUsername}
	ab := Candidate{ID: primitive.NewObjectID(), Name: "Zed", Username: "ab", MatchType: MatchUsername}
	abe := Candidate{ID: primitive.NewObjectID(), Name: "Ab", Username: "zzz", MatchType: MatchName}

	tests := []struct {
		name  string
		q     string
		cands []Candidate
		limit int
		want  []string
	}{
		{"prefix ordered by display name", "ab", []Candidate{bob, alice}, Limit, []string{"abby", "abbot"}},
		{"exact username first", "ab", []Candidate{alice, bob, ab}, Limit, []string{"ab", "abby", "abbot"}},
		{"exact name first", "AB", []Candidate{alice, abe}, Limit, []string{"zzz", "abby"}},
		{"duplicates collapsed", "ab", []Candidate{alice, alice, bob}, Limit, []string{"abby", "abbot"}},
		{"limit applied", "ab", []Candidate{alice, bob}, 1, []string{"abby"}},
		{"empty input", "ab", nil, Limit, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(Rank(tt.q, tt.cands, tt.limit))
			if !equal(got, tt.want) {
				t.Errorf("Rank() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRank_UsernameMatchWins(t *testing.T) {
	id := primitive.NewObjectID()
	byName := Candidate{ID: id, Name: "Abby", Username: "abby", MatchType: MatchName}
	byUser := Candidate{ID: id, Name: "Abby", Username: "abby", MatchType: MatchUsername}

	got := Rank("ab", []Candidate{byName, byUser}, Limit)
	if len(got) != 1 || got[0].MatchType != MatchUsername {
		t.Errorf("Rank() = %+v, want one username match", got)
	}
}

func TestRank_TieBrokenByID(t *testing.T) {
	lo := primitive.ObjectID{0x01}
	hi := primitive.ObjectID{0x02}
	a := Candidate{ID: hi, Name: "Sam", Username: "sam2"}
	b := Candidate{ID: lo, Name: "Sam", Username: "sam1"}

	got := names(Rank("s", []Candidate{a, b}, Limit))
	if !equal(got, []string{"sam1", "sam2"}) {
		t.Errorf("Rank() = %v, want id order", got)
	}
}

func TestPrefixes(t *testing.T) {
	if got := UsernamePrefix("  @Sam_K "); got != "sam_k" {
		t.Errorf("UsernamePrefix = %q", got)
	}
	if got := NamePrefix("  Ann   Lee "); got != "ann lee" {
		t.Errorf("NamePrefix = %q", got)
	}
}
