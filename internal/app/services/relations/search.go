package relations

import (
	"context"
	"fmt"

	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/search"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Relations of a search result to the caller.
const (
	RelationNone            = "none"
	RelationFriend          = "friend"
	RelationRequestSent     = "request_sent"
	RelationRequestReceived = "request_received"
)

// SearchResult is one user-directory hit.
type SearchResult struct {
	ID        primitive.ObjectID `json:"id"`
	Name      string             `json:"name"`
	Username  string             `json:"username"`
	MatchType string             `json:"match_type"`
	Relation  string             `json:"relation"`
}

// Search finds users whose username or name starts with q, excluding selfID.
// An empty query returns no results.
func (m *Manager) Search(ctx context.Context, selfID primitive.ObjectID, q string) ([]SearchResult, error) {
	out := []SearchResult{}
	up, np := search.UsernamePrefix(q), search.NamePrefix(q)
	if up == "" && np == "" {
		return out, nil
	}

	var cands []search.Candidate
	byUsername, err := m.users.PrefixMatches(ctx, "username", up, selfID, search.Window)
	if err != nil {
		return nil, fmt.Errorf("username search: %w", err)
	}
	for _, u := range byUsername {
		cands = append(cands, search.Candidate{ID: u.ID, Name: u.DisplayName(), Username: u.Username, MatchType: search.MatchUsername})
	}
	byName, err := m.users.PrefixMatches(ctx, "name_ci", np, selfID, search.Window)
	if err != nil {
		return nil, fmt.Errorf("name search: %w", err)
	}
	for _, u := range byName {
		cands = append(cands, search.Candidate{ID: u.ID, Name: u.DisplayName(), Username: u.Username, MatchType: search.MatchName})
	}

	ranked := search.Rank(q, cands, search.Limit)
	if len(ranked) == 0 {
		return out, nil
	}

	friendIDs, err := m.friends.FriendIDs(ctx, selfID)
	if err != nil {
		return nil, fmt.Errorf("load friends: %w", err)
	}
	sent, received, err := m.requests.PendingPeers(ctx, selfID)
	if err != nil {
		return nil, fmt.Errorf("load pending requests: %w", err)
	}

	for _, c := range ranked {
		rel := RelationNone
		switch {
		case friendIDs[c.ID]:
			rel = RelationFriend
		case sent[c.ID]:
			rel = RelationRequestSent
		case received[c.ID]:
			rel = RelationRequestReceived
		}
		out = append(out, SearchResult{
			ID:        c.ID,
			Name:      c.DisplayName(),
			Username:  c.Username,
			MatchType: c.MatchType,
			Relation:  rel,
		})
	}
	return out, nil
}
