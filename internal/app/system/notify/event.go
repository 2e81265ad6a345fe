// Package notify fans alert events out to connected listeners. A Hub holds
// the subscriptions of one process; a Broker carries events between
// processes and feeds every process's Hub.
package notify

import (
	"time"

	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"github.com/google/uuid"
)

// Event types.
const (
	AlertRaised   = "alert.raised"
	AlertResolved = "alert.resolved"
)

// Event is one alert state change. Recipients are hex user ids taken from
// the alert's snapshot; the owner is routed separately.
type Event struct {
	ID         string        `json:"id"`
	Type       string        `json:"type"`
	AlertID    string        `json:"alert_id"`
	OwnerID    string        `json:"owner_id"`
	Recipients []string      `json:"recipients"`
	Alert      *models.Alert `json:"alert,omitempty"`
	At         time.Time     `json:"at"`
}

// NewAlertEvent builds an event of typ for a.
func NewAlertEvent(typ string, a models.Alert) Event {
	recipients := make([]string, 0, len(a.Friends))
	for _, f := range a.Friends {
		recipients = append(recipients, f.ID.Hex())
	}
	alert := a
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		AlertID:    a.ID.Hex(),
		OwnerID:    a.UserID.Hex(),
		Recipients: recipients,
		Alert:      &alert,
		At:         time.Now().UTC(),
	}
}

// audience returns the distinct users the event is routed to.
func (e Event) audience() []string {
	seen := make(map[string]struct{}, len(e.Recipients)+1)
	out := make([]string, 0, len(e.Recipients)+1)
	for _, id := range append([]string{e.OwnerID}, e.Recipients...) {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
