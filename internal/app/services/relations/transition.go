package relations

import "github.com/abhi-jithb/PreshnamSolver/internal/domain/models"

// Actions on a friend request.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
	ActionCancel = "cancel"
)

// Transition returns the status a request in status from moves to under
// action. Only pending requests can move; the terminal states accepted,
// rejected and cancelled have no outgoing transitions.
func Transition(from, action string) (string, error) {
	if from != models.RequestPending {
		return "", ErrNotPending
	}
	switch action {
	case ActionAccept:
		return models.RequestAccepted, nil
	case ActionReject:
		return models.RequestRejected, nil
	case ActionCancel:
		return models.RequestCancelled, nil
	default:
		return "", ErrUnknownAction
	}
}

// actingParty is the request field naming who may perform action.
// The recipient accepts or rejects; only the sender cancels.
func actingParty(action string) string {
	if action == ActionCancel {
		return "from_user_id"
	}
	return "to_user_id"
}
