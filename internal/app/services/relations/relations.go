// Package relations manages friend requests and friendships.
package relations

import (
	"context"
	"errors"
	"fmt"

	requeststore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/friendrequests"
	friendstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/friendships"
	userstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/users"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/txn"
	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrSelfRequest           = errors.New("you cannot send a friend request to yourself")
	ErrUserNotFound          = errors.New("user not found")
	ErrAlreadyFriends        = errors.New("you are already friends")
	ErrReverseRequestPending = errors.New("this user has already sent you a friend request")
	ErrDuplicateRequest      = requeststore.ErrDuplicateRequest
	ErrRequestNotFound       = requeststore.ErrNotFound
	ErrNotPending            = requeststore.ErrNotPending
	ErrNotParty              = errors.New("you cannot act on this friend request")
	ErrNotFriends            = errors.New("you are not friends with this user")
	ErrUnknownAction         = errors.New("unknown friend request action")
)

// Manager owns the friend request state machine and the friend lists.
type Manager struct {
	db       *mongo.Database
	users    *userstore.Store
	requests *requeststore.Store
	friends  *friendstore.Store
	log      *zap.Logger
}

// NewManager builds a Manager over db.
func NewManager(db *mongo.Database, logger *zap.Logger) *Manager {
	return &Manager{
		db:       db,
		users:    userstore.New(db),
		requests: requeststore.New(db),
		friends:  friendstore.New(db),
		log:      logger,
	}
}

func (m *Manager) activeUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := m.users.GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if u.Status != models.StatusActive {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// SendRequest creates a pending request from fromID to toID. The display
// names are copied from the current profiles and never updated later.
func (m *Manager) SendRequest(ctx context.Context, fromID, toID primitive.ObjectID) (models.FriendRequest, error) {
	if fromID == toID {
		return models.FriendRequest{}, ErrSelfRequest
	}
	from, err := m.activeUser(ctx, fromID)
	if err != nil {
		return models.FriendRequest{}, err
	}
	to, err := m.activeUser(ctx, toID)
	if err != nil {
		return models.FriendRequest{}, err
	}

	friends, err := m.friends.IsFriend(ctx, fromID, toID)
	if err != nil {
		return models.FriendRequest{}, fmt.Errorf("check friendship: %w", err)
	}
	if friends {
		return models.FriendRequest{}, ErrAlreadyFriends
	}
	reverse, err := m.requests.PendingExists(ctx, toID, fromID)
	if err != nil {
		return models.FriendRequest{}, fmt.Errorf("check reverse request: %w", err)
	}
	if reverse {
		return models.FriendRequest{}, ErrReverseRequestPending
	}

	fr, err := m.requests.Create(ctx, models.FriendRequest{
		FromUserID:   from.ID,
		FromName:     from.DisplayName(),
		FromUsername: from.Username,
		ToUserID:     to.ID,
		ToName:       to.DisplayName(),
		ToUsername:   to.Username,
	})
	if err != nil {
		if errors.Is(err, requeststore.ErrDuplicateRequest) {
			// Lost a race; report which direction won.
			if rev, rerr := m.requests.PendingExists(ctx, toID, fromID); rerr == nil && rev {
				return models.FriendRequest{}, ErrReverseRequestPending
			}
			return models.FriendRequest{}, err
		}
		return models.FriendRequest{}, fmt.Errorf("create friend request: %w", err)
	}
	m.log.Info("friend request sent",
		zap.String("request_id", fr.ID.Hex()),
		zap.String("from_user_id", fromID.Hex()),
		zap.String("to_user_id", toID.Hex()))
	return fr, nil
}

// authorize loads a request and checks that actorID may apply action to it.
func (m *Manager) authorize(ctx context.Context, actorID, requestID primitive.ObjectID, action string) (*models.FriendRequest, string, error) {
	fr, err := m.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, "", err
	}
	party := fr.ToUserID
	if actingParty(action) == "from_user_id" {
		party = fr.FromUserID
	}
	if party != actorID {
		return nil, "", ErrNotParty
	}
	next, err := Transition(fr.Status, action)
	if err != nil {
		return nil, "", err
	}
	return fr, next, nil
}

// AcceptRequest accepts a pending request addressed to actorID. The status
// change and both friendship rows are written as one unit.
func (m *Manager) AcceptRequest(ctx context.Context, actorID, requestID primitive.ObjectID) (models.FriendRequest, error) {
	fr, next, err := m.authorize(ctx, actorID, requestID, ActionAccept)
	if err != nil {
		return models.FriendRequest{}, err
	}

	// Snapshot the current profiles; fall back to the request's copies if
	// an account has since disappeared.
	sender := friendstore.Party{ID: fr.FromUserID, Name: fr.FromName, Username: fr.FromUsername}
	recipient := friendstore.Party{ID: fr.ToUserID, Name: fr.ToName, Username: fr.ToUsername}
	if current, err := m.users.GetByIDs(ctx, []primitive.ObjectID{fr.FromUserID, fr.ToUserID}); err == nil {
		if u, ok := current[fr.FromUserID]; ok {
			sender.Name, sender.Username = u.DisplayName(), u.Username
		}
		if u, ok := current[fr.ToUserID]; ok {
			recipient.Name, recipient.Username = u.DisplayName(), u.Username
		}
	}

	var accepted models.FriendRequest
	err = txn.Run(ctx, m.db, m.log, func(ctx context.Context) error {
		updated, err := m.requests.Transition(ctx, requestID, "to_user_id", actorID, next)
		if err != nil {
			return err
		}
		txn.OnRollback(ctx, func(ctx context.Context) error {
			return m.requests.Revert(ctx, requestID, next)
		})

		created, err := m.friends.UpsertPair(ctx, sender, recipient)
		if len(created) > 0 {
			txn.OnRollback(ctx, func(ctx context.Context) error {
				return m.friends.DeleteByIDs(ctx, created)
			})
		}
		if err != nil {
			return fmt.Errorf("write friendship rows: %w", err)
		}
		accepted = *updated
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotPending) {
			m.log.Error("accept friend request failed",
				zap.String("request_id", requestID.Hex()),
				zap.String("user_id", actorID.Hex()),
				zap.Error(err))
		}
		return models.FriendRequest{}, err
	}

	m.log.Info("friend request accepted",
		zap.String("request_id", requestID.Hex()),
		zap.String("from_user_id", fr.FromUserID.Hex()),
		zap.String("to_user_id", fr.ToUserID.Hex()))
	return accepted, nil
}

// RejectRequest rejects a pending request addressed to actorID.
func (m *Manager) RejectRequest(ctx context.Context, actorID, requestID primitive.ObjectID) (models.FriendRequest, error) {
	return m.close(ctx, actorID, requestID, ActionReject)
}

// CancelRequest withdraws a pending request sent by actorID.
func (m *Manager) CancelRequest(ctx context.Context, actorID, requestID primitive.ObjectID) (models.FriendRequest, error) {
	return m.close(ctx, actorID, requestID, ActionCancel)
}

func (m *Manager) close(ctx context.Context, actorID, requestID primitive.ObjectID, action string) (models.FriendRequest, error) {
	_, next, err := m.authorize(ctx, actorID, requestID, action)
	if err != nil {
		return models.FriendRequest{}, err
	}
	updated, err := m.requests.Transition(ctx, requestID, actingParty(action), actorID, next)
	if err != nil {
		return models.FriendRequest{}, err
	}
	m.log.Info("friend request closed",
		zap.String("request_id", requestID.Hex()),
		zap.String("user_id", actorID.Hex()),
		zap.String("status", next))
	return *updated, nil
}

// RemoveFriend deletes both directions of the friendship between selfID
// and friendID. Returns ErrNotFriends when neither direction existed.
func (m *Manager) RemoveFriend(ctx context.Context, selfID, friendID primitive.ObjectID) error {
	err := txn.Run(ctx, m.db, m.log, func(ctx context.Context) error {
		rows, err := m.friends.Between(ctx, selfID, friendID)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return ErrNotFriends
		}
		if _, err := m.friends.DeletePair(ctx, selfID, friendID); err != nil {
			return err
		}
		txn.OnRollback(ctx, func(ctx context.Context) error {
			return m.friends.Restore(ctx, rows)
		})
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFriends) {
			m.log.Error("remove friend failed",
				zap.String("user_id", selfID.Hex()),
				zap.String("friend_id", friendID.Hex()),
				zap.Error(err))
		}
		return err
	}
	m.log.Info("friend removed",
		zap.String("user_id", selfID.Hex()),
		zap.String("friend_id", friendID.Hex()))
	return nil
}

// Friends lists userID's friends ordered by name.
func (m *Manager) Friends(ctx context.Context, userID primitive.ObjectID) ([]models.Friendship, error) {
	return m.friends.List(ctx, userID)
}

// Incoming lists pending requests addressed to userID, newest first.
func (m *Manager) Incoming(ctx context.Context, userID primitive.ObjectID) ([]models.FriendRequest, error) {
	return m.requests.Incoming(ctx, userID)
}

// Outgoing lists pending requests sent by userID, newest first.
func (m *Manager) Outgoing(ctx context.Context, userID primitive.ObjectID) ([]models.FriendRequest, error) {
	return m.requests.Outgoing(ctx, userID)
}
