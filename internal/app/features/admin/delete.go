// internal/app/features/admin/delete.go
package admin

import (
	"context"
	"errors"
	"net/http"

	alertstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/alerts"
	userstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/users"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/authz"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/timeouts"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/txn"
	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleDelete handles DELETE /admin/users/{id}. It removes the account
// and everything that refers to it as a live relationship:
//
//   - pending requests sent by or to the user are cancelled
//   - friendships in both directions are deleted
//   - the user's active alert is resolved by the acting admin
//
// Historic requests, alerts and feedback keep their snapshots.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, _ := authz.UserCtx(r)
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if id == actorID {
		h.ErrLog.Handle(w, r, "self delete", errSelfDelete, adminErrors...)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "admin delete user")
	defer cancel()

	gone, resolved, err := h.deleteUser(ctx, actorID, id)
	if err != nil {
		h.ErrLog.Handle(w, r, "admin delete user failed", err, adminErrors...)
		return
	}
	if resolved != nil {
		h.Broadcaster.Announce(ctx, *resolved)
	}

	// Login history is not restorable, so it goes only after the account is gone.
	if err := h.Logins.DeleteForUser(ctx, id); err != nil {
		h.Log.Warn("delete login history failed", zap.String("user_id", id.Hex()), zap.Error(err))
	}

	h.Audit.UserDeleted(ctx, r, actorID, id, gone.Email)
	h.Log.Info("user deleted", zap.String("actor_id", actorID.Hex()), zap.String("user_id", id.Hex()))
	w.WriteHeader(http.StatusNoContent)
}

// deleteUser runs the account removal cascade in one transaction. It
// returns the removed user and the alert it resolved, if any, so the
// caller can announce it.
func (h *Handler) deleteUser(ctx context.Context, actorID, id primitive.ObjectID) (*models.User, *models.Alert, error) {
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	var resolved *models.Alert
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		resolved = nil

		// 1) Cancel pending requests in either direction.
		cancelled, err := h.Requests.CancelPendingInvolving(ctx, id)
		if err != nil {
			return err
		}
		txn.OnRollback(ctx, func(ctx context.Context) error {
			return h.Requests.RevertMany(ctx, cancelled, models.RequestCancelled)
		})

		// 2) Drop both directions of every friendship.
		rows, err := h.Friends.Involving(ctx, id)
		if err != nil {
			return err
		}
		if _, err := h.Friends.DeleteInvolving(ctx, id); err != nil {
			return err
		}
		txn.OnRollback(ctx, func(ctx context.Context) error {
			return h.Friends.Restore(ctx, rows)
		})

		// 3) Resolve the active alert on the admin's behalf.
		active, err := h.Alerts.ActiveOwnedBy(ctx, id)
		switch {
		case err == nil:
			a, changed, err := h.Alerts.Resolve(ctx, active.ID, actorID)
			if err != nil {
				return err
			}
			if changed {
				resolved = a
				txn.OnRollback(ctx, func(ctx context.Context) error {
					return h.Alerts.Reopen(ctx, a.ID)
				})
			}
		case !errors.Is(err, alertstore.ErrNotFound):
			return err
		}

		// 4) The account itself.
		n, err := h.Users.Delete(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return userstore.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return u, resolved, nil
}
