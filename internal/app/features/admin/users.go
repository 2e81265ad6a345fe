// internal/app/features/admin/users.go
package admin

import (
	"context"
	"net/http"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	userstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/users"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/authz"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/formutil"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/htmlsanitize"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/inputval"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/normalize"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/timeouts"
	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type usersResponse struct {
	Query   string        `json:"query"`
	Users   []models.User `json:"users"`
	Prev    string        `json:"prev,omitempty"`
	Next    string        `json:"next,omitempty"`
	HasPrev bool          `json:"has_prev"`
	HasNext bool          `json:"has_next"`
}

type editInput struct {
	Name    string `json:"name" validate:"notblank,max=80" label:"Name"`
	Phone   string `json:"phone" validate:"omitempty,phone" label:"Phone"`
	Address string `json:"address" validate:"max=200" label:"Address"`
}

type roleInput struct {
	Role string `json:"role" validate:"required,oneof=user admin" label:"Role"`
}

type statusInput struct {
	Status string `json:"status" validate:"required,oneof=active suspended" label:"Status"`
}

// ServeUsers handles GET /admin/users?q=&before=&after=.
func (h *Handler) ServeUsers(w http.ResponseWriter, r *http.Request) {
	q := normalize.QueryParam(r.URL.Query().Get("q"))
	before := normalize.QueryParam(r.URL.Query().Get("before"))
	after := normalize.QueryParam(r.URL.Query().Get("after"))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin list users")
	defer cancel()

	page, err := h.Users.List(ctx, q, before, after)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list users failed", err, "Unable to load users.")
		return
	}
	if page.Users == nil {
		page.Users = []models.User{}
	}
	uierrors.WriteJSON(w, http.StatusOK, usersResponse{
		Query:   q,
		Users:   page.Users,
		Prev:    page.Prev,
		Next:    page.Next,
		HasPrev: page.HasPrev,
		HasNext: page.HasNext,
	})
}

// HandleEdit handles PATCH /admin/users/{id}.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, _ := authz.UserCtx(r)
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in editInput
	if err := formutil.Decode(w, r, &in); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, uierrors.CodeBadRequest, err.Error())
		return
	}
	in.Name = normalize.Name(htmlsanitize.PlainText(in.Name))
	in.Address = htmlsanitize.PlainText(normalize.Text(in.Address))
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.WriteValidation(w, res.First())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "admin edit user")
	defer cancel()

	if err := h.Users.AdminUpdate(ctx, id, userstore.ProfileUpdate{Name: in.Name, Phone: in.Phone, Address: in.Address}); err != nil {
		h.ErrLog.Handle(w, r, "admin edit user failed", err, adminErrors...)
		return
	}
	h.Audit.UserUpdated(ctx, r, actorID, id)
	h.respondUser(ctx, w, r, id)
}

// HandleRole handles POST /admin/users/{id}/role.
func (h *Handler) HandleRole(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, _ := authz.UserCtx(r)
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in roleInput
	if err := formutil.Decode(w, r, &in); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, uierrors.CodeBadRequest, err.Error())
		return
	}
	in.Role = normalize.Role(in.Role)
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.WriteValidation(w, res.First())
		return
	}
	if id == actorID && in.Role != models.RoleAdmin {
		h.ErrLog.Handle(w, r, "self demotion", errSelfDemote, adminErrors...)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "admin set role")
	defer cancel()

	before, err := h.Users.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Handle(w, r, "admin set role: load user failed", err, adminErrors...)
		return
	}
	if err := h.Users.SetRole(ctx, id, in.Role); err != nil {
		h.ErrLog.Handle(w, r, "admin set role failed", err, adminErrors...)
		return
	}
	if before.Role != in.Role {
		h.Audit.RoleChanged(ctx, r, actorID, id, before.Role, in.Role)
	}
	h.Log.Info("user role changed",
		zap.String("actor_id", actorID.Hex()), zap.String("user_id", id.Hex()), zap.String("role", in.Role))
	h.respondUser(ctx, w, r, id)
}

// HandleStatus handles POST /admin/users/{id}/status. Suspended users are
// signed out on their next request.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, _ := authz.UserCtx(r)
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in statusInput
	if err := formutil.Decode(w, r, &in); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, uierrors.CodeBadRequest, err.Error())
		return
	}
	in.Status = normalize.Status(in.Status)
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.WriteValidation(w, res.First())
		return
	}
	if id == actorID && in.Status != models.StatusActive {
		h.ErrLog.Handle(w, r, "self suspension", errSelfSuspend, adminErrors...)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "admin set status")
	defer cancel()

	if err := h.Users.SetStatus(ctx, id, in.Status); err != nil {
		h.ErrLog.Handle(w, r, "admin set status failed", err, adminErrors...)
		return
	}
	h.Log.Info("user status changed",
		zap.String("actor_id", actorID.Hex()), zap.String("user_id", id.Hex()), zap.String("status", in.Status))
	h.Audit.StatusChanged(ctx, r, actorID, id, in.Status == models.StatusSuspended)
	h.respondUser(ctx, w, r, id)
}

// respondUser writes the stored user after an admin change.
func (h *Handler) respondUser(ctx context.Context, w http.ResponseWriter, r *http.Request, id primitive.ObjectID) {
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Handle(w, r, "reload user failed", err, adminErrors...)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, u)
}
