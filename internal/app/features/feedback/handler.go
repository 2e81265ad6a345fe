// internal/app/features/feedback/handler.go
package feedback

import (
	"net/http"
	"unicode/utf8"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	feedbackstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/feedback"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/authz"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/formutil"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/htmlsanitize"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/normalize"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MaxMessageLength bounds a feedback message after sanitizing.
const MaxMessageLength = 2000

type Handler struct {
	Feedback *feedbackstore.Store
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Feedback: feedbackstore.New(db),
		ErrLog:   errLog,
		Log:      logger,
	}
}

type submitInput struct {
	Message string `json:"message"`
}

// HandleSubmit handles POST /feedback. Markup is stripped before storing.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, uierrors.CodeUnauthorized, "Please sign in to continue.")
		return
	}

	var in submitInput
	if err := formutil.Decode(w, r, &in); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, uierrors.CodeBadRequest, err.Error())
		return
	}
	msg := normalize.Text(htmlsanitize.PlainText(in.Message))
	switch n := utf8.RuneCountInString(msg); {
	case n == 0:
		uierrors.WriteValidation(w, "Message is required.")
		return
	case n > MaxMessageLength:
		uierrors.WriteValidation(w, "Message must be at most 2000 characters.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "submit feedback")
	defer cancel()

	fb, err := h.Feedback.Create(ctx, uid, msg)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "feedback insert failed", err, "Unable to send feedback right now.")
		return
	}
	h.Log.Info("feedback received", zap.String("feedback_id", fb.ID.Hex()), zap.Int("length", len(msg)))
	uierrors.WriteJSON(w, http.StatusCreated, fb)
}

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleSubmit)
	return r
}
