package health

import (
	"context"
	"net/http"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/notify"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Broker notify.Broker
	Hub    *notify.Hub
	Log    *zap.Logger
}

// NewHandler constructs a health Handler. broker and hub may be nil.
func NewHandler(client *mongo.Client, broker notify.Broker, hub *notify.Hub, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Broker: broker,
		Hub:    hub,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string       `json:"status"`
	Database string       `json:"database"`
	Broker   *brokerState `json:"broker,omitempty"`
	Message  string       `json:"message,omitempty"`
	Error    string       `json:"error,omitempty"`
}

type brokerState struct {
	Kind        string `json:"kind"`
	State       string `json:"state"`
	Subscribers int    `json:"subscribers"`
	Delivered   int64  `json:"delivered"`
	Dropped     int64  `json:"dropped"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "broker":{"kind":"redis","state":"connected",...} }
//
// A broker that fails its ping reports "degraded" but still answers 200;
// alerts are stored and show up in the next snapshot.
//
// On DB failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		uierrors.WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	if h.Broker != nil {
		bs := &brokerState{Kind: h.Broker.Name(), State: "connected"}
		if err := h.Broker.Ping(ctx); err != nil {
			h.Log.Warn("health-check: broker ping failed", zap.String("broker", bs.Kind), zap.Error(err))
			bs.State = "disconnected"
			resp.Status = "degraded"
		}
		if h.Hub != nil {
			bs.Subscribers = h.Hub.Subscribers()
			bs.Delivered, bs.Dropped = h.Hub.Stats()
		}
		resp.Broker = bs
	}

	uierrors.WriteJSON(w, http.StatusOK, resp)
}
