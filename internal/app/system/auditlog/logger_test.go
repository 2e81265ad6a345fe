package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/abhi-jithb/PreshnamSolver/internal/app/store/audit"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/auditlog"
	"github.com/abhi-jithb/PreshnamSolver/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("POST", "/auth/login", nil)

	// no-ops, not panics
	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "cookie")
	logger.UserDeleted(ctx, req, primitive.NewObjectID(), primitive.NewObjectID(), "x@test.com")
}

func TestLogger_Modes(t *testing.T) {
	tests := []struct {
		mode   string
		wantDB int64
		wantZ  int
	}{
		{auditlog.ModeAll, 1, 1},
		{auditlog.ModeDB, 1, 0},
		{auditlog.ModeLog, 0, 1},
		{auditlog.ModeOff, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			core, logs := observer.New(zap.InfoLevel)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: tt.mode, Admin: tt.mode})
			logger.LoginSuccess(ctx, httptest.NewRequest("POST", "/auth/login", nil), primitive.NewObjectID(), "token")

			n, err := store.CountByFilter(ctx, audit.QueryFilter{})
			if err != nil {
				t.Fatalf("CountByFilter failed: %v", err)
			}
			if n != tt.wantDB {
				t.Errorf("stored %d events, want %d", n, tt.wantDB)
			}
			if got := logs.FilterMessage("audit event").Len(); got != tt.wantZ {
				t.Errorf("zap entries = %d, want %d", got, tt.wantZ)
			}
		})
	}
}

func TestLogger_AdminEvents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.ModeOff, Admin: auditlog.ModeDB})
	req := httptest.NewRequest("PATCH", "/admin/users/x/role", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	actor := primitive.NewObjectID()
	target := primitive.NewObjectID()

	logger.RoleChanged(ctx, req, actor, target, "user", "admin")
	logger.StatusChanged(ctx, req, actor, target, true)
	logger.LoginSuccess(ctx, req, target, "cookie") // auth is off

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &target})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 admin events, got %d", len(events))
	}
	var role *audit.Event
	for i := range events {
		if events[i].EventType == audit.EventUserRoleChanged {
			role = &events[i]
		}
	}
	if role == nil {
		t.Fatal("role change not recorded")
	}
	if role.ActorID == nil || *role.ActorID != actor {
		t.Error("actor not recorded")
	}
	if role.Details["new_role"] != "admin" || role.IP != "10.0.0.7" {
		t.Errorf("unexpected event %+v", role)
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := (auditlog.Config{Auth: "all", Admin: ""}).Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
	if err := (auditlog.Config{Auth: "sometimes"}).Validate(); err == nil {
		t.Error("expected error for unknown mode")
	}
}
