// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhi-jithb/PreshnamSolver/internal/app/store/audit"
	loginstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/logins"
	userstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/users"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/normalize"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/ratelimit"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/timeouts"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/workers"
	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// background holds the long-lived helpers that Startup creates and Shutdown
// stops. DBDeps is passed by value between hooks, so it carries a pointer.
type background struct {
	loginLimiter *ratelimit.LoginLimiter
	sosLimiter   *ratelimit.Limiter
	retention    []*workers.Retention
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, logger); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	if deps.bg == nil {
		return errors.New("startup: DBDeps was not built by ConnectDB")
	}
	deps.bg.loginLimiter = ratelimit.NewLoginLimiter(appCfg.LoginRateLimit, appCfg.LoginRateLimit, appCfg.LoginRateWindow)
	deps.bg.sosLimiter = ratelimit.New(appCfg.SOSRateLimit, appCfg.SOSRateWindow)

	deps.bg.retention = []*workers.Retention{
		workers.NewRetention("login records", loginstore.New(deps.MongoDatabase), logger,
			appCfg.CleanupInterval, appCfg.LoginRetention),
		workers.NewRetention("audit events", audit.New(deps.MongoDatabase), logger,
			appCfg.CleanupInterval, appCfg.AuditRetention),
	}
	for _, w := range deps.bg.retention {
		w.Start()
	}

	logger.Info("startup complete",
		zap.String("alert_resolve_policy", appCfg.AlertResolvePolicy),
		zap.Duration("login_retention", appCfg.LoginRetention))
	return nil
}

// ensureAdmin promotes the configured admin account when it exists.
// A missing account is left alone: signing up with that email grants the
// admin role, and creating a passwordless user here would block the signup.
func ensureAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	email = normalize.Email(email)
	if email == "" {
		logger.Info("admin_email not set; no account will be promoted")
		return nil
	}

	users := userstore.New(deps.MongoDatabase)
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), logger, "ensure admin")
	defer cancel()

	u, err := users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		logger.Info("admin account not found; it becomes admin at signup", zap.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}
	if u.Role == models.RoleAdmin {
		return nil
	}

	if err := users.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
		return err
	}
	logger.Info("promoted user to admin",
		zap.String("user_id", u.ID.Hex()),
		zap.String("email", email),
		zap.String("previous_role", u.Role))
	return nil
}
