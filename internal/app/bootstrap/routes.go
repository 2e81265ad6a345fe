// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	adminfeature "github.com/abhi-jithb/PreshnamSolver/internal/app/features/admin"
	alertsfeature "github.com/abhi-jithb/PreshnamSolver/internal/app/features/alerts"
	errorsfeature "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	feedbackfeature "github.com/abhi-jithb/PreshnamSolver/internal/app/features/feedback"
	friendsfeature "github.com/abhi-jithb/PreshnamSolver/internal/app/features/friends"
	healthfeature "github.com/abhi-jithb/PreshnamSolver/internal/app/features/health"
	loginfeature "github.com/abhi-jithb/PreshnamSolver/internal/app/features/login"
	logoutfeature "github.com/abhi-jithb/PreshnamSolver/internal/app/features/logout"
	profilefeature "github.com/abhi-jithb/PreshnamSolver/internal/app/features/profile"
	userinfofeature "github.com/abhi-jithb/PreshnamSolver/internal/app/features/userinfo"
	usersfeature "github.com/abhi-jithb/PreshnamSolver/internal/app/features/users"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/services/alerting"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/services/relations"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/store/audit"
	userstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/users"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/auditlog"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Every route speaks JSON; the alert
// stream at /alerts/stream upgrades to a WebSocket.
//
//	/health                 liveness for load balancers (public)
//	/auth/...               signup, login, token, logout, me
//	/profile, /users,
//	/friends, /alerts,
//	/feedback               signed-in users
//	/admin/...              admins only
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fresh user data on every request: role changes and suspensions take
	// effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	if appCfg.TokenSecret != "" {
		issuer, err := auth.NewTokenIssuer(appCfg.TokenSecret, appCfg.TokenTTL)
		if err != nil {
			logger.Error("token issuer init failed", zap.Error(err))
			return nil, err
		}
		sessionMgr.SetTokenIssuer(issuer)
	} else {
		logger.Info("token_secret not set; bearer authentication disabled")
	}

	errLog := errorsfeature.NewErrorLogger(logger)
	db := deps.MongoDatabase
	audits := auditlog.New(audit.New(db), logger, appCfg.auditConfig())

	rel := relations.NewManager(db, logger)
	broadcaster := alerting.NewBroadcaster(db, deps.Broker, appCfg.AlertResolvePolicy, deps.bg.sosLimiter, logger)

	r := chi.NewRouter()
	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Broker, deps.Hub, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(db, sessionMgr, deps.bg.loginLimiter, audits, appCfg.AdminEmail, errLog, logger)
	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	userinfoHandler := userinfofeature.NewHandler()
	r.Route("/auth", func(ar chi.Router) {
		loginfeature.MountRoutes(ar, loginHandler, sessionMgr)
		logoutfeature.MountRoutes(ar, logoutHandler)
		userinfofeature.MountRoutes(ar, userinfoHandler)
	})

	// Signed-in areas
	r.Group(func(pr chi.Router) {
		pr.Use(sessionMgr.RequireSignedIn)

		profileHandler := profilefeature.NewHandler(db, errLog, logger)
		pr.Mount("/profile", profilefeature.Routes(profileHandler))

		usersHandler := usersfeature.NewHandler(rel, errLog, logger)
		pr.Mount("/users", usersfeature.Routes(usersHandler))

		friendsHandler := friendsfeature.NewHandler(rel, errLog, logger)
		pr.Mount("/friends", friendsfeature.Routes(friendsHandler))

		alertsHandler := alertsfeature.NewHandler(broadcaster, deps.Hub, appCfg.WSPingInterval, errLog, logger)
		pr.Mount("/alerts", alertsfeature.Routes(alertsHandler))

		feedbackHandler := feedbackfeature.NewHandler(db, errLog, logger)
		pr.Mount("/feedback", feedbackfeature.Routes(feedbackHandler))
	})

	// Administration
	adminHandler := adminfeature.NewHandler(db, broadcaster, audits, errLog, logger)
	r.Mount("/admin", adminfeature.Routes(adminHandler, sessionMgr))

	return r, nil
}
