// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/fypcollab/internal/app/collab"
	adminfeature "github.com/dalemusser/fypcollab/internal/app/features/admin"
	authfeature "github.com/dalemusser/fypcollab/internal/app/features/auth"
	chatfeature "github.com/dalemusser/fypcollab/internal/app/features/chat"
	complaintsfeature "github.com/dalemusser/fypcollab/internal/app/features/complaints"
	healthfeature "github.com/dalemusser/fypcollab/internal/app/features/health"
	ideasfeature "github.com/dalemusser/fypcollab/internal/app/features/ideas"
	privatechatfeature "github.com/dalemusser/fypcollab/internal/app/features/privatechat"
	projectsfeature "github.com/dalemusser/fypcollab/internal/app/features/projects"
	requestsfeature "github.com/dalemusser/fypcollab/internal/app/features/requests"
	sponsoredfeature "github.com/dalemusser/fypcollab/internal/app/features/sponsored"
	usersfeature "github.com/dalemusser/fypcollab/internal/app/features/users"
	userstore "github.com/dalemusser/fypcollab/internal/app/store/users"
	"github.com/dalemusser/fypcollab/internal/app/system/auth"
	"github.com/dalemusser/fypcollab/internal/app/system/ratelimit"
	"github.com/dalemusser/fypcollab/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. FYP Collab builds the token/session manager,
// applies the global middleware stack, and mounts one router per feature
// under /api.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase
	secure := coreCfg.Env == "prod"

	tokens, err := auth.NewTokens(appCfg.JWTSecret, appCfg.JWTTTL)
	if err != nil {
		logger.Error("token signer init failed", zap.Error(err))
		return nil, err
	}
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		int(appCfg.JWTTTL.Seconds()), secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// The fetcher reloads the user on every request so role changes and
	// deletions take effect immediately.
	mgr := auth.NewManager(tokens, sessionMgr, userstore.NewFetcher(db), logger)

	svc := collab.New(db, txn.New(deps.MongoClient, logger), logger)
	audits := newAuditLogger(db, appCfg, logger)

	ipLimiter := ratelimit.New(appCfg.RateLimitRPS, appCfg.RateLimitBurst)
	loginLimiter := ratelimit.NewLoginLimiter(appCfg.RateLimitRPS, appCfg.RateLimitBurst)
	if deps.Runtime != nil {
		deps.Runtime.IPLimiter = ipLimiter
		deps.Runtime.LoginLimiter = loginLimiter
	}

	r := chi.NewRouter()
	r.Use(seedRequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	// Health check endpoint for load balancers and orchestrators
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))

	r.Route("/api", func(api chi.Router) {
		// Loads the signed-in user (Bearer header or token cookie) into context.
		api.Use(mgr.LoadUser)

		authHandler := authfeature.NewHandler(db, mgr, loginLimiter, audits, secure, logger)
		api.With(ipLimiter.Middleware).Mount("/auth", authfeature.Routes(authHandler))

		api.Mount("/requests", requestsfeature.Routes(requestsfeature.NewHandler(svc, logger)))
		api.Mount("/projects", projectsfeature.Routes(projectsfeature.NewHandler(svc, audits, logger)))
		api.Mount("/users", usersfeature.Routes(usersfeature.NewHandler(db, logger)))
		api.Mount("/admin", adminfeature.Routes(adminfeature.NewHandler(db, svc, audits, logger)))

		api.Mount("/chat", chatfeature.Routes(chatfeature.NewHandler(db, appCfg.ChatPageSize, logger)))
		api.Mount("/private-chat", privatechatfeature.Routes(privatechatfeature.NewHandler(db, logger)))
		api.Mount("/complaints", complaintsfeature.Routes(complaintsfeature.NewHandler(db, audits, logger)))

		api.Mount("/ideas", ideasfeature.Routes(ideasfeature.NewHandler(db, logger)))
		api.Mount("/sponsored", sponsoredfeature.Routes(sponsoredfeature.NewHandler(db, logger)))
	})

	return r, nil
}
