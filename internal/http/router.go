package http

import (
	"github.com/geocoder89/socialhub/internal/config"
	"github.com/geocoder89/socialhub/internal/domain/account"
	"github.com/geocoder89/socialhub/internal/http/handlers"
	"github.com/geocoder89/socialhub/internal/http/middlewares"
	"github.com/geocoder89/socialhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// AccountService is everything the HTTP surface needs from the account layer.
type AccountService interface {
	handlers.AccountService
	handlers.UserDirectory
}

type Deps struct {
	Config    config.Config
	Accounts  AccountService
	Transport middlewares.Transport
	// Avatars is nil when no blob storage is configured.
	Avatars  handlers.AvatarStore
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	// Health defaults to a handler with no readiness checks.
	Health *handlers.HealthHandler
}

func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware("socialhub"))
	r.Use(middlewares.RequestLogger())
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(cfg.SecureCookies()))
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	if cfg.MaxUploadBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(cfg.MaxUploadBytes))
	}

	// health
	h := d.Health
	if h == nil {
		h = handlers.NewHealthHandler(nil)
	}
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	var obs middlewares.CredentialObserver
	if d.Prom != nil {
		obs = d.Prom
	}
	gate := middlewares.NewAuthMiddleware(d.Transport, obs)

	// Password checks are throttled per client IP before auth and per user
	// after it, each with its own window.
	throttle := func(c *gin.Context) { c.Next() }
	throttleUser := throttle
	if cfg.LoginRateMax > 0 {
		throttle = middlewares.NewRateLimiter(cfg.LoginRateMax, cfg.LoginRateSpan).
			RateLimiterMiddleware(middlewares.KeyByIP)
		throttleUser = middlewares.NewRateLimiter(cfg.LoginRateMax, cfg.LoginRateSpan).
			RateLimiterMiddleware(middlewares.KeyByUserOrIP)
	}

	accountHandler := handlers.NewAccountHandler(d.Accounts, d.Transport, d.Avatars, cfg.AvatarMaxPx, obs)
	usersHandler := handlers.NewUsersHandler(d.Accounts)

	acct := r.Group("/account")
	acct.POST("/register", throttle, middlewares.RequireJSON(), accountHandler.Register)
	acct.POST("/login", throttle, middlewares.RequireJSON(), accountHandler.Login)
	acct.POST("/logout", accountHandler.Logout)
	acct.GET("/whoami", gate.RequireAuth(), accountHandler.WhoAmI)
	acct.PUT("/update", gate.RequireAuth(), accountHandler.Update)
	acct.PUT("/password", gate.RequireAuth(), throttleUser, middlewares.RequireJSON(), accountHandler.ChangePassword)

	users := r.Group("/users", gate.RequireAuth())
	users.GET("", usersHandler.List)
	users.GET("/:id", usersHandler.Get)

	admin := r.Group("/admin", gate.RequireAuth(), gate.RequireRole(account.RoleAdmin))
	admin.GET("/users", usersHandler.AdminList)

	return r
}
