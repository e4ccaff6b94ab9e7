// Package api exposes the meal attendance service over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mealattendance/internal/attendance"
	"mealattendance/internal/auth"
	"mealattendance/internal/httpmiddleware"
	"mealattendance/internal/meal"
	"mealattendance/internal/queue"
	"mealattendance/internal/users"
)

// Pinger reports backend health.
type Pinger interface {
	Healthy(ctx context.Context) bool
}

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Attendance *attendance.Service
	Users      *users.Service
	Signer     auth.Signer
	// Photos is nil when no photo storage is configured.
	Photos users.PhotoStorage
	Queue  queue.Queue
	// IsAdmin decides the role granted at login.
	IsAdmin func(email string) bool

	RateLimitPerMin int
	CORSOrigins     []string

	// Health checks keyed by component name, e.g. "db" and "redis".
	Health map[string]Pinger
}

type server struct {
	Deps
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(d Deps) *gin.Engine {
	if d.IsAdmin == nil {
		d.IsAdmin = func(string) bool { return false }
	}
	s := &server{Deps: d}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger("/healthz", "/metrics"))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(httpmiddleware.SecurityHeaders())

	limiter := httpmiddleware.NewTokenBucket(d.RateLimitPerMin, d.RateLimitPerMin).Middleware()
	authn := auth.UserAuth(d.Signer)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", s.healthz)

	public := r.Group("/auth", limiter)
	public.POST("/signup", s.signup)
	public.POST("/login", s.login)
	public.POST("/refresh", s.refresh)
	public.GET("/verify/:token", s.verify)
	public.POST("/request-reset", s.requestReset)
	public.POST("/reset-password/:token", s.resetPassword)

	user := r.Group("/user", authn, limiter)
	user.GET("/me", s.me)
	user.POST("/togglemembership", s.toggleMembership)
	user.POST("/photo", s.uploadPhoto)

	for _, m := range meal.Types {
		g := r.Group("/"+string(m), authn, limiter)
		g.POST("", s.submit(m))
		g.GET("", s.query(m))
		g.GET("/report", s.report(m))
	}

	admin := r.Group("/admin", authn, auth.RequireRole(auth.RoleAdmin))
	admin.POST("/fill/:meal", s.enqueueFill)

	return r
}

func (s *server) healthz(c *gin.Context) {
	body := gin.H{"status": "ok"}
	status := http.StatusOK
	for name, p := range s.Health {
		ok := p != nil && p.Healthy(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}
