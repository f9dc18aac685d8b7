package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	adminapi "vineyard-api/internal/api/admin"
	authapi "vineyard-api/internal/api/auth"
	issuesapi "vineyard-api/internal/api/issues"
	maintenanceapi "vineyard-api/internal/api/maintenance"
	usersapi "vineyard-api/internal/api/users"
	vinesapi "vineyard-api/internal/api/vines"
	"vineyard-api/internal/app/http/middleware"
	"vineyard-api/internal/domain/users"
	"vineyard-api/internal/metrics"
	"vineyard-api/internal/platform/logger"
)

const APIPrefix = "/api/v1"

// Pinger backs the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers is everything the router mounts.
type Handlers struct {
	Auth        *authapi.Handler
	Users       *usersapi.Handler
	Admin       *adminapi.Handler
	Vines       *vinesapi.Handler
	Issues      *issuesapi.Handler
	Maintenance *maintenanceapi.Handler

	Tokens    middleware.TokenVerifier
	Accounts  middleware.AccountLookup
	DB        Pinger
	UploadDir string
	Log       *logger.Logger
}

// NewRouter builds the engine with the shared middleware chain.
func NewRouter(h Handlers, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(h.Log), metrics.Middleware())
	if len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	RegisterRoutes(r, h)
	return r
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			h.Log.Warn("Health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())
	r.Static("/static/uploads/images", h.UploadDir)

	api := r.Group(APIPrefix)
	api.Use(middleware.SanitizeAndCleanInputMiddleware())

	api.POST("/login/access-token", h.Auth.Login)
	api.GET("/auth/google", h.Auth.GoogleStart)
	api.GET("/auth/google/callback", h.Auth.GoogleCallback)

	// Authenticated
	auth := api.Group("/")
	auth.Use(middleware.AuthMiddleware(h.Tokens), middleware.RequireActiveUser(h.Accounts))

	auth.GET("/users/me", h.Users.GetCurrentUser)
	auth.POST("/users/me/password", h.Auth.ChangePassword)

	auth.GET("/vines", h.Vines.ListVines)
	auth.POST("/vines", h.Vines.CreateVine)
	auth.POST("/vines/search", h.Vines.SearchVines)
	auth.PUT("/vines/sync", h.Vines.SyncVine)
	auth.GET("/vines/by-alpha-id/:alpha_id", h.Vines.GetVineByTag)
	auth.GET("/vines/:id", h.Vines.GetVine)
	auth.PUT("/vines/:id", h.Vines.UpdateVine)
	auth.DELETE("/vines/:id", h.Vines.DeleteVine)

	auth.GET("/vine-locations/by-position", h.Vines.GetLocationByPosition)
	auth.GET("/vine-locations/vine/:vine_id", h.Vines.ListLocationsForVine)
	auth.POST("/vine-locations", h.Vines.CreateLocation)
	auth.PUT("/vine-locations/sync", h.Vines.SyncLocation)
	auth.GET("/vine-locations/:id", h.Vines.GetLocation)
	auth.PUT("/vine-locations/:id", h.Vines.UpdateLocation)
	auth.DELETE("/vine-locations/:id", h.Vines.DeleteLocation)

	auth.GET("/issues", h.Issues.ListIssues)
	auth.POST("/issues", h.Issues.CreateIssue)
	auth.POST("/issues/upload", h.Issues.UploadIssue)
	auth.GET("/issues/with-details", h.Issues.ListIssuesWithDetails)
	auth.GET("/issues/vine/:vine_id", h.Issues.ListIssuesForVine)
	auth.GET("/issues/location/:location_id", h.Issues.ListIssuesForLocation)
	auth.GET("/issues/status/:is_resolved", h.Issues.ListIssuesByStatus)
	auth.GET("/issues/:id", h.Issues.GetIssue)
	auth.GET("/issues/:id/with-details", h.Issues.GetIssueWithDetails)
	auth.GET("/issues/:id/with-photo", h.Issues.GetIssueWithPhoto)
	auth.GET("/issues/:id/photo", h.Issues.GetIssuePhoto)
	auth.PUT("/issues/:id", h.Issues.UpdateIssue)
	auth.PUT("/issues/:id/upload", h.Issues.UpdateIssueUpload)
	auth.DELETE("/issues/:id", h.Issues.DeleteIssue)

	auth.GET("/maintenance/types", h.Maintenance.ListTypes)
	auth.POST("/maintenance/types", h.Maintenance.CreateType)
	auth.GET("/maintenance/types/:id", h.Maintenance.GetType)
	auth.PUT("/maintenance/types/:id", h.Maintenance.UpdateType)
	auth.DELETE("/maintenance/types/:id", h.Maintenance.DeleteType)
	auth.GET("/maintenance/activities", h.Maintenance.ListActivities)
	auth.POST("/maintenance/activities", h.Maintenance.CreateActivity)
	auth.GET("/maintenance/activities/vine/:vine_id", h.Maintenance.ListActivitiesForVine)
	auth.GET("/maintenance/activities/:id", h.Maintenance.GetActivity)
	auth.PUT("/maintenance/activities/:id", h.Maintenance.UpdateActivity)
	auth.DELETE("/maintenance/activities/:id", h.Maintenance.DeleteActivity)

	// Admin routes
	admin := auth.Group("/")
	admin.Use(middleware.RequireRole(users.RoleAdministrator))
	admin.GET("/users", h.Admin.ListUsers)
	admin.POST("/users", h.Admin.CreateUser)
	admin.GET("/users/:id", h.Admin.GetUser)
}
