package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/proceso-api/internal/handler"
	"github.com/noah-isme/proceso-api/internal/middleware"
	"github.com/noah-isme/proceso-api/internal/models"
	"github.com/noah-isme/proceso-api/internal/service"
	"github.com/noah-isme/proceso-api/pkg/config"
	"github.com/noah-isme/proceso-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/proceso-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/proceso-api/pkg/middleware/requestid"
)

// Dependencies holds everything the HTTP surface is built from.
type Dependencies struct {
	Config  *config.Config
	Logger  *zap.Logger
	Auth    *service.AuthService
	Metrics *service.MetricsService

	Feed          *handler.FeedHandler
	Activities    *handler.ActivityHandler
	Assignments   *handler.AssignmentHandler
	Notifications *handler.NotificationHandler
	Certificates  *handler.CertificateHandler
	Jobs          *handler.JobHandler
	Series        *handler.SeriesHandler
	Observability *handler.MetricsHandler
}

// New builds the gin engine with the global middleware chain and every route.
func New(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(deps.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	Register(r, deps)
	return r
}

// Register mounts the routes on r.
func Register(r *gin.Engine, deps Dependencies) {
	r.GET("/health", deps.Observability.Health)
	r.GET("/ready", deps.Observability.Ready)
	r.GET("/metrics", deps.Observability.Prometheus)

	if deps.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// certificate verification links are printed on paper and stay unversioned
	r.GET("/certs/download/:token", deps.Certificates.Download)
	r.GET("/certs/:hash", deps.Certificates.Lookup)

	prefix := deps.Config.APIPrefix
	if prefix == "" {
		prefix = "/api"
	}
	api := r.Group(prefix)

	optional := middleware.OptionalJWT(deps.Auth)
	api.GET("/activities/feed", optional, deps.Feed.Activities)
	api.GET("/events/feed", optional, deps.Feed.Events)
	api.GET("/activities/:id", optional, deps.Activities.Get)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Auth))

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)

	activities := secured.Group("/activities")
	activities.POST("", staff, deps.Activities.Create)
	activities.PUT("/:id", staff, deps.Activities.Update)
	activities.DELETE("/:id", staff, deps.Activities.Delete)
	activities.GET("/:id/faculty", deps.Assignments.ListFaculty)
	activities.POST("/:id/faculty", staff, deps.Assignments.Assign)
	activities.DELETE("/:id/faculty", staff, deps.Assignments.Unassign)
	activities.POST("/:id/request", staff, deps.Assignments.Request)
	activities.POST("/:id/rsvp", middleware.RequireRoles(models.RoleFaculty), deps.Assignments.RSVP)
	activities.POST("/:id/certificates", staff, deps.Certificates.Issue)
	activities.GET("/:id/certificates.csv", staff, deps.Certificates.ExportCSV)

	secured.GET("/faculty", staff, deps.Assignments.SearchFaculty)

	secured.GET("/series", deps.Series.List)
	secured.POST("/series", staff, deps.Series.Create)

	notifications := secured.Group("/notifications")
	notifications.Use(staff)
	notifications.POST("/assignment", deps.Notifications.Assignment)
	notifications.POST("/rejection", deps.Notifications.Rejection)
	notifications.POST("/nomination", deps.Notifications.Gated(service.KindNomination))
	notifications.POST("/request", deps.Notifications.Gated(service.KindRequest))
	notifications.POST("/unassigned", deps.Notifications.Gated(service.KindUnassigned))
	notifications.POST("/activity", deps.Notifications.Gated(service.KindActivity))
	secured.POST("/certificates/send", staff, deps.Notifications.Certificates)

	jobs := secured.Group("/jobs")
	jobs.Use(staff)
	jobs.GET("/:runId", deps.Jobs.Status)
	jobs.POST("/:runId/cancel", deps.Jobs.Cancel)
}
