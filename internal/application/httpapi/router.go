// Package httpapi exposes the relationship engine over HTTP using gin.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ersonp/kin-core/internal/application/handlers"
	"github.com/ersonp/kin-core/internal/infrastructure/logging"
	"github.com/ersonp/kin-core/internal/infrastructure/metrics"
)

// Pinger checks that the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds everything the router needs.
type Deps struct {
	Relationships *handlers.RelationshipHandler
	Members       *handlers.MemberHandler
	Import        *handlers.ImportHandler
	Store         Pinger
	Metrics       *metrics.Collector // nil disables /metrics and HTTP metrics
	MetricsPath   string
	Logger        *slog.Logger
}

// API serves the HTTP endpoints.
type API struct {
	relationships *handlers.RelationshipHandler
	members       *handlers.MemberHandler
	importer      *handlers.ImportHandler
	store         Pinger
	logger        *slog.Logger
}

// NewRouter builds the gin engine with middleware and all routes registered.
//
// Routes:
//
//	GET    /healthz
//	GET    /metrics
//	GET    /api/v1/relationship-kinds
//	GET    /api/v1/relationships            ?family=&member=&kind=
//	POST   /api/v1/relationships
//	GET    /api/v1/relationships/:id
//	PUT    /api/v1/relationships/:id
//	DELETE /api/v1/relationships/:id
//	GET    /api/v1/relationships/:id/history
//	GET    /api/v1/families
//	POST   /api/v1/families
//	GET    /api/v1/families/:family/members ?limit=&offset=&q=
//	POST   /api/v1/families/:family/members
//	GET    /api/v1/families/:family/relationships
//	POST   /api/v1/import                   ?format=&dry_run=
//	GET    /api/v1/members/:id
//	GET    /api/v1/members/:id/relationships
//	GET    /api/v1/members/:id/tree
//	GET    /api/v1/members/:id/related/:other
func NewRouter(deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	api := &API{
		relationships: deps.Relationships,
		members:       deps.Members,
		importer:      deps.Import,
		store:         deps.Store,
		logger:        logger,
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger(logger), actingUser())
	if deps.Metrics != nil {
		router.Use(httpMetrics(deps.Metrics))
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(deps.Metrics.Handler()))
	}

	router.GET("/healthz", api.health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/relationship-kinds", api.listKinds)

		rels := v1.Group("/relationships")
		rels.GET("", api.listRelationships)
		rels.POST("", api.createRelationship)
		rels.GET("/:id", api.getRelationship)
		rels.PUT("/:id", api.updateRelationship)
		rels.DELETE("/:id", api.deleteRelationship)
		rels.GET("/:id/history", api.relationshipHistory)

		families := v1.Group("/families")
		families.GET("", api.listFamilies)
		families.POST("", api.createFamily)
		families.GET("/:family/members", api.listMembers)
		families.POST("/:family/members", api.addMember)
		families.GET("/:family/relationships", api.familyRelationships)

		members := v1.Group("/members")
		members.GET("/:id", api.getMember)
		members.GET("/:id/relationships", api.memberRelationships)
		members.GET("/:id/tree", api.memberTree)
		members.GET("/:id/related/:other", api.relatedExists)

		v1.POST("/import", api.importFixture)
	}

	return router
}

func (a *API) health(c *gin.Context) {
	if a.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := a.store.Ping(ctx); err != nil {
			a.logger.Warn("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
