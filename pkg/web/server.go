package web

import (
	"github.com/gin-gonic/gin"

	"github.com/harrisonrobin/clarity/pkg/store"
	"github.com/harrisonrobin/clarity/pkg/sync"
)

// Server is the clarity web server: it hosts the static frontend and the
// JSON API over the store and the sync orchestrator.
type Server struct {
	store   *store.Store
	manager *sync.Manager
	router  *gin.Engine
}

// NewServer creates the server and registers all routes. staticDir may be
// empty to run the API without a frontend.
func NewServer(st *store.Store, manager *sync.Manager, staticDir string) *Server {
	router := gin.Default()

	s := &Server{
		store:   st,
		manager: manager,
		router:  router,
	}

	if staticDir != "" {
		router.Static("/app", staticDir)
		router.StaticFile("/", staticDir+"/index.html")
	}

	api := router.Group("/api")
	{
		api.GET("/tasks", s.handleListTasks)
		api.POST("/tasks", s.handleCreateTask)
		api.PUT("/tasks/:id", s.handleUpdateTask)
		api.POST("/tasks/:id/complete", s.handleCompleteTask)
		api.PUT("/tasks/:id/quadrant", s.handleMoveTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)

		api.GET("/projects", s.handleListProjects)
		api.POST("/projects", s.handleCreateProject)
		api.DELETE("/projects/:id", s.handleDeleteProject)

		api.GET("/status", s.handleStatus)
		api.POST("/connect/:service", s.handleConnect)
		api.POST("/disconnect/:service", s.handleDisconnect)
		api.POST("/sync", s.handleSyncAll)
		api.POST("/sync/:service", s.handleSyncService)

		api.GET("/history", s.handleHistory)
		api.GET("/stats", s.handleStats)

		api.GET("/settings", s.handleExportSettings)
		api.POST("/settings", s.handleImportSettings)
	}

	return s
}

// Run starts the web server.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
