package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harrisonrobin/clarity/pkg/model"
	"github.com/harrisonrobin/clarity/pkg/store"
	"github.com/harrisonrobin/clarity/pkg/sync"
)

// Task handlers

func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.store.Tasks()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tasks": tasks})
}

type createTaskRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Quadrant    string     `json:"quadrant"`
	ProjectID   string     `json:"projectId"`
	DueDate     *time.Time `json:"dueDate"`
	// PushTo names the providers to mirror the task into. Pushing is
	// best-effort; the local task stands regardless.
	PushTo []string `json:"pushTo"`
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "task name is required"})
		return
	}

	task := model.NewTask(strings.TrimSpace(req.Name), model.Quadrant(req.Quadrant), time.Now())
	task.Description = req.Description
	task.ProjectID = req.ProjectID
	task.DueDate = req.DueDate

	if err := s.store.SaveTask(task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	var pushed []sync.PushResult
	if len(req.PushTo) > 0 {
		pushed = s.manager.CreateExternalTask(c.Request.Context(), &task, req.PushTo...)
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "task": task, "pushed": pushed})
}

type updateTaskRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	ProjectID   *string    `json:"projectId"`
	DueDate     *time.Time `json:"dueDate"`
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	task, ok := s.loadTask(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "task name cannot be empty"})
			return
		}
		task.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.ProjectID != nil {
		task.ProjectID = *req.ProjectID
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	task.Touch(time.Now())

	if err := s.store.SaveTask(task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	pushed := s.manager.UpdateExternalTask(c.Request.Context(), task)
	c.JSON(http.StatusOK, gin.H{"success": true, "task": task, "pushed": pushed})
}

func (s *Server) handleCompleteTask(c *gin.Context) {
	task, ok := s.loadTask(c)
	if !ok {
		return
	}

	task.Complete(time.Now())
	if err := s.store.SaveTask(task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	pushed := s.manager.CompleteExternalTask(c.Request.Context(), task)
	c.JSON(http.StatusOK, gin.H{"success": true, "task": task, "pushed": pushed})
}

func (s *Server) handleMoveTask(c *gin.Context) {
	task, ok := s.loadTask(c)
	if !ok {
		return
	}

	var req struct {
		Quadrant string `json:"quadrant"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	quadrant := model.Quadrant(req.Quadrant)
	if !quadrant.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid quadrant: " + req.Quadrant})
		return
	}

	task.Quadrant = quadrant
	task.Touch(time.Now())
	if err := s.store.SaveTask(task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	pushed := s.manager.UpdateExternalTask(c.Request.Context(), task)
	c.JSON(http.StatusOK, gin.H{"success": true, "task": task, "pushed": pushed})
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	err := s.store.DeleteTask(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) loadTask(c *gin.Context) (model.Task, bool) {
	task, err := s.store.Task(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
		return model.Task{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return model.Task{}, false
	}
	return task, true
}

// Project handlers

func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.Projects()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "projects": projects})
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "project name is required"})
		return
	}

	project := model.NewProject(strings.TrimSpace(req.Name), time.Now())
	if err := s.store.SaveProject(project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "project": project})
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	err := s.store.DeleteProject(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Sync handlers

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "services": s.manager.ConnectedServices()})
}

func (s *Server) handleConnect(c *gin.Context) {
	var creds sync.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	result, err := s.manager.ConnectService(c.Request.Context(), c.Param("service"), creds)
	if errors.Is(err, sync.ErrUnknownService) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
		return
	}
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"success": result.Success, "message": result.Message})
}

func (s *Server) handleDisconnect(c *gin.Context) {
	err := s.manager.DisconnectService(c.Param("service"))
	if errors.Is(err, sync.ErrUnknownService) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleSyncAll(c *gin.Context) {
	results := s.manager.SyncAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}

func (s *Server) handleSyncService(c *gin.Context) {
	summary, err := s.manager.SyncService(c.Request.Context(), c.Param("service"))
	if errors.Is(err, sync.ErrUnknownService) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
		return
	}
	if errors.Is(err, sync.ErrNotConnected) {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error(), "summary": summary})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "summary": summary})
}

// History and stats handlers

func (s *Server) handleHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "history": s.manager.Ledger().Entries()})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.manager.SyncStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

// Settings handlers

func (s *Server) handleExportSettings(c *gin.Context) {
	export, err := s.store.ExportSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, export)
}

func (s *Server) handleImportSettings(c *gin.Context) {
	var export store.SettingsExport
	if err := c.ShouldBindJSON(&export); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err := s.store.ImportSettings(export); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
