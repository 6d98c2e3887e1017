package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/database"
	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/generation"
	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/menu"
	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/models"
	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/monitoring"
	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/poster"
	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/timeline"
)

// MenuGenerator is the generative collaborator boundary for menus
type MenuGenerator interface {
	Generate(ctx context.Context, input models.UserInput) (*models.Menu, error)
}

// ImageGenerator is the generative collaborator boundary for dish images
type ImageGenerator interface {
	GenerateImage(ctx context.Context, dishName string) (string, error)
}

// Server represents the planner's HTTP API
type Server struct {
	Router    *gin.Engine
	store     *menu.Store
	clock     timeline.Clock
	generator MenuGenerator
	images    ImageGenerator
	history   *database.History
	metrics   *monitoring.Collector
	hub       *TimelineHub
}

// NewServer creates the API server. history may be nil when persistence
// is disabled.
func NewServer(store *menu.Store, clock timeline.Clock, generator MenuGenerator,
	images ImageGenerator, history *database.History, metrics *monitoring.Collector) *Server {

	s := &Server{
		Router:    gin.Default(),
		store:     store,
		clock:     clock,
		generator: generator,
		images:    images,
		history:   history,
		metrics:   metrics,
	}
	s.hub = NewTimelineHub(store, clock, metrics)
	store.Subscribe(s.hub.Broadcast)

	s.setupRoutes()
	return s
}

// Shutdown releases the live-timeline resources
func (s *Server) Shutdown() {
	s.hub.Close()
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "MaShangKaiFan API is running"})
	})

	v1 := s.Router.Group("/api/v1")
	{
		// Menu generation and editing
		v1.POST("/menu/generate", s.GenerateMenu)
		v1.GET("/menu", s.GetMenu)
		v1.POST("/menu/dishes", s.AddDish)
		v1.PUT("/menu/dishes/:id", s.UpdateDish)
		v1.DELETE("/menu/dishes/:id", s.DeleteDish)

		// Presentation
		v1.GET("/menu/poster", s.GetPoster)
		v1.POST("/dishes/:id/image", s.GenerateDishImage)

		// Preparation timeline
		v1.GET("/timeline", s.GetTimeline)
		v1.PUT("/timeline/mealtime", s.SetMealTime)
		v1.GET("/ws/timeline", s.hub.Handle)

		// Session history
		v1.GET("/history", s.GetHistory)
	}
}

// GenerateMenu handles a menu generation request. The previous menu is
// left untouched on any failure.
func (s *Server) GenerateMenu(c *gin.Context) {
	var input models.UserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	generated, err := s.generator.Generate(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, generation.ErrGenerationInFlight) {
			s.metrics.ObserveGeneration(time.Since(start), "blocked")
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		s.metrics.ObserveGeneration(time.Since(start), "failure")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	s.metrics.ObserveGeneration(time.Since(start), "success")

	s.store.SetMenu(generated)
	if s.history != nil {
		if err := s.history.Save(input, generated); err != nil {
			log.Printf("Failed to persist generated menu: %v", err)
		}
	}

	c.JSON(http.StatusOK, generated)
}

// GetMenu returns the session's current menu
func (s *Server) GetMenu(c *gin.Context) {
	current := s.store.Menu()
	if current == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no menu generated yet"})
		return
	}
	c.JSON(http.StatusOK, current)
}

// AddDish appends a new dish, filling missing fields with placeholders
func (s *Server) AddDish(c *gin.Context) {
	var draft models.Dish
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dish, ok := s.store.AddDish(draft)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no menu generated yet"})
		return
	}
	c.JSON(http.StatusCreated, dish)
}

// UpdateDish replaces the dish with the given id
func (s *Server) UpdateDish(c *gin.Context) {
	var replacement models.Dish
	if err := c.ShouldBindJSON(&replacement); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	replacement.ID = id
	if err := models.ValidateDish(&replacement); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !s.store.UpdateDish(id, replacement) {
		c.JSON(http.StatusNotFound, gin.H{"error": "dish not found"})
		return
	}
	c.JSON(http.StatusOK, replacement)
}

// DeleteDish removes the dish with the given id
func (s *Server) DeleteDish(c *gin.Context) {
	if !s.store.DeleteDish(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "dish not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "dish deleted"})
}

// GetPoster renders the shareable text poster
func (s *Server) GetPoster(c *gin.Context) {
	current := s.store.Menu()
	if current == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no menu generated yet"})
		return
	}
	c.String(http.StatusOK, poster.Render(current))
}

// GenerateDishImage requests an illustration for a dish. A collaborator
// failure or an absent image degrades to a placeholder response, never a
// failed screen.
func (s *Server) GenerateDishImage(c *gin.Context) {
	current := s.store.Menu()
	if current == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no menu generated yet"})
		return
	}
	dish := current.FindDish(c.Param("id"))
	if dish == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "dish not found"})
		return
	}

	image, err := s.images.GenerateImage(c.Request.Context(), dish.OriginalName)
	if err != nil {
		log.Printf("Image generation failed for %q: %v", dish.OriginalName, err)
		s.metrics.ObserveImageRequest("failure")
		c.JSON(http.StatusOK, gin.H{"hasImage": false, "image": ""})
		return
	}
	if image == "" {
		s.metrics.ObserveImageRequest("absent")
		c.JSON(http.StatusOK, gin.H{"hasImage": false, "image": ""})
		return
	}
	s.metrics.ObserveImageRequest("success")
	c.JSON(http.StatusOK, gin.H{"hasImage": true, "image": image})
}

// timelineResponse is the payload for timeline reads and live pushes
type timelineResponse struct {
	MealTime string                     `json:"mealTime"`
	Now      time.Time                  `json:"now"`
	Tasks    []timeline.PreparationTask `json:"tasks"`
}

// GetTimeline derives the six-stage preparation timeline for the current
// menu and meal time
func (s *Server) GetTimeline(c *gin.Context) {
	current := s.store.Menu()
	if current == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no menu generated yet"})
		return
	}

	now := s.clock.Now()
	mealTime := s.store.MealTime()
	s.metrics.RecordTimelineRecompute()
	c.JSON(http.StatusOK, timelineResponse{
		MealTime: mealTime.String(),
		Now:      now,
		Tasks:    timeline.Build(current, mealTime, now),
	})
}

// SetMealTime updates the target meal time. A malformed value is rejected
// and the previous valid value retained.
func (s *Server) SetMealTime(c *gin.Context) {
	var req struct {
		MealTime string `json:"mealTime" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.store.SetMealTime(req.MealTime); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    err.Error(),
			"mealTime": s.store.MealTime().String(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mealTime": s.store.MealTime().String()})
}

// GetHistory returns recently generated menus, newest first
func (s *Server) GetHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusOK, []database.MenuRecord{})
		return
	}
	records, err := s.history.Recent(20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}
