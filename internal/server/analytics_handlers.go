package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PageViewRequest represents a console page-view report
type PageViewRequest struct {
	Name string `json:"name" binding:"required"`
}

// pageView records a console page view. Fire-and-forget: the emitter never
// fails the request.
func (s *Server) pageView(c *gin.Context) {
	var req PageViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.emitter.PageView(req.Name)
	c.Status(http.StatusAccepted)
}
