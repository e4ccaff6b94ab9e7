package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mealattendance/internal/auth"
	"mealattendance/internal/jobs"
	"mealattendance/internal/meal"
	"mealattendance/internal/users"
)

type submitRequest struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

// currentUser loads the caller's roster entry from the token subject.
func (s *server) currentUser(c *gin.Context) (*users.User, bool) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok || claims.Subject == "" {
		respondError(c, meal.ErrUnauthorized)
		return nil, false
	}
	u, err := s.Users.Get(c.Request.Context(), claims.Subject)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return u, true
}

func (s *server) submit(m meal.Type) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req submitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, meal.Invalidf("Invalid request body"))
			return
		}
		u, ok := s.currentUser(c)
		if !ok {
			return
		}
		if _, err := s.Attendance.Submit(c.Request.Context(), m, *u, req.Date, req.Status); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": m.Title() + " attendance recorded successfully",
		})
	}
}

func (s *server) query(m meal.Type) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := auth.ClaimsFrom(c)
		if !ok {
			respondError(c, meal.ErrUnauthorized)
			return
		}
		l, err := s.Attendance.Query(c.Request.Context(), m, claims.Subject, c.Query("date"))
		if err != nil {
			respondError(c, err)
			return
		}
		if l.Record == nil {
			c.JSON(http.StatusOK, gin.H{"date": l.Date, "status": l.Status})
			return
		}
		c.JSON(http.StatusOK, l.Record)
	}
}

func (s *server) report(m meal.Type) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := s.Attendance.Report(c.Request.Context(), m)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "report": entries})
	}
}

func (s *server) enqueueFill(c *gin.Context) {
	m, err := meal.ParseType(c.Param("meal"))
	if err != nil {
		respondError(c, err)
		return
	}
	if s.Queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "job queue not configured"})
		return
	}
	date, err := s.Attendance.FillDate(m, c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := jobs.Enqueue(c.Request.Context(), s.Queue, m, date); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true, "message": m.Title() + " default-fill queued", "date": date})
}
