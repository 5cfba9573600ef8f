package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pharmaguard-pgx-server/internal/domain"
	"github.com/pharmaguard-pgx-server/internal/profile"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type profileRequest struct {
	Name  string               `json:"name"`
	Genes []profile.GeneResult `json:"genes"`
}

func (s *Server) handleListProfiles(c *gin.Context) {
	limit := queryInt(c, "limit", defaultPageSize)
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := max(queryInt(c, "offset", 0), 0)

	ctx := c.Request.Context()
	profiles, err := s.profiles.List(ctx, limit, offset)
	if err != nil {
		s.respondStoreError(c, err, "")
		return
	}
	total, err := s.profiles.Count(ctx)
	if err != nil {
		s.respondStoreError(c, err, "")
		return
	}

	if profiles == nil {
		profiles = []*profile.Profile{}
	}
	c.JSON(http.StatusOK, gin.H{
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"profiles": profiles,
	})
}

func (s *Server) handleCreateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid request body", err.Error())
		return
	}

	p := &profile.Profile{Name: req.Name, Genes: req.Genes}
	if err := s.profiles.Create(c.Request.Context(), p); err != nil {
		s.respondStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) handleGetProfile(c *gin.Context) {
	p, err := s.profiles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err, "Profile not found")
		return
	}
	c.JSON(http.StatusOK, p)
}

// handleUpdateProfile replaces the name and, when given, the genes of a profile.
func (s *Server) handleUpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid request body", err.Error())
		return
	}

	ctx := c.Request.Context()
	p, err := s.profiles.Get(ctx, c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err, "Profile not found")
		return
	}

	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Genes != nil {
		p.Genes = req.Genes
	}

	if err := s.profiles.Update(ctx, p); err != nil {
		s.respondStoreError(c, err, "Profile not found")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleExportProfiles(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="profiles.json"`)
	c.Status(http.StatusOK)
	c.Writer.Header().Set("Content-Type", "application/json")
	if err := s.profiles.ExportJSON(c.Request.Context(), c.Writer); err != nil {
		s.logger.WithError(err).Error("Profile export failed")
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}
