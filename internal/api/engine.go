package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

type classifyRequest struct {
	Drug      string `json:"drug" binding:"required"`
	Phenotype string `json:"phenotype"`
	ProfileID string `json:"profile_id"`
}

type classifyResponse struct {
	Assessments []domain.RiskAssessment `json:"assessments"`
}

// handleClassify classifies a drug against one phenotype, or against every
// gene of a stored profile when profile_id is given.
func (s *Server) handleClassify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid request body", err.Error())
		return
	}

	ctx := c.Request.Context()
	if req.ProfileID == "" {
		if req.Phenotype == "" {
			s.respondError(c, http.StatusBadRequest, domain.ErrValidation, "phenotype or profile_id is required", "")
			return
		}
		a, err := s.analysis.ClassifyDrug(ctx, req.Drug, req.Phenotype)
		if err != nil {
			s.respondStoreError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, classifyResponse{Assessments: []domain.RiskAssessment{a}})
		return
	}

	p, err := s.profiles.Get(ctx, req.ProfileID)
	if err != nil {
		s.respondStoreError(c, err, "Profile not found")
		return
	}

	assessments, err := s.analysis.ClassifyForFindings(ctx, req.Drug, p.Findings())
	if err != nil {
		s.respondStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, classifyResponse{Assessments: assessments})
}

type reportRequest struct {
	PatientID string               `json:"patient_id"`
	ProfileID string               `json:"profile_id"`
	Genes     []domain.GeneFinding `json:"genes"`
}

// handleReport builds a patient report from a stored profile or inline findings.
func (s *Server) handleReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid request body", err.Error())
		return
	}

	ctx := c.Request.Context()
	findings := req.Genes
	patientID := req.PatientID

	if req.ProfileID != "" {
		p, err := s.profiles.Get(ctx, req.ProfileID)
		if err != nil {
			s.respondStoreError(c, err, "Profile not found")
			return
		}
		findings = p.Findings()
		if patientID == "" {
			patientID = p.ID
		}
	}

	if patientID == "" {
		s.respondError(c, http.StatusBadRequest, domain.ErrValidation, "patient_id or profile_id is required", "")
		return
	}

	rep, err := s.analysis.GenerateReport(ctx, patientID, findings)
	if err != nil {
		s.respondStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleLatestReport(c *gin.Context) {
	rep, err := s.analysis.LatestReport(c.Request.Context(), c.Param("patientId"))
	if err != nil {
		s.respondStoreError(c, err, "Report not found")
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleListDrugs(c *gin.Context) {
	drugs := s.analysis.Drugs()
	c.JSON(http.StatusOK, gin.H{
		"count": len(drugs),
		"drugs": drugs,
	})
}

func (s *Server) handleGetDrug(c *gin.Context) {
	name := c.Param("name")
	g, ok := s.analysis.Guideline(name)
	if !ok {
		s.respondError(c, http.StatusNotFound, domain.ErrNotFoundCode, "No data found for "+name, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"drug":      name,
		"guideline": g,
	})
}
