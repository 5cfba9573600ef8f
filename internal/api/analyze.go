package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pharmaguard-pgx-server/internal/domain"
	"github.com/pharmaguard-pgx-server/internal/profile"
)

// uploadField is the multipart field carrying the variant file.
const uploadField = "vcf"

type analyzeResponse struct {
	Message   string               `json:"message"`
	ProfileID string               `json:"profileId"`
	Genes     []domain.GeneFinding `json:"genes"`
}

// handleAnalyze accepts a variant file as multipart field "vcf" or as the raw
// request body, resolves it and stores the result as a new profile.
func (s *Server) handleAnalyze(c *gin.Context) {
	upload := s.configManager.GetConfig().Upload
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, upload.MaxBytes)

	body, name, err := s.openUpload(c, upload)
	if err != nil {
		s.respondUploadError(c, err)
		return
	}
	defer body.Close()

	analysis, err := s.analysis.AnalyzeReader(c.Request.Context(), body)
	if err != nil {
		s.respondUploadError(c, err)
		return
	}

	p := profile.FromFindings(name, analysis.Findings)
	if err := s.profiles.Create(c.Request.Context(), p); err != nil {
		s.respondStoreError(c, err, "Profile not found")
		return
	}

	c.JSON(http.StatusCreated, analyzeResponse{
		Message:   "Genomic analysis complete",
		ProfileID: p.ID,
		Genes:     analysis.Findings,
	})
}

// openUpload returns the uploaded variant text and the requested profile name.
func (s *Server) openUpload(c *gin.Context, upload domain.UploadConfig) (io.ReadCloser, string, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return c.Request.Body, c.Query("name"), nil
	}

	header, err := c.FormFile(uploadField)
	if err != nil {
		return nil, "", err
	}
	if !allowedExtension(header.Filename, upload.AllowedExtensions) {
		return nil, "", fmt.Errorf("%s: %w", header.Filename, domain.ErrUnsupportedFile)
	}

	f, err := header.Open()
	if err != nil {
		return nil, "", err
	}
	return f, c.PostForm("name"), nil
}

func allowedExtension(filename string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, a := range allowed {
		if ext == strings.ToLower(a) {
			return true
		}
	}
	return false
}

func (s *Server) respondUploadError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		s.respondError(c, http.StatusRequestEntityTooLarge, domain.ErrFileTooLarge, "File too large", fmt.Sprintf("limit is %d bytes", tooLarge.Limit))
	case errors.Is(err, domain.ErrUnsupportedFile):
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Only .vcf and .txt files are allowed", err.Error())
	case errors.Is(err, http.ErrMissingFile):
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "No file uploaded", "")
	default:
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Could not read upload", err.Error())
	}
}
