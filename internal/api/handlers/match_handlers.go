package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"face-match-go/config"
	"face-match-go/internal/face"
	"face-match-go/internal/imaging"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// MatchHandler handles the face comparison endpoint.
type MatchHandler struct {
	cfg     *config.Config
	service *face.Service
}

// NewMatchHandler creates a handler around the comparison service.
func NewMatchHandler(cfg *config.Config, service *face.Service) *MatchHandler {
	return &MatchHandler{cfg: cfg, service: service}
}

// FaceMatchRequest is the body of POST /api/match-faces.
type FaceMatchRequest struct {
	ReferenceImage string `json:"referenceImage" binding:"required"`
	ActualImage    string `json:"actualImage" binding:"required"`
}

// RegisterRoutes registers the comparison routes.
func (h *MatchHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/match-faces", h.MatchFaces)
}

// MatchFaces compares the faces in two uploaded images and responds with
// the verdict for the best-matching pair.
func (h *MatchHandler) MatchFaces(c *gin.Context) {
	var req FaceMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Request body must contain referenceImage and actualImage as base64 strings.",
		})
		return
	}

	result, err := h.service.CompareFaces(req.ReferenceImage, req.ActualImage)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			log.Errorf("Face matching failed: %v", err)
			c.JSON(status, gin.H{"error": fmt.Sprintf("unexpected failure: %v", err)})
			return
		}
		log.Warnf("Face matching rejected: %v", err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// statusForError maps the pipeline error taxonomy onto HTTP status codes.
// Everything a client can fix (bad image data, no detectable face) is a
// 400; anything else is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, imaging.ErrImageDecoding),
		errors.Is(err, imaging.ErrImageFormat),
		errors.Is(err, face.ErrNoFaceDetected),
		errors.Is(err, face.ErrNoMatchingFace),
		errors.Is(err, face.ErrFeatureExtraction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
