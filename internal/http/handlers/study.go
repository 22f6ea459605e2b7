package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/smartstudy-backend/internal/http/response"
	"github.com/yungbote/smartstudy-backend/internal/platform/apierr"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
	"github.com/yungbote/smartstudy-backend/internal/services"
)

type StudyHandler struct {
	log     *logger.Logger
	study   services.StudyService
	oral    services.OralService
	uploads *UploadStore
}

func NewStudyHandler(log *logger.Logger, study services.StudyService, oral services.OralService, uploads *UploadStore) *StudyHandler {
	return &StudyHandler{
		log:     log.With("handler", "StudyHandler"),
		study:   study,
		oral:    oral,
		uploads: uploads,
	}
}

func (h *StudyHandler) FromImages(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	// Reject an unknown mode before any file is written.
	if _, valid := services.NormalizeMode(c.PostForm("mode")); !valid {
		response.RespondError(c, apierr.BadRequest("invalid_mode", "mode must be summary, scientific or oral"))
		return
	}
	files, err := h.uploads.SaveAll(c, "images", MaxImagesPerRequest)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	out, err := h.study.ProcessImages(c.Request.Context(), userID, services.StudyRequest{
		Mode:    c.PostForm("mode"),
		Subject: c.PostForm("subject"),
		Files:   files,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (h *StudyHandler) EvaluateOral(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	req := services.OralRequest{Reference: c.PostForm("summary")}
	if raw := strings.TrimSpace(c.PostForm("sessionID")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, apierr.NotFound("session_not_found", "session not found"))
			return
		}
		req.SessionID = &id
	}
	audio, err := h.uploads.SaveOne(c, "audio")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	req.Audio = audio
	out, err := h.oral.Evaluate(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (h *StudyHandler) OralHistory(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := h.oral.History(c.Request.Context(), userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (h *StudyHandler) ListSessions(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := h.study.ListSessions(c.Request.Context(), userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (h *StudyHandler) GetSession(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "sessionID")
	if !ok {
		return
	}
	out, err := h.study.GetSession(c.Request.Context(), sessionID, userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (h *StudyHandler) SetRating(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "sessionID")
	if !ok {
		return
	}
	var req struct {
		Rating int `json:"rating"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apierr.BadRequest("invalid_rating", "rating must be between 1 and 5"))
		return
	}
	if err := h.study.SetRating(c.Request.Context(), sessionID, userID, req.Rating); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}

func (h *StudyHandler) Stats(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := h.study.Stats(c.Request.Context(), userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (h *StudyHandler) GlobalStats(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	out, err := h.study.GlobalStats(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}
