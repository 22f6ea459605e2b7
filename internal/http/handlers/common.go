package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/smartstudy-backend/internal/http/response"
	"github.com/yungbote/smartstudy-backend/internal/platform/apierr"
	"github.com/yungbote/smartstudy-backend/internal/platform/ctxutil"
)

// requireUser returns the authenticated caller or writes a 401.
func requireUser(c *gin.Context) (uuid.UUID, bool) {
	id := ctxutil.UserID(c.Request.Context())
	if id == uuid.Nil {
		response.RespondError(c, apierr.Unauthorized("unauthenticated", "not authenticated"))
		return uuid.Nil, false
	}
	return id, true
}

// pathID parses a uuid path parameter. A malformed id cannot name an owned row, so it is a 404.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, apierr.NotFound("not_found", "not found"))
		return uuid.Nil, false
	}
	return id, true
}
