package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pandeptwidyaop/sndctl/internal/services"
)

// maxAuditPage bounds a single audit log page.
const maxAuditPage = 500

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}

// List returns audit logs, newest first. With macro set only that macro's
// trail is returned.
// GET /api/audit-logs?limit=&offset=&macro=
func (h *AuditHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	if limit > maxAuditPage {
		limit = maxAuditPage
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must not be negative"})
		return
	}

	var logs []services.AuditLogEntry
	if name := c.Query("macro"); name != "" {
		logs, err = h.auditService.GetMacroLogs(name, limit, offset)
	} else {
		logs, err = h.auditService.GetLogs(limit, offset)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, logs)
}
