package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pandeptwidyaop/sndctl/internal/upgrade"
	"github.com/pandeptwidyaop/sndctl/internal/version"
)

type VersionHandler struct {
	releaseURL string
}

// NewVersionHandler creates a VersionHandler that checks releaseURL for updates.
func NewVersionHandler(releaseURL string) *VersionHandler {
	if releaseURL == "" {
		releaseURL = upgrade.LatestReleaseURL
	}
	return &VersionHandler{releaseURL: releaseURL}
}

// Info returns build information.
// GET /api/version
func (h *VersionHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, version.Info())
}

// CheckUpdate checks if a new version is available
// GET /api/version/check
func (h *VersionHandler) CheckUpdate(c *gin.Context) {
	release, err := upgrade.CheckLatestVersion(c.Request.Context(), h.releaseURL)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"current":          version.Version,
			"latest":           "",
			"update_available": false,
			"error":            err.Error(),
		})
		return
	}

	needsUpgrade := upgrade.NeedsUpgrade(release.TagName)

	c.JSON(http.StatusOK, gin.H{
		"current":          version.Version,
		"latest":           release.TagName,
		"update_available": needsUpgrade,
		"release_name":     release.Name,
	})
}
