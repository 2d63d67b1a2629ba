package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pandeptwidyaop/sndctl/internal/models"
	"github.com/pandeptwidyaop/sndctl/internal/services"
	"github.com/pandeptwidyaop/sndctl/internal/sococli"
)

// SonosHandler exposes single speaker commands and household listings.
type SonosHandler struct {
	sonosService *services.SonosService
	auditService *services.AuditService
}

func NewSonosHandler(sonosService *services.SonosService, auditService *services.AuditService) *SonosHandler {
	return &SonosHandler{
		sonosService: sonosService,
		auditService: auditService,
	}
}

// Speakers lists the discovered speakers.
// GET /api/sonos/speakers
func (h *SonosHandler) Speakers(c *gin.Context) {
	speakers, err := h.sonosService.Speakers(c.Request.Context())
	if err != nil {
		respondUpstream(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"speakers": nonNil(speakers)})
}

// Rediscover asks the command server to search the network again.
// POST /api/sonos/rediscover
func (h *SonosHandler) Rediscover(c *gin.Context) {
	speakers, err := h.sonosService.Rediscover(c.Request.Context())
	if err != nil {
		respondUpstream(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"speakers": nonNil(speakers)})
}

// Command runs one speaker command.
// POST /api/sonos/command
func (h *SonosHandler) Command(c *gin.Context) {
	var req models.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.sonosService.Command(c.Request.Context(), req.Speaker, req.Action, req.Args)
	if err != nil {
		respondUpstream(c, err)
		return
	}

	h.auditService.LogCommand(req.Speaker, req.Action, req.Args, clientOf(c))

	c.JSON(http.StatusOK, resp)
}

// Favorites lists the household favourites.
// GET /api/sonos/favorites
func (h *SonosHandler) Favorites(c *gin.Context) {
	h.respondList(c)(h.sonosService.Favorites(c.Request.Context()))
}

// Playlists lists the stored playlists.
// GET /api/sonos/playlists
func (h *SonosHandler) Playlists(c *gin.Context) {
	h.respondList(c)(h.sonosService.Playlists(c.Request.Context()))
}

// PlaylistTracks lists the tracks of one playlist.
// GET /api/sonos/playlists/:name/tracks
func (h *SonosHandler) PlaylistTracks(c *gin.Context) {
	h.respondList(c)(h.sonosService.PlaylistTracks(c.Request.Context(), c.Param("name")))
}

// RadioStations lists the favourite radio stations.
// GET /api/sonos/radio-stations
func (h *SonosHandler) RadioStations(c *gin.Context) {
	h.respondList(c)(h.sonosService.RadioStations(c.Request.Context()))
}

func (h *SonosHandler) respondList(c *gin.Context) func(*services.ListResult, error) {
	return func(result *services.ListResult, err error) {
		if err != nil {
			respondUpstream(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// Queue lists the queue of a speaker.
// GET /api/sonos/speakers/:speaker/queue
func (h *SonosHandler) Queue(c *gin.Context) {
	result, err := h.sonosService.Queue(c.Request.Context(), c.Param("speaker"))
	if err != nil {
		respondUpstream(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// QueueLength returns the number of queued tracks.
// GET /api/sonos/speakers/:speaker/queue/length
func (h *SonosHandler) QueueLength(c *gin.Context) {
	n, resp, err := h.sonosService.QueueLength(c.Request.Context(), c.Param("speaker"))
	if err != nil {
		respondUpstream(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"length": n, "raw": resp.Result, "exitCode": resp.ExitCode})
}

// QueuePosition returns the current queue position.
// GET /api/sonos/speakers/:speaker/queue/position
func (h *SonosHandler) QueuePosition(c *gin.Context) {
	n, resp, err := h.sonosService.QueuePosition(c.Request.Context(), c.Param("speaker"))
	if err != nil {
		respondUpstream(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"position": n, "raw": resp.Result, "exitCode": resp.ExitCode})
}

// Setting reads shuffle, crossfade or mute.
// GET /api/sonos/speakers/:speaker/settings/:setting
func (h *SonosHandler) Setting(c *gin.Context) {
	result, err := h.sonosService.Setting(c.Request.Context(), c.Param("speaker"), c.Param("setting"))
	if err != nil {
		if errors.Is(err, services.ErrUnknownSetting) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		respondUpstream(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// respondUpstream reports a failure to reach the command server.
func respondUpstream(c *gin.Context, err error) {
	if errors.Is(err, sococli.ErrEmptyDevice) || errors.Is(err, sococli.ErrEmptyAction) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
