package services

import (
	"context"
	"errors"
	"log"

	"github.com/pandeptwidyaop/sndctl/internal/config"
	"github.com/pandeptwidyaop/sndctl/internal/models"
	"github.com/pandeptwidyaop/sndctl/internal/response"
)

var ErrUnknownSetting = errors.New("unknown playback setting")

// SpeakerClient is the part of the soco-cli client used for speaker commands.
type SpeakerClient interface {
	Dispatcher
	Speakers(ctx context.Context) ([]string, error)
	Rediscover(ctx context.Context) ([]string, error)
}

// ListResult is a parsed numbered listing plus the reply it came from.
type ListResult struct {
	Items    []models.ListItem `json:"items"`
	Raw      string            `json:"raw"`
	ExitCode int               `json:"exitCode"`
}

// QueueResult is a parsed queue listing plus the reply it came from.
type QueueResult struct {
	Tracks   []models.QueueItem `json:"tracks"`
	Raw      string             `json:"raw"`
	ExitCode int                `json:"exitCode"`
}

// SettingResult is an on/off playback setting.
type SettingResult struct {
	Raw      string `json:"raw"`
	ExitCode int    `json:"exitCode"`
	Enabled  bool   `json:"enabled"`
}

// settingActions maps setting names to soco-cli actions.
var settingActions = map[string]string{
	"shuffle":   "shuffle",
	"crossfade": "cross_fade",
	"mute":      "mute",
}

// SonosService runs single speaker commands and interprets listing replies.
type SonosService struct {
	client SpeakerClient
	cfg    *config.Config
}

func NewSonosService(client SpeakerClient, cfg *config.Config) *SonosService {
	return &SonosService{client: client, cfg: cfg}
}

// Command dispatches one command as given.
func (s *SonosService) Command(ctx context.Context, speaker, action string, args []string) (*models.CommandResponse, error) {
	if args == nil {
		args = []string{}
	}
	return s.client.Dispatch(ctx, models.PrimitiveCommand{Device: speaker, Action: action, Args: args})
}

func (s *SonosService) Speakers(ctx context.Context) ([]string, error) {
	return s.client.Speakers(ctx)
}

func (s *SonosService) Rediscover(ctx context.Context) ([]string, error) {
	speakers, err := s.client.Rediscover(ctx)
	if err == nil {
		log.Printf("[Sonos] Rediscovered %d speakers", len(speakers))
	}
	return speakers, err
}

// Favorites lists the household favourites.
func (s *SonosService) Favorites(ctx context.Context) (*ListResult, error) {
	return s.householdList(ctx, "list_favs")
}

// Playlists lists the stored Sonos playlists.
func (s *SonosService) Playlists(ctx context.Context) (*ListResult, error) {
	return s.householdList(ctx, "list_playlists")
}

// PlaylistTracks lists the tracks of the named playlist.
func (s *SonosService) PlaylistTracks(ctx context.Context, playlist string) (*ListResult, error) {
	return s.householdList(ctx, "list_playlist_tracks", playlist)
}

// RadioStations lists the favourite radio stations.
func (s *SonosService) RadioStations(ctx context.Context) (*ListResult, error) {
	return s.householdList(ctx, "favourite_radio_stations")
}

// householdList runs a listing that is the same on every speaker against the
// first discovered one. With no speakers the listing is empty.
func (s *SonosService) householdList(ctx context.Context, action string, args ...string) (*ListResult, error) {
	speakers, err := s.client.Speakers(ctx)
	if err != nil {
		return nil, err
	}
	if len(speakers) == 0 {
		return &ListResult{Items: []models.ListItem{}}, nil
	}

	resp, err := s.listing(ctx, speakers[0], action, args...)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Items:    response.ParseNumberedList(resp.Result),
		Raw:      resp.Result,
		ExitCode: resp.ExitCode,
	}, nil
}

// Queue lists the queue of speaker.
func (s *SonosService) Queue(ctx context.Context, speaker string) (*QueueResult, error) {
	resp, err := s.listing(ctx, speaker, "list_queue")
	if err != nil {
		return nil, err
	}
	return &QueueResult{
		Tracks:   response.ParseQueueList(resp.Result),
		Raw:      resp.Result,
		ExitCode: resp.ExitCode,
	}, nil
}

// QueueLength returns the number of tracks queued on speaker.
func (s *SonosService) QueueLength(ctx context.Context, speaker string) (int, *models.CommandResponse, error) {
	return s.counter(ctx, speaker, "queue_length")
}

// QueuePosition returns the current queue position of speaker.
func (s *SonosService) QueuePosition(ctx context.Context, speaker string) (int, *models.CommandResponse, error) {
	return s.counter(ctx, speaker, "queue_position")
}

func (s *SonosService) counter(ctx context.Context, speaker, action string) (int, *models.CommandResponse, error) {
	resp, err := s.listing(ctx, speaker, action)
	if err != nil {
		return 0, nil, err
	}
	n, _ := response.ParseInt(resp.Result)
	return n, resp, nil
}

// Setting reads an on/off playback setting of speaker.
func (s *SonosService) Setting(ctx context.Context, speaker, setting string) (*SettingResult, error) {
	action, ok := settingActions[setting]
	if !ok {
		return nil, ErrUnknownSetting
	}
	resp, err := s.Command(ctx, speaker, action, nil)
	if err != nil {
		return nil, err
	}
	return &SettingResult{
		Enabled:  resp.ExitCode == 0 && response.ParseOnOff(resp.Result),
		Raw:      resp.Result,
		ExitCode: resp.ExitCode,
	}, nil
}

// listing dispatches a read-only command. soco-cli occasionally answers a
// successful call with an empty body; that reply is retried once.
func (s *SonosService) listing(ctx context.Context, speaker, action string, args ...string) (*models.CommandResponse, error) {
	resp, err := s.Command(ctx, speaker, action, args)
	if err != nil {
		return nil, err
	}
	if resp.ExitCode == 0 && response.IsBlank(resp.Result) && s.cfg.SocoCLI.ShouldRetryEmptyListings() {
		log.Printf("[Sonos] %s returned empty result for %s, retrying", action, speaker)
		return s.Command(ctx, speaker, action, args)
	}
	return resp, nil
}
