package services_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/pandeptwidyaop/sndctl/internal/config"
	"github.com/pandeptwidyaop/sndctl/internal/models"
	"github.com/pandeptwidyaop/sndctl/internal/services"
)

// scriptedClient replies to each action with the next scripted result; the
// last result repeats.
type scriptedClient struct {
	replies  map[string][]string
	speakers []string
	calls    []models.PrimitiveCommand
	mu       sync.Mutex
}

func (c *scriptedClient) Dispatch(ctx context.Context, cmd models.PrimitiveCommand) (*models.CommandResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, cmd)
	replies, ok := c.replies[cmd.Action]
	if !ok {
		return nil, errors.New("unexpected action " + cmd.Action)
	}
	reply := replies[0]
	if len(replies) > 1 {
		c.replies[cmd.Action] = replies[1:]
	}
	return &models.CommandResponse{Speaker: cmd.Device, Action: cmd.Action, Args: cmd.Args, Result: reply}, nil
}

func (c *scriptedClient) Speakers(ctx context.Context) ([]string, error) {
	return c.speakers, nil
}

func (c *scriptedClient) Rediscover(ctx context.Context) ([]string, error) {
	return c.speakers, nil
}

func (c *scriptedClient) count(action string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.Action == action {
			n++
		}
	}
	return n
}

func newSonosService(client *scriptedClient) (*services.SonosService, *config.Config) {
	cfg, _ := config.Load("")
	return services.NewSonosService(client, cfg), cfg
}

func TestSonos_FavoritesUsesFirstSpeaker(t *testing.T) {
	client := &scriptedClient{
		speakers: []string{"Kitchen", "Office"},
		replies:  map[string][]string{"list_favs": {"1: Radio 4\n2: Jazz\nplaying"}},
	}
	svc, _ := newSonosService(client)

	result, err := svc.Favorites(context.Background())
	if err != nil {
		t.Fatalf("Favorites failed: %v", err)
	}

	want := []models.ListItem{{Number: 1, Name: "Radio 4"}, {Number: 2, Name: "Jazz"}}
	if !reflect.DeepEqual(result.Items, want) {
		t.Errorf("got %+v, want %+v", result.Items, want)
	}
	if client.calls[0].Device != "Kitchen" {
		t.Errorf("expected first speaker, got %s", client.calls[0].Device)
	}
}

func TestSonos_HouseholdListWithoutSpeakers(t *testing.T) {
	svc, _ := newSonosService(&scriptedClient{})

	result, err := svc.Playlists(context.Background())
	if err != nil {
		t.Fatalf("Playlists failed: %v", err)
	}
	if result.Items == nil || len(result.Items) != 0 {
		t.Errorf("expected empty list, got %+v", result.Items)
	}
}

func TestSonos_PlaylistTracksPassesName(t *testing.T) {
	client := &scriptedClient{
		speakers: []string{"Kitchen"},
		replies:  map[string][]string{"list_playlist_tracks": {"1: Song"}},
	}
	svc, _ := newSonosService(client)

	if _, err := svc.PlaylistTracks(context.Background(), "Road Trip"); err != nil {
		t.Fatalf("PlaylistTracks failed: %v", err)
	}
	if !reflect.DeepEqual(client.calls[0].Args, []string{"Road Trip"}) {
		t.Errorf("unexpected args %v", client.calls[0].Args)
	}
}

func TestSonos_QueueRetriesBlankReplyOnce(t *testing.T) {
	client := &scriptedClient{
		replies: map[string][]string{"list_queue": {"  \n", "*>1: Artist: A1 | Album: B1 | Title: T1\n2: Just A Title"}},
	}
	svc, _ := newSonosService(client)

	result, err := svc.Queue(context.Background(), "Kitchen")
	if err != nil {
		t.Fatalf("Queue failed: %v", err)
	}
	if client.count("list_queue") != 2 {
		t.Errorf("expected exactly one retry, got %d calls", client.count("list_queue"))
	}

	want := []models.QueueItem{
		{Number: 1, Title: "T1", Artist: "A1", Album: "B1", IsCurrent: true},
		{Number: 2, Title: "Just A Title"},
	}
	if !reflect.DeepEqual(result.Tracks, want) {
		t.Errorf("got %+v, want %+v", result.Tracks, want)
	}
}

func TestSonos_QueueRetriesOnlyOnce(t *testing.T) {
	client := &scriptedClient{replies: map[string][]string{"list_queue": {""}}}
	svc, _ := newSonosService(client)

	result, err := svc.Queue(context.Background(), "Kitchen")
	if err != nil {
		t.Fatalf("Queue failed: %v", err)
	}
	if client.count("list_queue") != 2 {
		t.Errorf("expected two calls, got %d", client.count("list_queue"))
	}
	if len(result.Tracks) != 0 {
		t.Errorf("expected empty queue, got %+v", result.Tracks)
	}
}

func TestSonos_RetryDisabled(t *testing.T) {
	client := &scriptedClient{replies: map[string][]string{"list_queue": {"", "1: Late"}}}
	svc, cfg := newSonosService(client)
	off := false
	cfg.SocoCLI.RetryEmptyListings = &off

	if _, err := svc.Queue(context.Background(), "Kitchen"); err != nil {
		t.Fatalf("Queue failed: %v", err)
	}
	if client.count("list_queue") != 1 {
		t.Errorf("expected no retry, got %d calls", client.count("list_queue"))
	}
}

func TestSonos_QueueCounters(t *testing.T) {
	client := &scriptedClient{replies: map[string][]string{
		"queue_length":   {"12\n"},
		"queue_position": {"not a number"},
	}}
	svc, _ := newSonosService(client)

	length, _, err := svc.QueueLength(context.Background(), "Kitchen")
	if err != nil || length != 12 {
		t.Errorf("expected length 12, got %d (%v)", length, err)
	}
	position, resp, err := svc.QueuePosition(context.Background(), "Kitchen")
	if err != nil || position != 0 || resp.Result != "not a number" {
		t.Errorf("expected position 0 with raw reply, got %d %+v (%v)", position, resp, err)
	}
}

func TestSonos_Setting(t *testing.T) {
	client := &scriptedClient{replies: map[string][]string{
		"shuffle":    {"On"},
		"cross_fade": {"off"},
	}}
	svc, _ := newSonosService(client)

	shuffle, err := svc.Setting(context.Background(), "Kitchen", "shuffle")
	if err != nil || !shuffle.Enabled {
		t.Errorf("expected shuffle on, got %+v (%v)", shuffle, err)
	}
	crossfade, err := svc.Setting(context.Background(), "Kitchen", "crossfade")
	if err != nil || crossfade.Enabled {
		t.Errorf("expected crossfade off, got %+v (%v)", crossfade, err)
	}
	if _, err := svc.Setting(context.Background(), "Kitchen", "loudness"); !errors.Is(err, services.ErrUnknownSetting) {
		t.Errorf("expected ErrUnknownSetting, got %v", err)
	}
}
