package response

import (
	"reflect"
	"testing"

	"github.com/pandeptwidyaop/sndctl/internal/models"
)

func TestParseNumberedList(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []models.ListItem
	}{
		{
			name:  "mixed noise",
			input: "1: Alpha\n2: Beta\non\n3: \n4:Gamma",
			expect: []models.ListItem{
				{Number: 1, Name: "Alpha"},
				{Number: 2, Name: "Beta"},
				{Number: 4, Name: "Gamma"},
			},
		},
		{
			name:   "empty output",
			input:  "",
			expect: []models.ListItem{},
		},
		{
			name:   "status word only",
			input:  "Playing\n",
			expect: []models.ListItem{},
		},
		{
			name:   "status word as name",
			input:  "1: off\n2: In Progress",
			expect: []models.ListItem{},
		},
		{
			name:  "surrounding whitespace and CRLF",
			input: "  1:  Radio 4 \r\n\r\n 2: Jazz FM\r\n",
			expect: []models.ListItem{
				{Number: 1, Name: "Radio 4"},
				{Number: 2, Name: "Jazz FM"},
			},
		},
		{
			name:  "non numeric prefix and missing colon",
			input: "Favourites:\nA: nope\nno colon here\n7: Seven",
			expect: []models.ListItem{
				{Number: 7, Name: "Seven"},
			},
		},
		{
			name:  "name keeps later colons",
			input: "3: Album: Live at 10:30",
			expect: []models.ListItem{
				{Number: 3, Name: "Album: Live at 10:30"},
			},
		},
		{
			name:  "order and duplicate numbers kept",
			input: "2: B\n1: A\n2: B again",
			expect: []models.ListItem{
				{Number: 2, Name: "B"},
				{Number: 1, Name: "A"},
				{Number: 2, Name: "B again"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseNumberedList(tt.input)
			if !reflect.DeepEqual(got, tt.expect) {
				t.Errorf("ParseNumberedList(%q) = %+v, want %+v", tt.input, got, tt.expect)
			}
		})
	}
}

func TestParseQueueList(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []models.QueueItem
	}{
		{
			name:  "tagged current and untagged",
			input: "*>1: Artist: A1 | Album: B1 | Title: T1\n2: Just A Title",
			expect: []models.QueueItem{
				{Number: 1, Title: "T1", Artist: "A1", Album: "B1", IsCurrent: true},
				{Number: 2, Title: "Just A Title"},
			},
		},
		{
			name:  "indented with bare star marker",
			input: "   3: Artist: X | Album: Y | Title: Z\n * 4: Artist: P | Title: Q",
			expect: []models.QueueItem{
				{Number: 3, Title: "Z", Artist: "X", Album: "Y"},
				{Number: 4, Title: "Q", Artist: "P", IsCurrent: true},
			},
		},
		{
			name:  "case insensitive tags and unknown segments",
			input: "5: artist: low | TITLE: Upper | Genre: Jazz",
			expect: []models.QueueItem{
				{Number: 5, Title: "Upper", Artist: "low"},
			},
		},
		{
			name:  "artist only keeps empty title",
			input: "6: Artist: Solo",
			expect: []models.QueueItem{
				{Number: 6, Artist: "Solo"},
			},
		},
		{
			name:  "album only falls back to whole content",
			input: "7: Album: Only Album",
			expect: []models.QueueItem{
				{Number: 7, Title: "Album: Only Album", Album: "Only Album"},
			},
		},
		{
			name:   "malformed lines dropped",
			input:  "\nQueue is empty\nx: Title: nope\n:Title: none",
			expect: []models.QueueItem{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQueueList(tt.input)
			if !reflect.DeepEqual(got, tt.expect) {
				t.Errorf("ParseQueueList(%q) = %+v, want %+v", tt.input, got, tt.expect)
			}
		})
	}
}

func TestIsStatusWord(t *testing.T) {
	for _, w := range []string{"on", "OFF", " Paused ", "in progress", "Crossfade"} {
		if !IsStatusWord(w) {
			t.Errorf("expected %q to be a status word", w)
		}
	}
	for _, w := range []string{"", "1: on", "progress", "radio"} {
		if IsStatusWord(w) {
			t.Errorf("expected %q not to be a status word", w)
		}
	}
}

func TestParseInt(t *testing.T) {
	if n, ok := ParseInt(" 12\n"); !ok || n != 12 {
		t.Errorf("expected 12, got %d (ok=%v)", n, ok)
	}
	if _, ok := ParseInt(""); ok {
		t.Error("expected blank reply to fail")
	}
	if _, ok := ParseInt("twelve"); ok {
		t.Error("expected non numeric reply to fail")
	}
}

func TestParseOnOff(t *testing.T) {
	if !ParseOnOff("On\n") {
		t.Error("expected On to be true")
	}
	if ParseOnOff("off") || ParseOnOff("") {
		t.Error("expected off and blank to be false")
	}
}
