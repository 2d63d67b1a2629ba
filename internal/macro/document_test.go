package macro

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/pandeptwidyaop/sndctl/internal/models"
	"github.com/pandeptwidyaop/sndctl/internal/validation"
)

const sampleDocument = `# exported macros
[morning_radio]
@description Kitchen radio at a sane volume
@category Morning
@favorite
@param speaker Speaker to use
%1 volume 20
%1 play_favourite "Radio 4"

[all_off]
# stop everything
Kitchen stop
Office stop
`

func TestParse_Document(t *testing.T) {
	macros, err := Parse(sampleDocument)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expect := []models.Macro{
		{
			Name:        "morning_radio",
			Description: "Kitchen radio at a sane volume",
			Category:    "Morning",
			Favorite:    true,
			Parameters:  []models.MacroParameter{{Name: "speaker", Description: "Speaker to use"}},
			Body:        []string{"%1 volume 20", `%1 play_favourite "Radio 4"`},
		},
		{
			Name: "all_off",
			Body: []string{"# stop everything", "Kitchen stop", "Office stop"},
		},
	}
	if !reflect.DeepEqual(macros, expect) {
		t.Errorf("Parse() = %+v, want %+v", macros, expect)
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	for _, doc := range []string{"", "\n\n", "# only a comment\n"} {
		macros, err := Parse(doc)
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", doc, err)
		}
		if len(macros) != 0 {
			t.Errorf("Parse(%q) expected no macros, got %d", doc, len(macros))
		}
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"content before header", "Kitchen play\n[a]\nKitchen stop\n"},
		{"malformed header", "[broken\nKitchen stop\n"},
		{"empty name", "[  ]\nKitchen stop\n"},
		{"duplicate name", "[a]\nKitchen stop\n[a]\nOffice stop\n"},
		{"missing body", "[a]\n@description nothing here\n[b]\nKitchen stop\n"},
		{"trailing block without body", "[a]\nKitchen stop\n[b]\n"},
		{"unknown directive", "[a]\n@colour red\nKitchen stop\n"},
		{"metadata after body", "[a]\nKitchen stop\n@favorite\n"},
		{"untokenizable body", "[a]\nKitchen play \"open\n"},
		{"long description", "[a]\n@description " + strings.Repeat("d", validation.MaxDescriptionLength+1) + "\nKitchen stop\n"},
		{"long category", "[a]\n@category " + strings.Repeat("c", validation.MaxDescriptionLength+1) + "\nKitchen stop\n"},
		{"long parameter description", "[a]\n@param who " + strings.Repeat("p", validation.MaxDescriptionLength+1) + "\nKitchen stop\n"},
		{"long body line", "[a]\nKitchen say " + strings.Repeat("x", validation.MaxLineLength) + "\n"},
		{"NUL in body line", "[a]\nKitchen say hi\x00there\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			if !errors.Is(err, ErrParse) {
				t.Errorf("expected ErrParse, got %v", err)
			}
		})
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	macros, err := Parse(sampleDocument)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	formatted := Format(macros)
	again, err := Parse(formatted)
	if err != nil {
		t.Fatalf("failed to parse formatted document: %v", err)
	}
	if !reflect.DeepEqual(macros, again) {
		t.Errorf("round trip changed macros:\n%+v\n%+v", macros, again)
	}
	if Format(again) != formatted {
		t.Error("formatting is not stable")
	}
}

func TestFormat_Empty(t *testing.T) {
	if got := Format(nil); got != "" {
		t.Errorf("expected empty document, got %q", got)
	}
}

func TestNormalize(t *testing.T) {
	m, err := Normalize(models.Macro{
		Name:        "  evening  ",
		Description: "line one\nline two",
		Body:        []string{"", "Kitchen volume 10   ", "  ", "# done"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "evening" {
		t.Errorf("expected trimmed name, got %q", m.Name)
	}
	if m.Description != "line one line two" {
		t.Errorf("expected single line description, got %q", m.Description)
	}
	if !reflect.DeepEqual(m.Body, []string{"Kitchen volume 10", "# done"}) {
		t.Errorf("unexpected body %q", m.Body)
	}
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		macro models.Macro
	}{
		{"blank name", models.Macro{Name: " ", Body: []string{"Kitchen stop"}}},
		{"blank body", models.Macro{Name: "a", Body: []string{"", "  "}}},
		{"no body", models.Macro{Name: "a"}},
		{"bracket name", models.Macro{Name: "[a]", Body: []string{"Kitchen stop"}}},
		{"header-like line", models.Macro{Name: "a", Body: []string{"[b]"}}},
		{"directive-like line", models.Macro{Name: "a", Body: []string{"@favorite"}}},
		{"bad line", models.Macro{Name: "a", Body: []string{"Kitchen"}}},
		{"bad param", models.Macro{Name: "a", Body: []string{"Kitchen stop"}, Parameters: []models.MacroParameter{{Name: "two words"}}}},
		{"long param description", models.Macro{Name: "a", Body: []string{"Kitchen stop"}, Parameters: []models.MacroParameter{{Name: "who", Description: strings.Repeat("p", validation.MaxDescriptionLength+1)}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.macro)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}
