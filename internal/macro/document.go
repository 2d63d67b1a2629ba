package macro

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pandeptwidyaop/sndctl/internal/models"
	"github.com/pandeptwidyaop/sndctl/internal/validation"
)

// Metadata directives recognised directly after a block header.
const (
	directiveDescription = "@description"
	directiveCategory    = "@category"
	directiveFavorite    = "@favorite"
	directiveParam       = "@param"
)

// Parse decomposes a macro document into whole macro blocks. Any content that
// does not belong to a well-formed block fails the whole document.
func Parse(content string) ([]models.Macro, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var (
		macros  []models.Macro
		current *models.Macro
		header  int
		inMeta  bool
		seen    = make(map[string]bool)
	)

	finish := func() error {
		if current == nil {
			return nil
		}
		if len(current.Body) == 0 {
			return &ParseError{Macro: current.Name, Line: header, Msg: "macro has no body"}
		}
		macros = append(macros, *current)
		current = nil
		return nil
	}

	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "[") {
			if err := finish(); err != nil {
				return nil, err
			}
			name, err := parseHeader(trimmed)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Msg: err.Error()}
			}
			if seen[name] {
				return nil, &ParseError{Macro: name, Line: lineNo, Msg: "duplicate macro name"}
			}
			seen[name] = true
			current = &models.Macro{Name: name}
			header = lineNo
			inMeta = true
			continue
		}

		if current == nil {
			if strings.HasPrefix(trimmed, CommentPrefix) {
				continue
			}
			return nil, &ParseError{Line: lineNo, Msg: "content outside of a macro block"}
		}

		if strings.HasPrefix(trimmed, "@") {
			if !inMeta {
				return nil, &ParseError{Macro: current.Name, Line: lineNo, Msg: "metadata must precede the macro body"}
			}
			if err := applyDirective(current, trimmed); err != nil {
				return nil, &ParseError{Macro: current.Name, Line: lineNo, Msg: err.Error()}
			}
			continue
		}

		inMeta = false
		if err := validation.ValidateLine(line); err != nil {
			return nil, &ParseError{Macro: current.Name, Line: lineNo, Msg: err.Error()}
		}
		if _, err := ParseLine(line, lineNo); err != nil {
			pe := err.(*ParseError)
			pe.Macro = current.Name
			return nil, pe
		}
		current.Body = append(current.Body, line)
	}

	if err := finish(); err != nil {
		return nil, err
	}
	if macros == nil {
		macros = []models.Macro{}
	}
	return macros, nil
}

func parseHeader(line string) (string, error) {
	if !strings.HasSuffix(line, "]") || len(line) < 2 {
		return "", errors.New("malformed macro header")
	}
	name := strings.TrimSpace(line[1 : len(line)-1])
	if name == "" {
		return "", errors.New("macro name is empty")
	}
	if err := validation.ValidateName(name); err != nil {
		return "", fmt.Errorf("macro name %q: %v", name, err)
	}
	return name, nil
}

func applyDirective(m *models.Macro, line string) error {
	directive, value, _ := strings.Cut(line, " ")
	value = strings.TrimSpace(value)

	switch directive {
	case directiveDescription:
		if err := validation.ValidateDescription(value); err != nil {
			return fmt.Errorf("description: %v", err)
		}
		m.Description = value
	case directiveCategory:
		if err := validation.ValidateDescription(value); err != nil {
			return fmt.Errorf("category: %v", err)
		}
		m.Category = value
	case directiveFavorite:
		if value != "" {
			return errors.New("@favorite takes no value")
		}
		m.Favorite = true
	case directiveParam:
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return errors.New("@param requires a name")
		}
		desc := strings.TrimSpace(strings.TrimPrefix(value, fields[0]))
		if err := validation.ValidateDescription(desc); err != nil {
			return fmt.Errorf("parameter %s: %v", fields[0], err)
		}
		m.Parameters = append(m.Parameters, models.MacroParameter{Name: fields[0], Description: desc})
	default:
		return fmt.Errorf("unknown directive %s", directive)
	}
	return nil
}

// Format writes macros in document form, one block per macro in slice order.
// Parse(Format(ms)) returns ms for any normalized macros.
func Format(macros []models.Macro) string {
	var b strings.Builder
	for i, m := range macros {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeBlock(&b, m)
	}
	return b.String()
}

func writeBlock(b *strings.Builder, m models.Macro) {
	b.WriteString("[" + m.Name + "]\n")
	if m.Description != "" {
		b.WriteString(directiveDescription + " " + m.Description + "\n")
	}
	if m.Category != "" {
		b.WriteString(directiveCategory + " " + m.Category + "\n")
	}
	if m.Favorite {
		b.WriteString(directiveFavorite + "\n")
	}
	for _, p := range m.Parameters {
		b.WriteString(directiveParam + " " + p.Name)
		if p.Description != "" {
			b.WriteString(" " + p.Description)
		}
		b.WriteByte('\n')
	}
	for _, line := range m.Body {
		b.WriteString(line + "\n")
	}
}

// Normalize validates a macro for storage and returns its canonical form:
// trimmed name, right-trimmed body lines without blanks, single-line metadata.
func Normalize(m models.Macro) (models.Macro, error) {
	out := models.Macro{
		Name:        strings.TrimSpace(m.Name),
		Description: validation.SingleLine(m.Description),
		Category:    validation.SingleLine(m.Category),
		Favorite:    m.Favorite,
	}

	if err := validation.ValidateName(out.Name); err != nil {
		if errors.Is(err, validation.ErrInputEmpty) {
			return models.Macro{}, validationError("macro name is required")
		}
		return models.Macro{}, validationError("macro name: %v", err)
	}
	if err := validation.ValidateDescription(out.Description); err != nil {
		return models.Macro{}, validationError("description: %v", err)
	}
	if err := validation.ValidateDescription(out.Category); err != nil {
		return models.Macro{}, validationError("category: %v", err)
	}

	for _, p := range m.Parameters {
		name := strings.TrimSpace(p.Name)
		if name == "" || strings.ContainsAny(name, " \t\r\n") {
			return models.Macro{}, validationError("parameter name %q must be a single word", p.Name)
		}
		desc := validation.SingleLine(p.Description)
		if err := validation.ValidateDescription(desc); err != nil {
			return models.Macro{}, validationError("parameter %s: %v", name, err)
		}
		out.Parameters = append(out.Parameters, models.MacroParameter{Name: name, Description: desc})
	}

	for i, raw := range m.Body {
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if err := validation.ValidateLine(line); err != nil {
			return models.Macro{}, validationError("line %d: %v", i+1, err)
		}
		if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "@") {
			return models.Macro{}, validationError("line %d: body lines must not start with '[' or '@'", i+1)
		}
		if _, err := ParseLine(line, i+1); err != nil {
			return models.Macro{}, validationError("%v", err)
		}
		out.Body = append(out.Body, line)
	}

	if len(out.Body) == 0 {
		return models.Macro{}, validationError("macro body is required")
	}
	return out, nil
}
