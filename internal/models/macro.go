// Package models defines data models for macros, speaker commands and executions.
package models

import "strings"

// Macro is a named, stored script of speaker commands.
type Macro struct {
	Name        string           `json:"name"`
	Body        []string         `json:"body"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category,omitempty"`
	Parameters  []MacroParameter `json:"parameters,omitempty"`
	Favorite    bool             `json:"isFavorite"`
}

// MacroParameter documents one positional argument of a macro.
type MacroParameter struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Clone returns a deep copy so callers never share slices with the repository.
func (m Macro) Clone() Macro {
	out := m
	out.Body = append([]string(nil), m.Body...)
	if m.Parameters != nil {
		out.Parameters = append([]MacroParameter(nil), m.Parameters...)
	}
	return out
}

// SaveMacroRequest contains the data for creating or replacing a macro.
type SaveMacroRequest struct {
	Name        string           `json:"name"`
	Body        []string         `json:"body"`
	Definition  string           `json:"definition"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Parameters  []MacroParameter `json:"parameters"`
	Favorite    bool             `json:"isFavorite"`
}

// ToMacro converts the request into a macro. A multi-line Definition is used
// when Body is empty.
func (r *SaveMacroRequest) ToMacro() Macro {
	body := r.Body
	if len(body) == 0 && r.Definition != "" {
		body = strings.Split(strings.ReplaceAll(r.Definition, "\r\n", "\n"), "\n")
	}
	return Macro{
		Name:        r.Name,
		Body:        body,
		Description: r.Description,
		Category:    r.Category,
		Parameters:  r.Parameters,
		Favorite:    r.Favorite,
	}
}

// ExecuteMacroRequest is the body of an execute call.
type ExecuteMacroRequest struct {
	MacroName string   `json:"macroName"`
	Arguments []string `json:"arguments"`
	Async     bool     `json:"async"`
}

// ImportOutcome summarizes a bulk import.
type ImportOutcome struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ImportedCount int    `json:"imported"`
}

// MacroFileInfo describes where macros are stored.
type MacroFileInfo struct {
	Location string `json:"location"`
	Storage  string `json:"storage"`
	Count    int    `json:"count"`
	Size     int    `json:"size"`
}
