// Package response turns the line-oriented text returned by the speaker
// command server into typed records.
//
// Parsing is best effort: lines that do not match the expected shape are
// dropped rather than reported, so a status echo is never mistaken for data.
package response

import (
	"strconv"
	"strings"

	"github.com/pandeptwidyaop/sndctl/internal/models"
)

// statusWords are replies the server sends in place of a list.
var statusWords = map[string]struct{}{
	"on":            {},
	"off":           {},
	"stopped":       {},
	"playing":       {},
	"paused":        {},
	"transitioning": {},
	"in progress":   {},
	"shuffle":       {},
	"repeat":        {},
	"crossfade":     {},
}

// IsStatusWord reports whether s is a known status reply, ignoring case and
// surrounding whitespace.
func IsStatusWord(s string) bool {
	_, ok := statusWords[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// IsBlank reports whether a reply carries no content at all.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ParseNumberedList parses replies shaped like "1: Item One\n2: Item Two".
// Output order follows input order; numbers are neither sorted nor deduplicated.
func ParseNumberedList(output string) []models.ListItem {
	items := make([]models.ListItem, 0)

	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || IsStatusWord(trimmed) {
			continue
		}

		number, rest, ok := splitNumbered(trimmed)
		if !ok {
			continue
		}

		name := strings.TrimSpace(rest)
		if name == "" || IsStatusWord(name) {
			continue
		}

		items = append(items, models.ListItem{Number: number, Name: name})
	}

	return items
}

// ParseQueueList parses queue replies shaped like
// "  3: Artist: X | Album: Y | Title: Z". A line containing '*' (the "*" or
// "*>" marker) is the current track.
func ParseQueueList(output string) []models.QueueItem {
	items := make([]models.QueueItem, 0)

	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}

		isCurrent := strings.Contains(line, "*")
		cleaned := strings.ReplaceAll(line, "*>", "")
		cleaned = strings.ReplaceAll(cleaned, "*", "")
		cleaned = strings.TrimSpace(cleaned)

		number, rest, ok := splitNumbered(cleaned)
		if !ok {
			continue
		}

		content := strings.TrimSpace(rest)
		item := models.QueueItem{Number: number, IsCurrent: isCurrent}

		for _, part := range strings.Split(content, "|") {
			part = strings.TrimSpace(part)
			if v, ok := cutTag(part, "Artist:"); ok {
				item.Artist = v
			} else if v, ok := cutTag(part, "Album:"); ok {
				item.Album = v
			} else if v, ok := cutTag(part, "Title:"); ok {
				item.Title = v
			}
		}

		// Untagged entries carry just the title.
		if item.Title == "" && item.Artist == "" {
			item.Title = content
		}

		items = append(items, item)
	}

	return items
}

// ParseInt parses a bare integer reply such as queue_length. Blank or
// non-numeric replies yield ok=false.
func ParseInt(output string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(output))
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseOnOff interprets an "on"/"off" status reply.
func ParseOnOff(output string) bool {
	return strings.EqualFold(strings.TrimSpace(output), "on")
}

// splitNumbered splits "N: rest" at the first colon. The prefix must be an
// integer.
func splitNumbered(line string) (int, string, bool) {
	idx := strings.IndexByte(line, ':')
	if idx <= 0 {
		return 0, "", false
	}
	number, err := strconv.Atoi(strings.TrimSpace(line[:idx]))
	if err != nil {
		return 0, "", false
	}
	return number, line[idx+1:], true
}

func cutTag(part, tag string) (string, bool) {
	if len(part) < len(tag) || !strings.EqualFold(part[:len(tag)], tag) {
		return "", false
	}
	return strings.TrimSpace(part[len(tag):]), true
}
