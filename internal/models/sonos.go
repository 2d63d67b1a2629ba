package models

// CommandResponse is the reply of the soco-cli HTTP API for one command.
type CommandResponse struct {
	Speaker  string   `json:"speaker"`
	Action   string   `json:"action"`
	Args     []string `json:"args"`
	Result   string   `json:"result"`
	ErrorMsg string   `json:"error_msg"`
	ExitCode int      `json:"exit_code"`
}

// CommandRequest asks for a single command on a speaker.
type CommandRequest struct {
	Speaker string   `json:"speaker" binding:"required"`
	Action  string   `json:"action" binding:"required"`
	Args    []string `json:"args"`
}

// ListItem represents a numbered list entry (favourites, playlists, stations).
type ListItem struct {
	Name   string `json:"name"`
	Number int    `json:"number"`
}

// QueueItem represents one track of a speaker queue.
type QueueItem struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Album     string `json:"album"`
	Number    int    `json:"number"`
	IsCurrent bool   `json:"isCurrent"`
}
