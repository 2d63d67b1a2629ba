package services

import (
	"encoding/json"
	"log"

	"github.com/pandeptwidyaop/sndctl/internal/database"
)

// Audit actions.
const (
	ActionSave      = "save"
	ActionDelete    = "delete"
	ActionDuplicate = "duplicate"
	ActionReload    = "reload"
	ActionImport    = "import"
	ActionExecute   = "execute"
	ActionCommand   = "command"
)

// AuditService records macro operations.
type AuditService struct {
	db *database.DB
}

// NewAuditService creates a new AuditService instance.
func NewAuditService(db *database.DB) *AuditService {
	return &AuditService{db: db}
}

// AuditLog represents an audit log entry to be recorded.
type AuditLog struct {
	Details      map[string]interface{}
	Action       string
	ResourceType string
	ResourceID   string
	MacroName    string
	IPAddress    string
	UserAgent    string
}

// Client identifies who triggered an operation.
type Client struct {
	IP        string
	UserAgent string
}

// Log records an audit log entry. Failures are logged and returned but never
// block the operation being audited.
func (s *AuditService) Log(entry AuditLog) error {
	if s == nil || s.db == nil {
		return nil
	}

	var detailsJSON string
	if entry.Details != nil {
		bytes, err := json.Marshal(entry.Details)
		if err == nil {
			detailsJSON = string(bytes)
		}
	}

	_, err := s.db.Exec(`
		INSERT INTO audit_logs (action, resource_type, resource_id, macro_name, ip_address, user_agent, details)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.Action, entry.ResourceType, entry.ResourceID, entry.MacroName, entry.IPAddress, entry.UserAgent, detailsJSON)
	if err != nil {
		log.Printf("[Audit] Failed to record %s: %v", entry.Action, err)
	}
	return err
}

// LogMacro records a mutation of a single macro.
func (s *AuditService) LogMacro(action, name string, client Client, details map[string]interface{}) {
	_ = s.Log(AuditLog{
		Action:       action,
		ResourceType: "macro",
		ResourceID:   name,
		MacroName:    name,
		IPAddress:    client.IP,
		UserAgent:    client.UserAgent,
		Details:      details,
	})
}

// LogReload records a reload of the macro store.
func (s *AuditService) LogReload(client Client, count int) {
	_ = s.Log(AuditLog{
		Action:       ActionReload,
		ResourceType: "macros",
		IPAddress:    client.IP,
		UserAgent:    client.UserAgent,
		Details:      map[string]interface{}{"count": count},
	})
}

// LogImport records a bulk import.
func (s *AuditService) LogImport(client Client, merge bool, imported int) {
	_ = s.Log(AuditLog{
		Action:       ActionImport,
		ResourceType: "macros",
		IPAddress:    client.IP,
		UserAgent:    client.UserAgent,
		Details: map[string]interface{}{
			"merge":    merge,
			"imported": imported,
		},
	})
}

// LogExecute records the start of a macro execution.
func (s *AuditService) LogExecute(name, executionID string, args []string, client Client) {
	_ = s.Log(AuditLog{
		Action:       ActionExecute,
		ResourceType: "execution",
		ResourceID:   executionID,
		MacroName:    name,
		IPAddress:    client.IP,
		UserAgent:    client.UserAgent,
		Details: map[string]interface{}{
			"arguments": args,
		},
	})
}

// LogCommand records a single speaker command.
func (s *AuditService) LogCommand(speaker, action string, args []string, client Client) {
	_ = s.Log(AuditLog{
		Action:       ActionCommand,
		ResourceType: "speaker",
		ResourceID:   speaker,
		IPAddress:    client.IP,
		UserAgent:    client.UserAgent,
		Details: map[string]interface{}{
			"action": action,
			"args":   args,
		},
	})
}

// AuditLogEntry represents an audit log record from the database.
type AuditLogEntry struct {
	Action       string `json:"action"`
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	MacroName    string `json:"macro_name"`
	IPAddress    string `json:"ip_address"`
	UserAgent    string `json:"user_agent"`
	Details      string `json:"details"`
	CreatedAt    string `json:"created_at"`
	ID           int64  `json:"id"`
}

// GetLogs retrieves audit logs with pagination, newest first.
func (s *AuditService) GetLogs(limit, offset int) ([]AuditLogEntry, error) {
	return s.queryLogs("", limit, offset)
}

// GetMacroLogs retrieves the audit trail of one macro, newest first.
func (s *AuditService) GetMacroLogs(name string, limit, offset int) ([]AuditLogEntry, error) {
	return s.queryLogs(name, limit, offset)
}

func (s *AuditService) queryLogs(macroName string, limit, offset int) ([]AuditLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, action, resource_type, resource_id, macro_name, ip_address, user_agent, details, created_at
		FROM audit_logs`
	args := []interface{}{}
	if macroName != "" {
		query += ` WHERE macro_name = ?`
		args = append(args, macroName)
	}
	query += `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Initialize empty slice instead of nil to return [] instead of null in JSON
	logs := make([]AuditLogEntry, 0)
	for rows.Next() {
		var entry AuditLogEntry
		var resourceID, name, ipAddress, userAgent, details *string

		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.ResourceType,
			&resourceID,
			&name,
			&ipAddress,
			&userAgent,
			&details,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}

		entry.ResourceID = deref(resourceID)
		entry.MacroName = deref(name)
		entry.IPAddress = deref(ipAddress)
		entry.UserAgent = deref(userAgent)
		entry.Details = deref(details)

		logs = append(logs, entry)
	}

	return logs, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
