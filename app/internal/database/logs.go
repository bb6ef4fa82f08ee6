package database

import (
	"time"

	"netpulse/app/internal/models"
)

// ============================================
// Logging Functions
// ============================================

// LogLevel constants
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// LogCategory constants
const (
	LogCategorySession = "session"
	LogCategoryProbe   = "probe"
	LogCategoryAlert   = "alert"
	LogCategorySystem  = "system"
)

// InsertLog adds a new log entry. It is a no-op until Init has been called.
func InsertLog(level, category, identifier, message, details string) error {
	if DB == nil {
		return nil
	}
	_, err := DB.Exec(`INSERT INTO activity_log (timestamp, level, category, identifier, message, details)
		VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), level, category, identifier, message, details)
	return err
}

// GetLogs retrieves logs with optional filtering, newest first
func GetLogs(limit int, level, category, identifier string, offset int) ([]models.LogEntry, error) {
	if DB == nil {
		return nil, nil
	}
	query := `SELECT id, timestamp, level, category, COALESCE(identifier, ''), message, COALESCE(details, '')
		FROM activity_log WHERE 1=1`
	args := []interface{}{}

	if level != "" {
		query += " AND level = ?"
		args = append(args, level)
	}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	if identifier != "" {
		query += " AND identifier = ?"
		args = append(args, identifier)
	}

	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.LogEntry
	for rows.Next() {
		var entry models.LogEntry
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.Level, &entry.Category, &entry.Identifier, &entry.Message, &entry.Details); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// GetLogStats returns statistics about logs
func GetLogStats() (*models.LogStats, error) {
	var stats models.LogStats
	if DB == nil {
		return &stats, nil
	}

	err := DB.QueryRow(`SELECT COUNT(*) FROM activity_log`).Scan(&stats.TotalLogs)
	if err != nil {
		return nil, err
	}

	_ = DB.QueryRow(`SELECT COUNT(*) FROM activity_log WHERE level = 'error'`).Scan(&stats.ErrorCount)
	_ = DB.QueryRow(`SELECT COUNT(*) FROM activity_log WHERE level = 'warn'`).Scan(&stats.WarnCount)
	_ = DB.QueryRow(`SELECT COUNT(*) FROM activity_log WHERE level = 'info'`).Scan(&stats.InfoCount)
	_ = DB.QueryRow(`SELECT COUNT(*) FROM activity_log WHERE level = 'debug'`).Scan(&stats.DebugCount)

	return &stats, nil
}

// ClearLogs removes every log entry
func ClearLogs() error {
	if DB == nil {
		return nil
	}
	_, err := DB.Exec(`DELETE FROM activity_log`)
	return err
}

// PruneLogs removes old logs to keep the journal bounded (keeps last N logs)
func PruneLogs(keepCount int) error {
	if DB == nil {
		return nil
	}
	_, err := DB.Exec(`DELETE FROM activity_log WHERE id NOT IN (
		SELECT id FROM activity_log ORDER BY id DESC LIMIT ?
	)`, keepCount)
	return err
}
