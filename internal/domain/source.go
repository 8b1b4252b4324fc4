package domain

import (
	"database/sql"
	"time"
)

type Protocol string

const (
	ProtocolRTMP Protocol = "rtmp"
	ProtocolHLS  Protocol = "hls"
)

// Source is a configured live-stream endpoint. IsOnline and LastCheckAt are
// written only by the status monitor and the stream hook, never by the
// recording path.
type Source struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Protocol      Protocol     `json:"protocol"`
	URL           string       `json:"url"`
	RetentionDays int          `json:"retention_days"`
	IsActive      bool         `json:"is_active"`
	IsOnline      bool         `json:"is_online"`
	LastCheckAt   sql.NullTime `json:"last_check_at"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Schedule fires a recording for a source on a cron expression.
type Schedule struct {
	ID        int64        `json:"id"`
	SourceID  int64        `json:"source_id"`
	CronExpr  string       `json:"cron_expr"`
	IsActive  bool         `json:"is_active"`
	LastRunAt sql.NullTime `json:"last_run_at"`
	CreatedAt time.Time    `json:"created_at"`
}
