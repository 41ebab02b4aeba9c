package report

import "time"

// Run is one sync run, persisted in the 'sync_runs' table.
type Run struct {
	ID         string    `gorm:"column:id;primaryKey" json:"id"`
	Trigger    string    `gorm:"column:trigger_source" json:"trigger"`
	StartedAt  time.Time `gorm:"column:started_at" json:"started_at"`
	FinishedAt time.Time `gorm:"column:finished_at" json:"finished_at"`
	Total      int       `gorm:"column:total" json:"total"`
	Created    int       `gorm:"column:created" json:"created"`
	Updated    int       `gorm:"column:updated" json:"updated"`
	Deleted    int       `gorm:"column:deleted" json:"deleted"`
	InSync     int       `gorm:"column:in_sync" json:"in_sync"`
	Skipped    int       `gorm:"column:skipped" json:"skipped"`
	Failed     int       `gorm:"column:failed" json:"failed"`
}

// TableName overrides the gorm table name.
func (Run) TableName() string {
	return "sync_runs"
}

// Entry is one reconciled entity within a run, persisted in the
// 'sync_run_entries' table.
type Entry struct {
	ID       int64  `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	RunID    string `gorm:"column:run_id;index" json:"-"`
	Kind     string `gorm:"column:kind" json:"kind"`
	ObjectID int64  `gorm:"column:object_id" json:"object_id"`
	Name     string `gorm:"column:name" json:"name"`
	HostID   string `gorm:"column:host_id" json:"host_id,omitempty"`
	Action   string `gorm:"column:action" json:"action"`
	Changes  string `gorm:"column:changes" json:"changes,omitempty"`
	Error    string `gorm:"column:error" json:"error,omitempty"`
}

// TableName overrides the gorm table name.
func (Entry) TableName() string {
	return "sync_run_entries"
}

// Report is the full outcome of one run, both persisted to the database and
// uploaded as a JSON document.
type Report struct {
	Run     Run     `json:"run"`
	Entries []Entry `json:"entries"`
}
