package report

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	syncfeature "github.com/TheNetworkGuy/netbox-zabbix-sync/feature/sync"
)

// Recorder collects per-entity results during a run. It implements the
// sync.ResultSink interface and is safe for concurrent use by the worker
// pool.
type Recorder struct {
	mu      sync.Mutex
	runID   string
	trigger string
	started time.Time
	entries []Entry
}

// NewRecorder starts a new run record. trigger identifies what started the
// run, e.g. "cli" or "webhook".
func NewRecorder(trigger string) *Recorder {
	return &Recorder{
		runID:   uuid.NewString(),
		trigger: trigger,
		started: time.Now().UTC(),
	}
}

// RunID returns the run identifier.
func (r *Recorder) RunID() string {
	return r.runID
}

// Record appends one entity outcome.
func (r *Recorder) Record(result syncfeature.EntityResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{
		RunID:    r.runID,
		Kind:     result.Kind,
		ObjectID: result.ID,
		Name:     result.Name,
		HostID:   result.HostID,
		Action:   result.Action,
		Changes:  strings.Join(result.Changes, ","),
		Error:    result.Error,
	})
}

// Finalize closes the run and returns the aggregated report.
func (r *Recorder) Finalize() Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	run := Run{
		ID:         r.runID,
		Trigger:    r.trigger,
		StartedAt:  r.started,
		FinishedAt: time.Now().UTC(),
		Total:      len(r.entries),
	}
	for _, entry := range r.entries {
		switch entry.Action {
		case syncfeature.ActionCreated:
			run.Created++
		case syncfeature.ActionUpdated:
			run.Updated++
		case syncfeature.ActionDeleted:
			run.Deleted++
		case syncfeature.ActionInSync:
			run.InSync++
		case syncfeature.ActionSkipped:
			run.Skipped++
		case syncfeature.ActionFailed:
			run.Failed++
		}
	}
	return Report{Run: run, Entries: append([]Entry(nil), r.entries...)}
}
