package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeReportExport is the task type for rendering report CSV files.
	TaskTypeReportExport = "report:export"
)

// ReportExportPayload identifies the queued export record to render.
type ReportExportPayload struct {
	ExportID string `json:"export_id"`
	UserID   string `json:"user_id"`
	Kind     string `json:"kind"`
}

// NewReportExportTask constructs an Asynq task.
func NewReportExportTask(payload ReportExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReportExport, data), nil
}
