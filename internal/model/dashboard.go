package model

// JobStatus 工作台岗位状态
type JobStatus string

const (
	JobStatusAvailable JobStatus = "available"
	JobStatusAssigned  JobStatus = "assigned"
)

// Job 工作台展示的护理岗位
type Job struct {
	Requirements []string  `json:"requirements"`
	PatientName  string    `json:"patient_name"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	Timing       string    `json:"timing"`
	Status       JobStatus `json:"status"`
	ID           int       `json:"id"`
	Age          int       `json:"age"`
}

// JobListData 岗位列表
type JobListData struct {
	Jobs   []Job  `json:"jobs"`
	Filter string `json:"filter"`
	Total  int    `json:"total"`
}

// ClockData 打卡状态，ClockedInAt 为 RFC3339
type ClockData struct {
	ClockedInAt     string `json:"clocked_in_at,omitempty"`
	DurationSeconds int64  `json:"duration_seconds,omitempty"`
	ClockedIn       bool   `json:"clocked_in"`
}
