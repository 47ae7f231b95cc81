package service

import (
	"context"
	"time"

	"CareOnboard/internal/auth"
	"CareOnboard/internal/model"
	pkgerrors "CareOnboard/pkg/errors"
)

// ClockStore 上下班打卡状态，见 cache.ClockStore
type ClockStore interface {
	ClockIn(ctx context.Context, uid string, at time.Time) error
	ClockOut(ctx context.Context, uid string) (time.Time, error)
	Since(ctx context.Context, uid string) (time.Time, bool, error)
}

// 岗位暂为固定列表
var defaultJobs = []model.Job{
	{
		ID:           1,
		PatientName:  "Sarah Johnson",
		Age:          72,
		Description:  "Post-surgery care and rehabilitation assistance",
		Requirements: []string{"Wound dressing", "Mobility assistance", "Vital monitoring"},
		Location:     "Green Park, Delhi",
		Timing:       "9:00 AM - 5:00 PM",
		Status:       model.JobStatusAvailable,
	},
	{
		ID:           2,
		PatientName:  "Raj Patel",
		Age:          65,
		Description:  "Diabetes management and daily care",
		Requirements: []string{"Blood sugar monitoring", "Medication management", "Diet assistance"},
		Location:     "Dwarka, Delhi",
		Timing:       "24-hour care",
		Status:       model.JobStatusAssigned,
	},
	{
		ID:           3,
		PatientName:  "Meera Sharma",
		Age:          78,
		Description:  "Post-stroke recovery and rehabilitation",
		Requirements: []string{"Physical therapy assistance", "Medication management", "Mobility support"},
		Location:     "Vasant Kunj, Delhi",
		Timing:       "12-hour care (Day)",
		Status:       model.JobStatusAvailable,
	},
}

type DashboardService struct {
	clock ClockStore
	jobs  []model.Job
	now   func() time.Time
}

func NewDashboardService(clock ClockStore) *DashboardService {
	return &DashboardService{clock: clock, jobs: defaultJobs, now: time.Now}
}

func currentUser(sess *auth.Session) (auth.User, error) {
	if sess == nil || !sess.IsAuthenticated() {
		return auth.User{}, pkgerrors.Unauthorized
	}
	u, ok := sess.CurrentUser()
	if !ok {
		return auth.User{}, pkgerrors.Unauthorized
	}
	return u, nil
}

// Jobs 按状态过滤：all、available、assigned
func (s *DashboardService) Jobs(sess *auth.Session, status string) (*model.JobListData, error) {
	if _, err := currentUser(sess); err != nil {
		return nil, err
	}

	if status == "" {
		status = "all"
	}
	switch status {
	case "all", string(model.JobStatusAvailable), string(model.JobStatusAssigned):
	default:
		return nil, pkgerrors.InvalidRequest
	}

	jobs := make([]model.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if status == "all" || string(j.Status) == status {
			jobs = append(jobs, j)
		}
	}
	return &model.JobListData{Jobs: jobs, Filter: status, Total: len(jobs)}, nil
}

func (s *DashboardService) ClockIn(ctx context.Context, sess *auth.Session) (*model.ClockData, error) {
	u, err := currentUser(sess)
	if err != nil {
		return nil, err
	}

	at := s.now()
	if err := s.clock.ClockIn(ctx, u.UID, at); err != nil {
		return nil, err
	}
	return &model.ClockData{ClockedIn: true, ClockedInAt: at.UTC().Format(time.RFC3339)}, nil
}

// ClockOut 返回本次上班时长
func (s *DashboardService) ClockOut(ctx context.Context, sess *auth.Session) (*model.ClockData, error) {
	u, err := currentUser(sess)
	if err != nil {
		return nil, err
	}

	since, err := s.clock.ClockOut(ctx, u.UID)
	if err != nil {
		return nil, err
	}
	return &model.ClockData{
		ClockedIn:       false,
		ClockedInAt:     since.UTC().Format(time.RFC3339),
		DurationSeconds: int64(s.now().Sub(since).Seconds()),
	}, nil
}

func (s *DashboardService) Clock(ctx context.Context, sess *auth.Session) (*model.ClockData, error) {
	u, err := currentUser(sess)
	if err != nil {
		return nil, err
	}

	since, ok, err := s.clock.Since(ctx, u.UID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &model.ClockData{}, nil
	}
	return &model.ClockData{
		ClockedIn:       true,
		ClockedInAt:     since.UTC().Format(time.RFC3339),
		DurationSeconds: int64(s.now().Sub(since).Seconds()),
	}, nil
}
