package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CareOnboard/internal/auth"
	"CareOnboard/internal/model"
	"CareOnboard/internal/verification"
	pkgerrors "CareOnboard/pkg/errors"
)

func signedIn(t *testing.T, users *memUsers) *auth.Session {
	t.Helper()
	require.NoError(t, users.Save(context.Background(), &auth.User{UID: "u1", PhoneNumber: "+919876543210", Status: auth.StatusActive}))
	sess := auth.NewSession(users)
	require.NoError(t, sess.Init(context.Background(), verification.Identity{UID: "u1", PhoneNumber: "+919876543210"}))
	return sess
}

func TestDashboardJobsFilter(t *testing.T) {
	svc := NewDashboardService(&memClock{since: map[string]time.Time{}})
	sess := signedIn(t, newMemUsers())

	all, err := svc.Jobs(sess, "")
	require.NoError(t, err)
	assert.Equal(t, "all", all.Filter)
	assert.Equal(t, 3, all.Total)

	assigned, err := svc.Jobs(sess, "assigned")
	require.NoError(t, err)
	require.Len(t, assigned.Jobs, 1)
	assert.Equal(t, "Raj Patel", assigned.Jobs[0].PatientName)

	available, err := svc.Jobs(sess, "available")
	require.NoError(t, err)
	assert.Equal(t, 2, available.Total)
	for _, j := range available.Jobs {
		assert.Equal(t, model.JobStatusAvailable, j.Status)
	}

	_, err = svc.Jobs(sess, "closed")
	assert.ErrorIs(t, err, pkgerrors.InvalidRequest)
}

func TestDashboardRequiresSession(t *testing.T) {
	svc := NewDashboardService(&memClock{since: map[string]time.Time{}})

	_, err := svc.Jobs(auth.NewSession(newMemUsers()), "all")
	assert.ErrorIs(t, err, pkgerrors.Unauthorized)
	_, err = svc.ClockIn(context.Background(), nil)
	assert.ErrorIs(t, err, pkgerrors.Unauthorized)
}

func TestDashboardClock(t *testing.T) {
	svc := NewDashboardService(&memClock{since: map[string]time.Time{}})
	sess := signedIn(t, newMemUsers())
	ctx := context.Background()

	start := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	now := start
	svc.now = func() time.Time { return now }

	state, err := svc.Clock(ctx, sess)
	require.NoError(t, err)
	assert.False(t, state.ClockedIn)

	in, err := svc.ClockIn(ctx, sess)
	require.NoError(t, err)
	assert.True(t, in.ClockedIn)
	assert.Equal(t, "2026-05-04T09:00:00Z", in.ClockedInAt)

	_, err = svc.ClockIn(ctx, sess)
	assert.ErrorIs(t, err, pkgerrors.AlreadyClockedIn)

	now = start.Add(90 * time.Minute)
	state, err = svc.Clock(ctx, sess)
	require.NoError(t, err)
	assert.True(t, state.ClockedIn)
	assert.Equal(t, int64(5400), state.DurationSeconds)

	out, err := svc.ClockOut(ctx, sess)
	require.NoError(t, err)
	assert.False(t, out.ClockedIn)
	assert.Equal(t, int64(5400), out.DurationSeconds)

	_, err = svc.ClockOut(ctx, sess)
	assert.ErrorIs(t, err, pkgerrors.NotClockedIn)
}
