package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"CareOnboard/internal/service"
	"CareOnboard/pkg/response"
)

// ListJobs 护理岗位列表
// GET /v1/dashboard/jobs?status=all|available|assigned
func ListJobs(ctx context.Context, c *app.RequestContext) {
	sess, ok := currentSession(ctx, c)
	if !ok {
		return
	}

	result, err := service.Dashboard().Jobs(sess, c.Query("status"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.SuccessWithMeta(ctx, c, result.Jobs, map[string]interface{}{
		"filter": result.Filter,
		"total":  result.Total,
	})
}

// GetClock 当前打卡状态
// GET /v1/dashboard/clock
func GetClock(ctx context.Context, c *app.RequestContext) {
	sess, ok := currentSession(ctx, c)
	if !ok {
		return
	}

	result, err := service.Dashboard().Clock(ctx, sess)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, result)
}

// ClockIn POST /v1/dashboard/clock-in
func ClockIn(ctx context.Context, c *app.RequestContext) {
	sess, ok := currentSession(ctx, c)
	if !ok {
		return
	}

	result, err := service.Dashboard().ClockIn(ctx, sess)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, result)
}

// ClockOut POST /v1/dashboard/clock-out
func ClockOut(ctx context.Context, c *app.RequestContext) {
	sess, ok := currentSession(ctx, c)
	if !ok {
		return
	}

	result, err := service.Dashboard().ClockOut(ctx, sess)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, result)
}
