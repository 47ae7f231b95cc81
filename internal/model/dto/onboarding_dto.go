package dto

import (
	"CareOnboard/internal/model"
	"CareOnboard/internal/onboarding"
	"CareOnboard/internal/verification"
)

// ========== Onboarding 相关 DTO ==========

// SessionView 引导会话当前状态
type SessionView struct {
	States       onboarding.States              `json:"states"`
	SessionID    string                         `json:"session_id"`
	Verification verification.VerificationState `json:"verification"`
	Progress     onboarding.Progress            `json:"progress"`
	Completed    bool                           `json:"completed"`
}

// CreateSessionResponse 新建会话
type CreateSessionResponse struct {
	SessionView
	ExpiresIn int `json:"expires_in"`
}

// VerifyCodeResponse 验证通过，附带令牌
type VerifyCodeResponse struct {
	Session SessionView            `json:"session"`
	Tokens  model.TokenPair        `json:"tokens"`
	User    model.AuthUserSnapshot `json:"user"`
}

// StepResponse 前进或后退后的状态；从手机号步骤前进时带上令牌
type StepResponse struct {
	Session SessionView             `json:"session"`
	Tokens  *model.TokenPair        `json:"tokens,omitempty"`
	User    *model.AuthUserSnapshot `json:"user,omitempty"`
}
