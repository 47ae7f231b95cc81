package model

// SubmitPhoneRequest 提交手机号
type SubmitPhoneRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// SubmitCodeRequest 提交验证码
type SubmitCodeRequest struct {
	Code string `json:"code"`
}
