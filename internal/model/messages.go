package model

// ApplicationSubmittedMessage 引导完成后投递给 worker 的消息
type ApplicationSubmittedMessage struct {
	Record      map[string]interface{} `json:"record"`
	MessageID   string                 `json:"message_id"` // 幂等键
	SessionID   string                 `json:"session_id"`
	UID         string                 `json:"uid"`
	PhoneHash   string                 `json:"phone_hash"`
	SubmittedAt string                 `json:"submitted_at"`
}
