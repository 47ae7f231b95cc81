package sms

import (
	"context"
	"encoding/json"
	"fmt"

	"CareOnboard/pkg/metrics"
)

// OTPSender 用验证码模板发短信
type OTPSender struct {
	client       Client
	provider     string
	signName     string
	templateCode string
}

func NewOTPSender(client Client, provider, signName, templateCode string) *OTPSender {
	return &OTPSender{
		client:       client,
		provider:     provider,
		signName:     signName,
		templateCode: templateCode,
	}
}

func (s *OTPSender) SendCode(ctx context.Context, phone, code string) error {
	paramJSON, err := json.Marshal(map[string]string{"code": code})
	if err != nil {
		return fmt.Errorf("failed to marshal template param: %w", err)
	}

	err = s.client.SendSingle(ctx, phone, s.signName, s.templateCode, string(paramJSON))
	metrics.RecordSMSSent(ctx, s.provider, err)
	return err
}
