package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	openapiutil "github.com/alibabacloud-go/openapi-util/service"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"
	credential "github.com/aliyun/credentials-go/credentials"
	"go.uber.org/zap"

	"CareOnboard/pkg/logger"
	"CareOnboard/utils"
)

type AliyunClient struct {
	client *openapi.Client
}

// NewAliyunClient 创建阿里云 SMS 客户端
// 凭据走默认链：ALIBABA_CLOUD_ACCESS_KEY_ID / ALIBABA_CLOUD_ACCESS_KEY_SECRET 等
func NewAliyunClient() (*AliyunClient, error) {
	cred, err := credential.NewCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create aliyun credential: %w", err)
	}

	client, err := openapi.NewClient(&openapi.Config{
		Credential: cred,
		Endpoint:   tea.String("dysmsapi.aliyuncs.com"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aliyun client: %w", err)
	}

	return &AliyunClient{client: client}, nil
}

func (c *AliyunClient) createApiInfo(action string) *openapi.Params {
	return &openapi.Params{
		Action:      tea.String(action),
		Version:     tea.String("2017-05-25"),
		Protocol:    tea.String("HTTPS"),
		Method:      tea.String("POST"),
		AuthType:    tea.String("AK"),
		Style:       tea.String("RPC"),
		Pathname:    tea.String("/"),
		ReqBodyType: tea.String("json"),
		BodyType:    tea.String("json"),
	}
}

// SendSingle 发送单条短信，国际号码去掉前导 "+"
func (c *AliyunClient) SendSingle(ctx context.Context, phone, signName, templateCode, templateParam string) error {
	if signName == "" {
		return fmt.Errorf("signName is required")
	}
	if templateCode == "" {
		return fmt.Errorf("templateCode is required")
	}

	queries := map[string]interface{}{
		"PhoneNumbers":  tea.String(aliyunNumber(phone)),
		"SignName":      tea.String(signName),
		"TemplateCode":  tea.String(templateCode),
		"TemplateParam": tea.String(templateParam),
	}

	runtime := &util.RuntimeOptions{}
	request := &openapi.OpenApiRequest{
		Query: openapiutil.Query(queries),
	}

	resp, err := c.client.CallApi(c.createApiInfo("SendSms"), request, runtime)
	if err != nil {
		logger.Logger.Error("Failed to send SMS",
			zap.String("phone", utils.MaskPhone(phone)),
			zap.String("template", templateCode),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send SMS: %w", err)
	}

	if err := checkResponse(resp); err != nil {
		logger.Logger.Error("SMS send failed",
			zap.String("phone", utils.MaskPhone(phone)),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("SMS sent successfully",
		zap.String("phone", utils.MaskPhone(phone)),
		zap.String("template", templateCode),
	)
	return nil
}

func aliyunNumber(phone string) string {
	return strings.TrimPrefix(phone, "+")
}

// checkResponse 解析 CallApi 返回的 statusCode 与 body.Code
func checkResponse(resp map[string]interface{}) error {
	if raw, ok := resp["statusCode"]; ok && raw != nil {
		var status int
		switch v := raw.(type) {
		case int:
			status = v
		case *int:
			status = tea.IntValue(v)
		case float64:
			status = int(v)
		}
		if status != 0 && status != 200 {
			return fmt.Errorf("SMS API error: statusCode=%d", status)
		}
	}

	if resp["body"] == nil {
		return nil
	}
	bodyBytes, err := json.Marshal(resp["body"])
	if err != nil {
		return nil
	}
	var body struct {
		Code    string `json:"Code"`
		Message string `json:"Message"`
	}
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return nil
	}
	if body.Code != "" && body.Code != "OK" {
		if recipientCodes[body.Code] {
			return fmt.Errorf("%w: %s - %s", ErrRecipientRejected, body.Code, body.Message)
		}
		return fmt.Errorf("SMS send failed: %s - %s", body.Code, body.Message)
	}
	return nil
}

// 号码本身的问题，不算通道故障
var recipientCodes = map[string]bool{
	"isv.MOBILE_NUMBER_ILLEGAL":   true,
	"isv.BUSINESS_LIMIT_CONTROL":  true,
	"isv.BLACK_KEY_CONTROL_LIMIT": true,
	"isv.DAY_LIMIT_CONTROL":       true,
}
