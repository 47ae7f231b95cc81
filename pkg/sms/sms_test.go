package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPSenderUsesTemplate(t *testing.T) {
	client := NewMockClient()
	sender := NewOTPSender(client, "mock", "CareOnboard", "SMS_001")

	require.NoError(t, sender.SendCode(context.Background(), "+919876543210", "482913"))

	calls := client.Sent()
	require.Len(t, calls, 1)
	assert.Equal(t, "+919876543210", calls[0].Phone)
	assert.Equal(t, "SMS_001", calls[0].TemplateCode)
	assert.JSONEq(t, `{"code":"482913"}`, calls[0].TemplateParam)
}

func TestOTPSenderPropagatesFailure(t *testing.T) {
	client := NewMockClient()
	boom := errors.New("gateway timeout")
	client.FailWith(boom)
	sender := NewOTPSender(client, "mock", "s", "t")

	assert.ErrorIs(t, sender.SendCode(context.Background(), "+919876543210", "1"), boom)
	assert.NoError(t, sender.SendCode(context.Background(), "+919876543210", "1"))
	assert.Len(t, client.Sent(), 1)
}

func TestCheckResponse(t *testing.T) {
	assert.NoError(t, checkResponse(map[string]interface{}{
		"statusCode": 200,
		"body":       map[string]interface{}{"Code": "OK", "BizId": "1"},
	}))
	assert.Error(t, checkResponse(map[string]interface{}{"statusCode": 500}))
	assert.ErrorIs(t, checkResponse(map[string]interface{}{
		"statusCode": 200,
		"body":       map[string]interface{}{"Code": "isv.BUSINESS_LIMIT_CONTROL", "Message": "limit"},
	}), ErrRecipientRejected)
	err := checkResponse(map[string]interface{}{
		"statusCode": 200,
		"body":       map[string]interface{}{"Code": "isp.SYSTEM_ERROR", "Message": "busy"},
	})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrRecipientRejected)
}

func TestAliyunNumber(t *testing.T) {
	assert.Equal(t, "919876543210", aliyunNumber("+919876543210"))
}
