package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultCountryPrefix 未带国家码时补齐的前缀
const DefaultCountryPrefix = "+91"

var ErrEmptyPhone = errors.New("phone number is empty")

// NormalizePhone 转成 E.164：没有前导 "+" 时补一次默认国家码，已经带 "+" 的原样解析
func NormalizePhone(raw, countryPrefix string) (string, error) {
	phone := strings.TrimSpace(raw)
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	if phone == "" {
		return "", ErrEmptyPhone
	}

	if countryPrefix == "" {
		countryPrefix = DefaultCountryPrefix
	}
	if !strings.HasPrefix(phone, "+") {
		phone = countryPrefix + phone
	}

	num, err := phonenumbers.Parse(phone, "")
	if err != nil {
		return "", fmt.Errorf("invalid phone number: %w", err)
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// MaskPhone 日志里只保留尾号
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
