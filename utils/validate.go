package utils

import (
	"regexp"
)

var (
	aadhaarPattern = regexp.MustCompile(`^\d{12}$`)
	panPattern     = regexp.MustCompile(`^[A-Z]{5}\d{4}[A-Z]$`)
	otpPattern     = regexp.MustCompile(`^\d{4,8}$`)
)

// ValidateAadhaar 12 位数字
func ValidateAadhaar(number string) bool {
	return aadhaarPattern.MatchString(number)
}

// ValidatePAN 形如 ABCDE1234F
func ValidatePAN(number string) bool {
	return panPattern.MatchString(number)
}

func ValidateOTP(code string) bool {
	return otpPattern.MatchString(code)
}
