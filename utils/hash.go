package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// hash 化 phone 电话号码存储，密文核对，增加盐值，避免彩虹表攻击，盐 + "：" + phone

func HashPhone(salt, phone string) string {
	return HashSecret(salt, phone)
}

// HashSecret 验证码等短期秘密也按同样方式存哈希
func HashSecret(salt, value string) string {
	sum := sha256.Sum256([]byte(salt + ":" + value))

	return hex.EncodeToString(sum[:])
}
