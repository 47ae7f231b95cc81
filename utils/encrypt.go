package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// 敏感字段落库前用 AES-256-GCM 加密，格式 v1:base64(nonce|ciphertext)。
// 字段名作为附加数据，密文挪到别的列解不开。

const cipherVersion = "v1:"

var (
	ErrCipherPayload = errors.New("invalid ciphertext payload")
	ErrCipherVersion = errors.New("unsupported ciphertext version")
)

// Field 标识密文所属字段
type Field string

const (
	FieldPhone  Field = "phone"
	FieldAadhar Field = "aadhar"
	FieldPAN    Field = "pan"
)

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

func Encrypt(key []byte, field Field, plain string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize(), gcm.NonceSize()+len(plain)+gcm.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plain), []byte(field))
	return cipherVersion + base64.StdEncoding.EncodeToString(sealed), nil
}

func Decrypt(key []byte, field Field, encoded string) (string, error) {
	payload, ok := strings.CutPrefix(encoded, cipherVersion)
	if !ok {
		return "", ErrCipherVersion
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrCipherPayload
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize()+gcm.Overhead() {
		return "", ErrCipherPayload
	}

	n := gcm.NonceSize()
	plain, err := gcm.Open(nil, raw[:n], raw[n:], []byte(field))
	if err != nil {
		return "", fmt.Errorf("open %s: %w", field, err)
	}
	return string(plain), nil
}
