package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CipherPrefix 加密后的 Key 统一带此前缀，便于在 .env 中识别
const CipherPrefix = "enc:"

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// AESSecretProvider 实现基于 AES-GCM 的加解密
type AESSecretProvider struct {
	aead cipher.AEAD
}

// NewAESSecretProvider 创建新的 AES Secret Provider
// keyStr 必须是 16, 24, 或 32 字节长的字符串（对应 AES-128, AES-192, AES-256）
func NewAESSecretProvider(keyStr string) (*AESSecretProvider, error) {
	key := []byte(keyStr)
	if len(key) != 16 && len(key) != 24 && len(key) != 32 {
		return nil, fmt.Errorf("invalid key length: %d. Must be 16, 24, or 32 bytes", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESSecretProvider{aead: gcm}, nil
}

// Encrypt 返回 "enc:" + base64(nonce || ciphertext)
func (p *AESSecretProvider) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, p.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := p.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return CipherPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt 接受带或不带 "enc:" 前缀的密文
func (p *AESSecretProvider) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ciphertext, CipherPrefix))
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	nonceSize := p.aead.NonceSize()
	if len(data) < nonceSize {
		return "", ErrCiphertextTooShort
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := p.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
