package core

import "pathway-gateway/core/security"

// NoOpSecretProvider 默认的明文透传 SecretProvider
type NoOpSecretProvider struct{}

func NewNoOpSecretProvider() *NoOpSecretProvider {
	return &NoOpSecretProvider{}
}

func (s *NoOpSecretProvider) Decrypt(ciphertext string) (string, error) {
	return ciphertext, nil
}

func (s *NoOpSecretProvider) Encrypt(plaintext string) (string, error) {
	return plaintext, nil
}

// NewSecretProvider secret 为空时返回明文透传，否则返回 AES-GCM 实现
func NewSecretProvider(secret string) (SecretProvider, error) {
	if secret == "" {
		return NewNoOpSecretProvider(), nil
	}
	return security.NewAESSecretProvider(secret)
}
