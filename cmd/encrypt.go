package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"pathway-gateway/core/security"
)

var errNoEncryptionSecret = errors.New("KEY_ENCRYPTION_SECRET is not set")

// encryptAPIKey 用 KEY_ENCRYPTION_SECRET 加密一个 Key，输出可直接写入 .env 的 enc: 值
// plaintext 为 "-" 时从 stdin 读取第一行，避免 Key 留在 shell 历史中
func encryptAPIKey(secret, plaintext string, stdin io.Reader, out io.Writer) error {
	if secret == "" {
		return errNoEncryptionSecret
	}
	if plaintext == "-" {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read key from stdin: %w", err)
		}
		plaintext = line
	}
	plaintext = strings.TrimSpace(plaintext)
	if plaintext == "" {
		return errors.New("empty API key")
	}

	provider, err := security.NewAESSecretProvider(secret)
	if err != nil {
		return err
	}
	ciphertext, err := provider.Encrypt(plaintext)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, ciphertext)
	return err
}
