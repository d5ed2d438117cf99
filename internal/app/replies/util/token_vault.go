package util

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var (
	// ErrTokenMissing - у аккаунта нет сохраненного токена
	ErrTokenMissing = errors.New("refresh token missing")
	// ErrTokenDecrypt - шифртекст поврежден либо секрет был ротирован
	// Не путать с отсутствием токена: эта ошибка всегда жесткая
	ErrTokenDecrypt = errors.New("refresh token decryption failed")
)

// TokenVault шифрует refresh токены платформы для хранения в БД
// Расшифрованный токен живет только в памяти на время одного исходящего вызова
type TokenVault struct {
	aead cipher.AEAD
}

// NewTokenVault создает vault с ключом AES-256,
// выведенным из серверного секрета через HKDF-SHA256
func NewTokenVault(secret string) (*TokenVault, error) {
	if secret == "" {
		return nil, fmt.Errorf("vault secret must not be empty")
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("replyflow-token-vault"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive vault key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to init GCM: %w", err)
	}

	return &TokenVault{aead: aead}, nil
}

// Encrypt шифрует токен, nonce хранится префиксом шифртекста
func (v *TokenVault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrTokenMissing
	}

	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt расшифровывает токен
// Любое повреждение данных дает ErrTokenDecrypt, а не мусорный plaintext:
// GCM аутентифицирует шифртекст целиком
func (v *TokenVault) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", ErrTokenMissing
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenDecrypt, err)
	}

	nonceSize := v.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", ErrTokenDecrypt
	}

	plaintext, err := v.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenDecrypt, err)
	}

	return string(plaintext), nil
}
