package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// GenerateCode — числовой код фиксированной длины из алфавита 0-9 минус
// исключённая "неоднозначная" цифра. Только crypto/rand, без fallback:
// если источник недоступен — возвращаем ошибку, код не выдаём.
func GenerateCode(length int, excludeDigit string) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("generate code: invalid length %d", length)
	}

	alphabet := "0123456789"
	if excludeDigit != "" {
		alphabet = strings.ReplaceAll(alphabet, excludeDigit, "")
	}
	if alphabet == "" {
		return "", fmt.Errorf("generate code: empty digit alphabet")
	}

	max := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate code: secure random unavailable: %w", err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

// GenerateToken — непрозрачный токен высокой энтропии (hex), для
// magic-link и refresh-токенов.
func GenerateToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32 // 256 бит по умолчанию
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: secure random unavailable: %w", err)
	}
	return hex.EncodeToString(b), nil
}
