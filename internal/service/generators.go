package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

// Константы генераторов
const (
	letterCharset = "abcdefghijklmnopqrstuvwxyz"
	digitCharset  = "0123456789"

	// Попыток на один формат до перехода к следующему
	maxAttemptsPerFormat = 50
)

// Форматы идентификаторов: [буквы, цифры]. Порядок прогрессивный,
// от самых коротких к более длинным по мере исчерпания пространства.
var (
	slugFormats = [][2]int{
		{1, 0}, // a
		{1, 2}, // a12
		{2, 1}, // ab1
		{1, 3}, // a123
		{3, 0}, // abc
		{2, 2}, // ab12
		{3, 1}, // abc1
		{2, 3}, // ab123
		{4, 0}, // abcd
		{3, 2}, // abc12
	}

	codeFormats = [][2]int{
		{2, 3}, // ab123
		{3, 2}, // abc12
		{4, 1}, // abcd1
		{3, 3}, // abc123
		{4, 2}, // abcd12
	}
)

// randomToken генерирует случайную строку: letterCount букв,
// затем digitCount цифр
func randomToken(letterCount, digitCount int) (string, error) {
	result := make([]byte, 0, letterCount+digitCount)

	for i := 0; i < letterCount; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letterCharset))))
		if err != nil {
			return "", err
		}
		result = append(result, letterCharset[num.Int64()])
	}

	for i := 0; i < digitCount; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digitCharset))))
		if err != nil {
			return "", err
		}
		result = append(result, digitCharset[num.Int64()])
	}

	return string(result), nil
}

// generateUnique перебирает форматы и пробует случайные токены, пока
// exists не вернёт false. Если все форматы исчерпаны, берёт последний
// формат с хвостом из двух последних цифр unix-времени.
func generateUnique(ctx context.Context, formats [][2]int, exists func(context.Context, string) (bool, error)) (string, error) {
	for _, format := range formats {
		for i := 0; i < maxAttemptsPerFormat; i++ {
			token, err := randomToken(format[0], format[1])
			if err != nil {
				return "", fmt.Errorf("failed to generate token: %w", err)
			}

			taken, err := exists(ctx, token)
			if err != nil {
				return "", err
			}
			if !taken {
				return token, nil
			}
		}
	}

	last := formats[len(formats)-1]
	token, err := randomToken(last[0], last[1])
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	return token + ts[len(ts)-2:], nil
}
