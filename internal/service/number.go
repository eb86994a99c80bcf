package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// GenerateOrderNumber генерирует человекочитаемый номер заказа
// вида ORD-20250101-9F3A21BC: дата плюс случайный суффикс из 8 hex-символов.
// Уникальность здесь не гарантируется — её обеспечивают проверка перед
// вставкой и уникальное ограничение в БД.
func GenerateOrderNumber() string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		// crypto/rand на поддерживаемых платформах не возвращает ошибку
		panic(fmt.Sprintf("failed to read random bytes: %v", err))
	}
	return fmt.Sprintf("ORD-%s-%s",
		time.Now().UTC().Format("20060102"),
		strings.ToUpper(hex.EncodeToString(suffix)),
	)
}
