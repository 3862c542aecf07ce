// Package accesscode генерирует короткие коды посещения: три заглавные
// латинские буквы и три цифры, например "KQZ042".
package accesscode

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits  = "0123456789"
	// Length длина кода посещения.
	Length = 6
)

// Generator выдаёт коды, читая случайность из источника.
type Generator struct {
	src io.Reader
}

// New создает генератор на crypto/rand.
func New() *Generator {
	return &Generator{src: rand.Reader}
}

// NewWithSource создает генератор с заданным источником случайности.
func NewWithSource(src io.Reader) *Generator {
	return &Generator{src: src}
}

// Generate возвращает новый код. Каждый символ выбирается равновероятно.
func (g *Generator) Generate() (string, error) {
	const op = "accesscode.Generate"
	buf := make([]byte, 0, Length)
	for i := 0; i < Length; i++ {
		alphabet := letters
		if i >= 3 {
			alphabet = digits
		}
		n, err := rand.Int(g.src, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		buf = append(buf, alphabet[n.Int64()])
	}
	return string(buf), nil
}

// Valid сообщает, соответствует ли строка формату кода.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < Length; i++ {
		c := code[i]
		if i < 3 && (c < 'A' || c > 'Z') {
			return false
		}
		if i >= 3 && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
