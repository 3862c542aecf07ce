package accesscode

import (
	"bytes"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var codePattern = regexp.MustCompile(`^[A-Z]{3}[0-9]{3}$`)

func TestGenerate_Format(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.SliceOfN(rapid.Byte(), 64, 256).Draw(t, "seed")
		gen := NewWithSource(bytes.NewReader(seed))

		code, err := gen.Generate()
		if err != nil {
			// источник мог закончиться, это не нарушение формата
			return
		}
		if !codePattern.MatchString(code) {
			t.Fatalf("code %q does not match %s", code, codePattern)
		}
		if !Valid(code) {
			t.Fatalf("Valid(%q) = false", code)
		}
	})
}

func TestGenerate_CryptoSource(t *testing.T) {
	gen := New()
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := gen.Generate()
		require.NoError(t, err)
		assert.Regexp(t, codePattern, code)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 150, "codes should rarely repeat")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerate_SourceError(t *testing.T) {
	_, err := NewWithSource(failingReader{}).Generate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accesscode.Generate")
}

func TestValid(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"ABC123", true},
		{"abc123", false},
		{"AB1234", false},
		{"ABCD12", false},
		{"ABC12", false},
		{"ABC1234", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.code))
		})
	}
}
