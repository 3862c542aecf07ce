package csvexport

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Juan", "Juan"},
		{"comma is quoted", "Dela Cruz, Juan", `"Dela Cruz, Juan"`},
		{"quotes are not escaped", `say "hi"`, `say "hi"`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Field(tt.in))
		})
	}
}

func TestBuild(t *testing.T) {
	got := Build(
		[]string{"id", "name", "status"},
		[][]string{
			{"1", "Santos, Ana", "active"},
			{"2", "Ben", "suspended"},
		},
	)

	assert.Equal(t, "id,name,status\n1,\"Santos, Ana\",active\n2,Ben,suspended", got)
}

func TestWrite_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []string{"a", "b"}, nil))
	assert.Equal(t, "a,b", buf.String())
}
