package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "age": {"type": "integer", "minimum": 0}
  }
}`

func TestSchema_ValidateBytes(t *testing.T) {
	s := MustCompile("person", personSchema)

	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"valid", `{"name":"Ana","age":3}`, false},
		{"extra keys allowed", `{"name":"Ana","nickname":"A"}`, false},
		{"missing required", `{"age":3}`, true},
		{"wrong type", `{"name":"Ana","age":"three"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.ValidateBytes([]byte(tt.doc))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var vErr *Error
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, "person", vErr.Schema)
			assert.NotEmpty(t, vErr.Violations)
		})
	}
}

func TestSchema_ValidateGo(t *testing.T) {
	s := MustCompile("person", personSchema)
	assert.NoError(t, s.ValidateGo(map[string]interface{}{"name": "Ana"}))
	assert.Error(t, s.ValidateGo(map[string]interface{}{"name": ""}))
}

func TestSchema_MalformedDocument(t *testing.T) {
	s := MustCompile("person", personSchema)
	err := s.ValidateBytes([]byte(`{not json`))
	require.Error(t, err)
	var vErr *Error
	assert.False(t, errors.As(err, &vErr))
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile("broken", `{"type": 12}`)
	assert.Error(t, err)
}
