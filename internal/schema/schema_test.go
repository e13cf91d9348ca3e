package schema

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_Food(t *testing.T) {
	v, err := Builtin()
	require.NoError(t, err)
	require.True(t, v.Has("food"))
	require.True(t, v.Has("clothes"))

	require.NoError(t, v.Validate("food", map[string]any{"name": "pizza", "calories": "300", "type": "fat"}))
	require.NoError(t, v.Validate("food", map[string]any{"name": "apple", "calories": 95, "type": "fruit", "extra": true}))

	err = v.Validate("food", map[string]any{"name": "pizza"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "food", verr.Model)

	var fields []string
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
		assert.Equal(t, "required", f.Rule)
	}
	assert.Equal(t, []string{"calories", "type"}, fields)
}

func TestBuiltin_WrongType(t *testing.T) {
	v, err := Builtin()
	require.NoError(t, err)

	err = v.Validate("clothes", map[string]any{"name": 12, "color": "red", "size": "M"})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "name", verr.Fields[0].Field)
	assert.Equal(t, "invalid_type", verr.Fields[0].Rule)
}

func TestValidate_UnknownModelAcceptsAnything(t *testing.T) {
	v, err := NewValidator(nil)
	require.NoError(t, err)

	assert.False(t, v.Has("shoes"))
	assert.NoError(t, v.Validate("shoes", map[string]any{"whatever": 1}))
}

func TestNewValidatorFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"s/books.json": {Data: []byte(`{"type":"object","required":["title"]}`)},
		"s/README.md":  {Data: []byte("ignored")},
	}

	v, err := NewValidatorFromFS(fsys, "s")
	require.NoError(t, err)
	assert.True(t, v.Has("books"))
	assert.Error(t, v.Validate("books", nil))
}

func TestNewValidator_BadSchema(t *testing.T) {
	_, err := NewValidator(map[string][]byte{"broken": []byte(`{"type": 5}`)})
	assert.Error(t, err)
}
