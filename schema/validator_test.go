package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsScriptList(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	err = v.Validate(map[string]interface{}{
		"session_scripts": []string{"python ProcessedData/synthesizer.py"},
	})
	assert.NoError(t, err)
}

func TestValidateAcceptsEmptyObject(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(map[string]interface{}{}))
}

func TestValidateRejectsUnknownKeys(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	err = v.Validate(map[string]interface{}{"sesion_scripts": []string{"typo"}})
	assert.Error(t, err)
}

func TestValidateRejectsWrongType(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	err = v.Validate(map[string]interface{}{"session_scripts": "not-a-list"})
	assert.Error(t, err)
}

func TestValidateFile(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	dir := t.TempDir()
	good := filepath.Join(dir, "session_config.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"session_scripts": ["python a.py"]}`), 0644))
	assert.NoError(t, v.ValidateFile(good))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"session_scripts": [42]}`), 0644))
	assert.Error(t, v.ValidateFile(bad))

	malformed := filepath.Join(dir, "malformed.json")
	require.NoError(t, os.WriteFile(malformed, []byte(`{not json`), 0644))
	assert.Error(t, v.ValidateFile(malformed))
}
