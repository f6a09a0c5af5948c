package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInventory(t *testing.T) {
	tests := []struct {
		name    string
		doc     map[string]interface{}
		wantErr bool
	}{
		{
			name: "valid inventory",
			doc: map[string]interface{}{
				"hosts": []interface{}{
					map[string]interface{}{"name": "web-1", "role": "web"},
				},
			},
			wantErr: false,
		},
		{
			name:    "missing hosts",
			doc:     map[string]interface{}{},
			wantErr: true,
		},
		{
			name: "host missing role",
			doc: map[string]interface{}{
				"hosts": []interface{}{
					map[string]interface{}{"name": "web-1"},
				},
			},
			wantErr: true,
		},
		{
			name: "unknown top-level field rejected",
			doc: map[string]interface{}{
				"hosts":   []interface{}{map[string]interface{}{"name": "a", "role": "web"}},
				"bogus":   "nope",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(Inventory, "inventory", tt.doc)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateService(t *testing.T) {
	tests := []struct {
		name    string
		doc     map[string]interface{}
		wantErr bool
	}{
		{
			name: "valid service",
			doc: map[string]interface{}{
				"name": "web",
				"tasks": []interface{}{
					map[string]interface{}{"name": "start", "driver": "noop"},
				},
			},
			wantErr: false,
		},
		{
			name: "unknown driver rejected",
			doc: map[string]interface{}{
				"name": "web",
				"tasks": []interface{}{
					map[string]interface{}{"name": "start", "driver": "ssh"},
				},
			},
			wantErr: true,
		},
		{
			name: "tasks must not be empty",
			doc: map[string]interface{}{
				"name":  "web",
				"tasks": []interface{}{},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(Service, tt.doc["name"].(string), tt.doc)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRoles(t *testing.T) {
	valid := map[string]interface{}{
		"roles": []interface{}{
			map[string]interface{}{"name": "web"},
		},
	}
	assert.NoError(t, Validate(Roles, "roles", valid))

	invalid := map[string]interface{}{"roles": []interface{}{}}
	assert.Error(t, Validate(Roles, "roles", invalid))
}

func TestSchemaForIsCachedPerKind(t *testing.T) {
	s1, err := schemaFor(Inventory)
	assert.NoError(t, err)
	s2, err := schemaFor(Inventory)
	assert.NoError(t, err)
	assert.Same(t, s1, s2)
}

func TestReadSchemaFilePrefersTaskCoreSchemaDirOverride(t *testing.T) {
	dir := t.TempDir()
	override := []byte(`{"type": "object"}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inventory.schema.json"), override, 0o644))

	t.Setenv("TASK_CORE_SCHEMA_DIR", dir)

	raw, err := readSchemaFile(fileNames[Inventory])
	require.NoError(t, err)
	assert.Equal(t, override, raw)
}

func TestReadSchemaFileFallsBackToEmbeddedWhenSearchPathsMiss(t *testing.T) {
	t.Setenv("TASK_CORE_SCHEMA_DIR", t.TempDir())

	raw, err := readSchemaFile(fileNames[Inventory])
	require.NoError(t, err)
	embedded, err := schemaFS.ReadFile(fileNames[Inventory])
	require.NoError(t, err)
	assert.Equal(t, embedded, raw)
}
