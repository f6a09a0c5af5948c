package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oshied/task-core/pkg/corerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadSingleFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "inventory.yaml", "hosts:\n  - name: web-1\n    role: web\n")

	doc, err := Load(filepath.Join(dir, "inventory.yaml"), MergeReplace)
	require.NoError(t, err)

	hosts, ok := doc["hosts"].([]interface{})
	require.True(t, ok)
	assert.Len(t, hosts, 1)
}

func TestLoadDirectoryMergesInLexicalOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "10-base.yaml", "name: web\nvars:\n  a: \"1\"\n")
	writeFile(t, dir, "20-override.yaml", "vars:\n  b: \"2\"\n")

	doc, err := Load(dir, MergeReplace)
	require.NoError(t, err)

	assert.Equal(t, "web", doc["name"])
	vars, ok := doc["vars"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "1", vars["a"])
	assert.Equal(t, "2", vars["b"])
}

func TestLoadMissingPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), MergeReplace)
	assert.Error(t, err)
}

func TestLoadEachReturnsOneDocPerFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "web.yaml", "name: web\ntasks: []\n")
	writeFile(t, dir, "db.yaml", "name: db\ntasks: []\n")

	docs, err := LoadEach(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "db", docs[0]["name"])
	assert.Equal(t, "web", docs[1]["name"])
}

func TestMergeReplaceOverwritesLists(t *testing.T) {
	dst := map[string]interface{}{"items": []interface{}{"a", "b"}}
	src := map[string]interface{}{"items": []interface{}{"c"}}

	out, err := Merge(dst, src, MergeReplace)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"c"}, out["items"])
}

func TestMergeExtendAppendsLists(t *testing.T) {
	dst := map[string]interface{}{"items": []interface{}{"a", "b"}}
	src := map[string]interface{}{"items": []interface{}{"c"}}

	out, err := Merge(dst, src, MergeExtend)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b", "c"}, out["items"])
}

func TestMergeRecursesIntoNestedMaps(t *testing.T) {
	dst := map[string]interface{}{
		"vars": map[string]interface{}{"a": "1"},
	}
	src := map[string]interface{}{
		"vars": map[string]interface{}{"b": "2"},
	}

	out, err := Merge(dst, src, MergeReplace)
	require.NoError(t, err)
	vars := out["vars"].(map[string]interface{})
	assert.Equal(t, "1", vars["a"])
	assert.Equal(t, "2", vars["b"])
}

func TestMergeScalarOverwrite(t *testing.T) {
	dst := map[string]interface{}{"name": "old"}
	src := map[string]interface{}{"name": "new"}

	out, err := Merge(dst, src, MergeReplace)
	require.NoError(t, err)
	assert.Equal(t, "new", out["name"])
}

func TestMergeNonMappingIntoMappingIsAnError(t *testing.T) {
	dst := map[string]interface{}{"vars": map[string]interface{}{"a": "1"}}
	src := map[string]interface{}{"vars": "not-a-map"}

	_, err := Merge(dst, src, MergeReplace)
	require.Error(t, err)
	var valErr *corerrors.ValidationError
	assert.ErrorAs(t, err, &valErr)
}
