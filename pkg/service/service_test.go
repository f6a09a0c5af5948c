package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oshied/task-core/pkg/corerrors"
	"github.com/oshied/task-core/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	doc := map[string]interface{}{
		"name":    "web",
		"version": "1.0.0",
		"tasks": []interface{}{
			map[string]interface{}{"name": "start", "driver": "noop"},
		},
	}

	svc, err := Decode(doc)
	require.NoError(t, err)
	assert.Equal(t, "web", svc.Name)
	assert.Len(t, svc.Tasks, 1)
}

func TestDecodeRejectsBadVersion(t *testing.T) {
	doc := map[string]interface{}{
		"name":    "web",
		"version": "not-a-version",
		"tasks": []interface{}{
			map[string]interface{}{"name": "start", "driver": "noop"},
		},
	}

	_, err := Decode(doc)
	require.Error(t, err)
	var valErr *corerrors.ValidationError
	assert.ErrorAs(t, err, &valErr, "a malformed version string is a ValidationError, not InvalidServiceError")
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "web.yaml"), []byte(
		"name: web\ntasks:\n  - name: start\n    driver: noop\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db.yaml"), []byte(
		"name: db\ntasks:\n  - name: start\n    driver: noop\n"), 0o644))

	services, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Len(t, services, 2)
}

func TestGetTasksNeededByUnionsProvidersPerTarget(t *testing.T) {
	services := []*types.Service{
		{
			Name: "web",
			Tasks: []types.TaskDefinition{
				{Name: "start", Provides: []string{"web.ready"}, NeededBy: []string{"db.ready"}},
			},
		},
		{
			Name: "cache",
			Tasks: []types.TaskDefinition{
				{Name: "start", Provides: []string{"cache.ready"}, NeededBy: []string{"db.ready"}},
			},
		},
	}

	needed := GetTasksNeededBy(services)
	assert.Equal(t, []string{"cache.ready", "web.ready"}, needed["db.ready"])
}

func TestUpdateTaskRequiresAddsRequestersToProvider(t *testing.T) {
	services := []*types.Service{
		{
			Name: "db",
			Tasks: []types.TaskDefinition{
				{Name: "start", Provides: []string{"db.ready"}},
			},
		},
	}
	updates := map[string][]string{"db.ready": []string{"web.ready", "cache.ready"}}

	UpdateTaskRequires(services, updates)

	assert.Equal(t, []string{"cache.ready", "web.ready"}, services[0].Tasks[0].Requires)
}

func TestUpdateTaskRequiresDoesNotDuplicateExistingRequires(t *testing.T) {
	services := []*types.Service{
		{
			Name: "db",
			Tasks: []types.TaskDefinition{
				{Name: "start", Provides: []string{"db.ready"}, Requires: []string{"web.ready"}},
			},
		},
	}
	updates := map[string][]string{"db.ready": []string{"web.ready"}}

	UpdateTaskRequires(services, updates)

	assert.Equal(t, []string{"web.ready"}, services[0].Tasks[0].Requires)
}

func TestReconcileEndToEnd(t *testing.T) {
	services := []*types.Service{
		{
			Name: "web",
			Tasks: []types.TaskDefinition{
				{Name: "start", Provides: []string{"web.ready"}, NeededBy: []string{"db.ready"}},
			},
		},
		{
			Name: "db",
			Tasks: []types.TaskDefinition{
				{Name: "start", Provides: []string{"db.ready"}},
			},
		},
	}

	Reconcile(services)

	dbTask := services[1].Tasks[0]
	assert.Contains(t, dbTask.Requires, "web.ready")
}
