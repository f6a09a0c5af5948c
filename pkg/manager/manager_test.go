package manager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/oshied/task-core/pkg/driver/noop"
	"github.com/oshied/task-core/pkg/loader"
	"github.com/oshied/task-core/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newFixtureDirs(t *testing.T) (inventory, services string) {
	t.Helper()
	dir := t.TempDir()

	inventory = filepath.Join(dir, "inventory.yaml")
	writeFixture(t, inventory, "hosts:\n  - name: web-1\n    role: web\n"+
		"roles:\n  - name: web\n    services: [web]\n")

	services = filepath.Join(dir, "services")
	writeFixture(t, filepath.Join(services, "web.yaml"), "name: web\n"+
		"tasks:\n  - name: start\n    driver: noop\n    provides: [web.ready]\n")

	return inventory, services
}

func TestRunBuildsAndExecutesGraph(t *testing.T) {
	inventoryPath, servicesDir := newFixtureDirs(t)

	mgr := New(Config{
		InventoryPath: inventoryPath,
		ServicesDir:   servicesDir,
		MergeMode:     loader.MergeReplace,
	})

	err := mgr.Run(context.Background())
	require.NoError(t, err)

	succeeded, failed, skipped, pending := mgr.Summary()
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, failed)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, 0, pending)
}

func TestRunNoopForcesNoopDriverAndStillExecutes(t *testing.T) {
	inventoryPath, servicesDir := newFixtureDirs(t)

	mgr := New(Config{
		InventoryPath: inventoryPath,
		ServicesDir:   servicesDir,
		MergeMode:     loader.MergeReplace,
		Noop:          true,
	})

	err := mgr.Run(context.Background())
	require.NoError(t, err)

	succeeded, failed, skipped, pending := mgr.Summary()
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, failed)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, 0, pending)

	require.Len(t, mgr.Graph.Tasks, 1)
	for _, task := range mgr.Graph.Tasks {
		assert.Equal(t, "noop", task.Definition.Driver)
		require.NotNil(t, task.Result)
		assert.Equal(t, task.ID, task.Result.Data["id"])
		assert.Equal(t, task.Hosts, task.Result.Data["hosts"])
	}
}

func TestAssignHostsProjectsRoleServicesOntoServiceHosts(t *testing.T) {
	inv := &types.Inventory{
		Hosts: []types.Host{
			{Name: "web-1", Role: "web"},
			{Name: "lonely-1", Role: "idle"},
		},
		Roles: []types.Role{
			{Name: "web", Services: []string{"frontend"}},
			{Name: "idle", Services: nil},
		},
	}
	services := []*types.Service{{Name: "frontend"}}

	require.NoError(t, AssignHosts(inv, services))
	assert.Equal(t, []string{"web-1"}, services[0].Hosts)
}

func TestAssignHostsFailsOnUndefinedService(t *testing.T) {
	inv := &types.Inventory{
		Hosts: []types.Host{{Name: "web-1", Role: "web"}},
		Roles: []types.Role{{Name: "web", Services: []string{"ghost"}}},
	}

	err := AssignHosts(inv, nil)
	assert.Error(t, err)
}

func TestLoadFailsOnUndeclaredRole(t *testing.T) {
	dir := t.TempDir()
	inventoryPath := filepath.Join(dir, "inventory.yaml")
	writeFixture(t, inventoryPath, "hosts:\n  - name: web-1\n    role: web\n")

	servicesDir := filepath.Join(dir, "services")
	writeFixture(t, filepath.Join(servicesDir, "web.yaml"), "name: web\n"+
		"tasks:\n  - name: start\n    driver: noop\n")

	mgr := New(Config{InventoryPath: inventoryPath, ServicesDir: servicesDir})
	err := mgr.Load()
	assert.Error(t, err)
}
