// Package inventory decodes and queries the inventory and roles artifacts:
// which hosts exist, what role each plays, and what variables a role or
// host carries.
package inventory

import (
	"strings"

	"github.com/oshied/task-core/pkg/corerrors"
	"github.com/oshied/task-core/pkg/loader"
	"github.com/oshied/task-core/pkg/schema"
	"github.com/oshied/task-core/pkg/types"
	"gopkg.in/yaml.v3"
)

// Decode validates and unmarshals a merged inventory document into an
// Inventory value.
func Decode(doc map[string]interface{}) (*types.Inventory, error) {
	if err := schema.Validate(schema.Inventory, "inventory", doc); err != nil {
		return nil, err
	}
	return unmarshalInventory(doc)
}

// DecodeRoles validates and unmarshals a merged roles document, appending
// its roles onto inv (a roles.yaml artifact is merged with the roles a
// caller already decoded from the inventory file, if any).
func DecodeRoles(doc map[string]interface{}, inv *types.Inventory) error {
	if err := schema.Validate(schema.Roles, "roles", doc); err != nil {
		return err
	}
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return &corerrors.InvalidFileDataError{Path: "roles", Err: err}
	}
	var parsed struct {
		Roles []types.Role `yaml:"roles"`
	}
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return &corerrors.InvalidFileDataError{Path: "roles", Err: err}
	}
	inv.Roles = append(inv.Roles, parsed.Roles...)
	return nil
}

func unmarshalInventory(doc map[string]interface{}) (*types.Inventory, error) {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return nil, &corerrors.InvalidFileDataError{Path: "inventory", Err: err}
	}
	var inv types.Inventory
	if err := yaml.Unmarshal(raw, &inv); err != nil {
		return nil, &corerrors.InvalidFileDataError{Path: "inventory", Err: err}
	}
	return &inv, nil
}

// Load reads the inventory artifact at path (file or directory) and
// decodes it.
func Load(path string, mode loader.MergeMode) (*types.Inventory, error) {
	doc, err := loader.Load(path, mode)
	if err != nil {
		return nil, err
	}
	return Decode(doc)
}

// LoadRoles reads the roles artifact at path and merges it into inv.
func LoadRoles(path string, mode loader.MergeMode, inv *types.Inventory) error {
	doc, err := loader.Load(path, mode)
	if err != nil {
		return err
	}
	return DecodeRoles(doc, inv)
}

// GetRoleHosts returns every host whose Role field contains role as a
// substring, matching the Python original's `role in hosts[x]['role']`
// containment check rather than an equality test.
func GetRoleHosts(inv *types.Inventory, role string) []types.Host {
	var out []types.Host
	for _, h := range inv.Hosts {
		if strings.Contains(h.Role, role) {
			out = append(out, h)
		}
	}
	return out
}

// RoleVars returns the variables declared for the named role, or nil if
// no such role is declared.
func RoleVars(inv *types.Inventory, name string) map[string]string {
	for _, r := range inv.Roles {
		if r.Name == name {
			return r.Vars
		}
	}
	return nil
}

// GetServices returns the service names the named role projects its
// hosts onto, matching Roles.get_services in the original: an unknown
// role returns nil rather than raising, since ValidateRoles already
// rejects hosts whose role is undeclared before projection runs.
func GetServices(inv *types.Inventory, role string) []string {
	for _, r := range inv.Roles {
		if r.Name == role {
			return r.Services
		}
	}
	return nil
}

// HasRole reports whether role is declared in inv.Roles.
func HasRole(inv *types.Inventory, role string) bool {
	for _, r := range inv.Roles {
		if r.Name == role {
			return true
		}
	}
	return false
}

// ValidateRoles checks that every host's role is declared in inv.Roles,
// returning corerrors.InvalidRoleError for the first undeclared one found.
func ValidateRoles(inv *types.Inventory) error {
	for _, h := range inv.Hosts {
		if !HasRole(inv, h.Role) {
			return &corerrors.InvalidRoleError{Role: h.Role}
		}
	}
	return nil
}
