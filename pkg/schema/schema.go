// Package schema validates the three decoded YAML artifacts — inventory,
// roles, and service — against embedded JSON schemas, following the
// schema-folder search-path approach of the original Python schema
// module: a named schema is compiled once and reused for every document
// of that kind.
package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oshied/task-core/pkg/corerrors"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// Kind names one of the three artifact schemas.
type Kind string

const (
	Inventory Kind = "inventory"
	Roles     Kind = "roles"
	Service   Kind = "service"
)

var fileNames = map[Kind]string{
	Inventory: "schemas/inventory.schema.json",
	Roles:     "schemas/roles.schema.json",
	Service:   "schemas/service.schema.json",
}

var (
	mu         sync.Mutex
	compiled   = map[Kind]*jsonschema.Schema{}
)

// searchPrefixes returns, in priority order, the directory prefixes checked
// for an operator-supplied schema folder before falling back to the
// embedded schema: an explicit override, then the rpm/sudo-pip share
// locations, matching the original validator's schema_folder search.
func searchPrefixes() []string {
	var prefixes []string
	if dir := os.Getenv("TASK_CORE_SCHEMA_DIR"); dir != "" {
		prefixes = append(prefixes, dir)
	}
	prefixes = append(prefixes,
		filepath.Join("/usr", "share", "task-core", "schema"),
		filepath.Join("/usr", "local", "share", "task-core", "schema"),
	)
	return prefixes
}

// readSchemaFile reads the named schema, preferring the first search-path
// directory that actually contains it and falling back to the copy
// embedded in the binary.
func readSchemaFile(path string) ([]byte, error) {
	name := filepath.Base(path)
	for _, prefix := range searchPrefixes() {
		candidate := filepath.Join(prefix, name)
		if raw, err := os.ReadFile(candidate); err == nil {
			return raw, nil
		}
	}

	raw, err := schemaFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read embedded schema %s: %w", path, err)
	}
	return raw, nil
}

func schemaFor(kind Kind) (*jsonschema.Schema, error) {
	mu.Lock()
	defer mu.Unlock()

	if s, ok := compiled[kind]; ok {
		return s, nil
	}

	path, ok := fileNames[kind]
	if !ok {
		return nil, fmt.Errorf("unknown schema kind: %s", kind)
	}

	raw, err := readSchemaFile(path)
	if err != nil {
		return nil, err
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode embedded schema %s: %w", path, err)
	}

	c := jsonschema.NewCompiler()
	url := "mem://" + path
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource %s: %w", path, err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", path, err)
	}

	compiled[kind] = s
	return s, nil
}

// Validate checks doc against the named schema kind. doc is expected to
// already be decoded into generic map[string]interface{}/[]interface{}
// values, typically from loader.Load.
func Validate(kind Kind, artifactName string, doc map[string]interface{}) error {
	s, err := schemaFor(kind)
	if err != nil {
		return err
	}
	if err := s.Validate(toJSONValue(doc)); err != nil {
		return &corerrors.ValidationError{Artifact: artifactName, Reason: err.Error()}
	}
	return nil
}

// toJSONValue round-trips through encoding/json so map values decoded by
// yaml.v3 (which can produce map[string]interface{} with non-string keyed
// nested maps in edge cases) match what jsonschema/v6 expects.
func toJSONValue(doc map[string]interface{}) interface{} {
	raw, err := json.Marshal(doc)
	if err != nil {
		return doc
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return doc
	}
	return v
}
