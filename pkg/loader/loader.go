// Package loader reads the YAML artifacts task-core operates on — a single
// file, every file under a directory, or an in-memory map for tests — and
// deep-merges them into one document before schema validation. Merge
// semantics follow the original ConfigBase loader: map keys recurse, list
// values either replace or extend the earlier document's list depending on
// the requested MergeMode.
package loader

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/oshied/task-core/pkg/corerrors"
	"gopkg.in/yaml.v3"
)

// MergeMode controls how list-valued keys combine across documents.
type MergeMode int

const (
	// MergeReplace makes a later document's list value replace the
	// earlier one outright.
	MergeReplace MergeMode = iota
	// MergeExtend appends a later document's list value onto the
	// earlier one.
	MergeExtend
)

// Load reads path, which may be a single YAML file or a directory of YAML
// files, and returns the deep-merged document. Entries within a directory
// are merged in lexical name order so results are deterministic; a
// subdirectory is loaded recursively and merged at its place in that order.
func Load(path string, mode MergeMode) (map[string]interface{}, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &corerrors.InvalidFileDataError{Path: path, Err: err}
	}

	if !info.IsDir() {
		return loadFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, &corerrors.InvalidFileDataError{Path: path, Err: err}
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	merged := map[string]interface{}{}
	for _, name := range names {
		doc, err := Load(filepath.Join(path, name), mode)
		if err != nil {
			return nil, err
		}
		merged, err = Merge(merged, doc, mode)
		if err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// LoadMap wraps an already-decoded document so tests can exercise the
// loader pipeline without touching the filesystem.
func LoadMap(doc map[string]interface{}) map[string]interface{} {
	return doc
}

// LoadEach reads path — a single file or a directory of YAML files — and
// returns one decoded document per file, unmerged. Used for service
// artifacts, where every file describes an independent service rather
// than fragments of one combined document.
func LoadEach(path string) ([]map[string]interface{}, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &corerrors.InvalidFileDataError{Path: path, Err: err}
	}

	if !info.IsDir() {
		doc, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		return []map[string]interface{}{doc}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, &corerrors.InvalidFileDataError{Path: path, Err: err}
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	docs := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		doc, err := loadFile(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func loadFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &corerrors.InvalidFileDataError{Path: path, Err: err}
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &corerrors.InvalidFileDataError{Path: path, Err: err}
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	return doc, nil
}

// Merge deep-merges src into dst and returns the result. Scalar values in
// src overwrite dst. Nested maps recurse. List values are combined
// according to mode. Merging a non-mapping value from src into a key that
// already holds a mapping in dst is a validation error rather than a
// silent overwrite, per the original loader's deep-merge law.
func Merge(dst, src map[string]interface{}, mode MergeMode) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(dst))
	for k, v := range dst {
		out[k] = v
	}

	for k, sv := range src {
		dv, exists := out[k]
		if !exists {
			out[k] = sv
			continue
		}

		if dvT, ok := dv.(map[string]interface{}); ok {
			svT, ok := sv.(map[string]interface{})
			if !ok {
				return nil, &corerrors.ValidationError{
					Artifact: k,
					Reason:   "cannot merge a non-mapping value into an existing mapping",
				}
			}
			merged, err := Merge(dvT, svT, mode)
			if err != nil {
				return nil, err
			}
			out[k] = merged
			continue
		}

		switch svT := sv.(type) {
		case []interface{}:
			if dvT, ok := dv.([]interface{}); ok && mode == MergeExtend {
				out[k] = append(append([]interface{}{}, dvT...), svT...)
				continue
			}
			out[k] = sv
		default:
			out[k] = sv
		}
	}
	return out, nil
}
