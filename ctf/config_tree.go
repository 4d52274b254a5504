// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctf

import "fmt"

// Tree is a generic configuration node: a map[string]any, a []any, or a
// scalar (string, bool, int64, float64, nil). spec.md §4.1 treats YAML
// ingestion as an external collaborator; Compile only ever sees a Tree
// that has already been parsed from text by that collaborator (see the
// sibling ctfconfig package for one such collaborator).
type Tree any

// IncludeResolver resolves an `$include` name to the Tree it names. The
// vocabulary libraries spec.md §2 mentions (stdint, stdreal, stdmisc,
// log-level enums) are resolved this way.
type IncludeResolver interface {
	ResolveInclude(name string) (Tree, error)
}

func asMap(t Tree) (map[string]any, bool) {
	m, ok := t.(map[string]any)
	return m, ok
}

func asSeq(t Tree) ([]any, bool) {
	s, ok := t.([]any)
	return s, ok
}

func asString(t Tree) (string, bool) {
	s, ok := t.(string)
	return s, ok
}

func asBool(t Tree) (bool, bool) {
	b, ok := t.(bool)
	return b, ok
}

func asInt64(t Tree) (int64, bool) {
	switch n := t.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		if float64(int64(n)) == n {
			return int64(n), true
		}
	}
	return 0, false
}

// resolveIncludes recursively walks t, replacing every map containing an
// "$include" key with the merge of its resolved includes (in list order,
// later overriding earlier) followed by the map's own keys (which win
// over anything from an include), per spec.md §4.1: "process includes
// before evaluating the host document; later keys override earlier ones
// on merge conflict."
func resolveIncludes(t Tree, includes IncludeResolver, path string) (Tree, error) {
	switch v := t.(type) {
	case map[string]any:
		base := map[string]any{}
		if raw, ok := v["$include"]; ok {
			names, ok := asSeq(raw)
			if !ok {
				return nil, newConfigErr(BadFieldSpec, path, "$include must be a sequence of names")
			}
			for _, n := range names {
				name, ok := asString(n)
				if !ok {
					return nil, newConfigErr(BadFieldSpec, path+".$include", "include name must be a string")
				}
				if includes == nil {
					return nil, newConfigErr(IncludeNotFound, path+".$include", "no include resolver configured for "+name)
				}
				included, err := includes.ResolveInclude(name)
				if err != nil {
					return nil, wrapConfigErr(IncludeNotFound, path+".$include."+name, err)
				}
				resolved, err := resolveIncludes(included, includes, path+".$include."+name)
				if err != nil {
					return nil, err
				}
				m, ok := asMap(resolved)
				if !ok {
					return nil, newConfigErr(BadFieldSpec, path+".$include."+name, "included document must be a mapping")
				}
				for k, val := range m {
					base[k] = val
				}
			}
		}
		for k, val := range v {
			if k == "$include" {
				continue
			}
			resolved, err := resolveIncludes(val, includes, path+"."+k)
			if err != nil {
				return nil, err
			}
			base[k] = resolved
		}
		return base, nil

	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			resolved, err := resolveIncludes(item, includes, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil

	default:
		return t, nil
	}
}
