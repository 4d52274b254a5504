// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctfconfig

import (
	"embed"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tracekit/ctftrace/ctf"
)

//go:embed includes/*.yaml
var vocabFS embed.FS

var (
	vocabOnce  sync.Once
	vocabCache map[string]ctf.Tree
	vocabErr   error
)

func loadVocab() (map[string]ctf.Tree, error) {
	vocabOnce.Do(func() {
		entries, err := vocabFS.ReadDir("includes")
		if err != nil {
			vocabErr = errors.Wrap(err, "reading embedded vocabulary")
			return
		}
		cache := make(map[string]ctf.Tree, len(entries))
		for _, ent := range entries {
			data, err := vocabFS.ReadFile("includes/" + ent.Name())
			if err != nil {
				vocabErr = errors.Wrapf(err, "reading embedded include %s", ent.Name())
				return
			}
			var tree any
			if err := yaml.Unmarshal(data, &tree); err != nil {
				vocabErr = errors.Wrapf(err, "parsing embedded include %s", ent.Name())
				return
			}
			name := strings.TrimSuffix(ent.Name(), ".yaml")
			cache[name] = tree
		}
		vocabCache = cache
	})
	return vocabCache, vocabErr
}

// lookupEmbeddedInclude resolves name against the vocabulary files shipped
// with this package. ok is false if no embedded include has that name.
func lookupEmbeddedInclude(name string) (ctf.Tree, bool, error) {
	vocab, err := loadVocab()
	if err != nil {
		return nil, false, err
	}
	tree, ok := vocab[name]
	return tree, ok, nil
}
