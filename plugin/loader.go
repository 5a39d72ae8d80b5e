// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package plugin

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/poiesic/semkit/core"
)

const (
	// PromptFile holds the template of a directory-based function.
	PromptFile = "skprompt.txt"
	// ConfigFile holds the optional PromptConfig of a directory-based function.
	ConfigFile = "config.json"
)

// LoadDirectory loads the semantic functions of parentDir/pluginName.
//
// Each subdirectory containing skprompt.txt becomes a function named after
// the subdirectory, configured by its config.json when present. Each
// *.yaml or *.yml file in the plugin directory is a PromptDefinition.
// Subdirectories without skprompt.txt are skipped. Two entries defining
// the same function name, ignoring case, fail with core.ErrDuplicateFunction.
func LoadDirectory(host Host, parentDir, pluginName string) ([]*SemanticFunction, error) {
	if err := core.ValidatePluginName(pluginName); err != nil {
		return nil, err
	}
	logger := slog.Default().With("component", "plugin-loader", "plugin", pluginName)

	dir := filepath.Join(parentDir, pluginName)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrPluginNotFound, dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", core.ErrPluginNotFound, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var functions []*SemanticFunction
	seen := make(map[string]string)
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		var fn *SemanticFunction
		switch {
		case e.IsDir():
			fn, err = loadFunctionDir(host, pluginName, path)
		case isYAML(e.Name()):
			fn, err = loadDefinition(host, pluginName, path)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		if fn == nil {
			logger.Debug("skipping directory without prompt", "dir", path)
			continue
		}
		key := strings.ToLower(fn.View().Name)
		if prev, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: %s.%s defined by both %s and %s",
				core.ErrDuplicateFunction, pluginName, fn.View().Name, prev, e.Name())
		}
		seen[key] = e.Name()
		functions = append(functions, fn)
	}

	logger.Info("loaded plugin", "dir", dir, "functions", len(functions))
	return functions, nil
}

func loadFunctionDir(host Host, pluginName, dir string) (*SemanticFunction, error) {
	prompt, err := os.ReadFile(filepath.Join(dir, PromptFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	config := DefaultPromptConfig()
	data, err := os.ReadFile(filepath.Join(dir, ConfigFile))
	switch {
	case err == nil:
		config, err = ParsePromptConfig(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Join(dir, ConfigFile), err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	return NewSemanticFunction(host, pluginName, filepath.Base(dir), string(prompt), config)
}

func loadDefinition(host Host, pluginName, path string) (*SemanticFunction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	def, err := ParsePromptDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	name := def.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return NewSemanticFunction(host, pluginName, name, def.Template, def.PromptConfig())
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
