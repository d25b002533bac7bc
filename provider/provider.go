// Package provider supplies episodes and their stream descriptors from JSON documents or Lua scripts.
package provider

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/anisan-cli/anistream/filesystem"
	"github.com/anisan-cli/anistream/provider/custom"
	"github.com/anisan-cli/anistream/source"
	"github.com/anisan-cli/anistream/util"
	"github.com/anisan-cli/anistream/where"
)

// Provider lists episodes and describes how to stream each one.
type Provider interface {
	Name() string
	Episodes(ctx context.Context) ([]source.Episode, error)
	Describe(ctx context.Context, episode source.Episode) (*source.StreamDescriptor, error)
}

// Open picks the provider implementation from the file extension.
// A bare name is looked up among the installed scripts.
func Open(path string) (Provider, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		doc, err := FromJSON(path)
		if err != nil {
			return nil, err
		}
		return doc, nil
	case ".lua":
		return loadScript(path)
	case "":
		if script, ok := Get(path); ok {
			return loadScript(script)
		}
		return nil, fmt.Errorf("no script named %q in %s", path, where.Scripts())
	}
	return nil, fmt.Errorf("unsupported provider %q: expected a .json document or a .lua script", path)
}

func loadScript(path string) (Provider, error) {
	s, err := custom.Load(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Scripts returns the paths of the installed Lua scripts.
func Scripts() ([]string, error) {
	files, err := filesystem.API().ReadDir(where.Scripts())
	if err != nil {
		return nil, err
	}

	var scripts []string
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".lua" {
			continue
		}
		scripts = append(scripts, filepath.Join(where.Scripts(), f.Name()))
	}
	return scripts, nil
}

// Get finds an installed script by name.
func Get(name string) (string, bool) {
	scripts, _ := Scripts()
	for _, s := range scripts {
		if util.FileStem(s) == name {
			return s, true
		}
	}
	return "", false
}
