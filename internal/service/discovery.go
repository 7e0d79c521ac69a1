package service

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// scriptMetadata is the optional YAML sidecar next to a helper script
// ("apache.sh.yaml") supplying presentation metadata.
type scriptMetadata struct {
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
	Type        string `yaml:"type"`
	Port        int    `yaml:"port"`
}

// ScriptInfo describes one discovered helper script.
type ScriptInfo struct {
	Name   string
	Script string
	Meta   Metadata
}

// DiscoverScripts scans dir for executable *.sh files and returns one entry
// per script, sorted by name. A missing directory yields an empty result and
// no error. Per-file problems (unreadable sidecars, stat failures) are
// logged at warn level and never abort discovery of the other scripts.
func DiscoverScripts(dir string, logger *slog.Logger) ([]ScriptInfo, error) {
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var scripts []ScriptInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		file := entry.Name()
		if strings.HasPrefix(file, "_") || strings.HasPrefix(file, ".") {
			continue
		}
		if !strings.HasSuffix(file, ".sh") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logger.Warn("discovery: stat failed", "file", file, "error", err)
			continue
		}
		if info.Mode().Perm()&0o111 == 0 {
			logger.Warn("discovery: skipping non-executable script", "file", file)
			continue
		}

		name := strings.ToLower(strings.TrimSuffix(file, ".sh"))
		meta := Metadata{Name: name}

		sidecarPath := filepath.Join(dir, file+".yaml")
		if data, err := os.ReadFile(sidecarPath); err == nil {
			var sc scriptMetadata
			if err := yaml.Unmarshal(data, &sc); err != nil {
				logger.Warn("discovery: sidecar parse failed", "file", sidecarPath, "error", err)
			} else {
				meta.DisplayName = sc.DisplayName
				meta.Description = sc.Description
				meta.Icon = sc.Icon
				meta.Type = Type(sc.Type)
				meta.Port = sc.Port
			}
		}
		meta.Normalize()

		scripts = append(scripts, ScriptInfo{
			Name:   name,
			Script: file,
			Meta:   meta,
		})
	}

	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].Name < scripts[j].Name
	})
	return scripts, nil
}
