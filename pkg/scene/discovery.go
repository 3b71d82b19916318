package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `yaml:"id"`          // Unique identifier
	Name        string `yaml:"name"`        // Scene name
	Description string `yaml:"description"` // Optional description
	Group       string `yaml:"group"`       // Grouping category
	Type        string `yaml:"type"`        // "builtin" or "file"
	FilePath    string `yaml:"file_path"`   // Path to the YAML file (file type only)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `yaml:"name"`
	Scenes []SceneInfo `yaml:"scenes"`
}

const builtinGroup = "Built-in Scenes"

// BuiltinScenes lists the scenes NewBuiltin can create
func BuiltinScenes() []SceneInfo {
	return []SceneInfo{
		{ID: "flat", Name: "Flat Ground", Description: "Large flat ground quad", Group: builtinGroup, Type: "builtin"},
		{ID: "terrace", Name: "Terraces", Description: "Steps and a ramp for probe reach and alignment", Group: builtinGroup, Type: "builtin"},
		{ID: "arches", Name: "Arches", Description: "Overhanging slabs at three heights", Group: builtinGroup, Type: "builtin"},
	}
}

// ListSceneFiles scans dir for YAML scene files and reads their metadata
func ListSceneFiles(dir string) ([]SceneInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		// No scenes directory found, return empty list
		return []SceneInfo{}, nil
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
		}
		files = append(files, matches...)
	}

	var scenes []SceneInfo
	for _, filePath := range files {
		info, err := ParseSceneMetadata(filePath)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].Name < scenes[j].Name
	})
	return scenes, nil
}

// ParseSceneMetadata reads the name, description and group of a scene file,
// falling back to values derived from the file name
func ParseSceneMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	info := SceneInfo{
		ID:       "file:" + nameWithoutExt,
		Name:     titleCase(nameWithoutExt),
		Group:    "Scene Files",
		Type:     "file",
		FilePath: filePath,
	}

	raw, err := os.ReadFile(filePath)
	if err != nil {
		return info, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	var meta struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Group       string `yaml:"group"`
	}
	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return info, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}

	if meta.Name != "" {
		info.Name = meta.Name
	}
	if meta.Group != "" {
		info.Group = meta.Group
	}
	info.Description = meta.Description
	return info, nil
}

// ListAllScenes returns built-in and file scenes grouped by category,
// built-in first and the rest alphabetically
func ListAllScenes(dir string) ([]SceneGroup, error) {
	fileScenes, err := ListSceneFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list scene files: %w", err)
	}

	groupMap := make(map[string][]SceneInfo)
	for _, s := range append(BuiltinScenes(), fileScenes...) {
		groupMap[s.Group] = append(groupMap[s.Group], s)
	}

	var groupNames []string
	for name := range groupMap {
		if name != builtinGroup {
			groupNames = append(groupNames, name)
		}
	}
	sort.Strings(groupNames)

	groups := []SceneGroup{{Name: builtinGroup, Scenes: groupMap[builtinGroup]}}
	for _, name := range groupNames {
		groups = append(groups, SceneGroup{Name: name, Scenes: groupMap[name]})
	}
	return groups, nil
}
