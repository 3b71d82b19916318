package scene

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTitleCase(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"pine-tree", "Pine Tree"},
		{"mossy_rock", "Mossy Rock"},
		{"my-custom-scene", "My Custom Scene"},
		{"simple", "Simple"},
		{"UPPER-case", "Upper Case"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			result := titleCase(tc.input)
			if result != tc.expected {
				t.Errorf("titleCase(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

func TestParseSceneMetadata(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		expected SceneInfo
	}{
		{
			name: "complete_metadata.yaml",
			content: `name: Forest Floor
description: Rolling ground with fallen logs
group: Outdoor
shapes:
  - type: plane
`,
			expected: SceneInfo{
				ID:          "file:complete_metadata",
				Name:        "Forest Floor",
				Description: "Rolling ground with fallen logs",
				Group:       "Outdoor",
				Type:        "file",
			},
		},
		{
			name:    "no_metadata.yaml",
			content: "shapes: []\n",
			expected: SceneInfo{
				ID:    "file:no_metadata",
				Name:  "No Metadata", // From filename
				Group: "Scene Files", // Default group
				Type:  "file",
			},
		},
	}

	dir := t.TempDir()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name)
			if err := os.WriteFile(path, []byte(tc.content), 0644); err != nil {
				t.Fatalf("Failed to write temp file: %v", err)
			}

			result, err := ParseSceneMetadata(path)
			if err != nil {
				t.Fatalf("ParseSceneMetadata() error: %v", err)
			}

			tc.expected.FilePath = path
			if result != tc.expected {
				t.Errorf("ParseSceneMetadata() = %+v, want %+v", result, tc.expected)
			}
		})
	}
}

func TestListSceneFiles_MissingDirectory(t *testing.T) {
	scenes, err := ListSceneFiles(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("Expected no error for missing directory, got %v", err)
	}
	if len(scenes) != 0 {
		t.Errorf("Expected no scenes, got %d", len(scenes))
	}
}

func TestListAllScenes_Grouping(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.yaml": "name: Beta\ngroup: Zeta Group\n",
		"a.yml":  "name: Alpha\ngroup: Alpha Group\n",
		"c.yaml": "name: Gamma\n",
		"x.txt":  "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	groups, err := ListAllScenes(dir)
	if err != nil {
		t.Fatalf("ListAllScenes() error: %v", err)
	}

	expected := []string{builtinGroup, "Alpha Group", "Scene Files", "Zeta Group"}
	if len(groups) != len(expected) {
		t.Fatalf("Expected %d groups, got %+v", len(expected), groups)
	}
	for i, name := range expected {
		if groups[i].Name != name {
			t.Errorf("Group %d = %q, want %q", i, groups[i].Name, name)
		}
	}
	if len(groups[0].Scenes) != len(BuiltinScenes()) {
		t.Errorf("Expected all built-in scenes first, got %+v", groups[0])
	}
}

func TestListSceneFiles_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: [unclosed\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ListSceneFiles(dir); err == nil {
		t.Error("Expected parse error")
	}
}
