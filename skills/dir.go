// Package skills loads on-disk skill descriptors: markdown files whose
// YAML frontmatter carries tags and an optional subdomain gate. They
// enrich the agent card alongside the compiled-in skill set.
package skills

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Descriptor struct {
	ID          string
	Description string
	Subdomain   string
	Tags        []string
}

// LoadDir reads every *.md file in dir into a descriptor; the file name
// is the skill id and the first non-frontmatter paragraph line is the
// description. A missing dir is not an error.
func LoadDir(dir string) ([]Descriptor, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []Descriptor
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		contents := string(data)

		desc := Descriptor{
			ID: strings.TrimSuffix(entry.Name(), ".md"),
		}
		if fm, ok := ParseFrontmatter(contents); ok {
			desc.Tags = fm.Tags
			desc.Subdomain = fm.Subdomain
		}
		desc.Description = firstParagraphLine(contents)
		out = append(out, desc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func firstParagraphLine(contents string) string {
	lines := strings.Split(contents, "\n")
	inFrontmatter := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if i == 0 && trimmed == "---" {
			inFrontmatter = true
			continue
		}
		if inFrontmatter {
			if trimmed == "---" {
				inFrontmatter = false
			}
			continue
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return trimmed
	}
	return ""
}
