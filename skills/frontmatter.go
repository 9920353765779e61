package skills

import (
	"bufio"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Frontmatter struct {
	Tags      []string `yaml:"tags"`
	Subdomain string   `yaml:"subdomain"`
}

func ParseFrontmatter(contents string) (Frontmatter, bool) {
	// Minimal frontmatter support: YAML between leading --- ... ---.
	r := strings.NewReader(contents)
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		return Frontmatter{}, false
	}
	if strings.TrimSpace(sc.Text()) != "---" {
		return Frontmatter{}, false
	}

	var yamlLines []string
	foundEnd := false
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "---" {
			foundEnd = true
			break
		}
		yamlLines = append(yamlLines, line)
	}
	if !foundEnd {
		return Frontmatter{}, false
	}

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(strings.Join(yamlLines, "\n")), &fm); err != nil {
		return Frontmatter{}, false
	}

	fm.Subdomain = strings.TrimSpace(fm.Subdomain)
	if len(fm.Tags) == 0 {
		return fm, true
	}
	uniq := make(map[string]bool, len(fm.Tags))
	var out []string
	for _, tag := range fm.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if uniq[tag] {
			continue
		}
		uniq[tag] = true
		out = append(out, tag)
	}
	sort.Strings(out)
	fm.Tags = out
	return fm, true
}
