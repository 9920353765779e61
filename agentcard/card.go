// Package agentcard builds the well-known discovery documents: the
// full agent card and the minimal descriptor.
package agentcard

import (
	"strings"

	"github.com/itglabs/impact-agent/a2a"
	"github.com/itglabs/impact-agent/skills"
)

const descriptorVersion = 1

type SkillEntry struct {
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	Subdomain   string   `json:"subdomain,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type Card struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url"`
	Version     string       `json:"version"`
	Protocol    string       `json:"protocol"`
	PublicKey   string       `json:"publicKey,omitempty"`
	AgentID     string       `json:"agentId,omitempty"`
	Skills      []SkillEntry `json:"skills"`
}

// Descriptor is the minimal well-known document: version, url,
// protocol, subdomains, public key, agent id.
type Descriptor struct {
	V int      `json:"v"`
	U string   `json:"u"`
	P string   `json:"p"`
	S []string `json:"s"`
	K string   `json:"k,omitempty"`
	I string   `json:"i,omitempty"`
}

type Builder struct {
	Name        string
	Description string
	URL         string
	Version     string
	AgentID     string
	PublicKey   string

	Registry *a2a.Registry
	// Extra descriptors loaded from disk; they override compiled-in
	// metadata for a matching skill id.
	Extra []skills.Descriptor
}

func (b *Builder) Card() Card {
	extraByID := make(map[string]skills.Descriptor, len(b.Extra))
	for _, d := range b.Extra {
		extraByID[d.ID] = d
	}

	var entries []SkillEntry
	seen := map[string]bool{}
	if b.Registry != nil {
		for _, skill := range b.Registry.List() {
			entry := SkillEntry{
				ID:          skill.Name(),
				Description: skill.Description(),
				Subdomain:   skill.Subdomain(),
			}
			if d, ok := extraByID[entry.ID]; ok {
				entry.Tags = d.Tags
				if strings.TrimSpace(d.Description) != "" {
					entry.Description = d.Description
				}
			}
			entries = append(entries, entry)
			seen[entry.ID] = true
		}
	}
	for _, d := range b.Extra {
		if seen[d.ID] {
			continue
		}
		entries = append(entries, SkillEntry{
			ID:          d.ID,
			Description: d.Description,
			Subdomain:   d.Subdomain,
			Tags:        d.Tags,
		})
	}

	return Card{
		Name:        b.Name,
		Description: b.Description,
		URL:         b.URL,
		Version:     b.Version,
		Protocol:    "a2a",
		PublicKey:   b.PublicKey,
		AgentID:     b.AgentID,
		Skills:      entries,
	}
}

func (b *Builder) Descriptor() Descriptor {
	subdomains := map[string]bool{}
	if b.Registry != nil {
		for _, skill := range b.Registry.List() {
			if sub := strings.TrimSpace(skill.Subdomain()); sub != "" {
				subdomains[sub] = true
			}
		}
	}
	var subs []string
	for _, sub := range []string{a2a.SubdomainAdmin, a2a.SubdomainInbox} {
		if subdomains[sub] {
			subs = append(subs, sub)
		}
	}
	return Descriptor{
		V: descriptorVersion,
		U: b.URL,
		P: "a2a",
		S: subs,
		K: b.PublicKey,
		I: b.AgentID,
	}
}
