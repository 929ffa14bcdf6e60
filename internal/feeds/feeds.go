package feeds

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// WhatsHotURI is the URI given to feeds declared in map form.
	WhatsHotURI  = "at://did:plc:z72i7hdynmk6r22z27h6tvur/app.bsky.feed.generator/whats-hot"
	FollowingURI = "at://did:plc:z72i7hdynmk6r22z27h6tvur/app.bsky.feed.generator/following"
)

// Feed is a suggested feed and the terms that make an account a fit for it.
type Feed struct {
	Name        string   `yaml:"name" json:"name"`
	URI         string   `yaml:"uri" json:"uri"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Keywords    []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Enabled     bool     `yaml:"enabled" json:"enabled"`
}

type listEntry struct {
	Name        string   `yaml:"name"`
	URI         string   `yaml:"uri"`
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords"`
	Enabled     *bool    `yaml:"enabled"`
}

type mapEntry struct {
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords"`
}

// Defaults is used when no feeds file exists.
func Defaults() []Feed {
	return []Feed{
		{Name: "What's Hot", URI: WhatsHotURI, Enabled: true},
		{Name: "Following", URI: FollowingURI, Enabled: true},
	}
}

// Load reads a feeds file. A missing file yields Defaults.
func Load(path string) ([]Feed, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Defaults(), nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- feeds path is operator-provided
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Defaults(), nil
		}
		return nil, fmt.Errorf("read feeds %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse decodes feeds in either form. JSON input is accepted as YAML.
//
// Map form (name -> {description, keywords}) assigns WhatsHotURI and
// enables every feed. List form keeps entries unless enabled is false.
func Parse(source string, data []byte) ([]Feed, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Defaults(), nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse feeds %s: %w", source, err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return Defaults(), nil
	}

	doc := root.Content[0]
	switch doc.Kind {
	case yaml.MappingNode:
		return parseMap(source, doc)
	case yaml.SequenceNode:
		return parseList(source, doc)
	default:
		return nil, fmt.Errorf("parse feeds %s: expected a map or a list", source)
	}
}

func parseMap(source string, node *yaml.Node) ([]Feed, error) {
	var entries map[string]mapEntry
	if err := node.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode feeds %s: %w", source, err)
	}

	names := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		names = append(names, node.Content[i].Value)
	}

	feeds := make([]Feed, 0, len(names))
	for _, name := range names {
		entry := entries[name]
		feeds = append(feeds, Feed{
			Name:        name,
			URI:         WhatsHotURI,
			Description: entry.Description,
			Keywords:    entry.Keywords,
			Enabled:     true,
		})
	}
	return feeds, nil
}

func parseList(source string, node *yaml.Node) ([]Feed, error) {
	var entries []listEntry
	if err := node.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode feeds %s: %w", source, err)
	}

	feeds := make([]Feed, 0, len(entries))
	for i, entry := range entries {
		if entry.Enabled != nil && !*entry.Enabled {
			continue
		}
		if strings.TrimSpace(entry.Name) == "" {
			return nil, fmt.Errorf("feeds %s: entry %d has no name", source, i)
		}
		feeds = append(feeds, Feed{
			Name:        entry.Name,
			URI:         entry.URI,
			Description: entry.Description,
			Keywords:    entry.Keywords,
			Enabled:     true,
		})
	}
	return feeds, nil
}

// Terms maps feed names to their keywords, skipping feeds without keywords.
func Terms(feeds []Feed) map[string][]string {
	terms := make(map[string][]string, len(feeds))
	for _, feed := range feeds {
		if !feed.Enabled || len(feed.Keywords) == 0 {
			continue
		}
		terms[feed.Name] = append([]string(nil), feed.Keywords...)
	}
	return terms
}

// Names lists feed names in sorted order.
func Names(feeds []Feed) []string {
	names := make([]string, 0, len(feeds))
	for _, feed := range feeds {
		names = append(names, feed.Name)
	}
	sort.Strings(names)
	return names
}
