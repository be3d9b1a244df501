// Package recommend provides keyword-based elective course recommendation
// and personalized study plan generation. Course names are matched against
// configurable knowledge area keyword sets via word normalization.
package recommend

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	apperrors "github.com/abitbot/itmo-tgbot-go/internal/errors"
	"github.com/abitbot/itmo-tgbot-go/internal/lemma"
)

// areasFile is the YAML shape of the knowledge area configuration.
type areasFile struct {
	KnowledgeAreas map[string][]string `yaml:"knowledge_areas"`
}

// LoadAreas reads the knowledge area configuration from a YAML file mapping
// area names to raw keyword lists.
func LoadAreas(path string) (map[string][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", apperrors.ErrConfigUnavailable, path, err)
	}

	var file areasFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", apperrors.ErrConfigUnavailable, path, err)
	}
	if len(file.KnowledgeAreas) == 0 {
		return nil, fmt.Errorf("%w: %s defines no knowledge areas", apperrors.ErrConfigUnavailable, path)
	}

	return file.KnowledgeAreas, nil
}

// AreaIndex maps knowledge area names to their normalized keyword lemma
// sets. Built once at engine construction, immutable afterwards, safe for
// concurrent reads.
type AreaIndex struct {
	areas map[string]map[string]struct{}
}

// BuildAreaIndex normalizes every keyword of every area through the
// normalizer. Duplicate keywords collapse.
func BuildAreaIndex(n lemma.Normalizer, areas map[string][]string) *AreaIndex {
	idx := &AreaIndex{areas: make(map[string]map[string]struct{}, len(areas))}
	for area, keywords := range areas {
		set := make(map[string]struct{}, len(keywords))
		for _, kw := range keywords {
			if l := n.Normalize(kw); l != "" {
				set[l] = struct{}{}
			}
		}
		idx.areas[area] = set
	}
	return idx
}

// Areas returns the area names in sorted order.
func (idx *AreaIndex) Areas() []string {
	names := make([]string, 0, len(idx.areas))
	for name := range idx.areas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MatchingAreas returns every area whose keyword lemma set intersects the
// given lemma set.
func (idx *AreaIndex) MatchingAreas(lemmas map[string]struct{}) []string {
	var matched []string
	for _, area := range idx.Areas() {
		if intersects(idx.areas[area], lemmas) {
			matched = append(matched, area)
		}
	}
	return matched
}

func intersects(a, b map[string]struct{}) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
