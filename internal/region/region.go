package region

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var taxonomyYAML []byte

const (
	Luzon         = "luzon"
	Visayas       = "visayas"
	Mindanao      = "mindanao"
	UnknownIsland = "unknown"
	Unknown       = "Unknown"
)

// Islands lists the known islands in display order.
var Islands = []string{Luzon, Visayas, Mindanao}

// Info is the classification of a free-text location.
type Info struct {
	Island   string `json:"island"`
	Region   string `json:"region"`
	Province string `json:"province"`
}

// UnknownInfo is returned when nothing matches.
var UnknownInfo = Info{Island: UnknownIsland, Region: Unknown, Province: Unknown}

// Taxonomy is the static geography the classifier matches against.
type Taxonomy struct {
	Islands        map[string]map[string][]string `yaml:"islands"`
	Aliases        map[string]string              `yaml:"aliases"`
	IslandKeywords map[string][]string            `yaml:"island_keywords"`
}

// ParseTaxonomy decodes a taxonomy document.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}
	if len(t.Islands) == 0 {
		return nil, fmt.Errorf("parsing taxonomy: no islands defined")
	}
	return &t, nil
}

type phrase struct {
	key  string // normalized, space padded
	info Info
}

// Classifier resolves locations against a taxonomy. It is read-only after
// construction and safe for concurrent use.
type Classifier struct {
	aliases   []phrase
	provinces []phrase
	keywords  []phrase
}

// NewClassifier indexes a taxonomy. Longer names are tried first so that
// "Cebu City" beats "Cebu" and "South Cotabato" beats "Cotabato".
func NewClassifier(t *Taxonomy) *Classifier {
	regionIsland := make(map[string]string)
	c := &Classifier{}

	for island, regions := range t.Islands {
		for regionName, provinces := range regions {
			regionIsland[regionName] = island
			for _, p := range provinces {
				c.provinces = append(c.provinces, phrase{
					key:  pad(normalize(p)),
					info: Info{Island: island, Region: regionName, Province: p},
				})
			}
		}
	}

	for alias, regionName := range t.Aliases {
		island, ok := regionIsland[regionName]
		if !ok {
			continue
		}
		c.aliases = append(c.aliases, phrase{
			key:  pad(normalize(alias)),
			info: Info{Island: island, Region: regionName, Province: Unknown},
		})
	}

	for island, words := range t.IslandKeywords {
		for _, w := range words {
			c.keywords = append(c.keywords, phrase{
				key:  pad(normalize(w)),
				info: Info{Island: island, Region: Unknown, Province: Unknown},
			})
		}
	}

	sortLongestFirst(c.aliases)
	sortLongestFirst(c.provinces)
	sortLongestFirst(c.keywords)
	return c
}

var (
	defaultOnce       sync.Once
	defaultClassifier *Classifier
)

// Default returns the classifier built from the embedded taxonomy.
func Default() *Classifier {
	defaultOnce.Do(func() {
		t, err := ParseTaxonomy(taxonomyYAML)
		if err != nil {
			panic(err)
		}
		defaultClassifier = NewClassifier(t)
	})
	return defaultClassifier
}

// Classify maps a location to island, region and province. Alias table first,
// then province and city names, then island keywords.
func (c *Classifier) Classify(raw string) Info {
	text := pad(normalize(raw))
	if strings.TrimSpace(text) == "" {
		return UnknownInfo
	}
	for _, table := range [][]phrase{c.aliases, c.provinces, c.keywords} {
		for _, p := range table {
			if strings.Contains(text, p.key) {
				return p.info
			}
		}
	}
	return UnknownInfo
}

// Classify uses the default classifier.
func Classify(raw string) Info {
	return Default().Classify(raw)
}

func sortLongestFirst(ps []phrase) {
	sort.Slice(ps, func(i, j int) bool {
		if len(ps[i].key) != len(ps[j].key) {
			return len(ps[i].key) > len(ps[j].key)
		}
		return ps[i].key < ps[j].key
	})
}

// normalize upper-cases and replaces punctuation with single spaces.
func normalize(s string) string {
	var b strings.Builder
	space := true
	for _, r := range strings.ToUpper(s) {
		switch {
		case r == 'Ñ':
			r = 'N'
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		b.WriteRune(r)
		space = false
	}
	return strings.TrimSpace(b.String())
}

func pad(s string) string {
	return " " + s + " "
}
