package scoring

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"intent-engine/internal/engine/normalize"
	"intent-engine/internal/models"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Keyword is one weighted term. Words is the term's normalized token list.
type Keyword struct {
	Term   string
	Words  []string
	Weight float64
}

// Effective is the score contributed by a match: phrases count per word.
func (k Keyword) Effective() float64 {
	return k.Weight * float64(len(k.Words))
}

// IntentRules is the keyword set and confidence threshold of one intent.
type IntentRules struct {
	Threshold float64
	Keywords  []Keyword
}

// Catalog is the immutable keyword table.
type Catalog struct {
	rules map[models.Intent]IntentRules
}

type catalogFile struct {
	Intents map[string]struct {
		Threshold float64            `yaml:"threshold"`
		Keywords  map[string]float64 `yaml:"keywords"`
	} `yaml:"intents"`
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded keyword catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog file, falling back to the embedded one when path is
// empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keyword catalog: %w", err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode keyword catalog: %w", err)
	}

	c := &Catalog{rules: make(map[models.Intent]IntentRules, len(models.ScoredIntents))}
	for name, def := range f.Intents {
		intent := models.ParseIntent(name)
		if !isScored(intent) {
			return nil, fmt.Errorf("keyword catalog: intent %q is not scored", name)
		}
		if def.Threshold <= 0 {
			return nil, fmt.Errorf("keyword catalog: intent %q needs a positive threshold", name)
		}
		rules := IntentRules{Threshold: def.Threshold}
		for term, weight := range def.Keywords {
			if weight < 0 {
				return nil, fmt.Errorf("keyword catalog: negative weight for %q in %q", term, name)
			}
			words := normalize.Tokenize(term)
			if len(words) == 0 {
				continue
			}
			rules.Keywords = append(rules.Keywords, Keyword{
				Term:   strings.Join(words, " "),
				Words:  words,
				Weight: weight,
			})
		}
		c.rules[intent] = rules
	}
	return c, nil
}

// Rules returns the rules of intent.
func (c *Catalog) Rules(intent models.Intent) (IntentRules, bool) {
	r, ok := c.rules[intent]
	return r, ok
}

// Contains reports whether term is already a configured keyword of intent.
func (c *Catalog) Contains(intent models.Intent, term string) bool {
	for _, k := range c.rules[intent].Keywords {
		if k.Term == term {
			return true
		}
	}
	return false
}

func isScored(i models.Intent) bool {
	for _, s := range models.ScoredIntents {
		if s == i {
			return true
		}
	}
	return false
}
