// Package content loads the starter card catalog that is copied into every
// new topic.
package content

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pausemo/api/internal/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog holds card templates grouped by category
type Catalog struct {
	version int
	cards   map[model.Category][]model.Card
}

type catalogFile struct {
	Version    int                       `yaml:"version"`
	Categories map[string][]cardTemplate `yaml:"categories"`
}

type cardTemplate struct {
	Phase      string `yaml:"phase"`
	Difficulty int    `yaml:"difficulty"`
	Text       string `yaml:"text"`
	Target     struct {
		Primary   string `yaml:"primary"`
		Secondary string `yaml:"secondary"`
	} `yaml:"target"`
}

// Default returns the catalog compiled into the binary
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a YAML file on disk
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	cat := &Catalog{
		version: file.Version,
		cards:   make(map[model.Category][]model.Card, len(file.Categories)),
	}
	for name, templates := range file.Categories {
		category := model.Category(name)
		if !category.IsValid() {
			return nil, fmt.Errorf("catalog: unknown category %q", name)
		}
		for i, t := range templates {
			card, err := t.toCard(category)
			if err != nil {
				return nil, fmt.Errorf("catalog: %s[%d]: %w", name, i, err)
			}
			cat.cards[category] = append(cat.cards[category], card)
		}
	}
	return cat, nil
}

func (t cardTemplate) toCard(category model.Category) (model.Card, error) {
	phase := model.Phase(t.Phase)
	if !phase.IsValid() {
		return model.Card{}, fmt.Errorf("unknown phase %q", t.Phase)
	}
	if !model.ValidDifficulty(t.Difficulty) {
		return model.Card{}, fmt.Errorf("difficulty %d out of range", t.Difficulty)
	}
	if t.Text == "" {
		return model.Card{}, fmt.Errorf("empty text")
	}
	primary := model.Archetype(t.Target.Primary)
	if !primary.IsValid() {
		return model.Card{}, fmt.Errorf("unknown archetype %q", t.Target.Primary)
	}
	target := model.ArchetypePair{Primary: primary}
	if t.Target.Secondary != "" {
		secondary := model.Archetype(t.Target.Secondary)
		if !secondary.IsValid() {
			return model.Card{}, fmt.Errorf("unknown archetype %q", t.Target.Secondary)
		}
		target.Secondary = &secondary
	}
	return model.Card{
		Phase:           phase,
		Difficulty:      t.Difficulty,
		Text:            t.Text,
		Category:        category,
		TargetArchetype: target,
		Active:          true,
	}, nil
}

// Version reports the catalog's declared version
func (c *Catalog) Version() int {
	return c.version
}

// CardsFor returns fresh copies of the category's templates. The caller owns
// the returned cards and fills in TopicID before saving them.
func (c *Catalog) CardsFor(category model.Category) []*model.Card {
	templates := c.cards[category]
	out := make([]*model.Card, 0, len(templates))
	for _, t := range templates {
		card := t
		if t.TargetArchetype.Secondary != nil {
			secondary := *t.TargetArchetype.Secondary
			card.TargetArchetype.Secondary = &secondary
		}
		out = append(out, &card)
	}
	return out
}
