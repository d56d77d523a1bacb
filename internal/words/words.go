package words

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/DoyleJ11/hiragana-drop/internal/engine"
)

//go:embed words.yaml
var embedded []byte

const assetDir = "assets"

var ErrEmptyCatalog = errors.New("word catalog is empty")

// Entry is one playable word and the illustration shown for it.
type Entry struct {
	Word  string `yaml:"word"`
	Image string `yaml:"image"`
	PNG   bool   `yaml:"png"`
}

type catalogFile struct {
	Placeholder string  `yaml:"placeholder"`
	Words       []Entry `yaml:"words"`
}

// Catalog is read-only once loaded and safe to share between lobbies.
type Catalog struct {
	words       []string
	entries     map[string]Entry
	alphabet    []string
	placeholder string
}

var _ engine.WordSource = (*Catalog)(nil)

// Load reads the catalog at path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(embedded)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read words file: %w", err)
	}
	return Parse(raw)
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) { return Parse(embedded) }

// Parse builds a catalog from YAML. Words are NFC-normalized and deduplicated.
func Parse(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse words: %w", err)
	}

	c := &Catalog{entries: make(map[string]Entry), placeholder: f.Placeholder}
	if c.placeholder == "" {
		c.placeholder = "placeholder.svg"
	}
	seen := make(map[string]struct{})
	for _, e := range f.Words {
		e.Word = norm.NFC.String(strings.TrimSpace(e.Word))
		if e.Word == "" {
			continue
		}
		if _, dup := c.entries[e.Word]; dup {
			continue
		}
		c.entries[e.Word] = e
		c.words = append(c.words, e.Word)
		for _, l := range engine.Letters(e.Word) {
			if _, ok := seen[l]; !ok {
				seen[l] = struct{}{}
				c.alphabet = append(c.alphabet, l)
			}
		}
	}
	if len(c.words) == 0 {
		return nil, ErrEmptyCatalog
	}
	return c, nil
}

func (c *Catalog) Len() int { return len(c.words) }

func (c *Catalog) Words() []string {
	out := make([]string, len(c.words))
	copy(out, c.words)
	return out
}

func (c *Catalog) Contains(word string) bool {
	_, ok := c.entries[norm.NFC.String(word)]
	return ok
}

func (c *Catalog) PickWord(rng *rand.Rand) string {
	return c.words[rng.IntN(len(c.words))]
}

// Alphabet lists every distinct letter of the catalog in first-seen order.
func (c *Catalog) Alphabet() []string {
	out := make([]string, len(c.alphabet))
	copy(out, c.alphabet)
	return out
}

// Choices returns up to n distinct words, word among them, in random order.
func (c *Catalog) Choices(word string, n int, rng *rand.Rand) []string {
	if n <= 0 {
		return nil
	}
	out := []string{word}
	for _, w := range engine.Shuffle(c.words, rng) {
		if len(out) >= n {
			break
		}
		if w != word {
			out = append(out, w)
		}
	}
	return engine.Shuffle(out, rng)
}

// Illustration resolves the asset path for word. Unknown words fall back to
// assets/<word>.svg and the empty word to the placeholder.
func (c *Catalog) Illustration(word string) string {
	if word == "" {
		return path.Join(assetDir, c.placeholder)
	}
	e, ok := c.entries[norm.NFC.String(word)]
	if !ok {
		return path.Join(assetDir, word+".svg")
	}
	name := e.Image
	if name == "" {
		name = e.Word
	}
	if strings.Contains(name, ".") {
		return path.Join(assetDir, name)
	}
	if e.PNG {
		return path.Join(assetDir, name+".png")
	}
	return path.Join(assetDir, name+".svg")
}

// Placeholder is the illustration shown when an asset fails to load.
func (c *Catalog) Placeholder() string { return path.Join(assetDir, c.placeholder) }
