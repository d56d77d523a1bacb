package engine

import (
	"math/rand/v2"
)

// Tile is a draggable letter card. A tile with an empty letter is inert.
type Tile struct {
	ID     int    `json:"id"`
	Letter string `json:"letter"`
	Active bool   `json:"active"`
}

func (t Tile) Inert() bool { return t.Letter == "" }

// Pool owns a fixed set of tiles for the lifetime of a board. Tiles are
// relabeled every round, never created or destroyed.
type Pool struct {
	tiles    []Tile
	alphabet []string
	rng      *rand.Rand
}

func NewPool(size int, alphabet []string, rng *rand.Rand) *Pool {
	if size < 0 {
		size = 0
	}
	tiles := make([]Tile, size)
	for i := range tiles {
		tiles[i] = Tile{ID: i}
	}
	return &Pool{tiles: tiles, alphabet: alphabet, rng: rng}
}

// Deal generates the candidate letters for word and assigns them 1:1 to the
// existing tiles by index.
func (p *Pool) Deal(word string) []string {
	letters := GenerateCandidates(word, len(p.tiles), p.alphabet, p.rng)
	for i := range p.tiles {
		p.tiles[i].Letter = letters[i]
		p.tiles[i].Active = false
	}
	return letters
}

func (p *Pool) Size() int { return len(p.tiles) }

func (p *Pool) Tile(id int) (Tile, bool) {
	if id < 0 || id >= len(p.tiles) {
		return Tile{}, false
	}
	return p.tiles[id], true
}

func (p *Pool) Tiles() []Tile {
	out := make([]Tile, len(p.tiles))
	copy(out, p.tiles)
	return out
}

func (p *Pool) setActive(id int, active bool) {
	if id < 0 || id >= len(p.tiles) {
		return
	}
	p.tiles[id].Active = active
}

// GenerateCandidates returns exactly poolSize letters: every character of
// word (duplicates included) padded with random distractors drawn from
// alphabet, then shuffled. An empty word yields poolSize empty letters.
func GenerateCandidates(word string, poolSize int, alphabet []string, rng *rand.Rand) []string {
	if poolSize <= 0 {
		return []string{}
	}
	letters := Letters(word)
	if len(letters) == 0 {
		return make([]string, poolSize)
	}

	candidates := make([]string, 0, max(poolSize, len(letters)))
	candidates = append(candidates, letters...)

	distractors := make([]string, 0, len(alphabet))
	for _, l := range alphabet {
		if l != "" {
			distractors = append(distractors, l)
		}
	}
	for len(candidates) < poolSize {
		if len(distractors) == 0 {
			candidates = append(candidates, "")
			continue
		}
		candidates = append(candidates, distractors[rng.IntN(len(distractors))])
	}

	return Shuffle(candidates, rng)[:poolSize]
}

// Shuffle returns a Fisher-Yates shuffled copy of items.
func Shuffle[T any](items []T, rng *rand.Rand) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Letters splits word into one string per character.
func Letters(word string) []string {
	out := make([]string, 0, len(word))
	for _, r := range word {
		out = append(out, string(r))
	}
	return out
}
