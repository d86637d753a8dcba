package scenes

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"karlselfie/internal/domain"
)

// RandomSelector is the scene selector that picks a random scene.
const RandomSelector = "random"

// Catalog is an immutable, ordered list of scenes.
type Catalog struct {
	scenes []domain.Scene
	byID   map[int]int
	intN   func(n int) int
}

// New validates the scenes and builds a catalog preserving their order.
func New(scenes []domain.Scene) (*Catalog, error) {
	if len(scenes) == 0 {
		return nil, fmt.Errorf("scenes: catalog is empty")
	}
	c := &Catalog{
		scenes: make([]domain.Scene, len(scenes)),
		byID:   make(map[int]int, len(scenes)),
		intN:   rand.IntN,
	}
	for i, s := range scenes {
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("scenes: duplicate id %d", s.ID)
		}
		if strings.TrimSpace(s.FullPrompt) == "" {
			return nil, fmt.Errorf("scenes: scene %d has no prompt", s.ID)
		}
		c.scenes[i] = s
		c.byID[s.ID] = i
	}
	return c, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := New(builtin)
	if err != nil {
		panic(err)
	}
	return c
})

// Default returns the built-in catalog. It is built on first use and shared.
func Default() *Catalog {
	return defaultCatalog()
}

// List returns a copy of the scenes in catalog order.
func (c *Catalog) List() []domain.Scene {
	out := make([]domain.Scene, len(c.scenes))
	copy(out, c.scenes)
	return out
}

// Len returns the number of scenes.
func (c *Catalog) Len() int {
	return len(c.scenes)
}

// ByID returns the scene with the given id or domain.ErrNotFound.
func (c *Catalog) ByID(id int) (domain.Scene, error) {
	idx, ok := c.byID[id]
	if !ok {
		return domain.Scene{}, fmt.Errorf("scene %d: %w", id, domain.ErrNotFound)
	}
	return c.scenes[idx], nil
}

// Random returns a uniformly chosen scene.
func (c *Catalog) Random() domain.Scene {
	return c.scenes[c.intN(len(c.scenes))]
}

// Lookup resolves a selector as sent by clients: an integer id or "random".
func (c *Catalog) Lookup(selector string) (domain.Scene, error) {
	selector = strings.TrimSpace(selector)
	if strings.EqualFold(selector, RandomSelector) {
		return c.Random(), nil
	}
	id, err := strconv.Atoi(selector)
	if err != nil {
		return domain.Scene{}, fmt.Errorf("scene selector %q: %w", selector, domain.ErrNotFound)
	}
	return c.ByID(id)
}
