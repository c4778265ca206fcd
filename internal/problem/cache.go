package problem

import (
	"encoding/binary"

	lru "github.com/hashicorp/golang-lru/v2"

	"treegp/internal/genome"
)

// fitnessCacheSize bounds the per-problem memo of evaluated genomes.
// Populations revisit the same trees constantly once elitism kicks in.
const fitnessCacheSize = 8192

type fitnessCache struct {
	cache *lru.Cache[string, float64]
}

func newFitnessCache() (*fitnessCache, error) {
	cache, err := lru.New[string, float64](fitnessCacheSize)
	if err != nil {
		return nil, err
	}
	return &fitnessCache{cache: cache}, nil
}

// fingerprint identifies a genome by its packed preorder value sequence.
func fingerprint(t *genome.Tree) string {
	buf := make([]byte, 0, 4*t.NodeCount())
	for i := 0; i < t.NodeCount(); i++ {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(t.At(i).Value))
	}
	return string(buf)
}

func (c *fitnessCache) get(t *genome.Tree) (float64, bool) {
	return c.cache.Get(fingerprint(t))
}

func (c *fitnessCache) put(t *genome.Tree, fitness float64) {
	c.cache.Add(fingerprint(t), fitness)
}
