package merchant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	assert.Equal(t, "UBER TRIP 123", Clean(`  "UBER   TRIP	123" `))
	assert.Equal(t, "Padaria do Z\u00e9", Clean("Padaria do Ze\u0301"), "decomposed accents are composed")
	assert.Equal(t, "Dona Maria", Clean("“Dona   Maria”"))
	assert.Equal(t, "", Clean(`  "" `))
}

func TestNormalize(t *testing.T) {
	c := DefaultCatalog()

	n := c.Normalize(`"UBER  TRIP 123"`)
	assert.Equal(t, "uber trip 123", n.Text)
	assert.Equal(t, "UBER", n.Establishment)

	n = c.Normalize("Padaria Pão Quente")
	assert.Equal(t, "padaria pão quente", n.Text)
	assert.Empty(t, n.Establishment)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 1.0, Similarity("netflix", "netflix"))
	assert.Equal(t, 0.0, Similarity("abc", ""))
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
	assert.InDelta(t, 1-3.0/7.0, Similarity("kitten", "sitting"), 1e-9)
	assert.InDelta(t, 0.75, Similarity("café", "cafe"), 1e-9)
}

func TestSimilarity_Properties(t *testing.T) {
	samples := []string{"", "a", "uber", "uber trip 123", "mercado livre", "açaí", "ifood *pedido"}
	for _, a := range samples {
		assert.Equal(t, 1.0, Similarity(a, a), "identity for %q", a)
		for _, b := range samples {
			s := Similarity(a, b)
			assert.Equal(t, s, Similarity(b, a), "symmetry for %q/%q", a, b)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
}
