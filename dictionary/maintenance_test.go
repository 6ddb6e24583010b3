package dictionary

import (
	"context"
	"testing"

	"github.com/poiesic/didyoumean/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictionary_Inverted(t *testing.T) {
	d := newTestDictionary(t)
	ctx := context.Background()

	putList(t, d, "heroes of night and magic", core.NewSuggestion("heroes of might and magic", 1.4, 10))
	putList(t, d, "homm",
		core.NewSuggestion("heroes of might and magic", 1.0, 10),
		core.NewSuggestion("homm", 0.5, 2))
	putList(t, d, "the davinci code", core.NewSuggestion("the da vinci code", 1.0, 7))

	inverted, err := d.Inverted(ctx)
	require.NoError(t, err)
	require.Len(t, inverted, 2)

	homm := inverted["heroes of might and magic"]
	require.NotNil(t, homm)
	assert.Equal(t, 2, homm.Len())
	assert.True(t, homm.Contains("heroesofnightandmagic"))
	assert.True(t, homm.Contains("homm"))
	assert.Equal(t, "heroesofnightandmagic", homm.At(0).Text)

	assert.Equal(t, 1, inverted["the da vinci code"].Len())
}

func TestDictionary_Prune(t *testing.T) {
	d := newTestDictionary(t)
	ctx := context.Background()

	putList(t, d, "a",
		core.NewSuggestion("x", 3, 1),
		core.NewSuggestion("y", 2, 1),
		core.NewSuggestion("z", 1, 1))
	putList(t, d, "b", core.NewSuggestion("x", 1, 1))

	changed, err := d.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	list, err := d.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, 2, list.Len())
	assert.Equal(t, "x", list.At(0).Text)
	assert.Equal(t, "y", list.At(1).Text)
}

func TestDictionary_Optimize(t *testing.T) {
	d := newTestDictionary(t)
	ctx := context.Background()

	putList(t, d, "heroes of nigth and magic", core.NewSuggestion("heroes of night and magic", 1.0, 0))
	putList(t, d, "heroes of night and magic", core.NewSuggestion("heroes of might and magic", 1.4, 10))
	putList(t, d, "heroes of might and magic", core.NewSuggestion("heroes of might and magic", 1.0, 10))

	changed, err := d.Optimize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	list, err := d.Get(ctx, "heroes of nigth and magic")
	require.NoError(t, err)
	require.Equal(t, 2, list.Len())
	assert.Equal(t, "heroes of might and magic", list.At(0).Text)
	assert.InDelta(t, 1.0, list.At(0).Score, 1e-9)

	// A second pass finds nothing left to collapse.
	changed, err = d.Optimize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
}
