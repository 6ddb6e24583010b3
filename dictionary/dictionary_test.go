package dictionary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/didyoumean/core"
	"github.com/poiesic/didyoumean/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSuggester struct {
	results     []core.Suggestion
	persistable bool
	err         error
	calls       int
}

func (f *fakeSuggester) Suggest(_ context.Context, _ string, n int) ([]core.Suggestion, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > n {
		return f.results[:n], nil
	}
	return f.results, nil
}

func (f *fakeSuggester) Persistable() bool {
	return f.persistable
}

func newTestDictionary(t *testing.T) *Dictionary {
	t.Helper()
	d, err := New(memory.NewDictionaryRepository())
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func putList(t *testing.T, d *Dictionary, query string, entries ...core.Suggestion) {
	t.Helper()
	list := d.NewSuggestionList(query)
	for _, s := range entries {
		require.NoError(t, list.AddSuggested(s.Text, s.Score, s.Hits))
	}
	require.NoError(t, d.Put(context.Background(), list))
}

func TestNew_RequiresRepository(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)
}

func TestDictionary_KeyNormalization(t *testing.T) {
	d := newTestDictionary(t)
	ctx := context.Background()

	putList(t, d, "The Da Vinci Code", core.NewSuggestion("the da vinci code", 1.0, 5))

	for _, query := range []string{"the davinci code", "THE DA-VINCI CODE", " the da vinci code!"} {
		t.Run(query, func(t *testing.T) {
			list, err := d.Get(ctx, query)
			require.NoError(t, err)
			require.NotNil(t, list)
			assert.Equal(t, "thedavincicode", list.Key)
		})
	}

	exists, err := d.IsExistingSuggestion(ctx, "the davinci code", "the da vinci code")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = d.IsExistingSuggestion(ctx, "unknown", "the da vinci code")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDictionary_CustomKeyFormatter(t *testing.T) {
	d, err := New(memory.NewDictionaryRepository(), WithKeyFormatter(func(q string) string { return q }))
	require.NoError(t, err)

	assert.Equal(t, "Foo Bar", d.FormatKey("Foo Bar"))
}

func TestDictionary_GetOrCreate(t *testing.T) {
	d := newTestDictionary(t)
	ctx := context.Background()

	list, err := d.GetOrCreate(ctx, "Foo Bar")
	require.NoError(t, err)
	assert.Equal(t, "foobar", list.Key)
	assert.Equal(t, 0, list.Len())

	size, err := d.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}

func TestDictionary_ClosedStoreIsQueryFailure(t *testing.T) {
	repo := memory.NewDictionaryRepository()
	d, err := New(repo)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	_, err = d.Get(context.Background(), "foo")
	assert.ErrorIs(t, err, core.ErrQueryFailure)
}

func TestDictionary_SecondLevelSuggestion(t *testing.T) {
	ctx := context.Background()

	t.Run("blends persistable suggesters by weight", func(t *testing.T) {
		d := newTestDictionary(t)
		phrase := &fakeSuggester{persistable: true, results: []core.Suggestion{
			core.NewSuggestion("lost in translation", 12, 4),
			core.NewSuggestion("lost on translation", 3, 1),
		}}
		other := &fakeSuggester{persistable: true, results: []core.Suggestion{
			core.NewSuggestion("lost in translation", 1, 4),
		}}
		ignored := &fakeSuggester{persistable: false, results: []core.Suggestion{
			core.NewSuggestion("something else", 100, 1),
		}}
		require.NoError(t, d.RegisterSecondLevel(phrase, 3))
		require.NoError(t, d.RegisterSecondLevel(other, 1))
		require.NoError(t, d.RegisterSecondLevel(ignored, 10))

		results, err := d.SecondLevelSuggestion(ctx, "lost on translation", 5)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "lost in translation", results[0].Text)
		assert.InDelta(t, 4.0, results[0].Score, 1e-9)
		assert.Equal(t, "lost on translation", results[1].Text)
		assert.Equal(t, 1, ignored.calls)

		list, err := d.Get(ctx, "lost on translation")
		require.NoError(t, err)
		require.Equal(t, 1, list.Len())
		assert.Equal(t, "lost in translation", list.At(0).Text)
		assert.InDelta(t, 1.0, list.At(0).Score, 1e-9)
		assert.Equal(t, 4, list.At(0).Hits)
	})

	t.Run("no answer", func(t *testing.T) {
		d := newTestDictionary(t)
		require.NoError(t, d.RegisterSecondLevel(&fakeSuggester{persistable: true}, 1))

		results, err := d.SecondLevelSuggestion(ctx, "nothing", 5)
		require.NoError(t, err)
		assert.Nil(t, results)

		size, err := d.Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, size)
	})

	t.Run("suggester failure", func(t *testing.T) {
		d := newTestDictionary(t)
		require.NoError(t, d.RegisterSecondLevel(&fakeSuggester{err: errors.New("index closed")}, 1))

		_, err := d.SecondLevelSuggestion(ctx, "foo", 5)
		assert.ErrorIs(t, err, core.ErrQueryFailure)
	})
}

func TestDictionary_EmptyKey(t *testing.T) {
	ctx := context.Background()

	for _, query := range []string{"?!", "...", "   ", ""} {
		t.Run(query, func(t *testing.T) {
			d := newTestDictionary(t)
			assert.False(t, d.HasKey(query))

			list, err := d.Get(ctx, query)
			require.NoError(t, err)
			assert.Nil(t, list)

			list, err = d.GetOrCreate(ctx, query)
			require.NoError(t, err)
			require.NoError(t, list.AddSuggested("c++ tutorial", 1.0, 3))
			require.NoError(t, d.Put(ctx, list))

			require.NoError(t, d.RegisterSecondLevel(&fakeSuggester{persistable: true, results: []core.Suggestion{
				core.NewSuggestion("anything", 1, 1),
			}}, 1))
			results, err := d.SecondLevelSuggestion(ctx, query, 1)
			require.NoError(t, err)
			assert.Len(t, results, 1)

			size, err := d.Size(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, size)
		})
	}
}

func TestDictionary_SecondLevelKeepsStoredEntries(t *testing.T) {
	ctx := context.Background()

	t.Run("suppressed entry is not revived", func(t *testing.T) {
		d := newTestDictionary(t)
		putList(t, d, "bda",
			core.NewSuggestion("bad", 0.01, 4),
			core.NewSuggestion("bed", 0.005, 2),
		)
		require.NoError(t, d.RegisterSecondLevel(&fakeSuggester{persistable: true, results: []core.Suggestion{
			core.NewSuggestion("bad", 1, 4),
		}}, 1))

		for range 2 {
			results, err := d.SecondLevelSuggestion(ctx, "bda", 1)
			require.NoError(t, err)
			require.Len(t, results, 1)
		}

		list, err := d.Get(ctx, "bda")
		require.NoError(t, err)
		require.Equal(t, 2, list.Len())
		assert.Equal(t, "bad", list.At(0).Text)
		assert.InDelta(t, 0.01, list.At(0).Score, 1e-9)
		assert.Equal(t, "bed", list.At(1).Text)
	})

	t.Run("new text joins the existing list", func(t *testing.T) {
		d := newTestDictionary(t)
		putList(t, d, "bda", core.NewSuggestion("bad", 0.01, 4))
		require.NoError(t, d.RegisterSecondLevel(&fakeSuggester{persistable: true, results: []core.Suggestion{
			core.NewSuggestion("bda fan", 1, 7),
		}}, 1))

		_, err := d.SecondLevelSuggestion(ctx, "bda", 1)
		require.NoError(t, err)

		list, err := d.Get(ctx, "bda")
		require.NoError(t, err)
		require.Equal(t, 2, list.Len())
		assert.Equal(t, "bda fan", list.At(0).Text)
		assert.InDelta(t, 1.0, list.At(0).Score, 1e-9)
		assert.Equal(t, "bad", list.At(1).Text)
		assert.InDelta(t, 0.01, list.At(1).Score, 1e-9)
	})
}

type blockingSuggester struct {
	entered chan struct{}
	release chan struct{}
	done    chan error
}

func (b *blockingSuggester) Suggest(ctx context.Context, _ string, _ int) ([]core.Suggestion, error) {
	close(b.entered)
	<-b.release
	err := ctx.Err()
	b.done <- err
	return []core.Suggestion{core.NewSuggestion("lost in translation", 1, 4)}, err
}

func (b *blockingSuggester) Persistable() bool {
	return true
}

func TestDictionary_SecondLevelSurvivesCallerCancel(t *testing.T) {
	d := newTestDictionary(t)
	slow := &blockingSuggester{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		done:    make(chan error, 1),
	}
	require.NoError(t, d.RegisterSecondLevel(slow, 1))

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := d.SecondLevelSuggestion(ctx, "lost on translation", 1)
		errs <- err
	}()

	<-slow.entered
	cancel()
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(slow.release)
	select {
	case err := <-slow.done:
		assert.NoError(t, err, "shared lookup saw the caller's cancellation")
	case <-time.After(5 * time.Second):
		t.Fatal("lookup did not finish")
	}

	assert.Eventually(t, func() bool {
		list, err := d.Get(context.Background(), "lost on translation")
		return err == nil && list != nil && list.Contains("lost in translation")
	}, 5*time.Second, 10*time.Millisecond)
}

func TestDictionary_Registry(t *testing.T) {
	d := newTestDictionary(t)

	assert.ErrorIs(t, d.RegisterSecondLevel(nil, 1), ErrSuggesterRequired)
	assert.ErrorIs(t, d.RegisterSecondLevel(&fakeSuggester{}, 0), ErrInvalidWeight)

	require.NoError(t, d.RegisterSecondLevel(&fakeSuggester{}, 1))
	snapshot := d.SecondLevelSuggesters()
	require.Len(t, snapshot, 1)

	require.NoError(t, d.SetSecondLevelSuggesters([]WeightedSuggester{
		{Suggester: &fakeSuggester{}, Weight: 3},
		{Suggester: &fakeSuggester{}, Weight: 1},
	}))
	assert.Len(t, d.SecondLevelSuggesters(), 2)
	assert.Len(t, snapshot, 1)

	err := d.SetSecondLevelSuggesters([]WeightedSuggester{{Suggester: nil, Weight: 1}})
	assert.ErrorIs(t, err, ErrSuggesterRequired)
	assert.Len(t, d.SecondLevelSuggesters(), 2)
}
