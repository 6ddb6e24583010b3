package didyoumean

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/didyoumean/config"
	"github.com/poiesic/didyoumean/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineFixture struct {
	engine *Engine
	now    time.Time
}

func newEngineFixture(t *testing.T, cfg *config.Config, opts ...EngineOption) *engineFixture {
	t.Helper()
	f := &engineFixture{now: time.UnixMilli(1_000_000)}
	if cfg == nil {
		cfg = config.NewConfig(config.WithInMemoryStorage(), config.WithSessionExpiration(time.Minute))
	}
	opts = append([]EngineOption{WithClock(func() time.Time { return f.now })}, opts...)
	e, err := NewEngine(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	f.engine = e
	return f
}

// session builds a session where every query follows the previous one a
// second later and the last query is inspected as the goal.
func (f *engineFixture) session(id string, queries ...string) *core.QuerySession {
	s := core.NewQuerySession(id, time.Minute)
	for i, q := range queries {
		ts := f.now.Add(time.Duration(i) * time.Second)
		idx := s.Query(q, 10, "", ts)
		if i == len(queries)-1 {
			_ = s.Inspect(idx, "doc", core.Goal, ts)
		}
	}
	return s
}

func (f *engineFixture) putLists(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	dict := f.engine.Dictionary()
	put := func(query, text string, score float64, hits int) {
		list := dict.NewSuggestionList(query)
		require.NoError(t, list.AddSuggested(text, score, hits))
		require.NoError(t, dict.Put(ctx, list))
	}
	put("heroes of night and magic", "heroes of might and magic", 1.4, 10)
	put("heroes of might and magic", "heroes of might and magic", 1.0, 10)
	put("lost on translation", "lost in translation", 1.4, 4)
	put("lost in translation", "lost in translation", 1.0, 4)
}

func TestNewEngine(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		f := newEngineFixture(t, nil)
		assert.NotNil(t, f.engine.Dictionary())
		assert.NotNil(t, f.engine.Sessions())
		assert.NotNil(t, f.engine.Suggester())
		assert.Nil(t, f.engine.backend)
		assert.Nil(t, f.engine.Corpus())
		assert.Equal(t, time.Minute, f.engine.Sessions().Expiration())
	})

	t.Run("badger backend", func(t *testing.T) {
		cfg := config.NewConfig(config.WithStoragePath(filepath.Join(t.TempDir(), "store")))
		e, err := NewEngine(cfg)
		require.NoError(t, err)
		assert.NotNil(t, e.backend)
		assert.NoError(t, e.Close())
	})

	t.Run("error with file as store path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(path, []byte("test"), 0644))

		e, err := NewEngine(config.NewConfig(config.WithStoragePath(path)))
		assert.Error(t, err)
		assert.Nil(t, e)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := config.NewConfig(config.WithInMemoryStorage(), config.WithNavigationCap(0))
		_, err := NewEngine(cfg)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func TestEngine_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewConfig(config.WithStoragePath(filepath.Join(t.TempDir(), "store")))

	e, err := NewEngine(cfg)
	require.NoError(t, err)
	f := &engineFixture{engine: e, now: time.Now()}
	f.putLists(t)
	require.NoError(t, e.Close())

	e, err = NewEngine(cfg)
	require.NoError(t, err)
	defer e.Close()

	got, err := e.DidYouMean(ctx, "Heroes of Night and Magic!")
	require.NoError(t, err)
	assert.Equal(t, "heroes of might and magic", got)
}

func TestEngine_TrainExpiredQuerySessions(t *testing.T) {
	var progress bytes.Buffer
	f := newEngineFixture(t, nil, WithTrainingProgress(&progress))
	ctx := context.Background()
	e := f.engine

	require.NoError(t, e.Sessions().Put(ctx, f.session("s1", "heroes of night and magic", "heroes of might and magic")))

	got, err := e.DidYouMean(ctx, "heroes of night and magic")
	require.NoError(t, err)
	assert.Empty(t, got, "nothing is known before training")

	stats, err := e.TrainExpiredQuerySessions(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Trained, "session has not expired")

	f.now = f.now.Add(time.Hour)
	stats, err = e.TrainExpiredQuerySessions(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Trained)
	assert.Contains(t, progress.String(), "Trained: 1/1")

	got, err = e.DidYouMean(ctx, "heroes of night and magic")
	require.NoError(t, err)
	assert.Equal(t, "heroes of might and magic", got)

	count, err := e.Sessions().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEngine_TrainSession(t *testing.T) {
	ctx := context.Background()

	t.Run("session", func(t *testing.T) {
		f := newEngineFixture(t, nil)
		s := f.session("s1", "the davinci code", "the da vinci code")
		require.NoError(t, f.engine.TrainSession(ctx, s))

		got, err := f.engine.DidYouMeanN(ctx, "the davinci code", 3)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, "the da vinci code", got[0].Text)
	})

	t.Run("query tree from any node", func(t *testing.T) {
		f := newEngineFixture(t, nil)
		s := f.session("s1", "heroes of night and magic", "heroes of might and magic")
		leaf, err := s.Node(1)
		require.NoError(t, err)
		require.NoError(t, f.engine.TrainSessionQueryTree(ctx, leaf))

		got, err := f.engine.DidYouMean(ctx, "heroes of night and magic")
		require.NoError(t, err)
		assert.Equal(t, "heroes of might and magic", got)
	})

	t.Run("nil arguments", func(t *testing.T) {
		f := newEngineFixture(t, nil)
		assert.ErrorIs(t, f.engine.TrainSession(ctx, nil), ErrSessionRequired)
		assert.ErrorIs(t, f.engine.TrainSessionQueryTree(ctx, nil), ErrNodeRequired)
	})
}

func TestEngine_BuildSecondLevelSuggesters(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)
	f.putLists(t)

	got, err := f.engine.DidYouMean(ctx, "lost an translation")
	require.NoError(t, err)
	assert.Empty(t, got)

	corpus, err := f.engine.BuildSecondLevelSuggesters(ctx, nil)
	require.NoError(t, err)
	assert.Same(t, corpus, f.engine.Corpus())
	assert.Equal(t, 2, corpus.Index.Len())

	got, err = f.engine.DidYouMean(ctx, "lost an translation")
	require.NoError(t, err)
	assert.Equal(t, "lost in translation", got)

	// the second-level answer was stored
	list, err := f.engine.Dictionary().Get(ctx, "lost an translation")
	require.NoError(t, err)
	require.NotNil(t, list)
	assert.Equal(t, "lost in translation", list.At(0).Text)

	stats, err := f.engine.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.DictionarySize)
	assert.Equal(t, 1, stats.SecondLevelSuggesters)
	assert.Equal(t, 2, stats.SecondLevelDocuments)
}

func TestEngine_Maintenance(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)
	dict := f.engine.Dictionary()

	list := dict.NewSuggestionList("homm")
	require.NoError(t, list.AddSuggested("heroes of might and magic", 1.0, 10))
	require.NoError(t, list.AddSuggested("heroes", 0.5, 50))
	require.NoError(t, list.AddSuggested("home", 0.2, 100))
	require.NoError(t, dict.Put(ctx, list))

	changed, err := f.engine.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	list, err = dict.Get(ctx, "homm")
	require.NoError(t, err)
	assert.Equal(t, 2, list.Len())

	chained := dict.NewSuggestionList("heroes of might and magic")
	require.NoError(t, chained.AddSuggested("heroes of might and magic iii", 1.0, 30))
	require.NoError(t, dict.Put(ctx, chained))

	changed, err = f.engine.Optimize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	list, err = dict.Get(ctx, "homm")
	require.NoError(t, err)
	assert.True(t, list.Contains("heroes of might and magic iii"))
}

func TestEngine_Stats(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)
	require.NoError(t, f.engine.Sessions().Put(ctx, f.session("s1", "homm")))
	require.NoError(t, f.engine.Sessions().Put(ctx, f.session("s2", "teh")))

	stats, err := f.engine.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sessions)
	assert.Zero(t, stats.ExpiredSessions)
	assert.Zero(t, stats.DictionarySize)

	f.now = f.now.Add(time.Hour)
	stats, err = f.engine.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ExpiredSessions)
}
