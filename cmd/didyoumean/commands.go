package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/poiesic/didyoumean"
	"github.com/poiesic/didyoumean/core"
	"github.com/poiesic/didyoumean/secondlevel"
	"github.com/poiesic/didyoumean/session"
	"github.com/poiesic/didyoumean/suggest"
	"github.com/urfave/cli/v2"
)

func suggestCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("a query is required")
	}
	n := c.Int("count")
	if n <= 0 {
		return fmt.Errorf("count must be greater than 0")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := prepareSecondLevel(ctx, c, engine); err != nil {
		return err
	}

	var monitor suggest.Monitor
	if c.Bool("explain") {
		monitor = newExplainMonitor(c.App.Writer)
	}
	results, err := engine.DidYouMeanWithMonitor(ctx, query, n, monitor)
	if err != nil {
		return fmt.Errorf("suggest failed: %w", err)
	}

	printSuggestions(c.App.Writer, results)
	return nil
}

func promptCommand(c *cli.Context) error {
	ctx := context.Background()

	n := c.Int("count")
	if n <= 0 {
		return fmt.Errorf("count must be greater than 0")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := prepareSecondLevel(ctx, c, engine); err != nil {
		return err
	}

	var recorded *core.QuerySession
	if c.Bool("record") {
		recorded, err = engine.Sessions().NewSession(ctx, "")
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.ErrWriter, "Recording session %s\n", recorded.ID)
	}

	reader := c.App.Reader
	if reader == nil {
		reader = os.Stdin
	}
	scanner := bufio.NewScanner(reader)
	fmt.Fprint(c.App.Writer, "> ")
	for scanner.Scan() {
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			fmt.Fprint(c.App.Writer, "> ")
			continue
		}

		results, err := engine.DidYouMeanN(ctx, query, n)
		if err != nil {
			return fmt.Errorf("suggest failed: %w", err)
		}
		if len(results) == 0 {
			fmt.Fprintln(c.App.Writer, "no suggestion")
		} else {
			printSuggestions(c.App.Writer, results)
		}

		if recorded != nil {
			shown := ""
			if len(results) > 0 {
				shown = results[0].Text
			}
			recorded.Query(query, core.UnknownHits, shown, time.Now())
			if err := engine.Sessions().Put(ctx, recorded); err != nil {
				return err
			}
		}
		fmt.Fprint(c.App.Writer, "> ")
	}
	fmt.Fprintln(c.App.Writer)
	return scanner.Err()
}

func trainCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.Int("threads") < 0 {
		return fmt.Errorf("threads must not be negative")
	}
	if c.Int("batch-size") < 0 {
		return fmt.Errorf("batch-size must not be negative")
	}

	var opts []didyoumean.EngineOption
	if c.Bool("progress") {
		opts = append(opts, didyoumean.WithTrainingProgress(c.App.ErrWriter))
	}
	engine, err := openEngine(c, opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	return train(ctx, c.App.Writer, engine, c.Int("threads"), c.Int("batch-size"))
}

func train(ctx context.Context, w io.Writer, engine *didyoumean.Engine, threads, batchSize int) error {
	start := time.Now()
	stats, err := engine.TrainExpiredQuerySessions(ctx, threads, batchSize)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	fmt.Fprintf(w, "Trained %d sessions in %d batches (%d failed) in %s\n",
		stats.Trained, stats.Batches, stats.Failed, time.Since(start).Round(time.Millisecond))
	return nil
}

func importCommand(c *cli.Context) error {
	ctx := context.Background()

	files := c.Args().Slice()
	if len(files) == 0 {
		return fmt.Errorf("at least one log file is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	importer := session.NewImporter(engine.Sessions(), nil)
	var total session.ImportStats
	for _, name := range files {
		stats, err := importFile(ctx, importer, c.App.Reader, name)
		if err != nil {
			return fmt.Errorf("import %s: %w", name, err)
		}
		total.Lines += stats.Lines
		total.Queries += stats.Queries
		total.Sessions += stats.Sessions
	}
	fmt.Fprintf(c.App.Writer, "Imported %d queries in %d sessions from %d lines\n",
		total.Queries, total.Sessions, total.Lines)

	if c.Bool("train") {
		return train(ctx, c.App.Writer, engine, 0, 0)
	}
	return nil
}

func importFile(ctx context.Context, importer *session.Importer, stdin io.Reader, name string) (session.ImportStats, error) {
	if name == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		return importer.Import(ctx, stdin)
	}
	f, err := os.Open(name)
	if err != nil {
		return session.ImportStats{}, err
	}
	defer f.Close()
	return importer.Import(ctx, f)
}

func buildCorpusCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	system, err := loadSystemIndex(c.String("system-corpus"))
	if err != nil {
		return err
	}
	corpus, err := engine.BuildSecondLevelSuggesters(ctx, system)
	if err != nil {
		return fmt.Errorf("corpus build failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Corpus: %d documents, %d terms\n", corpus.Index.Len(), corpus.Index.NumTerms())
	if system != nil {
		fmt.Fprintf(c.App.Writer, "System corpus: %d documents, %d terms\n", system.Len(), system.NumTerms())
	}
	if c.Bool("list") {
		for _, doc := range corpus.Index.Documents() {
			fmt.Fprintln(c.App.Writer, doc)
		}
	}
	return nil
}

func pruneCommand(c *cli.Context) error {
	ctx := context.Background()

	maxSize := c.Int("max-size")
	if maxSize <= 0 {
		return fmt.Errorf("max-size must be greater than 0")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	changed, err := engine.Prune(ctx, maxSize)
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Pruned %d lists to at most %d suggestions\n", changed, maxSize)
	return nil
}

func optimizeCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	changed, err := engine.Optimize(ctx)
	if err != nil {
		return fmt.Errorf("optimize failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Optimized %d lists\n", changed)
	return nil
}

func statsCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	stats, err := engine.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Dictionary lists:  %d\n", stats.DictionarySize)
	fmt.Fprintf(c.App.Writer, "Sessions:          %d\n", stats.Sessions)
	fmt.Fprintf(c.App.Writer, "Expired sessions:  %d\n", stats.ExpiredSessions)
	return nil
}

// prepareSecondLevel builds the corpus suggesters when --second-level or
// --system-corpus is set.
func prepareSecondLevel(ctx context.Context, c *cli.Context, engine *didyoumean.Engine) error {
	if !c.Bool("second-level") && c.String("system-corpus") == "" {
		return nil
	}
	system, err := loadSystemIndex(c.String("system-corpus"))
	if err != nil {
		return err
	}
	if _, err := engine.BuildSecondLevelSuggesters(ctx, system); err != nil {
		return fmt.Errorf("corpus build failed: %w", err)
	}
	return nil
}

// loadSystemIndex indexes every non-blank line of path. An empty path
// returns a nil index.
func loadSystemIndex(path string) (*secondlevel.Index, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	index := secondlevel.NewIndex()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, _, err := index.AddDocument(line, false); err != nil && !errors.Is(err, secondlevel.ErrEmptyDocument) {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return index, nil
}

func printSuggestions(w io.Writer, results []core.Suggestion) {
	for i, s := range results {
		fmt.Fprintf(w, "%d: %s [%0.3f] (%s)\n", i+1, s.Text, s.Score, formatHits(s.Hits))
	}
}

func formatHits(hits int) string {
	if hits < 0 {
		return "? hits"
	}
	return fmt.Sprintf("%d hits", hits)
}
