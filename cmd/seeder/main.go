package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/didyoumean"
	"github.com/poiesic/didyoumean/config"
	"github.com/poiesic/didyoumean/session"
)

// sampleSessions are query sessions as a user would type them: a query, a
// correction, then a goal. Timestamps are offsets in seconds from the start
// of the seeding run.
var sampleSessions = [][]string{
	{"homm", "heroes of might and magic"},
	{"heroes of night and magic", "heroes of might and magic"},
	{"heroes of might and magik", "heroes of might and magic"},
	{"the davinci code", "the da vinci code"},
	{"da vinci cod", "the da vinci code"},
	{"lost on translation", "lost in translation"},
	{"lost in tranlsation", "lost in translation"},
	{"lord of the rigns", "lord of the rings"},
	{"lord of teh rings", "lord of the rings"},
	{"lotr", "lord of the rings"},
	{"harry poter", "harry potter"},
	{"hary potter", "harry potter"},
	{"harry potter and the philosphers stone", "harry potter and the philosophers stone"},
	{"the hobit", "the hobbit"},
	{"hobbit", "the hobbit"},
	{"star wras", "star wars"},
	{"starwars", "star wars"},
	{"the godfather part 2", "the godfather part ii"},
	{"god father", "the godfather"},
	{"pulp fictoin", "pulp fiction"},
	{"forest gump", "forrest gump"},
	{"jurasic park", "jurassic park"},
	{"jurassic prak", "jurassic park"},
	{"the matirx", "the matrix"},
	{"matrix reloded", "the matrix reloaded"},
	{"the silence of the lambs", "the silence of the lambs"},
	{"silense of the lambs", "the silence of the lambs"},
	{"back to the futur", "back to the future"},
	{"bak to the future", "back to the future"},
	{"the shawshank redemtion", "the shawshank redemption"},
	{"shawshank", "the shawshank redemption"},
	{"it might be the best game ever mad", "it might be the best game ever made"},
	{"forget about teh rest", "forget about the rest"},
	{"its all in the fame", "it's all in the fame"},
}

var (
	seedFileName = flag.String("src", "", "query log to import instead of the built-in sample")
	dbPath       = flag.String("db", "./query_db", "path to the dictionary store")
	train        = flag.Bool("train", true, "train the seeded sessions")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// sampleLog renders sampleSessions as a query log. Every query but the last
// of a session returns no hits; the last one is the session's goal.
func sampleLog(start time.Time) string {
	var b strings.Builder
	for i, queries := range sampleSessions {
		id := fmt.Sprintf("sample-%03d", i)
		for j, q := range queries {
			ts := start.Add(time.Duration(i*60+j*5) * time.Second).UnixMilli()
			if j == len(queries)-1 {
				fmt.Fprintf(&b, "%s\t%d\t%s\t%d\tgoal\n", id, ts, q, 10+i)
				continue
			}
			fmt.Fprintf(&b, "%s\t%d\t%s\t0\n", id, ts, q)
		}
	}
	return b.String()
}

func main() {
	cfg := config.NewConfig(config.WithStoragePath(*dbPath))
	engine, err := didyoumean.NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	ctx := context.Background()

	// Determine source of seed data
	var source io.Reader
	if *seedFileName != "" {
		f, err := os.Open(*seedFileName)
		if err != nil {
			panic(err)
		}
		defer f.Close()
		source = f
	} else {
		// old enough that every session has expired
		start := time.Now().Add(-2 * cfg.SessionExpiration()).Add(-time.Duration(len(sampleSessions)) * time.Minute)
		source = strings.NewReader(sampleLog(start))
	}

	importer := session.NewImporter(engine.Sessions(), nil)
	if _, err := importer.Import(ctx, source); err != nil {
		panic(err)
	}

	if *train {
		stats, err := engine.TrainExpiredQuerySessions(ctx, 0, 0)
		if err != nil {
			panic(err)
		}
		slog.Info("seeded dictionary", "trained", stats.Trained, "failed", stats.Failed)
	}
}
