// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/didyoumean"
	"github.com/poiesic/didyoumean/config"
)

var (
	dbPath      = flag.String("db", "./query_db", "path to the dictionary store")
	count       = flag.Int("n", 5, "maximum number of suggestions")
	secondLevel = flag.Bool("second-level", false, "build the corpus suggesters first")
)

func init() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

func main() {
	engine, err := didyoumean.NewEngine(config.NewConfig(config.WithStoragePath(*dbPath)))
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	ctx := context.Background()
	if *secondLevel {
		if _, err := engine.BuildSecondLevelSuggesters(ctx, nil); err != nil {
			panic(err)
		}
	}

	query := "heroes of night and magic"
	if flag.NArg() > 0 {
		query = strings.Join(flag.Args(), " ")
	}
	results, err := engine.DidYouMeanN(ctx, query, *count)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Found %d suggestions for '%s'\n", len(results), query)
	for i, s := range results {
		fmt.Printf("%d: '%s' (%d)[%0.3f]\n", i, s.Text, s.Hits, s.Score)
	}
}
