// Command tablekv is a small demo of the typed table layer: it reads
// "word value" lines from stdin, merges each value into the word's set, and
// prints every set when the input ends.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tablekv/tablekv/pkg/codec"
	"github.com/tablekv/tablekv/pkg/db"
	"github.com/tablekv/tablekv/pkg/db/pebble"
	"github.com/tablekv/tablekv/pkg/log"
	"github.com/tablekv/tablekv/pkg/table"
)

func mergeWordSets(existing, operand []string) ([]string, error) {
	seen := make(map[string]struct{}, len(existing)+len(operand))
	for _, s := range existing {
		seen[s] = struct{}{}
	}
	for _, s := range operand {
		seen[s] = struct{}{}
	}
	merged := make([]string, 0, len(seen))
	for s := range seen {
		merged = append(merged, s)
	}
	sort.Strings(merged)
	return merged, nil
}

func run(path string) error {
	reg := db.NewMergeRegistry()
	kv, err := pebble.New(path, pebble.WithMerge(reg))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	tdb := table.New(kv,
		table.WithMergeRegistry(reg),
		table.WithLogger(log.Table),
		table.WithPersistentSchema(),
	)
	defer tdb.Close()

	words, err := table.OpenMerge(tdb, "words", codec.StringKey(), codec.JSONValue[[]string](), mergeWordSets)
	if err != nil {
		return fmt.Errorf("open words table: %w", err)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		word, value, ok := strings.Cut(line, " ")
		if !ok {
			log.Root.Warn().Str("line", line).Msg("could not split line")
			continue
		}
		if err := words.Merge(word, []string{value}); err != nil {
			return fmt.Errorf("merge %q: %w", word, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	cur, err := words.Scan(table.FullRange[string]())
	if err != nil {
		return fmt.Errorf("scan words: %w", err)
	}
	defer cur.Close()

	for cur.Next() {
		fmt.Printf("%s: %s\n", cur.Key(), strings.Join(cur.Value(), ", "))
	}
	return cur.Err()
}

func main() {
	path := flag.String("db", "words.db", "database directory")
	loglevel := flag.String("loglevel", "info", "log level")
	flag.Parse()

	level, err := log.ParseLogLevel(*loglevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log.Init(log.Options{LogLevel: level, Type: log.ConsoleLogger})

	if err := run(*path); err != nil {
		log.Root.Error().Err(err).Msg("tablekv failed")
		os.Exit(1)
	}
}
