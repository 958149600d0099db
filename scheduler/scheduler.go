// Package scheduler computes FK-depth levels over the exported table set
// and drives level-synchronous parallel export across those levels.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/latticedata/rowexport/metadata"
	"github.com/latticedata/rowexport/util"
	"golang.org/x/sync/errgroup"
)

// InfiniteLevel is the sentinel level assigned to tables that could not be
// reached from a zero-in-dependency root, i.e. tables on an FK cycle.
const InfiniteLevel = -1

// Plan is the level assignment for one export run: tables grouped by level,
// ascending, with cycle tables collected into the final wave.
type Plan struct {
	Waves    [][]string // table names, grouped by level, ascending
	Warnings []string   // one per cycle table
}

// BuildPlan computes level(t) for every table in tables (keyed by
// TableMetadata.TableName) via BFS from the zero-in-dependency roots.
// Foreign keys pointing outside the export set, or at the table itself, are
// ignored. Tables never reached by the BFS (cycle members) get the sentinel
// InfiniteLevel and are grouped into one final wave, each with a warning.
func BuildPlan(tables map[string]metadata.TableMetadata) Plan {
	if len(tables) == 0 {
		return Plan{}
	}

	inSet := make(map[string]bool, len(tables))
	for name := range tables {
		inSet[name] = true
	}

	// deps[t] = set of in-set tables t depends on (edges t -> u).
	// dependents[u] = set of in-set tables that depend on u (reverse edges).
	deps := make(map[string]map[string]bool, len(tables))
	dependents := make(map[string]map[string]bool, len(tables))
	for name := range tables {
		deps[name] = map[string]bool{}
		dependents[name] = map[string]bool{}
	}
	for name, t := range tables {
		for _, fk := range t.ForeignKeys {
			ref := fk.ReferencedTable
			if ref == name || !inSet[ref] {
				continue
			}
			deps[name][ref] = true
			dependents[ref][name] = true
		}
	}

	level := make(map[string]int, len(tables))
	remaining := make(map[string]int, len(tables))
	queue := make([]string, 0, len(tables))
	for name, d := range deps {
		remaining[name] = len(d)
		if len(d) == 0 {
			level[name] = 0
			queue = append(queue, name)
		}
	}

	for len(queue) > 0 {
		next := make([]string, 0, len(queue))
		for _, t := range queue {
			for dependent := range dependents[t] {
				remaining[dependent]--
				if remaining[dependent] == 0 {
					level[dependent] = level[t] + 1
					next = append(next, dependent)
				}
			}
		}
		queue = next
	}

	maxLevel := 0
	for _, l := range level {
		if l > maxLevel {
			maxLevel = l
		}
	}

	waves := make([][]string, maxLevel+1)
	var warnings []string
	var cycleTables []string
	// CanonicalMapIter gives deterministic table ordering within a wave, so
	// the plan is the same across runs. The tables of a wave still run
	// concurrently, so their order in the .sql file can vary.
	for name, _ := range util.CanonicalMapIter(tables) {
		l, ok := level[name]
		if !ok {
			l = InfiniteLevel
		}
		if l == InfiniteLevel {
			cycleTables = append(cycleTables, name)
			continue
		}
		waves[l] = append(waves[l], name)
	}
	if len(cycleTables) > 0 {
		waves = append(waves, cycleTables)
		for _, name := range cycleTables {
			warnings = append(warnings, fmt.Sprintf("table %q is part of a foreign-key cycle; exported in the final wave without dependency ordering", name))
		}
	}

	return Plan{Waves: waves, Warnings: warnings}
}

// WorkerFunc exports one table and returns its result.
type WorkerFunc func(ctx context.Context, tableName string) (metadata.ExportResult, error)

// Run executes plan wave by wave. Within a wave, every table is submitted
// concurrently to a worker pool capped at parallelThreads; Run waits for
// the whole wave before starting the next (level-synchronous parallelism).
// A failing table fails its wave; in-flight workers in that wave are
// allowed to finish, but later waves are not started.
func Run(ctx context.Context, plan Plan, parallelThreads int, work WorkerFunc) (map[string]metadata.ExportResult, error) {
	for _, warning := range plan.Warnings {
		slog.Warn(warning)
	}

	results := make(map[string]metadata.ExportResult)
	for waveIndex, wave := range plan.Waves {
		if len(wave) == 0 {
			continue
		}

		var eg errgroup.Group
		eg.SetLimit(parallelThreads)

		waveResults := make([]metadata.ExportResult, len(wave))
		for i, tableName := range wave {
			i, tableName := i, tableName
			eg.Go(func() error {
				result, err := work(ctx, tableName)
				if err != nil {
					return fmt.Errorf("scheduler: wave %d table %q: %w", waveIndex, tableName, err)
				}
				waveResults[i] = result
				return nil
			})
		}

		if err := eg.Wait(); err != nil {
			return results, err
		}
		for _, r := range waveResults {
			results[r.TableName] = r
		}
	}

	return results, nil
}
