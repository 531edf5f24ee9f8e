package search

import (
	"context"
	"log/slog"
	"math"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/event"
)

// DefaultParallelThreshold is the collection size from which scoring is
// spread over several goroutines.
const DefaultParallelThreshold = 512

// Collection-level fallback and recency boost parameters. The fallback runs
// when fewer than fallbackMinResults events scored above zero, counted before
// the MinScore filter so raising MinScore never adds results, and only for
// queries of at least fallbackMinRunes as typed, before abbreviation expansion.
const (
	fallbackMinResults = 2
	fallbackMinRunes   = 3
	fallbackBase       = 0.10
	fallbackRange      = 0.25
	recentDays         = 30
	recentBoost        = 0.2
)

// Index ranks collections of events. The collection itself is owned by the
// caller and passed to every call; the index only keeps derived text.
type Index struct {
	cache             *TextCache
	abbreviations     map[string]string
	now               func() time.Time
	workers           int
	parallelThreshold int
	logger            *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithCache sets the projection cache. A nil cache disables caching.
func WithCache(c *TextCache) Option {
	return func(ix *Index) { ix.cache = c }
}

// WithAbbreviations replaces the abbreviation table used by Preprocess.
func WithAbbreviations(table map[string]string) Option {
	return func(ix *Index) { ix.abbreviations = table }
}

// WithNow sets the clock consulted by BoostRecent.
func WithNow(now func() time.Time) Option {
	return func(ix *Index) {
		if now != nil {
			ix.now = now
		}
	}
}

// WithWorkers sets how many goroutines score large collections. Zero or less
// uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(ix *Index) { ix.workers = n }
}

// WithParallelThreshold sets the collection size from which scoring runs in
// parallel. Zero or less uses DefaultParallelThreshold.
func WithParallelThreshold(n int) Option {
	return func(ix *Index) { ix.parallelThreshold = n }
}

// WithLogger sets the logger for per-search debug records.
func WithLogger(l *slog.Logger) Option {
	return func(ix *Index) {
		if l != nil {
			ix.logger = l
		}
	}
}

// NewIndex creates an Index with a default cache and abbreviation table.
func NewIndex(opts ...Option) *Index {
	ix := &Index{
		cache:         NewTextCache(DefaultCacheSize),
		abbreviations: DefaultAbbreviations,
		now:           time.Now,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	if ix.workers <= 0 {
		ix.workers = runtime.GOMAXPROCS(0)
	}
	if ix.parallelThreshold <= 0 {
		ix.parallelThreshold = DefaultParallelThreshold
	}
	return ix
}

// Cache returns the index's projection cache, which may be nil.
func (ix *Index) Cache() *TextCache {
	return ix.cache
}

// Now reads the index's clock.
func (ix *Index) Now() time.Time {
	return ix.now()
}

// Invalidate drops cached text for an event after it changed or was removed.
func (ix *Index) Invalidate(id string) {
	ix.cache.Invalidate(id)
}

// Search ranks events against query and the selected tags. Malformed options
// are clamped, never rejected; the only error is ctx's.
func (ix *Index) Search(ctx context.Context, events []*event.Event, query string, selectedTags []string, opts Options) ([]ScoredResult, error) {
	opts = opts.sanitize()
	tags := cleanSelectedTags(selectedTags)

	if strings.TrimSpace(query) == "" && len(tags) == 0 {
		sorted := SortByDate(events)
		results := make([]ScoredResult, len(sorted))
		for i, e := range sorted {
			results[i] = ScoredResult{Event: e, Score: 1}
		}
		return results, nil
	}

	began := time.Now()
	processed := Preprocess(query, ix.abbreviations)
	q := prepareQuery(processed)

	docs := make([]*document, len(events))
	scores := make([]ScoreResult, len(events))
	if err := ix.score(ctx, events, docs, scores, q, tags); err != nil {
		return nil, err
	}

	var now time.Time
	if opts.BoostRecent {
		now = ix.now()
	}

	candidates := make([]candidate, 0)
	included := make([]bool, len(events))
	positive := 0
	for i, e := range events {
		s := scores[i]
		if s.Score > 0 {
			positive++
		}
		if s.Score <= 0 || s.Score < opts.MinScore {
			continue
		}
		score := s.Score
		if opts.BoostRecent {
			score = boostRecent(score, e, now)
		}
		candidates = append(candidates, newCandidate(i, e, score, s.Matches))
		included[i] = true
	}

	fallbackUsed := false
	if positive < fallbackMinResults && runeLen(strings.TrimSpace(query)) >= fallbackMinRunes {
		for i, e := range events {
			if included[i] || !hasAllTags(docs[i].tagsLower, tags) {
				continue
			}
			word, dist, ok := closestWord(q.normalized, docs[i].allWords)
			if !ok {
				continue
			}
			score := fallbackBase + fallbackRange*distanceRatio(dist, q.normalized)
			if score <= 0 || score < opts.MinScore {
				continue
			}
			m := Match{
				Type:     MatchSuperFuzzyFallback,
				Value:    processed,
				Matched:  word,
				Distance: intPtr(dist),
				Score:    score,
			}
			candidates = append(candidates, newCandidate(i, e, score, []Match{m}))
			fallbackUsed = true
		}
	}

	sortCandidates(candidates, opts.SortBy)
	if len(candidates) > opts.MaxResults {
		candidates = candidates[:opts.MaxResults]
	}

	results := make([]ScoredResult, len(candidates))
	for i, c := range candidates {
		results[i] = c.ScoredResult
		if !opts.IncludeScoring {
			results[i].Matches = nil
		}
	}

	ix.logger.Debug("search completed",
		"query_chars", runeLen(processed),
		"tags", len(tags),
		"candidates", len(events),
		"results", len(results),
		"fallback", fallbackUsed,
		"duration_ms", float64(time.Since(began).Microseconds())/1000,
	)
	return results, nil
}

// score fills docs and scores for every event, in parallel for large
// collections. Each goroutine writes only its own indices.
func (ix *Index) score(ctx context.Context, events []*event.Event, docs []*document, scores []ScoreResult, q preparedQuery, tags []string) error {
	scoreRange := func(ctx context.Context, from, to int) error {
		for i := from; i < to; i++ {
			if (i-from)%64 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			docs[i] = ix.cache.document(events[i])
			scores[i] = scoreDocument(docs[i], q, tags)
		}
		return nil
	}

	if ix.workers <= 1 || len(events) < ix.parallelThreshold {
		return scoreRange(ctx, 0, len(events))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	chunk := (len(events) + ix.workers - 1) / ix.workers
	for from := 0; from < len(events); from += chunk {
		to := min(from+chunk, len(events))
		g.Go(func() error {
			return scoreRange(gctx, from, to)
		})
	}
	return g.Wait()
}

// boostRecent raises the score of events starting within recentDays of now,
// in either direction. Undated events are unchanged.
func boostRecent(score float64, e *event.Event, now time.Time) float64 {
	start, ok := e.Start()
	if !ok {
		return score
	}
	days := math.Abs(now.Sub(start).Hours()) / 24
	if days > recentDays {
		return score
	}
	return score * (1 + (recentDays-days)/recentDays*recentBoost)
}

func cleanSelectedTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
