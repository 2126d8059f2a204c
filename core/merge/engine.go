package merge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"geomancer/core/geo"
	"geomancer/core/mancer"
	"geomancer/core/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TableWriter persists a merged table and returns a caller-resolvable
// locator for it. name is the original upload filename.
type TableWriter interface {
	WriteTable(ctx context.Context, name string, t *Table) (string, error)
}

// Engine runs merge jobs. It holds no per-job state.
type Engine struct {
	catalog     *geo.Catalog
	writer      TableWriter
	log         *zap.Logger
	parallelism int
}

// Option customises an Engine.
type Option func(*Engine)

// WithSearchParallelism bounds the number of concurrent adapter searches.
func WithSearchParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// NewEngine creates an engine. writer may be nil when only Merge is used.
func NewEngine(catalog *geo.Catalog, writer TableWriter, log *zap.Logger, opts ...Option) *Engine {
	if catalog == nil {
		catalog = geo.NewCatalog(nil, nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{catalog: catalog, writer: writer, log: log, parallelism: 4}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run merges the input, writes the table and returns the summary with the
// artifact locator.
func (e *Engine) Run(ctx context.Context, roster *mancer.Roster, in Input, cache *ResolutionCache) (*Summary, error) {
	if e.writer == nil {
		return nil, fmt.Errorf("merge engine has no table writer")
	}
	table, summary, err := e.Merge(ctx, roster, in, cache)
	if err != nil {
		return nil, err
	}
	locator, err := e.writer.WriteTable(ctx, in.Filename, table)
	if err != nil {
		return nil, fmt.Errorf("failed to write result: %w", err)
	}
	summary.DownloadURL = locator
	return summary, nil
}

// Validate checks the field definition and the geography values without
// calling any adapter.
func (e *Engine) Validate(in Input) error {
	resolver, err := e.resolver(in)
	if err != nil {
		return err
	}
	for i, kind := range resolver.Combination().Kinds {
		if err := e.catalog.ValidateValues(kind, resolver.ColumnValues(i, in.Rows)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) resolver(in Input) (*geo.Resolver, error) {
	if in.Field.Combination == nil {
		return nil, &geo.CombinationError{Message: "no geography type selected"}
	}
	width := tableWidth(in.Header, in.Rows)
	for _, idx := range in.Field.Columns {
		if idx >= width {
			return nil, &geo.CombinationError{
				Key:     in.Field.Combination.Key(),
				Message: fmt.Sprintf("column index %d is out of range for a table with %d columns", idx, width),
			}
		}
	}
	return geo.NewResolver(in.Field.Combination, in.Field.Columns)
}

// searchOutcome is the reconciled search result of one adapter.
type searchOutcome struct {
	header []string
	rows   map[string][]any
}

// Merge runs the job without writing the table. A nil cache gets a fresh
// one.
func (e *Engine) Merge(ctx context.Context, roster *mancer.Roster, in Input, cache *ResolutionCache) (*Table, *Summary, error) {
	if cache == nil {
		cache = NewResolutionCache()
	}
	if err := e.Validate(in); err != nil {
		return nil, nil, err
	}
	resolver, err := e.resolver(in)
	if err != nil {
		return nil, nil, err
	}
	combination := resolver.Combination()

	assignments, warnings := roster.Partition(in.Field.AppendColumns)
	for _, w := range warnings {
		e.log.Warn("Data columns skipped", zap.String("reason", w))
	}
	if len(assignments) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoDataColumns, strings.Join(warnings, "; "))
	}

	terms := make([]string, len(in.Rows))
	for i, row := range in.Rows {
		terms[i] = strings.TrimSpace(resolver.Resolve(row))
	}

	for _, a := range assignments {
		if err := e.resolve(ctx, a.Mancer, combination.Resolves, terms, cache); err != nil {
			return nil, nil, err
		}
	}
	if cache.Resolved() == 0 {
		return nil, nil, ErrNoGeographiesMatched
	}

	outcomes, err := e.searchAll(ctx, assignments, combination.Resolves, cache)
	if err != nil {
		return nil, nil, err
	}

	table, summary := assemble(in, combination, assignments, outcomes, cache)
	summary.Errors = append(summary.Errors, warnings...)
	metrics.RowsMergedTotal.WithLabelValues("matched").Add(float64(summary.NumMatches))
	metrics.RowsMergedTotal.WithLabelValues("missing").Add(float64(summary.NumMissing))
	return table, summary, nil
}

// resolve looks up every distinct non-blank term once for one adapter.
func (e *Engine) resolve(ctx context.Context, m mancer.Mancer, kind geo.Kind, terms []string, cache *ResolutionCache) error {
	id := m.ID()
	for row, term := range terms {
		if term == "" {
			continue
		}
		res, ok := cache.Lookup(id, term)
		if ok {
			metrics.LookupCacheTotal.WithLabelValues("hit").Inc()
		} else {
			metrics.LookupCacheTotal.WithLabelValues("miss").Inc()
			start := time.Now()
			var err error
			res, err = m.GeoLookup(ctx, term, kind)
			observe(id, "geo_lookup", start, err)
			if err != nil {
				return fmt.Errorf("geography lookup %q: %w", term, err)
			}
			res.GeoID = strings.TrimSpace(res.GeoID)
			cache.Store(id, term, res)
		}
		if res.Matched() {
			cache.Assign(id, res.GeoID, row)
		}
	}
	e.log.Debug("Geographies resolved",
		zap.String("mancer", id),
		zap.Int("distinct", len(cache.GeoIDs(id))),
	)
	return nil
}

// searchAll searches every adapter with at least one identifier. Outcomes
// are indexed like assignments; adapters without identifiers get nil.
func (e *Engine) searchAll(ctx context.Context, assignments []mancer.Assignment, kind geo.Kind, cache *ResolutionCache) ([]*searchOutcome, error) {
	outcomes := make([]*searchOutcome, len(assignments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for i, a := range assignments {
		ids := cache.GeoIDs(a.Mancer.ID())
		if len(ids) == 0 {
			continue
		}
		g.Go(func() (err error) {
			// the worker recovers panics only on its own goroutine
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("search %s panicked: %v", a.Mancer.ID(), r)
				}
			}()
			out, err := search(gctx, a.Mancer, kind, ids, a.TableIDs)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// search calls Search in chunks and reconciles chunk headers by name in
// first-seen order.
func search(ctx context.Context, m mancer.Mancer, kind geo.Kind, ids []string, tableIDs []string) (*searchOutcome, error) {
	size := len(ids)
	if b, ok := m.(mancer.Batcher); ok && b.BatchSize() > 0 {
		size = b.BatchSize()
	}

	out := &searchOutcome{rows: make(map[string][]any, len(ids))}
	position := make(map[string]int)
	type chunkRow struct {
		id     string
		header []string
		values []any
	}
	var collected []chunkRow

	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		geoIDs := make([]mancer.GeoID, 0, end-start)
		for _, id := range ids[start:end] {
			geoIDs = append(geoIDs, mancer.GeoID{Kind: kind, ID: id})
		}

		began := time.Now()
		res, err := m.Search(ctx, geoIDs, tableIDs)
		observe(m.ID(), "search", began, err)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", m.ID(), err)
		}
		if res == nil {
			continue
		}
		for _, h := range res.Header {
			if _, ok := position[h]; !ok {
				position[h] = len(out.header)
				out.header = append(out.header, h)
			}
		}
		for _, id := range ids[start:end] {
			if values, ok := res.Rows[id]; ok {
				collected = append(collected, chunkRow{id: id, header: res.Header, values: values})
			}
		}
	}

	for _, c := range collected {
		row := make([]any, len(out.header))
		for j := range row {
			row[j] = ""
		}
		for j, h := range c.header {
			if j < len(c.values) && c.values[j] != nil {
				row[position[h]] = c.values[j]
			}
		}
		out.rows[c.id] = row
	}
	return out, nil
}

// assemble builds the output table and summary.
func assemble(in Input, combination *geo.Combination, assignments []mancer.Assignment, outcomes []*searchOutcome, cache *ResolutionCache) (*Table, *Summary) {
	base := tableWidth(in.Header, in.Rows)
	header := make([]string, base, base+8)
	copy(header, in.Header)

	display := combination.DisplayName()
	added := make(map[string]int)
	var colsAdded []string
	// columns[i][j] is the output index of header j of outcome i
	columns := make([][]int, len(outcomes))
	for i, o := range outcomes {
		if o == nil {
			continue
		}
		columns[i] = make([]int, len(o.header))
		for j, h := range o.header {
			name := fmt.Sprintf("%s (%s)", h, display)
			idx, ok := added[name]
			if !ok {
				idx = len(header)
				added[name] = idx
				header = append(header, name)
				colsAdded = append(colsAdded, name)
			}
			columns[i][j] = idx
		}
	}

	width := len(header)
	rows := make([][]any, len(in.Rows))
	matched := 0
	for r, src := range in.Rows {
		row := make([]any, width)
		for c := range row {
			if c < len(src) {
				row[c] = src[c]
			} else {
				row[c] = ""
			}
		}

		hit := false
		for i, a := range assignments {
			o := outcomes[i]
			if o == nil {
				continue
			}
			geoid, ok := cache.GeoIDForRow(a.Mancer.ID(), r)
			if !ok {
				continue
			}
			values, ok := o.rows[geoid]
			if !ok {
				continue
			}
			hit = true
			for j, v := range values {
				idx := columns[i][j]
				if isBlank(row[idx]) {
					row[idx] = v
				}
			}
		}
		if hit {
			matched++
		}
		rows[r] = row
	}

	summary := &Summary{
		GeographyColumn: combination.Key(),
		NumRows:         len(in.Rows),
		NumMatches:      matched,
		NumMissing:      len(in.Rows) - matched,
		ColsAdded:       colsAdded,
		Errors:          []string{},
	}
	if summary.ColsAdded == nil {
		summary.ColsAdded = []string{}
	}
	return &Table{Header: header, Rows: rows}, summary
}

func observe(mancerID, operation string, start time.Time, err error) {
	metrics.MancerCallsTotal.WithLabelValues(mancerID, operation, metrics.Outcome(err)).Inc()
	metrics.MancerDurationMs.WithLabelValues(mancerID, operation).Observe(float64(time.Since(start).Milliseconds()))
}

func tableWidth(header []string, rows [][]string) int {
	width := len(header)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
