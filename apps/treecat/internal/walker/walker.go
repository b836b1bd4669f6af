// Package walker prints every file of a commit: it lists the commit's
// recursive tree, fetches each blob and writes the decoded content out.
package walker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/tilsley/treecat/apps/treecat/internal/gitrepo"
)

const instrName = "github.com/tilsley/treecat"

// Order controls the sequence in which tree entries are visited.
type Order int

const (
	// OrderReverse visits entries last-to-first relative to the API listing.
	OrderReverse Order = iota
	// OrderNatural visits entries in API listing order.
	OrderNatural
)

func (o Order) String() string {
	if o == OrderNatural {
		return "natural"
	}
	return "reverse"
}

// Target identifies the commit to walk.
type Target struct {
	Owner     string
	Repo      string
	CommitSHA string
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%s@%s", t.Owner, t.Repo, t.CommitSHA)
}

// Summary describes a completed walk.
type Summary struct {
	Entries int // entries in the tree listing
	Blobs   int // blobs fetched and printed
	Skipped int // non-blob entries
	Bytes   int // decoded bytes written, excluding separators
}

// Walker fetches a commit's tree and prints its blobs to Out.
// Calls are strictly sequential; the first failure ends the walk.
type Walker struct {
	Client gitrepo.Client
	Out    io.Writer
	Log    *slog.Logger
	Order  Order

	tracer       trace.Tracer
	blobsPrinted metric.Int64Counter
	bytesPrinted metric.Int64Counter
	skipped      metric.Int64Counter
}

type config struct {
	tp trace.TracerProvider
	mp metric.MeterProvider
}

// Option configures a Walker.
type Option func(*config)

// WithTracerProvider sets the provider for the WalkTree and FetchBlob spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) { c.tp = tp }
}

// WithMeterProvider sets the provider for the walk counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) { c.mp = mp }
}

// New creates a Walker. Spans and metrics go to the global providers unless
// overridden with opts.
func New(client gitrepo.Client, out io.Writer, log *slog.Logger, order Order, opts ...Option) *Walker {
	cfg := config{tp: otel.GetTracerProvider(), mp: otel.GetMeterProvider()}
	for _, o := range opts {
		o(&cfg)
	}
	m := cfg.mp.Meter(instrName)

	blobsPrinted, _ := m.Int64Counter("treecat.blobs.printed",
		metric.WithDescription("Number of blobs decoded and printed"))
	bytesPrinted, _ := m.Int64Counter("treecat.bytes.printed",
		metric.WithDescription("Decoded blob bytes written"),
		metric.WithUnit("By"))
	skipped, _ := m.Int64Counter("treecat.entries.skipped",
		metric.WithDescription("Tree entries that are not blobs"))

	return &Walker{
		Client:       client,
		Out:          out,
		Log:          log,
		Order:        order,
		tracer:       cfg.tp.Tracer(instrName),
		blobsPrinted: blobsPrinted,
		bytesPrinted: bytesPrinted,
		skipped:      skipped,
	}
}

// Run walks target and writes each blob's decoded content to Out followed by
// a newline.
func (w *Walker) Run(ctx context.Context, target Target) (Summary, error) {
	ctx, span := w.trace().Start(ctx, "WalkTree",
		trace.WithAttributes(
			attribute.String("repo.owner", target.Owner),
			attribute.String("repo.name", target.Repo),
			attribute.String("commit.sha", target.CommitSHA),
		),
	)
	defer span.End()

	var sum Summary

	tree, err := w.Client.GetTreeRecursive(ctx, target.Owner, target.Repo, target.CommitSHA)
	if err != nil {
		span.RecordError(err)
		return sum, fmt.Errorf("list tree %s: %w", target, err)
	}
	sum.Entries = len(tree.Entries)
	if tree.Truncated {
		w.log().Warn("tree listing truncated; some files will not be printed",
			"target", target.String(), "entries", len(tree.Entries))
	}
	w.log().Debug("tree fetched", "target", target.String(), "entries", len(tree.Entries), "order", w.Order.String())

	for _, entry := range ordered(tree.Entries, w.Order) {
		if entry.Type != gitrepo.TypeBlob {
			sum.Skipped++
			w.add(ctx, w.skipped, 1)
			continue
		}

		n, err := w.printBlob(ctx, target, entry)
		if err != nil {
			span.RecordError(err)
			return sum, err
		}
		sum.Blobs++
		sum.Bytes += n
	}

	span.SetAttributes(attribute.Int("blobs.printed", sum.Blobs))
	return sum, nil
}

func (w *Walker) printBlob(ctx context.Context, target Target, entry gitrepo.TreeEntry) (int, error) {
	ctx, span := w.trace().Start(ctx, "FetchBlob",
		trace.WithAttributes(
			attribute.String("blob.path", entry.Path),
			attribute.String("blob.sha", entry.SHA),
		),
	)
	defer span.End()

	blob, err := w.Client.GetBlob(ctx, target.Owner, target.Repo, entry.SHA)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("fetch blob %s (%s): %w", entry.Path, entry.SHA, err)
	}

	content, err := Decode(blob)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("decode %s: %w", entry.Path, err)
	}

	if _, err := w.Out.Write(content); err != nil {
		return 0, fmt.Errorf("write %s: %w", entry.Path, err)
	}
	if _, err := io.WriteString(w.Out, "\n"); err != nil {
		return 0, fmt.Errorf("write %s: %w", entry.Path, err)
	}

	w.add(ctx, w.blobsPrinted, 1)
	w.add(ctx, w.bytesPrinted, int64(len(content)))
	w.log().Debug("blob printed", "path", entry.Path, "sha", entry.SHA, "bytes", len(content))
	return len(content), nil
}

func (w *Walker) add(ctx context.Context, c metric.Int64Counter, n int64) {
	if c != nil {
		c.Add(ctx, n)
	}
}

func (w *Walker) trace() trace.Tracer {
	if w.tracer == nil {
		return otel.Tracer(instrName)
	}
	return w.tracer
}

func (w *Walker) log() *slog.Logger {
	if w.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.Log
}

// ordered returns entries in the visiting order for o without modifying the
// input slice.
func ordered(entries []gitrepo.TreeEntry, o Order) []gitrepo.TreeEntry {
	out := slices.Clone(entries)
	if o == OrderReverse {
		slices.Reverse(out)
	}
	return out
}
