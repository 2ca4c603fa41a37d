package tagging

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/mctag/internal/event"
	"github.com/banshee-data/mctag/internal/strip"
	"github.com/banshee-data/mctag/internal/truth"
)

const (
	// DefaultInputLabel is the untagged cluster collection read by default.
	DefaultInputLabel = "siStripClusters"
	// DefaultOutputLabel is the collection the tagged clusters are put under.
	DefaultOutputLabel = "taggedClusters"

	// Output capacity hints: a typical strip tracker event carries up to
	// ~10k clusters averaging ~4 strips each.
	DefaultReserveClusters = 10000
	DefaultReserveSamples  = 4 * DefaultReserveClusters
)

// AssociatorFactory builds the truth associator for one event. It returns
// nil when rec is nil.
type AssociatorFactory func(rec *truth.Record) truth.Associator

// Config holds the producer settings. Mode is fixed for the producer's
// lifetime.
type Config struct {
	InputLabel  string
	OutputLabel string
	Mode        Mode
	Associator  truth.Config

	// ReserveClusters and ReserveSamples pre-size the output collection.
	// Zero disables the hint; output is identical either way.
	ReserveClusters int
	ReserveSamples  int

	// Workers > 1 classifies module groups concurrently. Output ordering
	// is identical to the sequential path.
	Workers int

	// NewAssociator overrides the default HitAssociator factory.
	NewAssociator AssociatorFactory
}

// DefaultConfig returns detailed-mode settings over the default labels.
func DefaultConfig() Config {
	return Config{
		InputLabel:      DefaultInputLabel,
		OutputLabel:     DefaultOutputLabel,
		Mode:            ModeDetailed,
		Associator:      truth.DefaultConfig(),
		ReserveClusters: DefaultReserveClusters,
		ReserveSamples:  DefaultReserveSamples,
		Workers:         1,
	}
}

// Stats summarises one event, or a run of events once accumulated with Add.
type Stats struct {
	Events       int `json:"events"`
	Modules      int `json:"modules"`
	Clusters     int `json:"clusters"`
	Merged       int `json:"merged"`
	Unmerged     int `json:"unmerged"`
	NoTruth      int `json:"no_truth"`
	MissingInput int `json:"missing_input"`
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Events += o.Events
	s.Modules += o.Modules
	s.Clusters += o.Clusters
	s.Merged += o.Merged
	s.Unmerged += o.Unmerged
	s.NoTruth += o.NoTruth
	s.MissingInput += o.MissingInput
}

func (s *Stats) count(v Verdict) {
	s.Clusters++
	switch v.Outcome {
	case OutcomeMerged:
		s.Merged++
	case OutcomeNoTruth:
		s.NoTruth++
	default:
		s.Unmerged++
	}
}

// Producer tags the clusters of one event at a time. It keeps no event
// state between calls to Produce, so a single Producer may serve several
// goroutines processing different events.
type Producer struct {
	cfg Config
}

// NewProducer validates cfg and returns a Producer.
func NewProducer(cfg Config) (*Producer, error) {
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMode, cfg.Mode)
	}
	if cfg.InputLabel == "" || cfg.OutputLabel == "" {
		return nil, errors.New("input and output labels must be set")
	}
	if cfg.InputLabel == cfg.OutputLabel {
		return nil, fmt.Errorf("output label %q must differ from input label", cfg.OutputLabel)
	}
	if cfg.ReserveClusters < 0 || cfg.ReserveSamples < 0 {
		return nil, fmt.Errorf("reserve hints must be non-negative, got %d/%d", cfg.ReserveClusters, cfg.ReserveSamples)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.NewAssociator == nil {
		cfg.NewAssociator = defaultAssociatorFactory(cfg.Mode, cfg.Associator)
	}
	return &Producer{cfg: cfg}, nil
}

// Config returns the producer's effective configuration.
func (p *Producer) Config() Config { return p.cfg }

func defaultAssociatorFactory(mode Mode, tc truth.Config) AssociatorFactory {
	// Simplified mode never looks at SimHits.
	tc.LinksOnly = tc.LinksOnly || mode == ModeSimplified
	return func(rec *truth.Record) truth.Associator {
		if rec == nil {
			return nil
		}
		return truth.NewHitAssociator(rec, tc)
	}
}

// Produce tags the input collection of ev and puts the result under the
// output label. The event's associator lives only for this call.
//
// A missing input collection is not an error: an empty collection is put
// and Stats.MissingInput is set. Errors are returned for a cancelled
// context or when the output label is already taken.
func (p *Producer) Produce(ctx context.Context, ev *event.Event) (*strip.DetSetVector, Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, Stats{}, err
	}
	stats := Stats{Events: 1}
	out := strip.NewDetSetVector()

	cls, err := NewClassifier(p.cfg.Mode, p.cfg.NewAssociator(ev.Truth))
	if err != nil {
		return nil, Stats{}, err
	}

	in, ok := ev.Clusters(p.cfg.InputLabel)
	if !ok {
		opsf("event %s: input %q not found, putting empty %q", ev.ID, p.cfg.InputLabel, p.cfg.OutputLabel)
		stats.MissingInput = 1
	} else {
		if !cls.HasTruth() {
			diagf("event %s: no truth record, %d clusters left untagged", ev.ID, in.DataSize())
		}
		out.Reserve(p.cfg.ReserveClusters, p.cfg.ReserveSamples)
		if p.cfg.Workers > 1 && in.Len() > 1 {
			err = p.refineParallel(ctx, cls, in, out, &stats)
		} else {
			p.refine(cls, in, out, &stats)
		}
		if err != nil {
			return nil, Stats{}, fmt.Errorf("event %s: %w", ev.ID, err)
		}
	}

	tracef("event %s: %d clusters from %d modules", ev.ID, out.DataSize(), out.Len())
	out.ShrinkToFit()
	if err := ev.Put(p.cfg.OutputLabel, out); err != nil {
		return nil, Stats{}, err
	}
	stats.Modules = out.Len()
	return out, stats, nil
}

func (p *Producer) refine(cls *Classifier, in, out *strip.DetSetVector, stats *Stats) {
	for det, clusters := range in.All() {
		fill := out.StartGroup(det)
		for _, c := range clusters {
			v := cls.Classify(c, det)
			stats.count(v)
			fill.PushRebuilt(c, v.Merged())
		}
	}
}

// refineParallel classifies module groups concurrently, then fills the
// output sequentially in input order.
func (p *Producer) refineParallel(ctx context.Context, cls *Classifier, in, out *strip.DetSetVector, stats *Stats) error {
	verdicts := make([][]Verdict, in.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i := range verdicts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			det, clusters := in.Group(i)
			vs := make([]Verdict, len(clusters))
			for j, c := range clusters {
				vs[j] = cls.Classify(c, det)
			}
			verdicts[i] = vs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, vs := range verdicts {
		det, clusters := in.Group(i)
		fill := out.StartGroup(det)
		for j, c := range clusters {
			stats.count(vs[j])
			fill.PushRebuilt(c, vs[j].Merged())
		}
	}
	return nil
}
