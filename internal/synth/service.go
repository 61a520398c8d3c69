// Package synth runs the end-to-end planning workflow: tokenize the
// sequence, plan or reconcile the rack layout, size reagents and deprotection,
// then persist the snapshot and record the run.
package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"peptidesynth/internal/export"
	"peptidesynth/internal/history"
	"peptidesynth/internal/layout"
	"peptidesynth/internal/plan"
	"peptidesynth/internal/residue"
)

// Settings are the physical parameters every run uses.
type Settings struct {
	MaxPerVial   int
	RackSize     int
	Direction    plan.Direction
	Reagent      residue.ReagentParams
	Deprotection DeprotectionSettings
}

// DeprotectionSettings sizes the deprotection vials.
type DeprotectionSettings struct {
	Enabled        bool
	VolumeML       float64
	InjectVolumeML float64
}

func (s Settings) options() plan.Options {
	return plan.Options{MaxPerVial: s.MaxPerVial, RackSize: s.RackSize}
}

// PlanRequest asks for a fresh layout.
type PlanRequest struct {
	// Sequence holds residue codes; each entry may be compact or space separated.
	Sequence []string
	// Layout names the snapshot to save; empty skips persistence.
	Layout string
}

// ExtendRequest reconciles a new sequence against a prior layout.
type ExtendRequest struct {
	Sequence []string
	// Layout is read for the prior snapshot when Prior is nil, and receives
	// the merged snapshot as its next generation when set.
	Layout string
	// Prior, when set, replaces the stored snapshot (e.g. an imported vial plan).
	Prior *plan.Snapshot
	// PreviousSequence is compared against the new one when Prior is set.
	PreviousSequence []plan.ResidueCode
}

// Outcome is the result of one run.
type Outcome struct {
	Operation history.Operation
	// Tokens is the sequence as written.
	Tokens        []plan.Token
	Result        plan.Result
	Deprotection  *plan.DeprotectionPlan
	Quantities    map[string]residue.Quantities
	SequenceMass  float64
	Substitutions []plan.Substitution
	// PriorDeprotectionRack is the deprotection rack recorded with the prior
	// layout, 0 when unknown.
	PriorDeprotectionRack int
	// Document is the saved snapshot; zero when no layout name was given.
	Document layout.Document
}

// DeprotectionMoved reports whether the deprotection vials must be re-racked
// because this run placed them on a different rack than the prior layout.
func (o Outcome) DeprotectionMoved() bool {
	return o.Deprotection != nil && o.PriorDeprotectionRack > 0 && o.PriorDeprotectionRack != o.Deprotection.Rack
}

// Report adapts the outcome for the exporters.
func (o Outcome) Report() export.Report {
	return export.Report{
		RackSize:     o.Result.Layout.RackSize,
		Slots:        o.Result.Slots,
		Layout:       o.Result.Layout.Slots,
		Quantities:   o.Quantities,
		Steps:        o.Result.Steps,
		Deprotection: o.Deprotection,
	}
}

// Service plans synthesis runs.
type Service struct {
	residues *residue.Table
	layouts  *layout.Store
	settings Settings
	opts     serviceOptions
	logger   *slog.Logger
}

// NewService builds a service. layouts may be nil when snapshots are not persisted.
func NewService(residues *residue.Table, layouts *layout.Store, settings Settings, opts ...Option) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if residues == nil {
		residues = residue.Default()
	}
	return &Service{
		residues: residues,
		layouts:  layouts,
		settings: settings,
		opts:     o,
		logger:   o.logger.With(slog.String("component", "synth")),
	}
}

// Residues returns the lookup table in use.
func (s *Service) Residues() *residue.Table { return s.residues }

// Plan builds a fresh layout for the sequence.
func (s *Service) Plan(ctx context.Context, req PlanRequest) (out Outcome, err error) {
	ctx, done := s.begin(ctx, history.OperationPlan)
	defer func() { done(err) }()

	tokens, err := s.residues.TokenizeArgs(req.Sequence)
	if err != nil {
		return Outcome{}, err
	}
	res, err := plan.Build(s.settings.Direction.Orient(tokens), s.settings.options())
	if err != nil {
		return Outcome{}, err
	}
	out, err = s.complete(history.OperationPlan, tokens, res)
	if err != nil {
		return Outcome{}, err
	}
	if req.Layout != "" {
		base, err := s.latestGeneration(ctx, req.Layout)
		if err != nil {
			return Outcome{}, err
		}
		if out.Document, err = s.save(ctx, req.Layout, base, out.Result.Layout, tokens); err != nil {
			return Outcome{}, err
		}
	}
	return out, s.record(ctx, out)
}

// Extend reconciles the sequence against a prior layout, appending only the
// vials the prior layout lacks.
func (s *Service) Extend(ctx context.Context, req ExtendRequest) (out Outcome, err error) {
	ctx, done := s.begin(ctx, history.OperationExtend)
	defer func() { done(err) }()

	tokens, err := s.residues.TokenizeArgs(req.Sequence)
	if err != nil {
		return Outcome{}, err
	}
	var (
		prior    plan.Snapshot
		previous []plan.ResidueCode
		base     int
	)
	switch {
	case req.Prior != nil:
		prior, previous = *req.Prior, req.PreviousSequence
		if req.Layout != "" {
			if base, err = s.latestGeneration(ctx, req.Layout); err != nil {
				return Outcome{}, err
			}
		}
	case req.Layout != "":
		if s.layouts == nil {
			return Outcome{}, errors.New("extend: no layout store configured")
		}
		doc, err := s.layouts.Latest(ctx, req.Layout)
		if err != nil {
			return Outcome{}, err
		}
		prior, previous, base = doc.Snapshot(), doc.Sequence, doc.Generation
	default:
		return Outcome{}, errors.New("extend: a layout name or prior vial plan is required")
	}

	res, err := plan.Extend(prior, s.settings.Direction.Orient(tokens), s.settings.options())
	if err != nil {
		return Outcome{}, err
	}
	out, err = s.complete(history.OperationExtend, tokens, res)
	if err != nil {
		return Outcome{}, err
	}
	out.PriorDeprotectionRack = prior.DeprotectionRack
	if out.DeprotectionMoved() {
		s.logger.Warn("deprotection rack moved", "from", prior.DeprotectionRack, "to", out.Deprotection.Rack)
	}
	if previous != nil {
		out.Substitutions = plan.CompareSequences(previous, plan.Codes(tokens))
	}
	for _, sub := range out.Substitutions {
		s.logger.Info("sequence changed", "position", sub.Position, "previous", string(sub.Previous), "current", string(sub.Current))
	}
	if req.Layout != "" {
		if out.Document, err = s.save(ctx, req.Layout, base, out.Result.Layout, tokens); err != nil {
			return Outcome{}, err
		}
	}
	return out, s.record(ctx, out)
}

func (s *Service) begin(ctx context.Context, op history.Operation) (context.Context, func(error)) {
	start := s.opts.clock.Now()
	ctx, span := s.opts.tracer.Start(ctx, string(op))
	return ctx, func(err error) {
		elapsed := s.opts.clock.Now().Sub(start)
		span.End(err)
		s.opts.recorder.Observe(ctx, string(op), err == nil, elapsed)
		if err != nil {
			s.logger.Error("run failed", "operation", string(op), "error", err)
		}
	}
}

func (s *Service) complete(op history.Operation, tokens []plan.Token, res plan.Result) (Outcome, error) {
	out := Outcome{Operation: op, Tokens: tokens, Result: res}
	mass, err := s.residues.SequenceMass(tokens)
	if err != nil {
		return Outcome{}, err
	}
	out.SequenceMass = mass
	out.Quantities = make(map[string]residue.Quantities, len(res.Units))
	for _, u := range res.Units {
		q, err := s.residues.VialQuantities(u, s.settings.Reagent)
		if err != nil {
			return Outcome{}, fmt.Errorf("vial %s: %w", u.ID(), err)
		}
		out.Quantities[u.ID()] = q
	}
	if d := s.settings.Deprotection; d.Enabled {
		dep, steps, err := plan.PlanDeprotection(res.Steps, d.VolumeML, d.InjectVolumeML, res.Layout.Racks()+1, s.settings.RackSize)
		if err != nil {
			return Outcome{}, err
		}
		out.Deprotection = &dep
		out.Result.Steps = steps
		out.Result.Layout.DeprotectionRack = dep.Rack
	} else {
		out.Result.Layout.DeprotectionRack = 0
	}
	s.opts.recorder.ObservePlan(len(res.Units), len(res.Appended), res.Racks())
	s.logger.Debug("planned",
		"operation", string(op),
		"residues", len(tokens),
		"vial_units", len(res.Units),
		"appended", len(res.Appended),
		"racks", res.Racks(),
	)
	return out, nil
}

func (s *Service) latestGeneration(ctx context.Context, name string) (int, error) {
	if s.layouts == nil {
		return 0, nil
	}
	gens, err := s.layouts.Generations(ctx, name)
	if err != nil {
		return 0, err
	}
	if len(gens) == 0 {
		return 0, nil
	}
	return gens[len(gens)-1], nil
}

func (s *Service) save(ctx context.Context, name string, base int, snap plan.Snapshot, tokens []plan.Token) (layout.Document, error) {
	if s.layouts == nil {
		return layout.Document{}, nil
	}
	doc, err := s.layouts.Save(ctx, name, base, snap, plan.Codes(tokens))
	if err != nil {
		return layout.Document{}, err
	}
	s.logger.Info("layout saved", "layout", name, "generation", doc.Generation, "vials", len(doc.Slots))
	return doc, nil
}

func (s *Service) record(ctx context.Context, out Outcome) error {
	run := history.Run{
		Layout:        out.Document.Name,
		Generation:    out.Document.Generation,
		Operation:     out.Operation,
		Sequence:      joinCodes(out.Tokens),
		Residues:      len(out.Tokens),
		VialUnits:     len(out.Result.Units),
		AppendedUnits: len(out.Result.Appended),
		Racks:         out.Result.Racks(),
		CreatedAt:     s.opts.clock.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := s.opts.history.Record(ctx, run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func joinCodes(tokens []plan.Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = string(t.Code)
	}
	return strings.Join(parts, " ")
}
