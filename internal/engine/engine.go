// Package engine runs one generation: resolve the request against the
// catalog, derive identifiers, synthesize artifacts and materialize them.
// Every validation failure is reported before the disk is touched.
package engine

import (
	"context"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/veriforge/veriforge/internal/domain/catalog"
	vferrors "github.com/veriforge/veriforge/internal/errors"
	"github.com/veriforge/veriforge/internal/log"
	"github.com/veriforge/veriforge/internal/materialize"
	"github.com/veriforge/veriforge/internal/naming"
	"github.com/veriforge/veriforge/internal/synth"
	"github.com/veriforge/veriforge/internal/tracing"
)

// Request is one generation request.
type Request struct {
	catalog.Request
	Root       string // parent directory of the project directory
	OnConflict materialize.ConflictPolicy
	DryRun     bool // plan only; nothing is written
}

// GenerationResult is the terminal output of a run.
type GenerationResult struct {
	Status           materialize.Status        `json:"status"`
	Project          string                    `json:"project"`
	ProjectDir       string                    `json:"project_dir"`
	ArtifactsWritten []string                  `json:"artifacts_written"`
	Conflicts        []string                  `json:"conflicts,omitempty"`
	Warnings         []string                  `json:"warnings"`
	Plan             []materialize.PlannedFile `json:"plan,omitempty"`
	Error            *vferrors.Descriptor      `json:"error,omitempty"`
}

// Engine wires the pipeline stages. It holds only immutable state and may
// run concurrent generations for different project directories.
type Engine struct {
	catalog *catalog.Catalog
	synth   *synth.Synthesizer
	mat     *materialize.Materializer
	tracer  trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithTracer sets the tracer for stage spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithMaterializer replaces the default OS-backed materializer.
func WithMaterializer(m *materialize.Materializer) Option {
	return func(e *Engine) { e.mat = m }
}

// New returns an Engine over cat and s.
func New(cat *catalog.Catalog, s *synth.Synthesizer, opts ...Option) *Engine {
	e := &Engine{
		catalog: cat,
		synth:   s,
		mat:     materialize.NewOS(),
		tracer:  noop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate runs the pipeline. The result is always non-nil; on failure its
// Status is StatusFailed, Error describes the cause and the same error is
// returned. A conflict under the abort policy is not an error.
func (e *Engine) Generate(ctx context.Context, req Request) (*GenerationResult, error) {
	res := &GenerationResult{Project: req.ProjectName, Warnings: []string{}, ArtifactsWritten: []string{}}
	ctx, span := e.tracer.Start(ctx, tracing.SpanGenerate, trace.WithAttributes(
		attribute.String(tracing.AttrProject, req.ProjectName),
		attribute.String(tracing.AttrOnConflict, string(req.OnConflict)),
	))

	err := e.generate(ctx, req, res)
	if err != nil {
		res.Status = materialize.StatusFailed
		res.Error = vferrors.Describe(err)
		log.ErrorErr(log.CatEngine, "generation failed", err, "project", req.ProjectName)
	}
	span.SetAttributes(attribute.String(tracing.AttrStatus, string(res.Status)))
	tracing.EndStage(span, err)
	return res, err
}

func (e *Engine) generate(ctx context.Context, req Request, res *GenerationResult) error {
	policy := req.OnConflict
	if policy == "" {
		policy = materialize.OnConflictAbort
	}
	if _, err := materialize.ParsePolicy(string(policy)); err != nil {
		return err
	}

	_, span := tracing.StartStage(ctx, e.tracer, tracing.SpanResolve,
		attribute.String(tracing.AttrProtocol, req.Protocol),
		attribute.String(tracing.AttrSimulator, req.Simulator))
	spec, err := e.catalog.Resolve(req.Request)
	tracing.EndStage(span, err)
	if err != nil {
		return err
	}
	res.Project = spec.ProjectName()
	res.ProjectDir = filepath.Join(req.Root, spec.ProjectName())

	_, span = tracing.StartStage(ctx, e.tracer, tracing.SpanDerive,
		attribute.String(tracing.AttrProtocol, spec.Protocol().Name()))
	ids, err := naming.Derive(spec.ProjectName(), spec.Protocol().Profile(), e.catalog.Naming())
	tracing.EndStage(span, err)
	if err != nil {
		return err
	}

	synthCtx, span := tracing.StartStage(ctx, e.tracer, tracing.SpanSynthesize,
		attribute.String(tracing.AttrFeatures, strings.Join(spec.Features().Names(), ",")))
	out, err := e.synth.Synthesize(synthCtx, spec, ids)
	if err == nil {
		span.SetAttributes(
			attribute.Int(tracing.AttrArtifacts, len(out.Artifacts)),
			attribute.Int(tracing.AttrWarnings, len(out.Warnings)))
	}
	tracing.EndStage(span, err)
	if err != nil {
		return err
	}
	res.Warnings = append(res.Warnings, out.Warnings...)
	for _, w := range out.Warnings {
		log.Warn(log.CatEngine, w, "project", spec.ProjectName())
	}

	if req.DryRun {
		_, span = tracing.StartStage(ctx, e.tracer, tracing.SpanPlan)
		plan, err := e.mat.Plan(req.Root, spec.ProjectName(), out.Artifacts)
		tracing.EndStage(span, err)
		if err != nil {
			return err
		}
		res.Plan = plan
		res.Status = materialize.StatusSuccess
		return nil
	}

	_, span = tracing.StartStage(ctx, e.tracer, tracing.SpanMaterialize)
	mres, err := e.mat.Materialize(req.Root, spec.ProjectName(), out.Artifacts, policy)
	span.SetAttributes(attribute.Int(tracing.AttrConflicts, len(mres.Conflicts)))
	tracing.EndStage(span, err)
	res.Conflicts = mres.Conflicts
	if err != nil {
		return err
	}
	res.Status = mres.Status
	res.ArtifactsWritten = append(res.ArtifactsWritten, mres.Written...)
	if mres.Status == materialize.StatusConflict {
		res.Error = &vferrors.Descriptor{
			Code:    vferrors.EConflict,
			Message: "target files already exist; rerun with on_conflict=overwrite to replace them",
			Subject: res.ProjectDir,
		}
	}
	return nil
}
