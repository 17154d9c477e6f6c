package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	vferrors "github.com/veriforge/veriforge/internal/errors"
)

// Span attribute keys.
const (
	AttrProject    = "veriforge.project"
	AttrProtocol   = "veriforge.protocol"
	AttrSimulator  = "veriforge.simulator"
	AttrFeatures   = "veriforge.features"
	AttrArtifacts  = "veriforge.artifacts"
	AttrWarnings   = "veriforge.warnings"
	AttrConflicts  = "veriforge.conflicts"
	AttrStatus     = "veriforge.status"
	AttrErrorCode  = "error.code"
	AttrErrorSubj  = "error.subject"
	AttrOnConflict = "veriforge.on_conflict"
)

// Span names, one per pipeline stage.
const (
	SpanGenerate    = "generate"
	SpanResolve     = "generate.resolve"
	SpanDerive      = "generate.derive"
	SpanSynthesize  = "generate.synthesize"
	SpanMaterialize = "generate.materialize"
	SpanPlan        = "generate.plan"
)

// StartStage starts a child span for one stage.
func StartStage(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndStage records err on span, if any, and ends it.
func EndStage(span trace.Span, err error) {
	if err != nil {
		d := vferrors.Describe(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorCode, string(d.Code)), attribute.String(AttrErrorSubj, d.Subject))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
