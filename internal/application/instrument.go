package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-cartmanager/internal/observability"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/observability/logctx"
)

const (
	spanPrefix     = "UC."
	OutcomeSuccess = "success"
	OutcomeNoop    = "noop"
	OutcomeError   = "error"
)

// Classifier maps a use case error to its (outcome, status) pair.
// Only OutcomeError marks the span as failed.
type Classifier func(err error) (outcome, status string)

// Instrumentation holds the instruments shared by the use cases of one service.
type Instrumentation struct {
	log       observability.Logger
	tracer    observability.Tracer
	requests  observability.Counter   // usecase_requests_total{use_case,outcome}
	durations observability.Histogram // usecase_duration_seconds{use_case}
	classify  Classifier
}

func NewInstrumentation(tel observability.Observability, service string, classify Classifier) *Instrumentation {
	if tel == nil {
		tel = observability.Nop()
	}
	if classify == nil {
		classify = func(error) (string, string) { return OutcomeError, "INTERNAL" }
	}
	m := tel.Metrics()
	return &Instrumentation{
		log:       tel.Logger().With(observability.F("service", service)),
		tracer:    tel.Tracer(),
		requests:  m.Counter(observability.MUsecaseRequests),
		durations: m.Histogram(observability.MUsecaseDuration),
		classify:  classify,
	}
}

func (in *Instrumentation) Logger() observability.Logger { return in.log }

// Op is one named use case; its span is "UC.<spanName>".
type Op struct {
	in       *Instrumentation
	name     string
	span     string
	duration observability.BoundHistogram
}

func (in *Instrumentation) Op(name, spanName string) *Op {
	return &Op{
		in:       in,
		name:     name,
		span:     spanPrefix + spanName,
		duration: in.durations.Bind(observability.L("use_case", name)),
	}
}

// Invocation tracks one run of an Op: a span, RED metrics and a single
// use_case_done log line written by End.
type Invocation struct {
	op     *Op
	ctx    context.Context
	span   trace.Span
	logger observability.Logger
	start  time.Time
	fields []observability.Field
}

// Begin starts the span and stores a logger carrying use_case and fields in ctx.
func (o *Op) Begin(ctx context.Context, fields ...observability.Field) (context.Context, *Invocation) {
	ctx, span := o.in.tracer.Start(ctx, o.span, attribute.String("use_case", o.name))

	logFields := append([]observability.Field{observability.F("use_case", o.name)}, fields...)
	ctx = logctx.WithFields(ctx, o.in.log, logFields...)
	return ctx, &Invocation{
		op:     o,
		ctx:    ctx,
		span:   span,
		logger: logctx.From(ctx),
		start:  time.Now(),
	}
}

func (iv *Invocation) SetAttributes(kv ...attribute.KeyValue) {
	iv.span.SetAttributes(kv...)
}

// Note adds fields to the final use_case_done line.
func (iv *Invocation) Note(fields ...observability.Field) {
	iv.fields = append(iv.fields, fields...)
}

func (iv *Invocation) End(err error) {
	outcome, status := OutcomeSuccess, "OK"
	if err != nil {
		outcome, status = iv.op.in.classify(err)
	}
	lat := time.Since(iv.start).Seconds()

	if outcome == OutcomeError {
		iv.span.RecordError(err)
		iv.span.SetStatus(codes.Error, status)
	} else {
		iv.span.SetStatus(codes.Ok, status)
	}
	iv.span.End()

	iv.op.in.requests.Add(1,
		observability.L("use_case", iv.op.name),
		observability.L("outcome", outcome),
	)
	iv.op.duration.Observe(lat)

	fields := append([]observability.Field{
		observability.F("outcome", outcome),
		observability.F("status", status),
		observability.F("latency_seconds", lat),
	}, iv.fields...)
	if sc := trace.SpanContextFromContext(iv.ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	if err != nil {
		fields = append(fields, observability.Err(err))
	}
	iv.logger.Info("use_case_done", fields...)
}

