package graph

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	traceScope        = "github.com/hupe1980/agentloop/graph"
	traceSpanNode     = "graph.node"
	traceAttrNode     = "graph.node.name"
	traceAttrStep     = "graph.node.step"
	traceAttrStatus   = "graph.node.status"
	traceAttrNextNode = "graph.node.next"
)

func (g *Graph[S, U]) tracer() trace.Tracer {
	if g.opts.Tracer != nil {
		return g.opts.Tracer
	}
	return otel.Tracer(traceScope)
}

func (g *Graph[S, U]) startNodeSpan(ctx context.Context, node NodeName, step int) (context.Context, trace.Span) {
	return g.tracer().Start(ctx, traceSpanNode, trace.WithAttributes(
		attribute.String(traceAttrNode, string(node)),
		attribute.Int(traceAttrStep, step),
	))
}

func markSpanResult(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(traceAttrStatus, "error"))
		return
	}
	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.String(traceAttrStatus, "success"))
}
