// Package trace publishes a decision-trace summary for each query to Kafka,
// grounded on the teacher's cmd/orchestrator/main.go kafka.Writer setup
// (kafka.WriterConfig{Brokers, Balancer: &kafka.LeastBytes{}}), trimmed to a
// single best-effort publish per retrieval call instead of a long-lived
// consumer loop.
package trace

import (
	"context"
	"encoding/json"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
)

// Summary is the event published per query, letting a downstream consumer
// audit which verticals, rewrites, and rerank stages a query touched.
type Summary struct {
	Query             string          `json:"query"`
	QueryType         model.QueryType `json:"query_type"`
	VerticalsSearched []model.Vertical `json:"verticals_searched"`
	TotalCandidates   int             `json:"total_candidates"`
	FinalCount        int             `json:"final_count"`
	ProcessingMS      int64           `json:"processing_ms"`
	TraceSteps        []string        `json:"trace_steps"`
}

// Publisher publishes query trace summaries to a Kafka topic. A nil
// *Publisher is valid and Publish becomes a no-op, so wiring it is optional.
type Publisher struct {
	writer *kafka.Writer
	topic  string
}

// NewPublisher returns nil when brokers or topic are unset, matching
// the rest of the engine's "absent collaborator disables the feature"
// convention (see internet.ShouldEnable, cache.NewRedisQueryCache).
func NewPublisher(brokers []string, topic string) *Publisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
		},
		topic: topic,
	}
}

// Publish writes one Summary to the configured topic, swallowing errors:
// trace publication must never fail a query.
func (p *Publisher) Publish(ctx context.Context, out model.RetrievalOutput) {
	if p == nil || p.writer == nil {
		return
	}
	summary := Summary{
		Query:             out.Query,
		QueryType:         out.Interpretation.QueryType,
		VerticalsSearched: out.VerticalsSearched,
		TotalCandidates:   out.TotalCandidates,
		FinalCount:        out.FinalCount,
		ProcessingMS:      out.ProcessingTime.Milliseconds(),
		TraceSteps:        out.TraceSteps,
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_ = p.writer.WriteMessages(pubCtx, kafka.Message{Topic: p.topic, Value: payload})
}

// Close releases the underlying writer's connections.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
