// Package qdrant adapts github.com/qdrant/go-client to the core's
// collaborators.VectorStore interface, following the connection-setup and
// filter-building pattern of the teacher's
// internal/persistence/databases/qdrant_vector.go adapter.
package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	gc "github.com/qdrant/go-client/qdrant"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/collaborators"
)

// Store wraps a Qdrant gRPC client. It implements collaborators.VectorStore.
type Store struct {
	client *gc.Client
}

// New dials Qdrant at dsn (e.g. "http://localhost:6334?api_key=...").
func New(dsn string) (*Store, error) {
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("qdrant: parse dsn: %w", err)
	}
	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := parsed.Port()
	if port == "" {
		port = "6334"
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("qdrant: invalid port in dsn: %w", err)
	}
	cfg := &gc.Config{Host: host, Port: portNum}
	if parsed.Scheme == "https" {
		cfg.UseTLS = true
	}
	if apiKey := parsed.Query().Get("api_key"); apiKey != "" {
		cfg.APIKey = apiKey
	}
	client, err := gc.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("qdrant: create client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error { return s.client.Close() }

func buildFilter(f *collaborators.Filter) *gc.Filter {
	if f == nil || (len(f.Must) == 0 && len(f.Should) == 0) {
		return nil
	}
	conv := func(conds []collaborators.FilterCondition) []*gc.Condition {
		out := make([]*gc.Condition, 0, len(conds))
		for _, c := range conds {
			switch {
			case c.Match != nil:
				switch v := c.Match.Value.(type) {
				case string:
					out = append(out, gc.NewMatch(c.Key, v))
				case int:
					out = append(out, gc.NewMatchInt(c.Key, int64(v)))
				case int64:
					out = append(out, gc.NewMatchInt(c.Key, v))
				case bool:
					out = append(out, gc.NewMatchBool(c.Key, v))
				default:
					out = append(out, gc.NewMatch(c.Key, fmt.Sprintf("%v", v)))
				}
			case c.Range != nil:
				r := &gc.Range{}
				if gte, ok := toFloat(c.Range.GTE); ok {
					r.Gte = &gte
				}
				if lte, ok := toFloat(c.Range.LTE); ok {
					r.Lte = &lte
				}
				out = append(out, gc.NewRange(c.Key, r))
			}
		}
		return out
	}
	return &gc.Filter{
		Must:   conv(f.Must),
		Should: conv(f.Should),
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// QueryPoints implements collaborators.VectorStore.
func (s *Store) QueryPoints(ctx context.Context, collection string, queryVector []float32, limit int, scoreThreshold float64, filter *collaborators.Filter) ([]collaborators.Point, error) {
	if limit <= 0 {
		limit = 10
	}
	lim := uint64(limit)
	threshold := float32(scoreThreshold)
	resp, err := s.client.Query(ctx, &gc.QueryPoints{
		CollectionName: collection,
		Query:          gc.NewQueryDense(queryVector),
		Limit:          &lim,
		ScoreThreshold: &threshold,
		Filter:         buildFilter(filter),
		WithPayload:    gc.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: query_points %s: %w", collection, err)
	}
	out := make([]collaborators.Point, 0, len(resp))
	for _, hit := range resp {
		out = append(out, collaborators.Point{
			ID:      pointID(hit.Id),
			Score:   float64(hit.Score),
			Payload: payloadToMap(hit.Payload),
		})
	}
	return out, nil
}

// Scroll implements collaborators.VectorStore.
func (s *Store) Scroll(ctx context.Context, collection string, filter *collaborators.Filter, limit int, offset string) ([]collaborators.Point, string, error) {
	if limit <= 0 {
		limit = 100
	}
	lim := uint32(limit)
	req := &gc.ScrollPoints{
		CollectionName: collection,
		Filter:         buildFilter(filter),
		Limit:          &lim,
		WithPayload:    gc.NewWithPayload(true),
	}
	if offset != "" {
		req.Offset = gc.NewIDUUID(offset)
	}
	resp, err := s.client.Scroll(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("qdrant: scroll %s: %w", collection, err)
	}
	out := make([]collaborators.Point, 0, len(resp))
	for _, p := range resp {
		out = append(out, collaborators.Point{
			ID:      pointID(p.Id),
			Payload: payloadToMap(p.Payload),
		})
	}
	next := ""
	if len(resp) > 0 {
		next = pointID(resp[len(resp)-1].Id)
	}
	return out, next, nil
}

// Retrieve implements collaborators.VectorStore.
func (s *Store) Retrieve(ctx context.Context, collection string, ids []string) ([]collaborators.Point, error) {
	pointIDs := make([]*gc.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, gc.NewIDUUID(id))
	}
	resp, err := s.client.Get(ctx, &gc.GetPoints{
		CollectionName: collection,
		Ids:            pointIDs,
		WithPayload:    gc.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: retrieve %s: %w", collection, err)
	}
	out := make([]collaborators.Point, 0, len(resp))
	for _, p := range resp {
		out = append(out, collaborators.Point{
			ID:      pointID(p.Id),
			Payload: payloadToMap(p.Payload),
		})
	}
	return out, nil
}

// Collections implements collaborators.VectorStore.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	resp, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("qdrant: list collections: %w", err)
	}
	return resp, nil
}

func pointID(id *gc.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return id.String()
}

func payloadToMap(payload map[string]*gc.Value) map[string]any {
	if payload == nil {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = valueToAny(v)
	}
	return out
}

func valueToAny(v *gc.Value) any {
	switch kind := v.GetKind().(type) {
	case *gc.Value_StringValue:
		return kind.StringValue
	case *gc.Value_IntegerValue:
		return kind.IntegerValue
	case *gc.Value_DoubleValue:
		return kind.DoubleValue
	case *gc.Value_BoolValue:
		return kind.BoolValue
	case *gc.Value_ListValue:
		items := kind.ListValue.GetValues()
		out := make([]any, 0, len(items))
		for _, item := range items {
			out = append(out, valueToAny(item))
		}
		return out
	case *gc.Value_StructValue:
		return payloadToMap(kind.StructValue.GetFields())
	default:
		return nil
	}
}
