package out

import (
	"context"
	"fmt"
	"slices"
	"time"

	"worklens/internal/modules/analysis/domain"
	analysisout "worklens/internal/modules/analysis/port/out"
	"worklens/internal/platform/entitystore"
)

const analysesCollection = "analyses"

type recordDocument struct {
	ID                string    `json:"id"`
	SessionID         string    `json:"session_id"`
	StartNS           int64     `json:"start_ns"`
	StartTimestamp    time.Time `json:"start_timestamp"`
	EndTimestamp      time.Time `json:"end_timestamp"`
	AnalysisType      string    `json:"analysis_type"`
	SourceActivityIDs []string  `json:"source_activity_ids"`
	LLMResponse       string    `json:"llm_response"`
	CreatedAt         time.Time `json:"created_at"`
}

type SQLiteRecordStore struct {
	store *entitystore.Store
}

func NewSQLiteRecordStore(store *entitystore.Store) analysisout.RecordStore {
	return &SQLiteRecordStore{store: store}
}

func (s *SQLiteRecordStore) Upsert(ctx context.Context, record domain.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	sources := record.SourceActivityIDs
	if sources == nil {
		sources = []string{}
	}
	doc := recordDocument{
		ID:                record.ID,
		SessionID:         record.SessionID,
		StartNS:           record.Start.UTC().UnixNano(),
		StartTimestamp:    record.Start.UTC(),
		EndTimestamp:      record.End.UTC(),
		AnalysisType:      string(record.Type),
		SourceActivityIDs: sources,
		LLMResponse:       record.Response,
		CreatedAt:         record.CreatedAt.UTC(),
	}
	if _, err := s.store.Upsert(ctx, analysesCollection, record.ID, doc); err != nil {
		return fmt.Errorf("upsert analysis: %w", err)
	}
	return nil
}

func (s *SQLiteRecordStore) Find(ctx context.Context, query analysisout.RecordQuery) ([]domain.Record, error) {
	q := entitystore.Query{
		Where:  []entitystore.Condition{entitystore.Where("session_id", entitystore.Eq, query.SessionID)},
		SortBy: "start_ns",
		Order:  entitystore.Asc,
	}
	if query.Type != "" {
		q.Where = append(q.Where, entitystore.Where("analysis_type", entitystore.Eq, string(query.Type)))
	}
	if !query.Until.IsZero() {
		q.Where = append(q.Where, entitystore.Where("start_ns", entitystore.Lte, query.Until))
	}
	if query.Limit > 0 {
		q.Order = entitystore.Desc
		q.Limit = query.Limit
	}
	docs, err := entitystore.QueryAs[recordDocument](ctx, s.store, analysesCollection, q)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	out := make([]domain.Record, 0, len(docs))
	for _, doc := range docs {
		out = append(out, domain.Record{
			ID:                doc.ID,
			SessionID:         doc.SessionID,
			Start:             doc.StartTimestamp.UTC(),
			End:               doc.EndTimestamp.UTC(),
			Type:              domain.Type(doc.AnalysisType),
			SourceActivityIDs: doc.SourceActivityIDs,
			Response:          doc.LLMResponse,
			CreatedAt:         doc.CreatedAt.UTC(),
		})
	}
	if q.Order == entitystore.Desc {
		slices.Reverse(out)
	}
	return out, nil
}
