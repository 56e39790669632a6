package redis

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/risk"
	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/search"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

const (
	defaultRecentDays  = 7
	defaultListLimit   = 10
	defaultSweepBatch  = 100
	indexScanCeiling   = 1000
	defaultStorePrefix = "erisk"
)

// Store persists search records and risk assessment records in Redis.
//
// Search records are keyed by (query, timestamp) with two secondary
// indexes: a per-query-hash sorted set for latest-by-hash lookups and a
// global recency sorted set for recent-search listings. Risk records
// are keyed by their UUID. Every record carries both a Redis TTL and an
// explicit expires_at; the expiry sorted sets let SweepExpired prune
// index entries whose records have already lapsed.
type Store struct {
	client     *Client
	logger     logging.Logger
	prefix     string
	searchTTL  time.Duration
	riskTTL    time.Duration
	sweepBatch int
	now        func() time.Time
	metrics    *prometheus.AppMetrics
}

type StoreOption func(*Store)

func WithKeyPrefix(prefix string) StoreOption {
	return func(s *Store) { s.prefix = prefix }
}

func WithSearchTTL(ttl time.Duration) StoreOption {
	return func(s *Store) { s.searchTTL = ttl }
}

func WithRiskTTL(ttl time.Duration) StoreOption {
	return func(s *Store) { s.riskTTL = ttl }
}

func WithSweepBatchSize(n int) StoreOption {
	return func(s *Store) { s.sweepBatch = n }
}

// WithMetrics records per-operation store metrics.
func WithMetrics(m *prometheus.AppMetrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

func NewStore(client *Client, log logging.Logger, opts ...StoreOption) *Store {
	s := &Store{
		client:     client,
		logger:     log,
		prefix:     defaultStorePrefix,
		searchTTL:  search.DefaultRecordTTL,
		riskTTL:    risk.DefaultRecordTTL,
		sweepBatch: defaultSweepBatch,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// observe is deferred by every public operation; a nil metrics catalog
// makes it a no-op.
func (s *Store) observe(op string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	prometheus.RecordStoreOperation(s.metrics, op, time.Since(start), err)
}

// Key layout. The query is escaped so the composite key stays
// splittable on colons, but no code path parses keys back; lookups
// that need record identity go through the index sets.

func (s *Store) searchKey(query string, ts time.Time) string {
	return s.prefix + ":search:" + escapeQuery(query) + ":" + strconv.FormatInt(ts.UTC().UnixMilli(), 10)
}

func (s *Store) hashIndexKey(queryHash string) string {
	return s.prefix + ":search:idx:" + queryHash
}

func (s *Store) recentIndexKey() string {
	return s.prefix + ":search:recent"
}

func (s *Store) searchExpiryKey() string {
	return s.prefix + ":search:exp"
}

func (s *Store) riskKey(recordID string) string {
	return s.prefix + ":risk:" + recordID
}

func (s *Store) riskIndexKey() string {
	return s.prefix + ":risk:idx"
}

func (s *Store) riskExpiryKey() string {
	return s.prefix + ":risk:exp"
}

// escapeQuery percent-encodes the query so distinct queries never share
// a composite key and colons inside the query never break key splitting.
func escapeQuery(query string) string {
	return url.QueryEscape(query)
}

// PutSearchRecord writes the record and registers it in the hash,
// recency and expiry indexes. Re-putting the same (query, timestamp)
// overwrites the previous document; the index adds are idempotent.
func (s *Store) PutSearchRecord(ctx context.Context, rec *search.Record) (err error) {
	start := time.Now()
	defer func() { s.observe("put_search_record", start, err) }()
	if rec == nil {
		return errors.InvalidParam("search record is required")
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	key := s.searchKey(rec.Query, rec.Timestamp)
	score := float64(rec.Timestamp.UTC().UnixMilli())
	ttl := s.remainingTTL(rec.ExpiresAt, s.searchTTL)

	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, ttl)
	pipe.ZAdd(ctx, s.hashIndexKey(rec.QueryHash), goredis.Z{Score: score, Member: key})
	pipe.ZAdd(ctx, s.recentIndexKey(), goredis.Z{Score: score, Member: key})
	pipe.ZAdd(ctx, s.searchExpiryKey(), goredis.Z{Score: float64(rec.ExpiresAt.UTC().Unix()), Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to store search record")
	}

	s.logger.Debug("search record stored",
		logging.String("query", rec.Query),
		logging.String("query_hash", rec.QueryHash),
		logging.Int("results", rec.TotalResults),
	)
	return nil
}

// UpdateSearchRecord rewrites an existing record in place. Concurrent
// updates resolve last-write-wins; the document carries its own
// updated_at for auditing.
func (s *Store) UpdateSearchRecord(ctx context.Context, rec *search.Record) error {
	return s.PutSearchRecord(ctx, rec)
}

func (s *Store) GetSearchRecord(ctx context.Context, query string, ts time.Time) (out *search.Record, err error) {
	start := time.Now()
	defer func() { s.observe("get_search_record", start, err) }()
	data, err := s.client.Get(ctx, s.searchKey(query, ts)).Bytes()
	if err == goredis.Nil {
		return nil, errors.New(errors.ErrCodeStoreRecordNotFound, "search record not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to read search record")
	}
	var rec search.Record
	if err := decodeRecord(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// LatestSearchByHash returns the most recent record for a query hash.
// Index members whose record has expired under its Redis TTL are
// removed as they are encountered.
func (s *Store) LatestSearchByHash(ctx context.Context, queryHash string) (out *search.Record, err error) {
	start := time.Now()
	defer func() { s.observe("latest_search_by_hash", start, err) }()
	idxKey := s.hashIndexKey(queryHash)
	members, err := s.client.ZRevRangeWithScores(ctx, idxKey, 0, int64(s.sweepBatch)).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to read search index")
	}
	for _, m := range members {
		key, ok := m.Member.(string)
		if !ok {
			continue
		}
		data, err := s.client.Get(ctx, key).Bytes()
		if err == goredis.Nil {
			s.client.ZRem(ctx, idxKey, key)
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to read search record")
		}
		var rec search.Record
		if err := decodeRecord(data, &rec); err != nil {
			return nil, err
		}
		return &rec, nil
	}
	return nil, errors.New(errors.ErrCodeStoreRecordNotFound, "no search record for query hash")
}

// RecentSearches lists records searched within the last daysBack days,
// newest first. Zero or negative arguments fall back to 7 days and 10
// records.
func (s *Store) RecentSearches(ctx context.Context, daysBack, limit int) (recs []*search.Record, err error) {
	start := time.Now()
	defer func() { s.observe("recent_searches", start, err) }()
	if daysBack <= 0 {
		daysBack = defaultRecentDays
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	cutoff := s.now().UTC().AddDate(0, 0, -daysBack).UnixMilli()
	keys, err := s.client.ZRevRangeByScore(ctx, s.recentIndexKey(), &goredis.ZRangeBy{
		Min:   strconv.FormatInt(cutoff, 10),
		Max:   "+inf",
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to list recent searches")
	}
	return s.fetchSearchRecords(ctx, keys)
}

// SearchByKeywords scans recent records for queries containing any of
// the given keywords, case-insensitively, deduplicated by query hash
// with the newest record winning.
func (s *Store) SearchByKeywords(ctx context.Context, keywords []string, limit int) (recs []*search.Record, err error) {
	start := time.Now()
	defer func() { s.observe("search_by_keywords", start, err) }()
	if len(keywords) == 0 {
		return nil, errors.InvalidParam("at least one keyword is required")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}
	if len(lowered) == 0 {
		return nil, errors.InvalidParam("at least one keyword is required")
	}

	keys, err := s.client.ZRevRangeWithScores(ctx, s.recentIndexKey(), 0, indexScanCeiling-1).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to scan search index")
	}

	seen := make(map[string]struct{})
	var matches []*search.Record
	for _, m := range keys {
		key, ok := m.Member.(string)
		if !ok {
			continue
		}
		data, err := s.client.Get(ctx, key).Bytes()
		if err == goredis.Nil {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to read search record")
		}
		var rec search.Record
		if err := decodeRecord(data, &rec); err != nil {
			return nil, err
		}
		if _, dup := seen[rec.QueryHash]; dup {
			continue
		}
		query := strings.ToLower(rec.Query)
		for _, kw := range lowered {
			if strings.Contains(query, kw) {
				seen[rec.QueryHash] = struct{}{}
				matches = append(matches, &rec)
				break
			}
		}
		if len(matches) >= limit {
			break
		}
	}
	return matches, nil
}

func (s *Store) PutRiskRecord(ctx context.Context, rec *risk.Record) (err error) {
	start := time.Now()
	defer func() { s.observe("put_risk_record", start, err) }()
	if rec == nil {
		return errors.InvalidParam("risk record is required")
	}
	if rec.RecordID == "" {
		return errors.InvalidParam("risk record id is required")
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	key := s.riskKey(rec.RecordID)
	score := float64(rec.CreatedAt.UTC().UnixMilli())
	ttl := s.remainingTTL(rec.ExpiresAt, s.riskTTL)

	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, ttl)
	pipe.ZAdd(ctx, s.riskIndexKey(), goredis.Z{Score: score, Member: key})
	pipe.ZAdd(ctx, s.riskExpiryKey(), goredis.Z{Score: float64(rec.ExpiresAt.UTC().Unix()), Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to store risk record")
	}

	s.logger.Debug("risk record stored",
		logging.String("record_id", rec.RecordID),
		logging.String("entity_name", rec.EntityName),
		logging.String("risk_level", string(rec.RiskLevel)),
	)
	return nil
}

func (s *Store) GetRiskRecord(ctx context.Context, recordID string) (out *risk.Record, err error) {
	start := time.Now()
	defer func() { s.observe("get_risk_record", start, err) }()
	data, err := s.client.Get(ctx, s.riskKey(recordID)).Bytes()
	if err == goredis.Nil {
		return nil, errors.New(errors.ErrCodeRiskRecordNotFound, "risk record not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to read risk record")
	}
	var rec risk.Record
	if err := decodeRecord(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// RiskFilter narrows ListRiskRecords. Zero values match everything.
type RiskFilter struct {
	EntityName string
	Level      risk.Level
	Limit      int
}

// ListRiskRecords returns assessments newest first, optionally filtered
// by entity name (case-insensitive) and risk level.
func (s *Store) ListRiskRecords(ctx context.Context, filter RiskFilter) (recs []*risk.Record, err error) {
	start := time.Now()
	defer func() { s.observe("list_risk_records", start, err) }()
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	members, err := s.client.ZRevRangeWithScores(ctx, s.riskIndexKey(), 0, indexScanCeiling-1).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to scan risk index")
	}

	var out []*risk.Record
	for _, m := range members {
		key, ok := m.Member.(string)
		if !ok {
			continue
		}
		data, err := s.client.Get(ctx, key).Bytes()
		if err == goredis.Nil {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to read risk record")
		}
		var rec risk.Record
		if err := decodeRecord(data, &rec); err != nil {
			return nil, err
		}
		if filter.EntityName != "" && !strings.EqualFold(rec.EntityName, filter.EntityName) {
			continue
		}
		if filter.Level != "" && rec.RiskLevel != filter.Level {
			continue
		}
		out = append(out, &rec)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Statistics summarizes the stored corpus. Breakdowns are computed over
// at most the newest thousand records per index; totals come from the
// index cardinalities and stay exact.
type Statistics struct {
	TotalSearchRecords int64            `json:"total_search_records"`
	TotalRiskRecords   int64            `json:"total_risk_records"`
	RecordsByStatus    map[string]int64 `json:"records_by_status"`
	RecordsByType      map[string]int64 `json:"records_by_type"`
	RiskLevelCounts    map[string]int64 `json:"risk_level_counts"`
	AverageRiskScore   float64          `json:"average_risk_score"`
}

func (s *Store) Statistics(ctx context.Context) (out *Statistics, err error) {
	start := time.Now()
	defer func() { s.observe("statistics", start, err) }()
	stats := &Statistics{
		RecordsByStatus: make(map[string]int64),
		RecordsByType:   make(map[string]int64),
		RiskLevelCounts: make(map[string]int64),
	}

	searchTotal, err := s.client.ZCard(ctx, s.recentIndexKey()).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to count search records")
	}
	riskTotal, err := s.client.ZCard(ctx, s.riskIndexKey()).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to count risk records")
	}
	stats.TotalSearchRecords = searchTotal
	stats.TotalRiskRecords = riskTotal

	searchKeys, err := s.client.ZRevRangeWithScores(ctx, s.recentIndexKey(), 0, indexScanCeiling-1).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to scan search index")
	}
	searchRecs, err := s.fetchSearchRecordsFromMembers(ctx, searchKeys)
	if err != nil {
		return nil, err
	}
	for _, rec := range searchRecs {
		stats.RecordsByStatus[rec.Status]++
		stats.RecordsByType[rec.RecordType]++
	}

	riskRecs, err := s.ListRiskRecords(ctx, RiskFilter{Limit: indexScanCeiling})
	if err != nil {
		return nil, err
	}
	var scoreSum float64
	for _, rec := range riskRecs {
		stats.RiskLevelCounts[string(rec.RiskLevel)]++
		scoreSum += rec.OverallRiskScore
	}
	if len(riskRecs) > 0 {
		stats.AverageRiskScore = scoreSum / float64(len(riskRecs))
	}
	return stats, nil
}

// SweepExpired deletes records whose expires_at has passed and prunes
// them from the recency and expiry indexes. Per-hash index entries are
// not tracked here; LatestSearchByHash drops stale members lazily.
func (s *Store) SweepExpired(ctx context.Context) (swept int64, err error) {
	start := time.Now()
	defer func() { s.observe("sweep_expired", start, err) }()
	now := strconv.FormatInt(s.now().UTC().Unix(), 10)

	type sweepTarget struct {
		expiryKey  string
		indexKey   string
		recordType string
	}
	targets := []sweepTarget{
		{expiryKey: s.searchExpiryKey(), indexKey: s.recentIndexKey(), recordType: "search"},
		{expiryKey: s.riskExpiryKey(), indexKey: s.riskIndexKey(), recordType: "risk"},
	}

	for _, target := range targets {
		for {
			keys, err := s.client.ZRangeByScore(ctx, target.expiryKey, &goredis.ZRangeBy{
				Min:   "-inf",
				Max:   now,
				Count: int64(s.sweepBatch),
			}).Result()
			if err != nil {
				return swept, errors.Wrap(err, errors.ErrCodeStoreSweepFailed, "failed to scan expiry index")
			}
			if len(keys) == 0 {
				break
			}

			members := make([]interface{}, len(keys))
			for i, k := range keys {
				members[i] = k
			}
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return swept, errors.Wrap(err, errors.ErrCodeStoreSweepFailed, "failed to delete expired records")
			}
			if err := s.client.ZRem(ctx, target.indexKey, members...).Err(); err != nil {
				return swept, errors.Wrap(err, errors.ErrCodeStoreSweepFailed, "failed to prune record index")
			}
			if err := s.client.ZRem(ctx, target.expiryKey, members...).Err(); err != nil {
				return swept, errors.Wrap(err, errors.ErrCodeStoreSweepFailed, "failed to prune expiry index")
			}
			swept += int64(len(keys))
			if s.metrics != nil {
				s.metrics.StoreRecordsSwept.WithLabelValues(target.recordType).Add(float64(len(keys)))
			}

			if len(keys) < s.sweepBatch {
				break
			}
		}
	}

	if swept > 0 {
		s.logger.Info("expired records swept", logging.Int64("count", swept))
	}
	return swept, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *Store) fetchSearchRecords(ctx context.Context, keys []string) ([]*search.Record, error) {
	out := make([]*search.Record, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err == goredis.Nil {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to read search record")
		}
		var rec search.Record
		if err := decodeRecord(data, &rec); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, nil
}

func (s *Store) fetchSearchRecordsFromMembers(ctx context.Context, members []goredis.Z) ([]*search.Record, error) {
	keys := make([]string, 0, len(members))
	for _, m := range members {
		if key, ok := m.Member.(string); ok {
			keys = append(keys, key)
		}
	}
	return s.fetchSearchRecords(ctx, keys)
}

func (s *Store) remainingTTL(expiresAt time.Time, fallback time.Duration) time.Duration {
	if expiresAt.IsZero() {
		return fallback
	}
	remaining := time.Until(expiresAt)
	if remaining <= 0 {
		return fallback
	}
	return remaining
}
