package repository

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/okian/supplyline/internal/domain/model"
	"github.com/okian/supplyline/pkg/metrics"
)

// Sharded, in-memory Store implementation.
//
// Assessments are keyed by (OEM, risk) and sharded by key hash to keep
// write contention low when a nightly batch fans out across workers.
// Ranked reads snapshot the shard maps and sort; the store is small
// (bounded by OEMs x active risks), so sorting on read is cheaper than
// maintaining an ordered structure under concurrent writes.

const defaultShardCount = 8

// Option applies a configuration option to the ShardStore.
type Option func(*ShardStore)

// WithShardCount sets the number of shards.
func WithShardCount(n int) Option {
	return func(s *ShardStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

type shard struct {
	mu      sync.RWMutex
	records map[string]model.OEMExposure
}

// ShardStore implements Store with hash-sharded maps.
type ShardStore struct {
	shardCount int
	shards     []*shard
}

// NewShardStore creates a ShardStore with the configured shard count.
func NewShardStore(opts ...Option) *ShardStore {
	s := &ShardStore{shardCount: defaultShardCount}
	for _, opt := range opts {
		opt(s)
	}
	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{records: make(map[string]model.OEMExposure)}
	}
	return s
}

func key(oemID, riskID string) string {
	return oemID + "|" + riskID
}

func (s *ShardStore) shardFor(k string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(k))
	return s.shards[int(h.Sum32())%s.shardCount]
}

// Upsert inserts or replaces the assessment for (OEM, risk).
func (s *ShardStore) Upsert(_ context.Context, e model.OEMExposure) (bool, error) {
	k := key(e.OEMID, e.RiskID)
	sh := s.shardFor(k)

	sh.mu.Lock()
	prev, existed := sh.records[k]
	sh.records[k] = e
	sh.mu.Unlock()

	metrics.UpdateStoreRecords(s.Count(context.Background()))
	return !existed || prev.ExposureScore != e.ExposureScore, nil
}

// Get returns the assessment for one (OEM, risk) pair.
func (s *ShardStore) Get(_ context.Context, oemID, riskID string) (model.OEMExposure, error) {
	k := key(oemID, riskID)
	sh := s.shardFor(k)

	sh.mu.RLock()
	defer sh.mu.RUnlock()
	if e, ok := sh.records[k]; ok {
		return e, nil
	}
	return model.OEMExposure{}, ErrNotFound
}

// ForOEM returns the OEM's assessments ranked by exposure desc.
func (s *ShardStore) ForOEM(_ context.Context, oemID string) ([]model.OEMExposure, error) {
	var out []model.OEMExposure
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, e := range sh.records {
			if e.OEMID == oemID {
				out = append(out, e)
			}
		}
		sh.mu.RUnlock()
	}
	rank(out)
	return out, nil
}

// TopN returns the n highest-exposure assessments.
func (s *ShardStore) TopN(_ context.Context, n int) ([]model.OEMExposure, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	var out []model.OEMExposure
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, e := range sh.records {
			out = append(out, e)
		}
		sh.mu.RUnlock()
	}
	rank(out)
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Count returns the number of assessments tracked.
func (s *ShardStore) Count(_ context.Context) int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.records)
		sh.mu.RUnlock()
	}
	return total
}

// rank orders by exposure score desc, OEM id asc, risk id asc. The
// deterministic tiebreak keeps pagination stable across calls.
func rank(list []model.OEMExposure) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].ExposureScore != list[j].ExposureScore {
			return list[i].ExposureScore > list[j].ExposureScore
		}
		if list[i].OEMID != list[j].OEMID {
			return list[i].OEMID < list[j].OEMID
		}
		return list[i].RiskID < list[j].RiskID
	})
}
