package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/csheth/studybot/internal/kv"
)

// Cache keeps the latest pie metric and the latest list of bar metrics for
// the dashboard. Each save fully replaces the slot it writes.
type Cache struct {
	store kv.Store
	log   *zap.Logger
}

func NewCache(store kv.Store, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{store: store, log: log}
}

// SaveLatest writes the pie slot when set has a pie and the bar slot when set
// has at least one bar. The two writes are independent.
func (c *Cache) SaveLatest(ctx context.Context, set Set) error {
	var errs []error
	if set.Pie != nil && len(set.PieRaw) > 0 {
		if err := c.store.Set(ctx, kv.KeyPieMetric, string(set.PieRaw)); err != nil {
			errs = append(errs, fmt.Errorf("save pie metric: %w", err))
		}
	}
	if len(set.BarsRaw) > 0 {
		buf, err := json.Marshal(set.BarsRaw)
		if err == nil {
			err = c.store.Set(ctx, kv.KeyBarMetrics, string(buf))
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("save bar metrics: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		c.log.Warn("metric cache write failed", zap.Error(err))
		return err
	}
	return nil
}

// LoadPie returns the cached pie metric. A corrupt slot reads as absent.
func (c *Cache) LoadPie(ctx context.Context) (Metric, bool, error) {
	raw, ok, err := c.store.Get(ctx, kv.KeyPieMetric)
	if err != nil || !ok {
		return Metric{}, false, err
	}
	m, err := Decode(json.RawMessage(raw))
	if err != nil {
		c.log.Debug("ignoring corrupt pie slot", zap.Error(err))
		return Metric{}, false, nil
	}
	return m, true, nil
}

// LoadBars returns the cached bar metrics. Corrupt entries are skipped.
func (c *Cache) LoadBars(ctx context.Context) ([]Metric, error) {
	raw, ok, err := c.store.Get(ctx, kv.KeyBarMetrics)
	if err != nil || !ok {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		c.log.Debug("ignoring corrupt bar slot", zap.Error(err))
		return nil, nil
	}
	bars := make([]Metric, 0, len(items))
	for _, item := range items {
		m, err := Decode(item)
		if err != nil {
			continue
		}
		bars = append(bars, m)
	}
	return bars, nil
}
