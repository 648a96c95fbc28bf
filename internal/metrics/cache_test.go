package metrics

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/csheth/studybot/internal/kv"
)

func TestCacheSaveLatestOverwritesSlots(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	cache := NewCache(store, nil)

	first := Extract([]json.RawMessage{
		json.RawMessage(`{"type":"pie","title":"old","labels":["A"],"datasets":[{"data":[1]}]}`),
		json.RawMessage(`{"type":"bar","title":"b1"}`),
		json.RawMessage(`{"type":"bar","title":"b2"}`),
	})
	if err := cache.SaveLatest(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := Extract([]json.RawMessage{json.RawMessage(`{"type":"bar","title":"b3"}`)})
	if err := cache.SaveLatest(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	pie, ok, err := cache.LoadPie(ctx)
	if err != nil || !ok {
		t.Fatalf("load pie: ok=%v err=%v", ok, err)
	}
	if pie.Title != "old" {
		t.Fatalf("pie slot should survive a bar-only response, got %q", pie.Title)
	}
	bars, err := cache.LoadBars(ctx)
	if err != nil {
		t.Fatalf("load bars: %v", err)
	}
	if len(bars) != 1 || bars[0].Title != "b3" {
		t.Fatalf("bar slot should be fully replaced, got %+v", bars)
	}
}

func TestCacheEmptySetWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	if err := NewCache(store, nil).SaveLatest(ctx, Set{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	for _, key := range []string{kv.KeyPieMetric, kv.KeyBarMetrics} {
		if _, ok, _ := store.Get(ctx, key); ok {
			t.Fatalf("%s should not be written", key)
		}
	}
}

func TestCacheCorruptSlotsReadAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	store.Set(ctx, kv.KeyPieMetric, "{not json")
	store.Set(ctx, kv.KeyBarMetrics, `[{"type":"bar","title":"ok"}, 12, {"type":"bar","labels":{}}]`)
	cache := NewCache(store, nil)

	if _, ok, err := cache.LoadPie(ctx); ok || err != nil {
		t.Fatalf("corrupt pie should read as absent, ok=%v err=%v", ok, err)
	}
	bars, err := cache.LoadBars(ctx)
	if err != nil {
		t.Fatalf("load bars: %v", err)
	}
	if len(bars) != 2 || bars[0].Title != "ok" {
		t.Fatalf("unexpected bars: %+v", bars)
	}
}
