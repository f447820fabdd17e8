package usecase

import (
	"sync"
	"testing"

	"NotiGate/internal/domain/models"
)

func TestDigestAppendSnapshotDrain(t *testing.T) {
	d := NewDigestCache(nil)
	d.Append(eligible("BTCUSDT", "breakout", models.LevelThree))
	d.Append(eligible("ETHUSDT", "rsi", models.LevelThree))

	snap := d.Snapshot()
	if len(snap) != 2 || snap[0].Symbol != "BTCUSDT" || snap[1].Symbol != "ETHUSDT" {
		t.Fatalf("snapshot must preserve arrival order, got %v", snap)
	}

	// Mutating the snapshot must not affect the cache.
	snap[0].Symbol = "XRPUSDT"
	if d.Snapshot()[0].Symbol != "BTCUSDT" {
		t.Fatalf("snapshot must be a copy")
	}

	drained := d.Drain()
	if len(drained) != 2 || d.Len() != 0 {
		t.Fatalf("drain must clear the cache, got len=%d", d.Len())
	}
}

func TestDigestBoundDropOldest(t *testing.T) {
	d := NewDigestCache(nil, WithDigestMaxSize(2))
	d.Append(eligible("A", "t", models.LevelThree))
	d.Append(eligible("B", "t", models.LevelThree))
	d.Append(eligible("C", "t", models.LevelThree))

	snap := d.Snapshot()
	if len(snap) != 2 || snap[0].Symbol != "B" || snap[1].Symbol != "C" {
		t.Fatalf("overflow must drop oldest, got %v", snap)
	}
}

func TestDigestGroupBySymbol(t *testing.T) {
	d := NewDigestCache(nil)
	d.Append(eligible("BTCUSDT", "breakout", models.LevelThree))
	d.Append(eligible("BTCUSDT", "rsi", models.LevelThree))
	d.Append(eligible("ETHUSDT", "rsi", models.LevelThree))

	groups := d.GroupBySymbol()
	if len(groups) != 2 || len(groups["BTCUSDT"]) != 2 || len(groups["ETHUSDT"]) != 1 {
		t.Fatalf("unexpected grouping %v", groups)
	}
}

func TestDigestConcurrentAppendDrain(t *testing.T) {
	d := NewDigestCache(nil, WithDigestMaxSize(10000))
	const appenders = 8
	const perAppender = 100

	var wg sync.WaitGroup
	for i := 0; i < appenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perAppender; j++ {
				d.Append(eligible("BTCUSDT", "t", models.LevelThree))
			}
		}()
	}
	wg.Wait()

	total := len(d.Drain())
	if total != appenders*perAppender {
		t.Fatalf("appends lost: got %d want %d", total, appenders*perAppender)
	}
	if d.Len() != 0 {
		t.Fatalf("cache must be empty after drain")
	}
}
