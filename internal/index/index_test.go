package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/auction-mirror/internal/catalog"
	"github.com/rickgao/auction-mirror/internal/model"
)

var now = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func record(auctionID, itemID string, bin bool, price int64, attrs map[string]model.Value) model.AuctionRecord {
	return model.AuctionRecord{
		AuctionID:   auctionID,
		ItemID:      itemID,
		Bin:         bin,
		StartingBid: price,
		Price:       price,
		Count:       1,
		Attributes:  model.Compound(attrs),
	}
}

func testItems() *catalog.ItemTable {
	return catalog.NewItemTable([]model.ItemInfo{
		{ID: "HYPERION", Name: "Hyperion", Category: "SWORD"},
		{ID: "VALKYRIE", Name: "Valkyrie", Category: "SWORD"},
	})
}

// assertConsistent checks that the reverse index mirrors the buckets.
func assertConsistent(t *testing.T, s *Snapshot) {
	t.Helper()
	total := 0
	for itemID, b := range s.buckets {
		assert.NotEmpty(t, b, "empty bucket %s", itemID)
		for auctionID := range b {
			assert.Equal(t, itemID, s.reverse[auctionID], "reverse entry for %s", auctionID)
		}
		total += len(b)
	}
	assert.Equal(t, total, len(s.reverse))
}

// assertWorkingConsistent checks the reverse index of an uncommitted
// working copy against its buckets.
func assertWorkingConsistent(t *testing.T, w *WorkingCopy) {
	t.Helper()
	total := 0
	for itemID, b := range w.buckets {
		for auctionID := range b {
			assert.Equal(t, itemID, w.reverse[auctionID], "reverse entry for %s", auctionID)
		}
		total += len(b)
	}
	assert.Equal(t, total, len(w.reverse))
	assert.Equal(t, total, w.Len())
}

// assertStoreConsistent checks the published snapshot through the read API.
func assertStoreConsistent(t *testing.T, st *Store) {
	t.Helper()
	total := 0
	for _, id := range st.ListItemIDs() {
		total += len(st.GetAuctions(id))
	}
	assert.Equal(t, st.Current().Len(), total)
}

func TestBuild(t *testing.T) {
	s := Build([]model.AuctionRecord{
		record("a1", "HYPERION", true, 100, map[string]model.Value{"modifier": model.String("heroic")}),
		record("a2", "HYPERION", false, 50, nil),
		record("a3", "VALKYRIE", true, 70, map[string]model.Value{"modifier": model.String("fabled")}),
		record("a4", "DIRT", true, 1, map[string]model.Value{"x": model.Int(1)}),
	}, testItems(), 1700000000000, now)

	assertConsistent(t, s)
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 3, s.ItemCount())
	assert.Equal(t, int64(1700000000000), s.Token())
	assert.Equal(t, now, s.PublishedAt())
	assert.True(t, s.Contains("a3"))

	rec, ok := s.Record("a2")
	require.True(t, ok)
	assert.Equal(t, "HYPERION", rec.ItemID)

	assert.Equal(t, []string{"DIRT", "SWORD"}, s.Attributes().Keys())
	assert.Equal(t, []any{"fabled", "heroic"}, s.Attributes().Lookup("SWORD").Child("modifier").Values())
}

func TestWorkingCopy_RemoveAndInsert(t *testing.T) {
	base := Build([]model.AuctionRecord{
		record("a1", "HYPERION", true, 100, nil),
		record("a2", "HYPERION", true, 120, nil),
		record("a3", "VALKYRIE", true, 70, nil),
	}, testItems(), 1, now)

	assertConsistent(t, base)
	st := NewStore()
	st.Swap(base)
	assertStoreConsistent(t, st)

	wc := base.Edit()
	assertWorkingConsistent(t, wc)
	require.NoError(t, wc.Remove("a3"))
	assertWorkingConsistent(t, wc)
	require.NoError(t, wc.Remove("a1"))
	assertWorkingConsistent(t, wc)
	wc.Insert(record("a4", "HYPERION", true, 90, map[string]model.Value{"modifier": model.String("suspicious")}))
	assertWorkingConsistent(t, wc)
	assert.True(t, wc.Contains("a4"))
	assert.False(t, wc.Contains("a1"))
	assert.Equal(t, 2, wc.Len())

	next := wc.Commit(2, now.Add(time.Minute))
	assertConsistent(t, next)
	st.Swap(next)
	assertStoreConsistent(t, st)

	assert.Equal(t, 2, next.Len())
	assert.Equal(t, 1, next.ItemCount(), "emptied bucket is dropped")
	_, ok := next.buckets["VALKYRIE"]
	assert.False(t, ok)

	// The base snapshot is untouched.
	assertConsistent(t, base)
	assert.Equal(t, 3, base.Len())
	assert.True(t, base.Contains("a1"))
	assert.Len(t, base.buckets["HYPERION"], 2)
	assert.Nil(t, base.Attributes().Lookup("SWORD"))
}

func TestWorkingCopy_RemoveUnknown(t *testing.T) {
	wc := Empty().Edit()
	err := wc.Remove("ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEndedNotFound))
	assert.Contains(t, err.Error(), "ghost")
}

func TestWorkingCopy_InsertReplacesDuplicate(t *testing.T) {
	wc := Empty().Edit()
	wc.Insert(record("a1", "HYPERION", true, 100, nil))
	wc.Insert(record("a1", "HYPERION", true, 150, nil))
	assertWorkingConsistent(t, wc)
	wc.Insert(record("a2", "DIRT", true, 1, nil))
	wc.Insert(record("a2", "STONE", true, 2, nil))
	assertWorkingConsistent(t, wc)
	assert.Equal(t, 2, wc.Len(), "moving across items keeps one entry")

	s := wc.Commit(1, now)
	assertConsistent(t, s)
	st := NewStore()
	st.Swap(s)
	assertStoreConsistent(t, st)
	assert.Equal(t, 2, s.Len())

	rec, _ := s.Record("a1")
	assert.Equal(t, int64(150), rec.Price)
	rec, _ = s.Record("a2")
	assert.Equal(t, "STONE", rec.ItemID)
	assert.NotContains(t, s.buckets, "DIRT")
}

func TestWorkingCopy_SetItemsChangesCatalogKey(t *testing.T) {
	wc := Empty().Edit()
	wc.Insert(record("a1", "HYPERION", true, 1, map[string]model.Value{"m": model.String("x")}))
	wc.SetItems(testItems())
	wc.Insert(record("a2", "HYPERION", true, 1, map[string]model.Value{"m": model.String("y")}))
	wc.SetItems(nil)

	s := wc.Commit(1, now)
	assert.Equal(t, []string{"HYPERION", "SWORD"}, s.Attributes().Keys())
	assert.Equal(t, 2, s.Items().Len())
}

func TestStore_Reads(t *testing.T) {
	st := NewStore()
	assert.Empty(t, st.ListItemIDs())
	assert.Empty(t, st.GetAuctions("HYPERION"))
	assert.True(t, st.GetAttributeCatalog("HYPERION").Empty())

	prev := st.Swap(Build([]model.AuctionRecord{
		record("a1", "VALKYRIE", true, 100, map[string]model.Value{"modifier": model.String("heroic")}),
		record("a2", "HYPERION", false, 50, nil),
	}, testItems(), 42, now))
	assert.Equal(t, 0, prev.Len())

	assert.Equal(t, []string{"HYPERION", "VALKYRIE"}, st.ListItemIDs())

	got := st.GetAuctions("VALKYRIE")
	require.Len(t, got, 1)
	assert.Equal(t, int64(100), got["a1"].Price)

	// Copies do not alias the snapshot.
	delete(got, "a1")
	assert.Len(t, st.GetAuctions("VALKYRIE"), 1)

	// Catalog is shared per category.
	node := st.GetAttributeCatalog("HYPERION")
	assert.Equal(t, []any{"heroic"}, node.Child("modifier").Values())

	assert.Equal(t, "Hyperion", st.ItemName("HYPERION"))
	assert.Equal(t, "Wolf Pet", st.ItemName("WOLF_PET"))
	assert.Equal(t, "VALKYRIE", st.ResolveItem("valkyrie"))

	stats := st.Stats()
	assert.Equal(t, Stats{Items: 2, Auctions: 2, CatalogKeys: 1, KnownItems: 2, Token: 42, PublishedAt: now}, stats)
}

func TestStore_ConcurrentReadsDuringSwaps(t *testing.T) {
	st := NewStore()
	snapshots := make([]*Snapshot, 20)
	for i := range snapshots {
		n := i + 1
		records := make([]model.AuctionRecord, n)
		for j := range records {
			records[j] = record(fmt.Sprintf("a%d", j), "ITEM", true, int64(n), nil)
		}
		snapshots[i] = Build(records, nil, int64(n), now)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				// Every record in a bucket carries its snapshot's price, so a
				// mixed read would show two distinct prices.
				prices := map[int64]bool{}
				for _, rec := range st.GetAuctions("ITEM") {
					prices[rec.Price] = true
				}
				assert.LessOrEqual(t, len(prices), 1)
			}
		}()
	}

	for _, s := range snapshots {
		st.Swap(s)
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, 20, st.Stats().Auctions)
}

func TestWriteDump(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "samples")
	s := Build([]model.AuctionRecord{
		record("a1", "HYPERION", true, 100, map[string]model.Value{"modifier": model.String("heroic")}),
	}, testItems(), 1, now)

	require.NoError(t, WriteDump(dir, s))

	var idx map[string]map[string]model.AuctionRecord
	b, err := os.ReadFile(filepath.Join(dir, DumpIndexFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &idx))
	assert.Equal(t, int64(100), idx["HYPERION"]["a1"].Price)

	var attrs map[string]map[string][]string
	b, err = os.ReadFile(filepath.Join(dir, DumpAttributesFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &attrs))
	assert.Equal(t, []string{"heroic"}, attrs["SWORD"]["modifier"])

	var items map[string]model.ItemInfo
	b, err = os.ReadFile(filepath.Join(dir, DumpItemsFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &items))
	assert.Equal(t, "Valkyrie", items["VALKYRIE"].Name)
}
