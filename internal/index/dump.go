package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rickgao/auction-mirror/internal/model"
)

// Dump file names written by WriteDump.
const (
	DumpIndexFile      = "index.json"
	DumpAttributesFile = "attributes.json"
	DumpItemsFile      = "items.json"
)

// WriteDump writes the snapshot's index, attribute catalog and item table
// as indented JSON files under dir. The dump is for debugging only.
func WriteDump(dir string, s *Snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dump dir: %w", err)
	}

	idx := make(map[string]map[string]*model.AuctionRecord, len(s.buckets))
	for itemID, b := range s.buckets {
		idx[itemID] = b
	}

	items := make(map[string]model.ItemInfo, s.items.Len())
	for _, id := range s.items.IDs() {
		items[id], _ = s.items.Lookup(id)
	}

	files := []struct {
		name string
		v    any
	}{
		{DumpIndexFile, idx},
		{DumpAttributesFile, s.attrs.Export()},
		{DumpItemsFile, items},
	}
	for _, f := range files {
		b, err := json.MarshalIndent(f.v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s: %w", f.name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, f.name), b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	return nil
}
