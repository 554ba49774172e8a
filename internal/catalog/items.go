package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rickgao/auction-mirror/internal/model"
)

// ItemTable is the static item metadata keyed by item id. It is immutable
// once built.
type ItemTable struct {
	byID   map[string]model.ItemInfo
	byName map[string]string // lower-cased display name -> id
}

// NewItemTable indexes infos. Later duplicates of an id win.
func NewItemTable(infos []model.ItemInfo) *ItemTable {
	t := &ItemTable{
		byID:   make(map[string]model.ItemInfo, len(infos)),
		byName: make(map[string]string, len(infos)),
	}
	for _, info := range infos {
		t.byID[info.ID] = info
	}
	for _, id := range t.IDs() {
		name := strings.ToLower(t.byID[id].Name)
		if _, taken := t.byName[name]; name != "" && !taken {
			t.byName[name] = id
		}
	}
	return t
}

// Lookup returns the metadata for id.
func (t *ItemTable) Lookup(id string) (model.ItemInfo, bool) {
	if t == nil {
		return model.ItemInfo{}, false
	}
	info, ok := t.byID[id]
	return info, ok
}

// Category returns the catalog key for id: its category, or the id itself
// when the item is unknown or uncategorized.
func (t *ItemTable) Category(id string) string {
	if info, ok := t.Lookup(id); ok && info.Category != "" {
		return info.Category
	}
	return id
}

// DisplayName returns the resource name for id, or a title-cased rendering
// of the id ("WOLF_PET" -> "Wolf Pet").
func (t *ItemTable) DisplayName(id string) string {
	if info, ok := t.Lookup(id); ok && info.Name != "" {
		return info.Name
	}
	words := strings.ReplaceAll(strings.ToLower(id), "_", " ")
	return cases.Title(language.English).String(words)
}

// Resolve maps user input to an item id. Known ids and display names
// resolve directly; anything else is upper-cased with spaces turned into
// underscores.
func (t *ItemTable) Resolve(name string) string {
	name = strings.TrimSpace(name)
	if _, ok := t.Lookup(name); ok {
		return name
	}
	if t != nil {
		if id, ok := t.byName[strings.ToLower(name)]; ok {
			return id
		}
	}
	return strings.ToUpper(strings.Join(strings.Fields(name), "_"))
}

// IDs returns every known id in sorted order.
func (t *ItemTable) IDs() []string {
	if t == nil {
		return nil
	}
	ids := make([]string, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len is the number of known items.
func (t *ItemTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byID)
}
