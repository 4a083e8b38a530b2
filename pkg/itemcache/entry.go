package itemcache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sternrassler/flashsale-itemcache/pkg/cache"
)

// Item is a flash-sale item record as served by the catalog.
type Item struct {
	ID             int64     `json:"id"`
	ActivityID     int64     `json:"activityId"`
	Title          string    `json:"itemTitle"`
	SubTitle       string    `json:"itemSubTitle,omitempty"`
	Description    string    `json:"itemDesc,omitempty"`
	InitialStock   int32     `json:"initialStock"`
	AvailableStock int32     `json:"availableStock"`
	OriginalPrice  int64     `json:"originalPrice"`
	FlashPrice     int64     `json:"flashPrice"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	Status         int       `json:"status"`
}

// Entry is the value held by both cache tiers.
//
// Entries are immutable: they are built with Positive, Negative or TryLater
// and only exposed through accessors. A try-later entry is a placeholder
// returned to callers and is never stored in either tier.
type Entry struct {
	exists   bool
	item     Item
	version  int64
	tryLater bool
}

// Positive builds an entry for an item that exists upstream.
func Positive(item Item, version int64) Entry {
	return Entry{exists: true, item: item, version: version}
}

// Negative builds an entry recording that the item is absent upstream.
func Negative(version int64) Entry {
	return Entry{version: version}
}

// TryLater builds the placeholder returned when a refill is in progress
// elsewhere or the refill lock could not be acquired.
func TryLater() Entry {
	return Entry{tryLater: true}
}

// Exists reports whether the item exists upstream.
func (e Entry) Exists() bool { return e.exists }

// Item returns the cached item. The boolean is false for negative and
// try-later entries.
func (e Entry) Item() (Item, bool) {
	if !e.exists || e.tryLater {
		return Item{}, false
	}
	return e.item, true
}

// Version returns the ms-epoch version assigned when the entry was built.
func (e Entry) Version() int64 { return e.version }

// IsTryLater reports whether the caller should retry shortly.
func (e Entry) IsTryLater() bool { return e.tryLater }

// wireEntry is the serialized form shared with the other flash-sale
// services reading the same Redis keys.
type wireEntry struct {
	Exist     bool   `json:"exist"`
	FlashItem *Item  `json:"flashItem,omitempty"`
	Version   *int64 `json:"version,omitempty"`
	Later     bool   `json:"later"`
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	w := wireEntry{Exist: e.exists, Later: e.tryLater}
	if e.exists && !e.tryLater {
		item := e.item
		w.FlashItem = &item
	}
	if !e.tryLater {
		version := e.version
		w.Version = &version
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	switch {
	case w.Later:
		*e = TryLater()
	case w.Exist:
		if w.FlashItem == nil {
			return fmt.Errorf("positive entry without item")
		}
		*e = Positive(*w.FlashItem, derefVersion(w.Version))
	default:
		*e = Negative(derefVersion(w.Version))
	}
	return nil
}

func derefVersion(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

// encodeEntry serializes an entry for the remote tier.
func encodeEntry(e Entry) ([]byte, error) {
	if e.tryLater {
		return nil, fmt.Errorf("%w: try-later entries are never cached", cache.ErrInvalidEntry)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal cache entry: %w", err)
	}
	return data, nil
}

// decodeEntry parses a remote tier value. Try-later markers are rejected
// since no writer stores them.
func decodeEntry(data []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", cache.ErrInvalidEntry, err)
	}
	if e.tryLater {
		return Entry{}, fmt.Errorf("%w: stored try-later marker", cache.ErrInvalidEntry)
	}
	return e, nil
}
