package scraper

import (
	"encoding/json"
	"time"
)

// DateLayout is the wire format of Batch.DateISO.
const DateLayout = "2006-01-02"

// Zone is the fixed zone batch dates are computed in, independent of the host.
var Zone = time.FixedZone("JST", 9*60*60)

// LinkRecord is the click count of one dashboard link.
type LinkRecord struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Clicks int    `json:"clicks"`
}

// Valid reports whether the record carries both a title and a URL.
func (r LinkRecord) Valid() bool {
	return r.Title != "" && r.URL != ""
}

// Batch is the immutable result of one run.
type Batch struct {
	dateISO string
	items   []LinkRecord
}

// NewBatch builds the batch for a run at now. Invalid records are dropped;
// negative click counts are clamped to zero.
func NewBatch(now time.Time, items []LinkRecord) Batch {
	kept := make([]LinkRecord, 0, len(items))
	for _, it := range items {
		if !it.Valid() {
			continue
		}
		if it.Clicks < 0 {
			it.Clicks = 0
		}
		kept = append(kept, it)
	}
	return Batch{
		dateISO: now.In(Zone).Format(DateLayout),
		items:   kept,
	}
}

func (b Batch) DateISO() string {
	return b.dateISO
}

// Items returns a copy of the records in document order.
func (b Batch) Items() []LinkRecord {
	out := make([]LinkRecord, len(b.items))
	copy(out, b.items)
	return out
}

func (b Batch) Len() int {
	return len(b.items)
}

type batchJSON struct {
	DateISO string       `json:"dateISO"`
	Items   []LinkRecord `json:"items"`
}

func (b Batch) MarshalJSON() ([]byte, error) {
	items := b.items
	if items == nil {
		items = []LinkRecord{}
	}
	return json.Marshal(batchJSON{DateISO: b.dateISO, Items: items})
}
