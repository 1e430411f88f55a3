package matrix

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Defaults applied to missing item fields when an item is added.
const (
	DefaultSubject = "No Subject"
	DefaultSender  = "Unknown"
	DefaultType    = "message"

	// DateLayout is the short display date used when an item carries none.
	DateLayout = "1/2/2006"
)

// Item is a single triaged unit, typically an email message.
//
// Date is display-only text. Timestamp is the assignment time in Unix
// milliseconds and is absent on some older or foreign records.
type Item struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	Sender    string `json:"sender"`
	Date      string `json:"date"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// validText replaces invalid UTF-8 in the display fields so the stored
// record exports and imports unchanged.
func (it Item) validText() Item {
	it.Subject = strings.ToValidUTF8(it.Subject, "\uFFFD")
	it.Sender = strings.ToValidUTF8(it.Sender, "\uFFFD")
	it.Date = strings.ToValidUTF8(it.Date, "\uFFFD")
	it.Type = strings.ToValidUTF8(it.Type, "\uFFFD")
	return it
}

// normalize fills the display defaults and stamps the assignment time.
func (it Item) normalize(now time.Time) Item {
	it = it.validText()
	if it.Subject == "" {
		it.Subject = DefaultSubject
	}
	if it.Sender == "" {
		it.Sender = DefaultSender
	}
	if it.Date == "" {
		it.Date = now.Format(DateLayout)
	}
	if it.Type == "" {
		it.Type = DefaultType
	}
	it.Timestamp = now.UnixMilli()
	return it
}

// itemFromRaw converts a decoded JSON object into an Item. The second result
// is false when v is not an object.
func itemFromRaw(v any) (Item, bool) {
	switch t := v.(type) {
	case Item:
		return t, true
	case *Item:
		if t == nil {
			return Item{}, false
		}
		return *t, true
	case map[string]any:
		return Item{
			ID:        stringField(t["id"]),
			Subject:   stringField(t["subject"]),
			Sender:    stringField(t["sender"]),
			Date:      stringField(t["date"]),
			Type:      stringField(t["type"]),
			Timestamp: intField(t["timestamp"]),
		}, true
	default:
		return Item{}, false
	}
}

func stringField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

func intField(v any) int64 {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil && !math.IsInf(f, 0) {
			return int64(f)
		}
	case float64:
		if !math.IsNaN(t) && !math.IsInf(t, 0) {
			return int64(t)
		}
	case int:
		return int64(t)
	case int64:
		return t
	}
	return 0
}
