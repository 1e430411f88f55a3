package gmail

import (
	"strings"
	"time"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/inboxmatrix/internal/matrix"
)

// MessageInfo is the metadata of one Gmail message.
type MessageInfo struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"threadId,omitempty"`
	Subject  string    `json:"subject"`
	From     string    `json:"from"`
	Date     time.Time `json:"date"`
	Snippet  string    `json:"snippet,omitempty"`
	Labels   []string  `json:"labels,omitempty"`
}

// Item converts the message into a matrix item. Empty fields are left for
// the matrix defaults.
func (m *MessageInfo) Item() matrix.Item {
	item := matrix.Item{
		ID:      m.ID,
		Subject: strings.TrimSpace(m.Subject),
		Sender:  strings.TrimSpace(m.From),
		Type:    matrix.DefaultType,
	}
	if !m.Date.IsZero() {
		item.Date = m.Date.Local().Format(matrix.DateLayout)
	}
	return item
}

// HeaderValue returns the first header named header, compared
// case-insensitively.
func HeaderValue(m *gmail.Message, header string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, header) {
			return h.Value
		}
	}
	return ""
}

func messageInfo(m *gmail.Message) *MessageInfo {
	info := &MessageInfo{
		ID:       m.Id,
		ThreadID: m.ThreadId,
		Subject:  HeaderValue(m, "Subject"),
		From:     HeaderValue(m, "From"),
		Snippet:  m.Snippet,
		Labels:   m.LabelIds,
	}
	if m.InternalDate > 0 {
		info.Date = time.UnixMilli(m.InternalDate)
	}
	return info
}
