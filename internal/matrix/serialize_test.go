package matrix

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportJSON_Empty(t *testing.T) {
	m := New()
	want := `{
  "1": [],
  "2": [],
  "3": [],
  "4": []
}`
	assert.Equal(t, want, m.ExportJSON())
}

func TestExportJSON_Items(t *testing.T) {
	m := newTestMatrix()
	_, err := m.AddItem(Schedule, Item{ID: "m1", Subject: "Q&A <prep>", Sender: "a@b.c"})
	require.NoError(t, err)

	out := m.ExportJSON()

	assert.True(t, strings.Index(out, `"1"`) < strings.Index(out, `"2"`))
	assert.True(t, strings.Index(out, `"3"`) < strings.Index(out, `"4"`))
	assert.Contains(t, out, `"subject": "Q&A <prep>"`)
	assert.Contains(t, out, `"timestamp": 1709823845000`)
	assert.Contains(t, out, "\n    {\n")
}

func TestImportJSON_RoundTrip(t *testing.T) {
	m := newTestMatrix()
	_, err := m.AddItem(DoFirst, Item{ID: "a", Subject: "Outage"})
	require.NoError(t, err)
	_, err = m.AddItem(Delegate, Item{ID: "b", Sender: "pm@example.com", Type: "event"})
	require.NoError(t, err)
	_, err = m.AddItem(Eliminate, Item{ID: "c"})
	require.NoError(t, err)
	require.NoError(t, m.MoveItem("a", Schedule))

	other := New()
	require.NoError(t, other.ImportJSON(m.ExportJSON()))

	if diff := cmp.Diff(m.GetData(), other.GetData()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestImportJSON_RoundTripInvalidUTF8(t *testing.T) {
	m := newTestMatrix()

	_, err := m.AddItem(DoFirst, Item{ID: "a\xff"})
	require.ErrorIs(t, err, ErrInvalidItemID)
	_, err = m.AddItem(Schedule, Item{ID: "a\xfe"})
	require.ErrorIs(t, err, ErrInvalidItemID)

	stored, err := m.AddItem(Schedule, Item{ID: "s1", Subject: "caf\xe9 menu", Sender: "\xffops"})
	require.NoError(t, err)
	assert.Equal(t, "caf\uFFFD menu", stored.Subject)
	assert.Equal(t, "\uFFFDops", stored.Sender)

	other := New()
	require.NoError(t, other.ImportJSON(m.ExportJSON()))
	if diff := cmp.Diff(m.GetData(), other.GetData()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadData_SkipsInvalidUTF8IDs(t *testing.T) {
	m := newTestMatrix()
	m.LoadData(Data{
		DoFirst:  {{ID: "a\xff"}, {ID: "ok", Subject: "bad\xfe"}},
		Schedule: {{ID: "a\xfe"}},
	})

	d := m.GetData()
	require.Len(t, d[DoFirst], 1)
	assert.Equal(t, "ok", d[DoFirst][0].ID)
	assert.Equal(t, "bad\uFFFD", d[DoFirst][0].Subject)
	assert.Empty(t, d[Schedule])
}

func TestImportJSON_ParseFailureIsNonDestructive(t *testing.T) {
	inputs := []string{
		"not json",
		"",
		`{"1": [`,
		`[]`,
		`null`,
		`"string"`,
		`{"1": []} trailing`,
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			m := newTestMatrix()
			_, err := m.AddItem(DoFirst, Item{ID: "m1"})
			require.NoError(t, err)
			before := m.GetData()

			err = m.ImportJSON(in)
			require.ErrorIs(t, err, ErrInvalidDocument)
			assert.Empty(t, cmp.Diff(before, m.GetData()))
		})
	}
}

func TestImportJSON_Relaxed(t *testing.T) {
	m := newTestMatrix()
	_, err := m.AddItem(Schedule, Item{ID: "old"})
	require.NoError(t, err)

	require.NoError(t, m.ImportJSON(`{"1": [{"id": "x", "subject": "X", "sender": "s", "date": "d", "type": "message"}], "3": {}}`))

	data := m.GetData()
	assert.Equal(t, []Item{{ID: "x", Subject: "X", Sender: "s", Date: "d", Type: "message"}}, data[DoFirst])
	assert.Empty(t, data[Schedule])
	assert.Empty(t, data[Delegate])
	assert.Empty(t, data[Eliminate])
}

func TestImportJSON_LargeTimestamp(t *testing.T) {
	m := New()
	require.NoError(t, m.ImportJSON(`{"2": [{"id": "x", "timestamp": 1712345678901}]}`))

	it, _, ok := m.FindItem("x")
	require.True(t, ok)
	assert.Equal(t, int64(1712345678901), it.Timestamp)
}

func TestData_JSON(t *testing.T) {
	d := Data{DoFirst: {{ID: "a", Subject: "A", Timestamp: 5}}}

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":[{"id":"a","subject":"A","sender":"","date":"","type":"","timestamp":5}],"2":[],"3":[],"4":[]}`, string(b))

	var back Data
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Empty(t, cmp.Diff(New().GetData()[Schedule], back[Schedule]))
	assert.Equal(t, d[DoFirst], back[DoFirst])
	assert.Len(t, back, 4)
}
