package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// fakeSheets is an in-memory stand-in for the Sheets values API, serving
// the three calls the store makes: values get, batchUpdate and append.
type fakeSheets struct {
	mu   sync.Mutex
	tabs map[string][][]interface{}
}

const testSheetID = "test-sheet"

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/"+testSheetID+"/values")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case path == ":batchUpdate":
		var req struct {
			Data []struct {
				Range  string          `json:"range"`
				Values [][]interface{} `json:"values"`
			} `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, d := range req.Data {
			tab, col, row := parseCellRef(d.Range)
			f.setCell(tab, row, col, d.Values[0][0])
		}
		w.Write([]byte("{}"))

	case strings.HasSuffix(path, ":append"):
		rng := strings.TrimSuffix(strings.TrimPrefix(path, "/"), ":append")
		tab := strings.SplitN(rng, "!", 2)[0]
		var req struct {
			Values [][]interface{} `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.tabs[tab] = append(f.tabs[tab], req.Values...)
		w.Write([]byte("{}"))

	default:
		rng := strings.TrimPrefix(path, "/")
		tab := strings.SplitN(rng, "!", 2)[0]
		json.NewEncoder(w).Encode(map[string]interface{}{
			"range":  rng,
			"values": f.tabs[tab],
		})
	}
}

func (f *fakeSheets) setCell(tab string, row, col int, value interface{}) {
	rows := f.tabs[tab]
	for len(rows) < row {
		rows = append(rows, []interface{}{})
	}
	for len(rows[row-1]) <= col {
		rows[row-1] = append(rows[row-1], "")
	}
	rows[row-1][col] = value
	f.tabs[tab] = rows
}

func (f *fakeSheets) rows(tab string) [][]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tabs[tab]
}

// parseCellRef splits a single-cell A1 reference like "Customers!C2".
func parseCellRef(ref string) (tab string, col, row int) {
	parts := strings.SplitN(ref, "!", 2)
	tab = parts[0]
	cell := parts[1]
	i := 0
	for i < len(cell) && cell[i] >= 'A' && cell[i] <= 'Z' {
		col = col*26 + int(cell[i]-'A'+1)
		i++
	}
	col--
	row, _ = strconv.Atoi(cell[i:])
	return tab, col, row
}

var customerTestHeaders = []interface{}{"Phone", "Name", "dnc", "Opt In Date", "Opt_In Source", "Opt Out Date"}
var messageTestHeaders = []interface{}{"sid", "date", "phone", "type", "message", "status", "error"}

func newTestSheetStore(t *testing.T, tabs map[string][][]interface{}) (*SheetStore, *fakeSheets) {
	t.Helper()
	f := &fakeSheets{tabs: tabs}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	s, err := newSheetStore(context.Background(), testSheetID,
		option.WithEndpoint(srv.URL),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return s, f
}

func TestSheetUnsubscribeUpdatesMatchedRow(t *testing.T) {
	s, f := newTestSheetStore(t, map[string][][]interface{}{
		customersTab: {
			customerTestHeaders,
			{"+507 6000-0000", "Ana", "FALSE", "", "", ""},
		},
		messagesTab: {messageTestHeaders},
	})
	ctx := context.Background()

	// Incoming without the plus still hits the hand-typed stored value.
	require.NoError(t, s.RecordUnsubscribe(ctx, "50760000000"))

	rows := f.rows(customersTab)
	require.Len(t, rows, 2)
	assert.Equal(t, "TRUE", rows[1][2])
	assert.NotEmpty(t, rows[1][5])
	// untouched cells keep their values
	assert.Equal(t, "Ana", rows[1][1])

	customers, err := s.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.True(t, customers[0].DNC)
}

func TestSheetUnsubscribeAppendsOnMiss(t *testing.T) {
	s, f := newTestSheetStore(t, map[string][][]interface{}{
		customersTab: {customerTestHeaders},
		messagesTab:  {messageTestHeaders},
	})
	ctx := context.Background()

	require.NoError(t, s.RecordUnsubscribe(ctx, "+50760000000"))

	rows := f.rows(customersTab)
	require.Len(t, rows, 2)
	assert.Equal(t, "+50760000000", rows[1][0])
	assert.Equal(t, "TRUE", rows[1][2])
	assert.NotEmpty(t, rows[1][5])
}

func TestSheetResubscribe(t *testing.T) {
	s, f := newTestSheetStore(t, map[string][][]interface{}{
		customersTab: {
			customerTestHeaders,
			{"+50760000000", "Ana", "TRUE", "", "", "2026-01-01T00:00:00Z"},
		},
		messagesTab: {messageTestHeaders},
	})
	ctx := context.Background()

	require.NoError(t, s.RecordResubscribe(ctx, "+50760000000"))

	rows := f.rows(customersTab)
	require.Len(t, rows, 2)
	assert.Equal(t, "FALSE", rows[1][2])
	assert.NotEmpty(t, rows[1][3])
	assert.Equal(t, "Resubscribe", rows[1][4])
}

func TestSheetUnmappedFieldDropped(t *testing.T) {
	// No dnc column: the dnc write is dropped, the opt-out date lands.
	s, f := newTestSheetStore(t, map[string][][]interface{}{
		customersTab: {
			{"Phone", "Opt Out Date"},
			{"+50760000000", ""},
		},
		messagesTab: {messageTestHeaders},
	})

	require.NoError(t, s.RecordUnsubscribe(context.Background(), "+50760000000"))

	rows := f.rows(customersTab)
	require.Len(t, rows, 2)
	assert.NotEmpty(t, rows[1][1])
}

func TestSheetStatusUpdatesRowInPlace(t *testing.T) {
	s, f := newTestSheetStore(t, map[string][][]interface{}{
		customersTab: {customerTestHeaders},
		messagesTab: {
			messageTestHeaders,
			{"SM1", "2026-01-01T00:00:00Z", "+50760000000", models.TypeOutbound, "promo", "queued", ""},
		},
	})
	ctx := context.Background()

	require.NoError(t, s.RecordDeliveryStatus(ctx, "SM1", "delivered", ""))

	rows := f.rows(messagesTab)
	require.Len(t, rows, 2)
	assert.Equal(t, "delivered", rows[1][5])
	assert.Equal(t, "promo", rows[1][4])
}

func TestSheetStatusAppendsThenUpdates(t *testing.T) {
	s, f := newTestSheetStore(t, map[string][][]interface{}{
		customersTab: {customerTestHeaders},
		messagesTab:  {messageTestHeaders},
	})
	ctx := context.Background()

	require.NoError(t, s.RecordDeliveryStatus(ctx, "SID1", "delivered", ""))

	rows := f.rows(messagesTab)
	require.Len(t, rows, 2)
	assert.Equal(t, "SID1", rows[1][0])
	assert.Equal(t, models.TypeStatusUpdate, rows[1][3])
	assert.Equal(t, "delivered", rows[1][5])

	// Second callback for the same sid updates, not appends.
	require.NoError(t, s.RecordDeliveryStatus(ctx, "SID1", "failed", "30007"))

	rows = f.rows(messagesTab)
	require.Len(t, rows, 2)
	assert.Equal(t, "failed", rows[1][5])
	assert.Equal(t, "30007", rows[1][6])
}

func TestSheetLogInboundAppends(t *testing.T) {
	s, f := newTestSheetStore(t, map[string][][]interface{}{
		customersTab: {customerTestHeaders},
		messagesTab:  {messageTestHeaders},
	})

	require.NoError(t, s.LogInbound(context.Background(), "+50760000000", "STOP", "SM100"))

	rows := f.rows(messagesTab)
	require.Len(t, rows, 2)
	assert.Equal(t, "SM100", rows[1][0])
	assert.Equal(t, models.TypeInbound, rows[1][3])
	assert.Equal(t, "STOP", rows[1][4])
	assert.Equal(t, "received", rows[1][5])
}

func TestSheetMissingMessagesTabDisablesLogging(t *testing.T) {
	s, f := newTestSheetStore(t, map[string][][]interface{}{
		customersTab: {customerTestHeaders},
	})

	require.NoError(t, s.LogInbound(context.Background(), "+50760000000", "STOP", "SM100"))
	require.NoError(t, s.RecordDeliveryStatus(context.Background(), "SM100", "delivered", ""))

	assert.Empty(t, f.rows(messagesTab))
}
