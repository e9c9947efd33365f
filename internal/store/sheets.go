package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/consent"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/models"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	customersTab = "Customers"
	messagesTab  = "Messages"
)

// SheetStore is the spreadsheet backend. One authorized Sheets client is
// shared across all requests; the remote API handles concurrent writes.
// Header maps are resolved once at construction and never change.
type SheetStore struct {
	svc     *sheets.Service
	sheetID string

	custHeaders *HeaderMap
	msgHeaders  *HeaderMap
}

func NewSheetStore(ctx context.Context, sheetID string, credsJSON []byte) (*SheetStore, error) {
	return newSheetStore(ctx, sheetID,
		option.WithCredentialsJSON(credsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
}

func newSheetStore(ctx context.Context, sheetID string, opts ...option.ClientOption) (*SheetStore, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	s := &SheetStore{svc: svc, sheetID: sheetID}

	custRows, err := s.fetch(ctx, customersTab)
	if err != nil {
		return nil, err
	}
	if len(custRows) == 0 {
		return nil, fmt.Errorf("%s tab has no header row", customersTab)
	}
	s.custHeaders = buildHeaderMap(rowStrings(custRows[0]), customerAliases)

	msgRows, err := s.fetch(ctx, messagesTab)
	if err != nil || len(msgRows) == 0 {
		// Operator sheets predating the message log have no Messages tab;
		// message writes are dropped until one exists.
		logger.Warn("Messages tab not readable, message logging disabled",
			zap.String("sheet_id", sheetID), zap.Error(err))
	} else {
		s.msgHeaders = buildHeaderMap(rowStrings(msgRows[0]), messageAliases)
	}

	return s, nil
}

func (s *SheetStore) RecordUnsubscribe(ctx context.Context, phone string) error {
	return s.applyConsent(ctx, phone, map[string]string{
		"dnc":         "TRUE",
		"optout_date": isoNow(),
	})
}

func (s *SheetStore) RecordResubscribe(ctx context.Context, phone string) error {
	return s.applyConsent(ctx, phone, map[string]string{
		"dnc":          "FALSE",
		"optin_source": "Resubscribe",
		"optin_date":   isoNow(),
	})
}

// applyConsent updates the mapped cells of the first row matching phone,
// or appends a new row when no row matches.
func (s *SheetStore) applyConsent(ctx context.Context, phone string, updates map[string]string) error {
	rows, err := s.fetch(ctx, customersTab)
	if err != nil {
		return err
	}

	rowNum := s.findCustomerRow(rows, phone)
	if rowNum == 0 {
		updates["phone"] = phone
		return s.appendRow(ctx, customersTab, s.custHeaders, updates)
	}
	return s.updateCells(ctx, customersTab, s.custHeaders, rowNum, updates)
}

// findCustomerRow scans in row order and returns the 1-based sheet row of
// the first match, or 0. Matching is on canonical digits: equal, or one a
// suffix of the other, to tolerate differing country-code prefixes.
func (s *SheetStore) findCustomerRow(rows [][]interface{}, phone string) int {
	phoneCol, ok := s.custHeaders.Col("phone")
	if !ok {
		return 0
	}
	incoming := consent.CanonicalDigits(phone)
	if incoming == "" {
		return 0
	}
	for i := 1; i < len(rows); i++ {
		stored := consent.CanonicalDigits(cellString(rows[i], phoneCol))
		if stored == "" {
			continue
		}
		if phoneMatches(stored, incoming) {
			return i + 1
		}
	}
	return 0
}

func phoneMatches(stored, incoming string) bool {
	return stored == incoming ||
		strings.HasSuffix(stored, incoming) ||
		strings.HasSuffix(incoming, stored)
}

func (s *SheetStore) LogInbound(ctx context.Context, phone, body, sid string) error {
	if s.msgHeaders == nil {
		return nil
	}
	return s.appendRow(ctx, messagesTab, s.msgHeaders, map[string]string{
		"sid":     sid,
		"date":    isoNow(),
		"phone":   phone,
		"type":    models.TypeInbound,
		"message": body,
		"status":  "received",
	})
}

func (s *SheetStore) RecordDeliveryStatus(ctx context.Context, sid, status, errMsg string) error {
	if s.msgHeaders == nil {
		return nil
	}
	rows, err := s.fetch(ctx, messagesTab)
	if err != nil {
		return err
	}

	if rowNum := s.findMessageRow(rows, sid); rowNum != 0 {
		return s.updateCells(ctx, messagesTab, s.msgHeaders, rowNum, map[string]string{
			"status": status,
			"error":  errMsg,
		})
	}
	return s.appendRow(ctx, messagesTab, s.msgHeaders, map[string]string{
		"sid":    sid,
		"date":   isoNow(),
		"type":   models.TypeStatusUpdate,
		"status": status,
		"error":  errMsg,
	})
}

func (s *SheetStore) findMessageRow(rows [][]interface{}, sid string) int {
	sidCol, ok := s.msgHeaders.Col("sid")
	if !ok || sid == "" {
		return 0
	}
	for i := 1; i < len(rows); i++ {
		if strings.TrimSpace(cellString(rows[i], sidCol)) == sid {
			return i + 1
		}
	}
	return 0
}

func (s *SheetStore) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	rows, err := s.fetch(ctx, customersTab)
	if err != nil {
		return nil, err
	}
	customers := []models.Customer{}
	for i := 1; i < len(rows); i++ {
		customers = append(customers, models.Customer{
			Phone:       s.cell(rows[i], s.custHeaders, "phone"),
			Name:        s.cell(rows[i], s.custHeaders, "name"),
			DNC:         parseBool(s.cell(rows[i], s.custHeaders, "dnc")),
			OptinDate:   s.cell(rows[i], s.custHeaders, "optin_date"),
			OptinSource: s.cell(rows[i], s.custHeaders, "optin_source"),
			OptoutDate:  s.cell(rows[i], s.custHeaders, "optout_date"),
		})
	}
	return customers, nil
}

func (s *SheetStore) ListMessages(ctx context.Context) ([]models.Message, error) {
	if s.msgHeaders == nil {
		return []models.Message{}, nil
	}
	rows, err := s.fetch(ctx, messagesTab)
	if err != nil {
		return nil, err
	}
	messages := []models.Message{}
	for i := 1; i < len(rows); i++ {
		messages = append(messages, models.Message{
			SID:    s.cell(rows[i], s.msgHeaders, "sid"),
			Date:   s.cell(rows[i], s.msgHeaders, "date"),
			Phone:  s.cell(rows[i], s.msgHeaders, "phone"),
			Type:   s.cell(rows[i], s.msgHeaders, "type"),
			Body:   s.cell(rows[i], s.msgHeaders, "message"),
			Status: s.cell(rows[i], s.msgHeaders, "status"),
			Error:  s.cell(rows[i], s.msgHeaders, "error"),
		})
	}
	return messages, nil
}

func (s *SheetStore) PutCustomer(ctx context.Context, c models.Customer) error {
	updates := map[string]string{
		"phone":        c.Phone,
		"name":         c.Name,
		"dnc":          formatBool(c.DNC),
		"optin_date":   c.OptinDate,
		"optin_source": c.OptinSource,
		"optout_date":  c.OptoutDate,
	}
	rows, err := s.fetch(ctx, customersTab)
	if err != nil {
		return err
	}
	if rowNum := s.findCustomerRow(rows, c.Phone); rowNum != 0 {
		return s.updateCells(ctx, customersTab, s.custHeaders, rowNum, updates)
	}
	return s.appendRow(ctx, customersTab, s.custHeaders, updates)
}

func (s *SheetStore) PutMessage(ctx context.Context, m models.Message) error {
	if s.msgHeaders == nil {
		return nil
	}
	updates := map[string]string{
		"sid":     m.SID,
		"date":    m.Date,
		"phone":   m.Phone,
		"type":    m.Type,
		"message": m.Body,
		"status":  m.Status,
		"error":   m.Error,
	}
	rows, err := s.fetch(ctx, messagesTab)
	if err != nil {
		return err
	}
	if rowNum := s.findMessageRow(rows, m.SID); rowNum != 0 {
		return s.updateCells(ctx, messagesTab, s.msgHeaders, rowNum, updates)
	}
	return s.appendRow(ctx, messagesTab, s.msgHeaders, updates)
}

func (s *SheetStore) Close() error {
	return nil
}

// --- Sheets plumbing ---

func (s *SheetStore) fetch(ctx context.Context, tab string) ([][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.sheetID, tab+"!A1:ZZ").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", tab, err)
	}
	return resp.Values, nil
}

// updateCells writes only the cells whose logical field resolved to a
// column; unmapped fields are dropped.
func (s *SheetStore) updateCells(ctx context.Context, tab string, headers *HeaderMap, rowNum int, updates map[string]string) error {
	var data []*sheets.ValueRange
	for logical, value := range updates {
		col, ok := headers.Col(logical)
		if !ok {
			continue
		}
		data = append(data, &sheets.ValueRange{
			Range:  fmt.Sprintf("%s!%s%d", tab, colLetter(col), rowNum),
			Values: [][]interface{}{{value}},
		})
	}
	if len(data) == 0 {
		return nil
	}
	_, err := s.svc.Spreadsheets.Values.BatchUpdate(s.sheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s row %d: %w", tab, rowNum, err)
	}
	return nil
}

func (s *SheetStore) appendRow(ctx context.Context, tab string, headers *HeaderMap, updates map[string]string) error {
	width := headers.Width()
	if width == 0 {
		return nil
	}
	row := make([]interface{}, width)
	for i := range row {
		row[i] = ""
	}
	for logical, value := range updates {
		if col, ok := headers.Col(logical); ok && col < width {
			row[col] = value
		}
	}
	_, err := s.svc.Spreadsheets.Values.Append(s.sheetID, tab+"!A1", &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", tab, err)
	}
	return nil
}

func (s *SheetStore) cell(row []interface{}, headers *HeaderMap, logical string) string {
	col, ok := headers.Col(logical)
	if !ok {
		return ""
	}
	return cellString(row, col)
}

func cellString(row []interface{}, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return fmt.Sprintf("%v", row[col])
}

func rowStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = fmt.Sprintf("%v", v)
	}
	return out
}

func parseBool(v string) bool {
	v = strings.TrimSpace(strings.ToUpper(v))
	return v == "TRUE" || v == "1" || v == "YES"
}

func formatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// colLetter converts a zero-based column index to its A1 letter form.
func colLetter(col int) string {
	s := ""
	n := col + 1
	for n > 0 {
		n--
		s = string(rune('A'+n%26)) + s
		n /= 26
	}
	return s
}
