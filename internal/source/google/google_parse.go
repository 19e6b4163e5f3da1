package google

import (
	"fmt"
	"strconv"
	"strings"

	"moneyflow/internal/core"
)

var requiredColumns = []string{"id", "type", "amount", "status", "date"}

// parseTransactionRows converts a values matrix (as returned by the Sheets
// API) into raw transactions. Header names are matched case-insensitively;
// unknown columns are ignored and blank rows skipped.
func parseTransactionRows(values [][]interface{}) ([]core.RawTransaction, error) {
	if len(values) == 0 {
		return nil, nil
	}

	cols := make(map[string]int)
	for i, h := range toStrings(values[0]) {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := cols[key]; key != "" && !dup {
			cols[key] = i
		}
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected transaction header: missing %s", strings.Join(missing, ","))
	}

	get := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(safeGet(row, i))
	}

	out := make([]core.RawTransaction, 0, len(values)-1)
	for _, cells := range values[1:] {
		row := toStrings(cells)
		if isBlank(row) {
			continue
		}
		out = append(out, core.RawTransaction{
			ID:        get(row, "id"),
			Type:      get(row, "type"),
			Amount:    core.RawAmount(get(row, "amount")),
			Currency:  get(row, "currency"),
			Status:    get(row, "status"),
			Date:      get(row, "date"),
			From:      get(row, "from"),
			To:        get(row, "to"),
			Merchant:  get(row, "merchant"),
			Method:    get(row, "method"),
			Reference: get(row, "reference"),
			Details:   get(row, "details"),
			Fee:       get(row, "fee"),
		})
	}
	return out, nil
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch x := v.(type) {
		case nil:
		case string:
			out[i] = x
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			out[i] = fmt.Sprint(x)
		}
	}
	return out
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
