package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"moneyflow/internal/core"
)

const (
	maxBodyBytes   = 64 << 10
	maxSearchRunes = 100
)

var errBadRequest = errors.New("bad request")

// HistoryQuery holds the parsed filter and sort of a history request.
type HistoryQuery struct {
	Filter core.Filter
	Sort   core.Sort
}

// ParseHistoryQuery reads types, range, amount, status, q, sort and order.
// Types may be comma separated, repeated, or both. Missing parameters mean
// "all" and date descending.
func ParseHistoryQuery(query url.Values) (HistoryQuery, error) {
	var q HistoryQuery
	var err error

	if q.Filter.Types, err = core.ParseTypes(splitList(query["types"])); err != nil {
		return q, err
	}
	if q.Filter.DateRange, err = core.ParseDateRange(query.Get("range")); err != nil {
		return q, err
	}
	if q.Filter.AmountRange, err = core.ParseAmountRange(query.Get("amount")); err != nil {
		return q, err
	}
	if q.Filter.Status, err = core.ParseStatusFilter(query.Get("status")); err != nil {
		return q, err
	}

	search := sanitizeInput(query.Get("q"))
	if r := []rune(search); len(r) > maxSearchRunes {
		search = string(r[:maxSearchRunes])
	}
	q.Filter.Search = search

	if q.Sort.By, err = core.ParseSortField(query.Get("sort")); err != nil {
		return q, err
	}
	if q.Sort.Order, err = core.ParseSortOrder(query.Get("order")); err != nil {
		return q, err
	}
	return q, nil
}

// ParsePeriodParam reads the period parameter, defaulting to month.
func ParsePeriodParam(query url.Values) (core.Period, error) {
	return core.ParsePeriod(query.Get("period"))
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// DecodeRawTransaction reads a single JSON transaction from the request body.
func DecodeRawTransaction(w http.ResponseWriter, r *http.Request) (core.RawTransaction, error) {
	var raw core.RawTransaction
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return raw, fmt.Errorf("%w: content type must be application/json", errBadRequest)
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return raw, fmt.Errorf("%w: body exceeds %d bytes", errBadRequest, maxBodyBytes)
		}
		return raw, fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return raw, fmt.Errorf("%w: body must contain a single JSON object", errBadRequest)
	}

	raw.ID = sanitizeInput(raw.ID)
	raw.Details = sanitizeInput(raw.Details)
	raw.Merchant = sanitizeInput(raw.Merchant)
	raw.From = sanitizeInput(raw.From)
	raw.To = sanitizeInput(raw.To)
	raw.Reference = sanitizeInput(raw.Reference)
	return raw, nil
}
