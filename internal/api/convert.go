package api

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rickgao/okx-copytrack/internal/model"
)

// ParseDecimal converts an OKX string-typed numeric field to float64.
// Returns 0 for empty or invalid input.
func ParseDecimal(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseMillis converts an epoch-milliseconds string to microseconds since
// epoch. Returns 0 for empty or invalid input.
func ParseMillis(s string) int64 {
	if s == "" {
		return 0
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return ms * 1000
}

// NowMicro returns the current time in microseconds since epoch.
func NowMicro() int64 {
	return time.Now().UnixMicro()
}

// ToRecord converts an APIPosition to a model.PositionRecord.
// All derived fields are computed deterministically from the raw payload.
func (p *APIPosition) ToRecord() model.PositionRecord {
	return model.PositionRecord{
		Instrument: p.InstID,
		Side:       model.SideFromRaw(p.PosSide),
		Leverage:   ParseDecimal(p.Lever),
		Size:       ParseDecimal(p.Pos),
		EntryPrice: ParseDecimal(p.AvgPx),
		LiqPrice:   ParseDecimal(p.LiqPx),
		UplRatio:   ParseDecimal(p.UplRatio),
		UpdatedTS:  ParseMillis(p.CTime),
	}
}

// Normalize converts the response into a snapshot keyed by instrument ID.
//
// It fails when the envelope code is not the success sentinel, when the data
// element is absent, or when every listed entry lacks an instrument ID.
// Individual entries without an instrument ID are skipped. An empty position
// list is a valid empty snapshot, not a fault.
func (r *PositionsResponse) Normalize() (model.Snapshot, error) {
	if r.Code != successCode {
		return nil, fmt.Errorf("positions error %s: %s", r.Code, r.Msg)
	}
	if len(r.Data) == 0 {
		return nil, errors.New("positions response has no data element")
	}

	entries := r.Data[0].PosData
	snapshot := make(model.Snapshot, len(entries))
	for i := range entries {
		if entries[i].InstID == "" {
			continue
		}
		snapshot[entries[i].InstID] = entries[i].ToRecord()
	}

	if len(snapshot) == 0 && len(entries) > 0 {
		return nil, errors.New("no entry carries an instrument id")
	}

	return snapshot, nil
}
