package api

// successCode is the sentinel OKX uses for a successful envelope.
const successCode = "0"

// PositionsResponse from GET /priapi/v5/ecotrade/public/positions-v2.
type PositionsResponse struct {
	Code string         `json:"code"`
	Msg  string         `json:"msg"`
	Data []PositionData `json:"data"`
}

// PositionData wraps the position list for one lead account.
type PositionData struct {
	PosData []APIPosition `json:"posData"`
}

// APIPosition is one open position as reported by OKX.
// All numeric fields arrive as strings, per OKX convention.
type APIPosition struct {
	InstID   string `json:"instId"`
	InstType string `json:"instType"`
	PosSide  string `json:"posSide"`
	MgnMode  string `json:"mgnMode"`
	Lever    string `json:"lever"`
	Pos      string `json:"pos"`
	AvailPos string `json:"availPos"`
	AvgPx    string `json:"avgPx"`
	LiqPx    string `json:"liqPx"`
	MarkPx   string `json:"markPx"`
	Upl      string `json:"upl"`
	UplRatio string `json:"uplRatio"`
	CTime    string `json:"cTime"`
	UTime    string `json:"uTime"`
}

// TradeRecordsResponse from GET /priapi/v5/ecotrade/public/trade-records.
type TradeRecordsResponse struct {
	Code string       `json:"code"`
	Msg  string       `json:"msg"`
	Data []TraderInfo `json:"data"`
}

// TraderInfo carries the lead trader's public profile fields.
type TraderInfo struct {
	NickName   string `json:"nickName"`
	UniqueName string `json:"uniqueName"`
}

// MarkPriceResponse from GET /api/v5/public/mark-price.
type MarkPriceResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		InstID   string `json:"instId"`
		InstType string `json:"instType"`
		MarkPx   string `json:"markPx"`
		Ts       string `json:"ts"`
	} `json:"data"`
}
