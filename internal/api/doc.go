// Package api provides the OKX client for the copy-trading REST endpoints.
//
// Endpoints:
//   - /priapi/v5/ecotrade/public/positions-v2 (open positions per lead account)
//   - /priapi/v5/ecotrade/public/trade-records (lead trader profile / nickname)
//   - /api/v5/public/mark-price (live mark price per instrument)
//
// The ecotrade endpoints are the ones backing the public copy-trading web
// pages; they require browser-like headers but no API key.
package api
