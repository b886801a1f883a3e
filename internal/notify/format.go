package notify

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/okx-copytrack/internal/model"
)

// priceUnavailable is shown in closed-position messages when the live mark
// price cannot be fetched.
const priceUnavailable = "Market price retrieval error"

// FormatConfig controls the presentation of notification messages.
type FormatConfig struct {
	UTCOffsetHours     int    // Display timezone, e.g. 7 for UTC+7
	TimeFormat         string // Go layout for display timestamps
	ProfileURLTemplate string // %s is replaced with the account UID
}

// DefaultFormatConfig mirrors the OKX web presentation.
func DefaultFormatConfig() FormatConfig {
	return FormatConfig{
		UTCOffsetHours:     7,
		TimeFormat:         "2006-01-02 15:04:05",
		ProfileURLTemplate: "https://www.okx.com/copy-trading/account/%s?tab=trade",
	}
}

func (c FormatConfig) profileURL(uid string) string {
	return fmt.Sprintf(c.ProfileURLTemplate, uid)
}

func (c FormatConfig) displayTime(micros int64) string {
	t := time.UnixMicro(micros).UTC().Add(time.Duration(c.UTCOffsetHours) * time.Hour)
	return fmt.Sprintf("%s (UTC%+d)", t.Format(c.TimeFormat), c.UTCOffsetHours)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// pnlLine renders the unrealized PnL percentage with its color indicator.
func pnlLine(ratio float64) string {
	pnl := ratio * 100
	emoji := "🟢"
	if pnl < 0 {
		emoji = "🔴"
	}
	return fmt.Sprintf("%s <b>PnL:</b> %.2f%%", emoji, pnl)
}

func positionLine(rec model.PositionRecord) string {
	return fmt.Sprintf("<b>Position:</b> %s %s %sX", rec.Instrument, rec.Side, formatNumber(rec.Leverage))
}

func profileLink(url string) string {
	return fmt.Sprintf("🔗 <a href='%s'><b>VIEW PROFILE ON OKX</b></a>", url)
}

// formatOpened renders a new-position message.
func (c FormatConfig) formatOpened(account model.TrackedAccount, rec model.PositionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ [<b>%s</b>]\n", account.DisplayName)
	b.WriteString("❇️ <b>New position opened</b>\n\n")
	b.WriteString(positionLine(rec) + "\n\n")
	b.WriteString("💵 Base currency - USDT\n")
	b.WriteString("------------------------------\n")
	fmt.Fprintf(&b, "🎯 <b>Entry Price:</b> %s\n", formatNumber(rec.EntryPrice))
	fmt.Fprintf(&b, "💰 <b>Est. Liq Price:</b> %s\n", formatNumber(rec.LiqPrice))
	b.WriteString(pnlLine(rec.UplRatio) + "\n\n")
	fmt.Fprintf(&b, "🕒 <b>Last Update:</b>\n%s\n", c.displayTime(rec.UpdatedTS))
	b.WriteString(profileLink(c.profileURL(account.UID)))
	return b.String()
}

// formatClosed renders a closed-position message. markPx is the live mark
// price, or priceUnavailable when the lookup failed.
func (c FormatConfig) formatClosed(account model.TrackedAccount, rec model.PositionRecord, markPx string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ [<b>%s</b>]\n", account.DisplayName)
	b.WriteString("⛔️ <b>Position closed</b>\n\n")
	b.WriteString(positionLine(rec) + "\n")
	fmt.Fprintf(&b, "💵 <b>Current Price:</b> %s USDT\n\n", markPx)
	fmt.Fprintf(&b, "🕒 <b>Last Update:</b>\n%s\n", c.displayTime(rec.UpdatedTS))
	b.WriteString(profileLink(c.profileURL(account.UID)))
	return b.String()
}

// formatInitial renders the first-observation message: a header plus one block
// per open position, or a "no positions found" message for an empty snapshot.
// Blocks are ordered by instrument ID so the output is reproducible.
func (c FormatConfig) formatInitial(account model.TrackedAccount, snapshot model.Snapshot) string {
	if len(snapshot) == 0 {
		return fmt.Sprintf("⚠️ [<b>%s</b>]\n💎 <b>No positions found</b>", account.DisplayName)
	}

	instruments := snapshot.Instruments()
	sort.Strings(instruments)

	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ [<b>%s</b>]\n", account.DisplayName)
	b.WriteString("💎 <b>Current positions:</b>")

	for _, inst := range instruments {
		rec := snapshot[inst]
		b.WriteString("\n\n")
		fmt.Fprintf(&b, "🔄 %s\n\n", positionLine(rec))
		b.WriteString("💵 Base currency - USDT\n")
		b.WriteString("------------------------------\n")
		fmt.Fprintf(&b, "🎯 <b>Entry Price:</b> %s\n", formatNumber(rec.EntryPrice))
		fmt.Fprintf(&b, "💰 <b>Est. Liq Price:</b> %s\n", formatNumber(rec.LiqPrice))
		b.WriteString(pnlLine(rec.UplRatio) + "\n\n")
		fmt.Fprintf(&b, "🕒 <b>Last Update:</b>\n%s", c.displayTime(rec.UpdatedTS))
	}

	b.WriteString("\n" + profileLink(c.profileURL(account.UID)))
	return b.String()
}
