package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"MatchingPool/internal/model"
)

// FormatMatchReport formats a successful donation match announcement.
func FormatMatchReport(campaign *model.CampaignMatch, donation, matchAmount, poolBalance int64) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🤝 <b>Donation matched</b> | %s\n\n", time.Now().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Campaign #%d (%s, %s)\n", campaign.ID, campaign.PoolType, campaign.Currency))
	b.WriteString(fmt.Sprintf("Donation: %s\n", humanize.Comma(donation)))
	b.WriteString(fmt.Sprintf("Matched:  %s\n", humanize.Comma(matchAmount)))
	b.WriteString(fmt.Sprintf("Campaign total matched: %s\n", humanize.Comma(campaign.MatchedAmount)))
	b.WriteString(fmt.Sprintf("Pool balance remaining: %s\n", humanize.Comma(poolBalance)))
	return b.String()
}

// FormatPoolStatus formats the current pool state for display.
func FormatPoolStatus(state *model.PoolState) string {
	var b strings.Builder
	b.WriteString("📦 <b>Matching pool status</b>\n\n")
	b.WriteString(fmt.Sprintf("Pool balance: %s\n", humanize.Comma(state.PoolBalance)))
	b.WriteString(fmt.Sprintf("Total matched: %s\n", humanize.Comma(state.TotalMatched)))
	b.WriteString(fmt.Sprintf("Campaigns: %d / %d\n", state.NextPoolID, state.MaxPools))
	b.WriteString(fmt.Sprintf("Matching ratio: %dx | Cap: %s\n", state.MatchingRatio, humanize.Comma(state.MaxMatchingCap)))
	b.WriteString(fmt.Sprintf("Admin fee: %s\n", humanize.Comma(state.AdminFee)))
	if state.Authority != "" {
		b.WriteString(fmt.Sprintf("Authority: %s\n", state.Authority))
	} else {
		b.WriteString("Authority: (unbound)\n")
	}
	b.WriteString(fmt.Sprintf("Updated: %s\n", state.UpdatedAt.Format("2006-01-02 15:04")))
	return b.String()
}

// FormatDailySummary formats the daily report: pool status plus
// per-campaign matching totals for active campaigns.
func FormatDailySummary(state *model.PoolState) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>Daily summary</b> | %s\n\n", time.Now().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Pool balance: %s | Lifetime matched: %s\n",
		humanize.Comma(state.PoolBalance), humanize.Comma(state.TotalMatched)))

	active := 0
	for _, c := range state.Campaigns {
		if c.IsActive {
			active++
		}
	}
	b.WriteString(fmt.Sprintf("Campaigns: %d total, %d active\n", len(state.Campaigns), active))

	for id := int64(0); id < state.NextPoolID; id++ {
		c, ok := state.Campaigns[id]
		if !ok || !c.IsActive {
			continue
		}
		b.WriteString(fmt.Sprintf("  #%d %s: donations %s, matched %s\n",
			c.ID, c.PoolType, humanize.Comma(c.TotalDonations), humanize.Comma(c.MatchedAmount)))
	}
	return b.String()
}
