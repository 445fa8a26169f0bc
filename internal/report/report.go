package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/susscan/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

// PrintResults prints the ranked batch table, one row per player in the
// given order.
func PrintResults(w io.Writer, results []*model.PlayerMetrics) {
	table := newTable(w)
	table.Header("#", "PLAYER", "SCORE", "GAMES", "W-D-L", "WIN%",
		"STREAK", "MAX", "UPSETS", "SHORT%", "ELO_R", "ELO_GAP", "BAIL_L%", "FLAGS")

	for i, m := range results {
		table.Append(
			strconv.Itoa(i+1),
			m.Username,
			fmt.Sprintf("%.2f", m.SuspicionScore),
			strconv.Itoa(m.LifetimeGames),
			fmt.Sprintf("%d-%d-%d", m.LifetimeWins, m.LifetimeDraws, m.LifetimeLosses),
			pct(m.LifetimeWinRate),
			strconv.Itoa(m.CurrentWinStreak),
			strconv.Itoa(m.MaxWinStreak),
			strconv.Itoa(m.UpsetWins),
			pctIf(m.ShortWinRate, m.LifetimeWins),
			ratioIf(m.Elo),
			gapIf(m),
			pctIf(m.NonTournBailLossRate, m.NonTournLosses),
			strconv.Itoa(len(m.Reasons)),
		)
	}
	table.Render()
}

// PrintDetail prints the split tables for one player followed by the fired
// rules.
func PrintDetail(w io.Writer, m *model.PlayerMetrics) {
	fmt.Fprintf(w, "\nPlayer: %s  |  Games fetched: %d  |  Suspicion score: %.2f\n\n",
		m.Username, m.GamesFetched, m.SuspicionScore)

	split := newTable(w)
	split.Header("SEGMENT", "GAMES", "W", "D", "L", "WIN%", "BAIL_L", "BAIL_L%", "ELO_N", "GAIN", "LOSS", "RATIO")
	split.Append(segmentRow("overall", m.LifetimeGames, m.LifetimeWins, m.LifetimeDraws, m.LifetimeLosses,
		m.LifetimeWinRate, m.TournBailLosses+m.NonTournBailLosses, -1, m.Elo)...)
	split.Append(segmentRow("tournament", m.TournGames, m.TournWins, m.TournDraws, m.TournLosses,
		m.TournWinRate, m.TournBailLosses, m.TournBailLossRate, m.EloTourn)...)
	split.Append(segmentRow("other", m.NonTournGames, m.NonTournWins, m.NonTournDraws, m.NonTournLosses,
		m.NonTournWinRate, m.NonTournBailLosses, m.NonTournBailLossRate, m.EloNonTourn)...)
	split.Render()

	fmt.Fprintf(w, "\nWin streak: %d (max %d)  |  Upsets: %d  |  Short wins: %d (%s)  |  Bail wins: %d (%s)\n",
		m.CurrentWinStreak, m.MaxWinStreak, m.UpsetWins,
		m.ShortWins, pct(m.ShortWinRate), m.BailWins, pct(m.BailWinRatio))
	fmt.Fprintf(w, "Win-rate gap: %+.2f  |  Elo ratio gap: %+.2f\n", m.WinRateGap, m.EloRatioGap)

	if len(m.Reasons) == 0 {
		fmt.Fprintln(w, "\nNo rules fired.")
		return
	}
	fmt.Fprintln(w, "\nReasons:")
	for _, r := range m.Reasons {
		fmt.Fprintf(w, "  - %s\n", r)
	}
}

// PrintHistory prints stored scans, newest first.
func PrintHistory(w io.Writer, recs []model.ScanRecord) {
	table := newTable(w)
	table.Header("ID", "PLAYER", "SCORE", "GAMES", "SCANNED", "REASONS")
	for _, r := range recs {
		table.Append(
			strconv.FormatInt(r.ID, 10),
			r.Username,
			fmt.Sprintf("%.2f", r.Score),
			strconv.Itoa(r.Metrics.LifetimeGames),
			r.ScannedAt.Local().Format("2006-01-02 15:04"),
			truncate(strings.Join(r.Metrics.Reasons, "; "), 60),
		)
	}
	table.Render()
}

// PrintRows prints an arbitrary result set, e.g. from a raw query.
func PrintRows(w io.Writer, cols []string, rows [][]string) {
	table := newTable(w)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	table.Header(header...)
	for _, row := range rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		table.Append(cells...)
	}
	table.Render()
}

// segmentRow renders one split line; a negative bailRate prints as a dash.
func segmentRow(name string, games, wins, draws, losses int, winRate float64, bail int, bailRate float64, e model.EloSegment) []any {
	bailPct := "—"
	if bailRate >= 0 && losses > 0 {
		bailPct = pct(bailRate)
	}
	return []any{
		name,
		strconv.Itoa(games),
		strconv.Itoa(wins),
		strconv.Itoa(draws),
		strconv.Itoa(losses),
		pct(winRate),
		strconv.Itoa(bail),
		bailPct,
		strconv.Itoa(e.Games),
		fmt.Sprintf("%.2f", e.Gain),
		fmt.Sprintf("%.2f", e.Loss),
		ratioIf(e),
	}
}

func pct(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

// pctIf prints a dash when the denominator sample is empty.
func pctIf(v float64, n int) string {
	if n == 0 {
		return "—"
	}
	return pct(v)
}

// ratioIf caps the display of huge ratios produced by an almost-zero loss sum.
func ratioIf(e model.EloSegment) string {
	switch {
	case e.Games == 0:
		return "—"
	case e.Ratio >= 1000:
		return "∞"
	default:
		return fmt.Sprintf("%.2f", e.Ratio)
	}
}

func gapIf(m *model.PlayerMetrics) string {
	if m.EloTourn.Games == 0 || m.EloNonTourn.Games == 0 {
		return "—"
	}
	return fmt.Sprintf("%+.2f", m.EloRatioGap)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
