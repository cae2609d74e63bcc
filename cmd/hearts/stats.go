package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/lox/heartsforbots/internal/export"
	"github.com/lox/heartsforbots/internal/game"
	"github.com/lox/heartsforbots/internal/statistics"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	bestStyle = cellStyle.
			Foreground(lipgloss.Color("10"))

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))
)

// StatsCmd prints per-player statistics for one or more record files
type StatsCmd struct {
	Inputs []string `arg:"" type:"existingfile" default:"game_results.json" help:"Game records files"`
	Seats  bool     `help:"Also show results by seat"`
}

func (c *StatsCmd) Run(g *Globals) error {
	logger := g.Logger()

	stats := statistics.New()
	for _, path := range c.Inputs {
		records, err := export.ReadRecords(path)
		if err != nil {
			return err
		}
		logger.Debug("Loaded records", "path", path, "games", len(records))
		for _, rec := range records {
			stats.Add(rec)
		}
	}
	if err := stats.Validate(); err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, renderStatistics(stats))
	if c.Seats {
		fmt.Fprintln(os.Stdout, renderSeats(stats))
	}
	return nil
}

// renderStatistics draws the player table, best win rate first
func renderStatistics(stats *statistics.Statistics) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Player statistics (%d games)", stats.Games)))
	b.WriteString("\n")

	ranked := stats.Ranked()
	rows := make([][]string, 0, len(ranked))
	for _, p := range ranked {
		lo, hi := p.ConfidenceInterval95()
		rows = append(rows, []string{
			p.Key.String(),
			fmt.Sprintf("%.1f%%", p.WinRate()*100),
			fmt.Sprintf("%.2f", p.Mean()),
			fmt.Sprintf("[%.2f, %.2f]", lo, hi),
			fmt.Sprintf("%.1f", p.Median()),
			fmt.Sprintf("%.2f", p.StdDev()),
			fmt.Sprintf("%d", p.Wins),
			fmt.Sprintf("%d", p.SoleWins),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("Player (Policy)", "Win Rate", "Avg Score", "95% CI", "Median", "Std Dev", "Wins", "Sole Wins").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == 0:
				return bestStyle
			default:
				return cellStyle
			}
		})
	b.WriteString(t.String())

	if stats.Ties > 0 || stats.Substitutions > 0 {
		b.WriteString("\n")
		b.WriteString(noteStyle.Render(fmt.Sprintf("%d tied games (every tied player is credited a win), %d illegal moves substituted",
			stats.Ties, stats.Substitutions)))
	}
	return b.String()
}

func renderSeats(stats *statistics.Statistics) string {
	rows := make([][]string, 0, game.NumPlayers)
	for seat, s := range stats.Seats {
		winRate := 0.0
		if s.Games > 0 {
			winRate = float64(s.Wins) / float64(s.Games) * 100
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", seat),
			fmt.Sprintf("%.1f%%", winRate),
			fmt.Sprintf("%.2f", s.Mean()),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("Seat", "Win Rate", "Avg Score").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}
