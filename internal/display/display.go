package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/cloudwego/eino/schema"

	"github.com/dyike/MomentumGo/config"
	"github.com/dyike/MomentumGo/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 2).
			Width(80)

	reportsStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#10B981")).
			Padding(1, 2).
			Width(80)

	toolCallStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8B5CF6"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))
)

// ResultsDisplay renders momentum results for one symbol and date.
type ResultsDisplay struct {
	symbol string
	date   string
}

func NewResultsDisplay(symbol, date string) *ResultsDisplay {
	return &ResultsDisplay{
		symbol: symbol,
		date:   date,
	}
}

// RenderHeader returns the boxed title for the analysis.
func (d *ResultsDisplay) RenderHeader() string {
	return headerStyle.Render(fmt.Sprintf("MOMENTUM ANALYSIS FOR %s  |  Date: %s", d.symbol, d.date))
}

// RenderReport returns the momentum report, or a placeholder when the model
// has not produced one yet.
func (d *ResultsDisplay) RenderReport(report string) string {
	var b strings.Builder
	signal := TrendSignal(report)
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s Trend signal: %s", signalEmoji(signal), signal)))
	b.WriteString("\n")
	if strings.TrimSpace(report) == "" {
		b.WriteString(reportsStyle.Render("(No momentum report yet)"))
	} else {
		b.WriteString(reportsStyle.Render(strings.TrimSpace(report)))
	}
	return b.String()
}

// RenderToolCalls lists the tools the model asked for.
func (d *ResultsDisplay) RenderToolCalls(msg *schema.Message) string {
	if msg == nil || len(msg.ToolCalls) == 0 {
		return labelStyle.Render("No tool calls requested")
	}
	lines := []string{titleStyle.Render("Model requested tools:")}
	for _, tc := range msg.ToolCalls {
		lines = append(lines, toolCallStyle.Render(fmt.Sprintf("  🔧 %s(%s)", tc.Function.Name, tc.Function.Arguments)))
	}
	return strings.Join(lines, "\n")
}

// RenderState renders the outcome of a single step or a full graph run.
func (d *ResultsDisplay) RenderState(state *models.TradingState) string {
	parts := []string{d.RenderHeader()}
	last := state.LastMessage()
	if state.MomentumReport == "" && last != nil && len(last.ToolCalls) > 0 {
		parts = append(parts, d.RenderToolCalls(last))
	} else {
		parts = append(parts, d.RenderReport(state.MomentumReport))
	}
	parts = append(parts, labelStyle.Render(fmt.Sprintf("Messages: %d  |  Sender: %s", len(state.Messages), state.Sender)))
	parts = append(parts, footer())
	return strings.Join(parts, "\n") + "\n"
}

// DisplayAnalysisResults writes RenderState to w.
func (d *ResultsDisplay) DisplayAnalysisResults(w io.Writer, state *models.TradingState) {
	fmt.Fprint(w, d.RenderState(state))
}

// RenderConfig shows the effective configuration with API keys masked.
func RenderConfig(cfg *config.Config) string {
	rows := [][2]string{
		{"LLM provider", cfg.LLMProvider},
		{"Model", cfg.QuickThinkLLM},
		{"Backend URL", cfg.BackendURL},
		{"Max tokens", fmt.Sprintf("%d", cfg.MaxTokens)},
		{"Max recursion", fmt.Sprintf("%d", cfg.MaxRecurLimit)},
		{"API key", MaskSecret(cfg.APIKey())},
		{"Dataflows URL", orNotSet(cfg.DataflowsURL)},
		{"Dataflows timeout", fmt.Sprintf("%ds", cfg.DataflowsTimeoutSec)},
		{"Results dir", cfg.ResultsDir},
		{"Debug", fmt.Sprintf("%t", cfg.Debug)},
		{"Eino debug", fmt.Sprintf("%t (port %d)", cfg.EinoDebugEnabled, cfg.EinoDebugPort)},
	}
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, titleStyle.Render("⚙️  Configuration"))
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render(fmt.Sprintf("%-18s", r[0]+":")), r[1]))
	}
	return strings.Join(lines, "\n") + "\n"
}

// MaskSecret keeps the first and last four characters of long secrets.
func MaskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}

// TrendSignal picks the dominant trend word out of a report.
func TrendSignal(report string) string {
	upper := strings.ToUpper(report)
	bull := strings.Count(upper, "BULLISH")
	bear := strings.Count(upper, "BEARISH")
	switch {
	case strings.TrimSpace(report) == "":
		return "PENDING"
	case bull > bear:
		return "BULLISH"
	case bear > bull:
		return "BEARISH"
	default:
		return "NEUTRAL"
	}
}

func signalEmoji(signal string) string {
	switch signal {
	case "BULLISH":
		return "🟢"
	case "BEARISH":
		return "🔴"
	case "NEUTRAL":
		return "🟡"
	default:
		return "⏳"
	}
}

func footer() string {
	return labelStyle.Render(fmt.Sprintf("🕐 Generated at %s. For informational purposes only, not financial advice.",
		time.Now().Format("2006-01-02 15:04:05")))
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func DisplayError(w io.Writer, err error, context string) {
	fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("❌ Error in %s: %v", context, err)))
}

func DisplayWarning(w io.Writer, message string) {
	fmt.Fprintln(w, warningStyle.Render("⚠️  Warning: "+message))
}

func DisplaySuccess(w io.Writer, message string) {
	fmt.Fprintln(w, successStyle.Render("✅ "+message))
}
