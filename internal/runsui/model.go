// Package runsui provides the Bubble Tea browser over recorded training runs.
package runsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/parkinsight/internal/model"
	"github.com/verte-zerg/parkinsight/internal/pipeline"
	"github.com/verte-zerg/parkinsight/internal/report"
	"github.com/verte-zerg/parkinsight/internal/store"
)

const (
	tabOverview = iota
	tabRuns
	tabTuning
)

const (
	plotHeight    = 10
	topCandidates = 10
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#3A8FC8"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea run browser.
type Model struct {
	store *store.Store
	cfg   model.RunsConfig

	runs     []model.RunSummary
	selected int
	grid     []model.GridScore
	errMsg   string
	gridErr  string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	runTable  table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a run browser model.
func NewModel(st *store.Store, cfg model.RunsConfig) *Model {
	if cfg.Window < 1 {
		cfg.Window = 1
	}
	m := &Model{
		store: st,
		cfg:   cfg,
		tabs:  []string{"Overview", "Runs", "Tuning"},
	}
	m.initInputs()
	m.runTable = newRunTable()
	m.initViewports()
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.filterMode && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.Window = nextCurveWindow(m.cfg.Window)
			m.renderTabContents()
			return m, nil
		case "-":
			m.cfg.Window = prevCurveWindow(m.cfg.Window)
			m.renderTabContents()
			return m, nil
		case "/":
			return m.startFilter()
		case "enter":
			if m.activeTab == tabRuns && len(m.runs) > 0 {
				m.selectRun(m.runTable.Cursor())
				m.activeTab = tabTuning
				m.runTable.Blur()
				return m, tea.ClearScreen
			}
			return m, nil
		case "g", "home":
			if m.activeTab == tabRuns {
				m.runTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabRuns {
				m.runTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabRuns {
				var cmd tea.Cmd
				m.runTable, cmd = m.runTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Trend window: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	if m.cfg.Since != nil {
		m.filterInputs[0].SetValue(m.cfg.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[0].SetValue("")
	}
	if m.cfg.Last > 0 {
		m.filterInputs[1].SetValue(strconv.Itoa(m.cfg.Last))
	} else {
		m.filterInputs[1].SetValue("")
	}
	m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.Window))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.runTable.SetWidth(m.width)
	m.runTable.SetHeight(maxInt(1, bodyHeight-1))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabRuns {
		m.runTable.Focus()
	} else {
		m.runTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	selected := "-"
	if run, ok := m.selectedRun(); ok {
		selected = shortID(run.Run.ID)
	}
	summary := fmt.Sprintf("Settings: since=%s  last=%s  window=%d  run=%s", since, last, m.cfg.Window, selected)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel  quit: ctrl+c")
	}
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Quit: q"
	if m.activeTab == tabRuns {
		help = "Nav: left/right  Select: up/down  Open tuning: enter  Settings: /  Quit: q"
	}
	help = headerStyle.Render(help)
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.activeTab == tabRuns {
		if len(m.runs) == 0 {
			return fitLines("No runs found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.runTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) refresh() {
	runs, err := m.store.Summaries(context.Background(), m.cfg.Since)
	if err != nil {
		m.errMsg = err.Error()
		m.runs = nil
		m.runTable.SetRows(nil)
		m.renderTabContents()
		return
	}
	m.errMsg = ""
	if m.cfg.Last > 0 && len(runs) > m.cfg.Last {
		runs = runs[:m.cfg.Last]
	}
	m.runs = runs
	m.runTable.SetRows(runRows(runs))
	m.selectRun(0)
}

func (m *Model) selectRun(idx int) {
	m.selected = idx
	m.grid = nil
	m.gridErr = ""
	if run, ok := m.selectedRun(); ok {
		grid, err := m.store.ListGridScores(context.Background(), run.Run.ID)
		if err != nil {
			m.gridErr = err.Error()
		}
		m.grid = grid
	}
	m.renderTabContents()
}

func (m *Model) selectedRun() (model.RunSummary, bool) {
	if m.selected < 0 || m.selected >= len(m.runs) {
		return model.RunSummary{}, false
	}
	return m.runs[m.selected], true
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	if m.errMsg != "" {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load runs.")
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.runs, m.cfg.Window, width))
	run, ok := m.selectedRun()
	if !ok {
		m.viewports[tabTuning].SetContent("No runs found.")
		return
	}
	m.viewports[tabTuning].SetContent(renderTuning(run, m.grid, m.gridErr, width))
}

func renderOverview(runs []model.RunSummary, window, width int) string {
	if len(runs) == 0 {
		return "No runs found."
	}
	latest := runs[0]
	bestTuned := 0.0
	for _, r := range runs {
		if s, ok := findScore(r.Scores, pipeline.DatasetVoice, pipeline.TunedModelName); ok && s.Accuracy > bestTuned {
			bestTuned = s.Accuracy
		}
	}
	cards := []string{
		metricCard("Runs", strconv.Itoa(len(runs))),
		metricCard("Latest tuned acc", scoreText(latest.Scores, pipeline.DatasetVoice, pipeline.TunedModelName)),
		metricCard("Best tuned acc", fmt.Sprintf("%.1f%%", bestTuned*100)),
		metricCard("Latest symptom acc", scoreText(latest.Scores, pipeline.DatasetSymptom, "Random Forest")),
		metricCard("Latest run", latest.Run.StartedAt.Local().Format("2006-01-02 15:04")),
	}
	if best, ok := report.BestScore(latest.Scores, pipeline.DatasetVoice); ok {
		cards = append(cards, metricCard("Best voice model", best.Model))
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3:]...)
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	return strings.TrimRight(summary+"\n\n"+renderTrend(runs, window, width), "\n")
}

func renderTrend(runs []model.RunSummary, window, width int) string {
	// Runs arrive newest first; the trend reads left to right in time.
	tuned := make([]float64, 0, len(runs))
	symptom := make([]float64, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		t, _ := findScore(runs[i].Scores, pipeline.DatasetVoice, pipeline.TunedModelName)
		s, _ := findScore(runs[i].Scores, pipeline.DatasetSymptom, "Random Forest")
		tuned = append(tuned, t.Accuracy*100)
		symptom = append(symptom, s.Accuracy*100)
	}
	var buf bytes.Buffer
	err := report.Plot{
		Title: "Test accuracy per run",
		Series: []report.Series{
			{Name: "Tuned voice", Values: report.MovingAverage(tuned, window)},
			{Name: "Symptom", Values: report.MovingAverage(symptom, window)},
		},
		Width:      report.PlotWidthFor(width),
		Height:     plotHeight,
		Shared:     true,
		ForceColor: true,
	}.Render(&buf)
	if err != nil {
		return fmt.Sprintf("Failed to render trend: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderTuning(run model.RunSummary, grid []model.GridScore, gridErr string, width int) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Run %s  started %s\n", run.Run.ID, run.Run.StartedAt.Local().Format(time.RFC822))
	fmt.Fprintf(&buf, "Artifacts: %s\n", run.Run.ArtifactsDir)
	fmt.Fprintf(&buf, "Outlier rows: %d before, %d after cleaning\n\n", run.Run.OutliersBefore, run.Run.OutliersAfter)

	voice := make([]model.ModelScore, 0, len(run.Scores))
	for _, s := range run.Scores {
		if s.Dataset == pipeline.DatasetVoice {
			voice = append(voice, s)
		}
	}
	if err := report.RenderAccuracyComparison(&buf, voice, width); err != nil {
		return fmt.Sprintf("Failed to render scores: %v", err)
	}
	if gridErr != "" {
		buf.WriteString("Failed to load tuning scores: " + gridErr)
		return buf.String()
	}
	if err := report.RenderGridSearch(&buf, grid, topCandidates, width, plotHeight); err != nil {
		return fmt.Sprintf("Failed to render tuning: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func findScore(scores []model.ModelScore, dataset, name string) (model.ModelScore, bool) {
	for _, s := range scores {
		if s.Dataset == dataset && s.Model == name {
			return s, true
		}
	}
	return model.ModelScore{}, false
}

func scoreText(scores []model.ModelScore, dataset, name string) string {
	s, ok := findScore(scores, dataset, name)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", s.Accuracy*100)
}

func newRunTable() table.Model {
	t := table.New(
		table.WithColumns(runColumns()),
		table.WithHeight(1),
	)
	t.SetStyles(runTableStyles())
	return t
}

func runColumns() []table.Column {
	return []table.Column{
		{Title: "Run", Width: 8},
		{Title: "Started", Width: 16},
		{Title: "Duration", Width: 9},
		{Title: "Voice", Width: 6},
		{Title: "Outliers", Width: 9},
		{Title: "Tuned acc", Width: 9},
		{Title: "Symptom acc", Width: 11},
	}
}

func runRows(runs []model.RunSummary) []table.Row {
	rows := make([]table.Row, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, table.Row{
			shortID(r.Run.ID),
			r.Run.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Run.EndedAt.Sub(r.Run.StartedAt).Round(time.Second).String(),
			strconv.Itoa(r.Run.VoiceRows),
			fmt.Sprintf("%d→%d", r.Run.OutliersBefore, r.Run.OutliersAfter),
			scoreText(r.Scores, pipeline.DatasetVoice, pipeline.TunedModelName),
			scoreText(r.Scores, pipeline.DatasetSymptom, "Random Forest"),
		})
	}
	return rows
}

func runTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refresh()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	cfg, err := parseFilter(
		m.filterInputs[0].Value(),
		m.filterInputs[1].Value(),
		m.filterInputs[2].Value(),
	)
	if err != nil {
		return err
	}
	m.cfg = cfg
	return nil
}

func parseFilter(sinceInput, lastInput, windowInput string) (model.RunsConfig, error) {
	var cfg model.RunsConfig
	if s := strings.TrimSpace(sinceInput); s != "" {
		parsed, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		cfg.Since = &parsed
	}
	if s := strings.TrimSpace(lastInput); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 0 {
			return cfg, fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		cfg.Last = parsed
	}
	cfg.Window = 1
	if s := strings.TrimSpace(windowInput); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 {
			return cfg, fmt.Errorf("invalid trend window (use integer >= 1)")
		}
		cfg.Window = parsed
	}
	return cfg, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	if n%5 == 0 {
		return n + 5
	}
	return ((n / 5) + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
