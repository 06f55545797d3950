// Package form provides the Bubble Tea screening form: an audio path and three
// symptom sliders feeding the predictor.
package form

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/parkinsight/internal/model"
	"github.com/verte-zerg/parkinsight/internal/pipeline"
)

const (
	fieldAudio = iota
	fieldTremor
	fieldBradykinesia
	fieldRigidity
	fieldCount
)

// Predictor extracts features from an audio file and combines both models.
type Predictor func(audioPath string, scores model.SymptomScores) (model.VoiceFeatures, model.Diagnosis, error)

// Defaults pre-fills the form.
type Defaults struct {
	AudioPath string
	Scores    model.SymptomScores
	RunID     string
}

type predictionMsg struct {
	features  model.VoiceFeatures
	diagnosis model.Diagnosis
	err       error
}

var (
	titleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	focusLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	filledStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A8FC8"))
	emptyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	healthyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	warningStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	positiveStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	bodyStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	footerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// Model implements the Bubble Tea screening form.
type Model struct {
	predict Predictor
	runID   string

	audio   textinput.Model
	scores  [3]int
	focus   int
	spinner spinner.Model

	busy      bool
	errMsg    string
	hasResult bool
	features  model.VoiceFeatures
	diagnosis model.Diagnosis

	width  int
	height int
}

// NewModel constructs a screening form.
func NewModel(predict Predictor, defaults Defaults) *Model {
	audio := textinput.New()
	audio.Prompt = ""
	audio.Placeholder = "path/to/recording.wav"
	audio.SetValue(defaults.AudioPath)
	audio.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		predict: predict,
		runID:   defaults.RunID,
		audio:   audio,
		scores: [3]int{
			clampScore(defaults.Scores.Tremor),
			clampScore(defaults.Scores.Bradykinesia),
			clampScore(defaults.Scores.Rigidity),
		},
		spinner: sp,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.audio.Width = maxInt(10, m.contentWidth()-lipgloss.Width(fieldLabel(fieldAudio))-1)
		return m, nil
	case predictionMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			m.hasResult = false
			return m, nil
		}
		m.errMsg = ""
		m.hasResult = true
		m.features = msg.features
		m.diagnosis = msg.diagnosis
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyTab, tea.KeyDown:
		return m, m.setFocus(m.focus + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.setFocus(m.focus - 1)
	case tea.KeyEnter:
		return m, m.submit()
	}
	if m.focus == fieldAudio {
		var cmd tea.Cmd
		m.audio, cmd = m.audio.Update(msg)
		return m, cmd
	}
	idx := m.focus - fieldTremor
	switch msg.String() {
	case "left", "h":
		m.scores[idx] = clampScore(m.scores[idx] - 1)
	case "right", "l":
		m.scores[idx] = clampScore(m.scores[idx] + 1)
	case "q":
		return m, tea.Quit
	default:
		if len(msg.Runes) == 1 && msg.Runes[0] >= '0' && msg.Runes[0] <= '9' {
			m.scores[idx] = int(msg.Runes[0] - '0')
		}
	}
	return m, nil
}

func (m *Model) setFocus(idx int) tea.Cmd {
	if idx < 0 {
		idx = fieldCount - 1
	}
	if idx >= fieldCount {
		idx = 0
	}
	m.focus = idx
	if m.focus == fieldAudio {
		return m.audio.Focus()
	}
	m.audio.Blur()
	return nil
}

// Scores returns the current slider values.
func (m *Model) Scores() model.SymptomScores {
	return model.SymptomScores{
		Tremor:       m.scores[0],
		Bradykinesia: m.scores[1],
		Rigidity:     m.scores[2],
	}
}

func (m *Model) submit() tea.Cmd {
	if m.busy {
		return nil
	}
	path := strings.TrimSpace(m.audio.Value())
	if path == "" {
		m.errMsg = "audio path is required"
		return nil
	}
	if err := m.Scores().Validate(); err != nil {
		m.errMsg = err.Error()
		return nil
	}
	m.errMsg = ""
	m.busy = true
	return tea.Batch(m.spinner.Tick, m.predictCmd(path, m.Scores()))
}

func (m *Model) predictCmd(path string, scores model.SymptomScores) tea.Cmd {
	predict := m.predict
	return func() tea.Msg {
		features, diagnosis, err := predict(path, scores)
		return predictionMsg{features: features, diagnosis: diagnosis, err: err}
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	content := m.renderContent()
	if m.width == 0 || m.height == 0 {
		return content
	}
	content = lipgloss.NewStyle().Width(m.contentWidth()).Render(content)
	footer := m.renderFooter()
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	w := int(float64(m.width) * 0.70)
	if w < 1 {
		w = 1
	}
	return w
}

func (m *Model) renderContent() string {
	lines := []string{titleStyle.Render("Parkinson's screening"), ""}
	lines = append(lines, m.labelFor(fieldAudio)+" "+m.audio.View())
	for i := fieldTremor; i <= fieldRigidity; i++ {
		lines = append(lines, m.labelFor(i)+" "+renderSlider(m.scores[i-fieldTremor], i == m.focus))
	}
	lines = append(lines, "")

	switch {
	case m.busy:
		lines = append(lines, m.spinner.View()+" Extracting voice features...")
	case m.errMsg != "":
		lines = append(lines, errorStyle.Render("Error: "+m.errMsg))
	case m.hasResult:
		lines = append(lines, m.renderResult())
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderResult() string {
	summary := labelStyle.Render(fmt.Sprintf(
		"Fo %.1f Hz · jitter %.3f%% · shimmer %.3f · HNR %.1f dB",
		m.features.Fo, m.features.JitterPercent*100, m.features.Shimmer, m.features.HNR,
	))
	models := labelStyle.Render(fmt.Sprintf(
		"Voice model: %d · Symptom model: %d",
		m.diagnosis.VoicePrediction, m.diagnosis.SymptomPrediction,
	))
	runes := buildStyledRunes([]rune(string(m.diagnosis.Verdict)), verdictStyle(m.diagnosis.Verdict), bodyStyle)
	width := 0
	if m.width > 0 {
		width = m.contentWidth()
	}
	return strings.Join([]string{summary, models, "", wrapStyledRunes(runes, width)}, "\n")
}

func (m *Model) renderFooter() string {
	segments := []string{}
	if m.runID != "" {
		segments = append(segments, "Run "+shortID(m.runID))
	}
	if m.focus == fieldAudio {
		segments = append(segments, "Tab: next field")
	} else {
		segments = append(segments, "←/→ or 0-9: score", "Tab: next field")
	}
	segments = append(segments, "Enter: predict", "Esc: quit")
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) labelFor(field int) string {
	if field == m.focus {
		return focusLabelStyle.Render(fieldLabel(field))
	}
	return labelStyle.Render(fieldLabel(field))
}

func fieldLabel(field int) string {
	names := [...]string{"Audio file", "Tremor", "Bradykinesia", "Rigidity"}
	return fmt.Sprintf("%-13s", names[field])
}

func renderSlider(value int, focused bool) string {
	filled := strings.Repeat("■", value)
	empty := strings.Repeat("□", model.MaxSymptomScore-value)
	text := fmt.Sprintf("%d/%d", value, model.MaxSymptomScore)
	if focused {
		text = focusLabelStyle.Render(text)
	}
	return filledStyle.Render(filled) + emptyStyle.Render(empty) + " " + text
}

func verdictStyle(v model.Verdict) lipgloss.Style {
	switch v {
	case pipeline.VerdictHealthy:
		return healthyStyle
	case pipeline.VerdictParkinsons:
		return positiveStyle
	default:
		return warningStyle
	}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > model.MaxSymptomScore {
		return model.MaxSymptomScore
	}
	return v
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
