package review

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jobsift/jobsift/internal/model"
)

// Lines per posting item in the list view (title + subtitle + blank separator).
const postingItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	postingTitleStyle = lipgloss.NewStyle().
				Bold(true)

	postingSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")). // bright white
				Background(lipgloss.Color("24"))  // dark blue bg

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	summaryBodyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// postingScoredMsg is sent when an async on-demand scoring completes.
type postingScoredMsg struct {
	id     string
	result model.ScoreResult
}

type reviewModel struct {
	allPostings      []model.Posting
	eligiblePostings []model.Posting
	dropReasons      map[string]string // posting ID -> rule that dropped it
	scores           map[string]model.ScoreResult
	scorer           model.Scorer

	leftViewport  viewport.Model
	rightViewport viewport.Model
	activePane    int // 0=left, 1=right
	leftCursor    int
	rightCursor   int
	width         int
	height        int
	ready         bool

	// Detail view state
	view           viewState
	detailPosting  model.Posting
	detailViewport viewport.Model
	showSummary    bool
	scoreLoading   bool

	wantQuit bool
}

func (m reviewModel) Init() tea.Cmd {
	return nil
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case postingScoredMsg:
		m.scoreLoading = false
		m.scores[msg.id] = msg.result
		m.detailViewport.SetContent(m.renderDetail())
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m reviewModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	// Forward other keys (pgup/pgdn/home/end) to the active viewport.
	var cmd tea.Cmd
	if m.activePane == 0 {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m reviewModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		openURL(m.detailPosting.URL)
		return m, nil
	case "r":
		if m.detailPosting.Summary != "" {
			m.showSummary = !m.showSummary
			m.detailViewport.SetContent(m.renderDetail())
			m.detailViewport.SetYOffset(0)
		}
		return m, nil
	case "s":
		if m.scorer != nil && !m.scoreLoading {
			if _, scored := m.scores[m.detailPosting.ID]; !scored {
				m.scoreLoading = true
				m.detailViewport.SetContent(m.renderDetail())
				return m, m.scorePostingCmd(m.detailPosting)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m reviewModel) scorePostingCmd(p model.Posting) tea.Cmd {
	scorer := m.scorer
	return func() tea.Msg {
		result := scorer.Score(context.Background(), p)
		return postingScoredMsg{id: p.ID, result: result}
	}
}

func (m *reviewModel) moveCursor(delta int) {
	if m.activePane == 0 {
		m.leftCursor = clamp(m.leftCursor+delta, 0, max(len(m.allPostings)-1, 0))
	} else {
		m.rightCursor = clamp(m.rightCursor+delta, 0, max(len(m.eligiblePostings)-1, 0))
	}
}

func (m *reviewModel) ensureCursorVisible() {
	var vp *viewport.Model
	var cursor int
	if m.activePane == 0 {
		vp = &m.leftViewport
		cursor = m.leftCursor
	} else {
		vp = &m.rightViewport
		cursor = m.rightCursor
	}

	cursorTop := cursor * postingItemHeight
	cursorBottom := cursorTop + postingItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m reviewModel) openDetailView() (tea.Model, tea.Cmd) {
	postings := m.activePostings()
	cursor := m.activeCursor()
	if len(postings) == 0 {
		return m, nil
	}

	m.view = viewDetail
	m.detailPosting = postings[cursor]
	m.showSummary = false
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *reviewModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *reviewModel) recalcContent() {
	m.leftViewport.SetContent(renderPostings(m.allPostings, m.leftCursor, m.activePane == 0))
	m.rightViewport.SetContent(renderPostings(m.eligiblePostings, m.rightCursor, m.activePane == 1))
}

func (m reviewModel) activePostings() []model.Posting {
	if m.activePane == 0 {
		return m.allPostings
	}
	return m.eligiblePostings
}

func (m reviewModel) activeCursor() int {
	if m.activePane == 0 {
		return m.leftCursor
	}
	return m.rightCursor
}

func (m reviewModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.view == viewDetail {
		return m.viewDetail()
	}

	return m.viewList()
}

func (m reviewModel) viewList() string {
	paneWidth := m.leftViewport.Width

	// Headers.
	leftHeader := fmt.Sprintf(" All Postings (%d)", len(m.allPostings))
	rightHeader := fmt.Sprintf(" Eligible (%d)", len(m.eligiblePostings))

	var leftHeaderRendered, rightHeaderRendered string
	var leftBorder, rightBorder lipgloss.Style

	if m.activePane == 0 {
		leftHeaderRendered = activeHeaderStyle.Render(leftHeader)
		rightHeaderRendered = inactiveHeaderStyle.Render(rightHeader)
		leftBorder = activeBorderStyle.Width(paneWidth)
		rightBorder = inactiveBorderStyle.Width(paneWidth)
	} else {
		leftHeaderRendered = inactiveHeaderStyle.Render(leftHeader)
		rightHeaderRendered = activeHeaderStyle.Render(rightHeader)
		leftBorder = inactiveBorderStyle.Width(paneWidth)
		rightBorder = activeBorderStyle.Width(paneWidth)
	}

	// Panes with borders.
	leftPane := leftBorder.Render(m.leftViewport.View())
	rightPane := rightBorder.Render(m.rightViewport.View())

	// Headers side by side.
	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderRendered),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderRendered),
	)

	// Panes side by side.
	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, " ", rightPane)

	// Status bar.
	droppedCount := len(m.allPostings) - len(m.eligiblePostings)
	statusText := fmt.Sprintf(" %d total | %d eligible | %d dropped    ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit",
		len(m.allPostings), len(m.eligiblePostings), droppedCount)
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m reviewModel) viewDetail() string {
	title := detailTitleStyle.Render("Posting Details")
	if m.scoreLoading {
		title += "  (scoring...)"
	}

	border := activeBorderStyle.Width(m.width - 2)
	content := border.Render(m.detailViewport.View())

	statusText := " o open URL  esc/backspace back  ↑/↓ scroll  q quit"
	if m.detailPosting.Summary != "" {
		if _, scored := m.scores[m.detailPosting.ID]; m.scorer != nil && !scored && !m.scoreLoading {
			statusText = " o open URL  r summary  s score  esc/backspace back  ↑/↓ scroll  q quit"
		} else {
			statusText = " o open URL  r summary  esc/backspace back  ↑/↓ scroll  q quit"
		}
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m reviewModel) renderDetail() string {
	p := m.detailPosting
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Title", p.Title)
	addField("Company", p.Company)
	addField("Location", p.Location)
	addField("Posting ID", p.ID)
	addField("Source", p.Source)
	addField("Function", p.Function)
	addField("Industry", p.Industry)
	addField("Contact", p.Contact)

	b.WriteByte('\n')

	if p.PostedAt != nil {
		addField("Posted At", p.PostedAt.Format("2006-01-02 15:04 MST"))
	}
	if p.SalaryRaw != "" {
		addField("Salary", p.SalaryRaw)
	} else if p.Salary > 0 {
		addField("Salary", fmt.Sprintf("$%d", p.Salary))
	}
	if reason, ok := m.dropReasons[p.ID]; ok {
		addField("Dropped By", reason)
	}

	b.WriteByte('\n')
	addField("URL", p.URL)

	wrapWidth := max(m.width-8, 20)
	divider := func(label string) string {
		fill := strings.Repeat("─", max(wrapWidth-len(label), 3))
		return dividerStyle.Render(label + fill)
	}

	// Score block.
	if result, ok := m.scores[p.ID]; ok {
		b.WriteByte('\n')
		b.WriteString(divider("── Score ") + "\n\n")
		addField("Score", fmt.Sprintf("%d/%d", result.Score, m.scorer.MaxScore()))
		if result.Rationale != "" {
			b.WriteString(summaryBodyStyle.Render(wordWrap(result.Rationale, wrapWidth)) + "\n")
		}
	} else if m.scoreLoading {
		b.WriteByte('\n')
		b.WriteString(hintStyle.Render("  scoring posting...") + "\n")
	} else if m.scorer != nil {
		b.WriteByte('\n')
		b.WriteString(hintStyle.Render("  press s to score this posting") + "\n")
	}

	if p.Summary != "" {
		b.WriteByte('\n')
		if m.showSummary {
			b.WriteString(divider("── Summary ") + "\n\n")
			b.WriteString(summaryBodyStyle.Render(wordWrap(p.Summary, wrapWidth)) + "\n")
		} else {
			b.WriteString(hintStyle.Render("  press r to read the summary") + "\n")
		}
	}

	return b.String()
}

func renderPostings(postings []model.Posting, cursor int, isActive bool) string {
	if len(postings) == 0 {
		return "  (no postings)"
	}

	var b strings.Builder
	for i, p := range postings {
		isSelected := isActive && i == cursor

		titleSt := postingTitleStyle
		subtitleSt := postingSubtitleStyle
		prefix := "  "
		if isSelected {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(p.Title))
		b.WriteByte('\n')

		posted := "n/a"
		if p.PostedAt != nil {
			posted = p.PostedAt.Format("2006-01-02")
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s", p.Company, posted)))
		b.WriteByte('\n')

		if i < len(postings)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func sortPostingsByDate(postings []model.Posting) {
	sort.Slice(postings, func(i, j int) bool {
		if postings[i].PostedAt == nil && postings[j].PostedAt == nil {
			return false
		}
		if postings[i].PostedAt == nil {
			return false
		}
		if postings[j].PostedAt == nil {
			return true
		}
		return postings[i].PostedAt.After(*postings[j].PostedAt)
	})
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunReviewTUI launches the interactive split-pane review TUI.
// scorer may be nil; when non-nil the 's' key scores the posting on demand in
// the detail view. dropReasons maps posting IDs to the rule that dropped them.
// Returns wantQuit=true if the user pressed q/ctrl+c, false if they pressed
// esc to return to the picker.
func RunReviewTUI(all, eligible []model.Posting, dropReasons map[string]string, scorer model.Scorer) (bool, error) {
	sortPostingsByDate(all)
	sortPostingsByDate(eligible)

	m := reviewModel{
		allPostings:      all,
		eligiblePostings: eligible,
		dropReasons:      dropReasons,
		scores:           make(map[string]model.ScoreResult),
		scorer:           scorer,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(reviewModel)
	return final.wantQuit, nil
}
