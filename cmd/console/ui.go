package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jwebster45206/statecraft-engine/pkg/catalog"
	"github.com/jwebster45206/statecraft-engine/pkg/engine"
	"github.com/jwebster45206/statecraft-engine/pkg/resource"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	speakerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("69"))

	dialogueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	resourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114"))

	deficitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	policyActiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42")).
				Bold(true)

	policyLockedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(1, 2)
)

// Messages for async operations
type stateMsg struct {
	state *engine.State
	note  string
	err   error
}

type saveExportedMsg struct {
	err error
}

type endingsMsg struct {
	endings []EndingSummary
	err     error
}

// ConsoleUI is the bubbletea model for the terminal client.
type ConsoleUI struct {
	client    *http.Client
	baseURL   string
	sessionID string
	playerID  string

	state    *engine.State
	endings  []EndingSummary
	showGall bool

	viewport viewport.Model
	input    textinput.Model
	printer  *message.Printer

	statusLine string
	lastErr    error
	width      int
	height     int
	ready      bool
	quitModal  bool
	loading    bool
}

func NewConsoleUI(client *http.Client, baseURL, sessionID, playerID string, state *engine.State) *ConsoleUI {
	ti := textinput.New()
	ti.Placeholder = "command (try /help)"
	ti.Focus()
	ti.CharLimit = 120

	return &ConsoleUI{
		client:    client,
		baseURL:   baseURL,
		sessionID: sessionID,
		playerID:  playerID,
		state:     state,
		input:     ti,
		printer:   message.NewPrinter(language.English),
	}
}

func (ui *ConsoleUI) Init() tea.Cmd {
	return textinput.Blink
}

func (ui *ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		ui.width = msg.Width
		ui.height = msg.Height
		vpHeight := msg.Height - 8
		if vpHeight < 4 {
			vpHeight = 4
		}
		if !ui.ready {
			ui.viewport = viewport.New(msg.Width, vpHeight)
			ui.ready = true
		} else {
			ui.viewport.Width = msg.Width
			ui.viewport.Height = vpHeight
		}
		ui.viewport.SetContent(ui.renderContent())

	case tea.KeyMsg:
		if ui.quitModal {
			switch msg.String() {
			case "y", "Y", "enter":
				return ui, tea.Quit
			case "n", "N", "esc":
				ui.quitModal = false
			}
			return ui, nil
		}
		switch msg.Type {
		case tea.KeyCtrlC:
			ui.quitModal = true
			return ui, nil
		case tea.KeyEsc:
			if ui.showGall {
				ui.showGall = false
				ui.viewport.SetContent(ui.renderContent())
				return ui, nil
			}
		case tea.KeyEnter:
			line := strings.TrimSpace(ui.input.Value())
			ui.input.Reset()
			if line == "" {
				return ui, nil
			}
			return ui, ui.dispatch(line)
		}

	case stateMsg:
		ui.loading = false
		if msg.err != nil {
			ui.lastErr = msg.err
		} else {
			ui.lastErr = nil
			ui.state = msg.state
			ui.statusLine = msg.note
			ui.showGall = false
		}
		ui.viewport.SetContent(ui.renderContent())
		ui.viewport.GotoTop()

	case saveExportedMsg:
		ui.loading = false
		if msg.err != nil {
			ui.lastErr = msg.err
		} else {
			ui.lastErr = nil
			ui.statusLine = "Save data copied to clipboard."
		}

	case endingsMsg:
		ui.loading = false
		if msg.err != nil {
			ui.lastErr = msg.err
		} else {
			ui.lastErr = nil
			ui.endings = msg.endings
			ui.showGall = true
			ui.viewport.SetContent(ui.renderContent())
			ui.viewport.GotoTop()
		}
	}

	var cmd tea.Cmd
	ui.input, cmd = ui.input.Update(msg)
	cmds = append(cmds, cmd)
	ui.viewport, cmd = ui.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return ui, tea.Batch(cmds...)
}

// dispatch parses one input line into an API command.
func (ui *ConsoleUI) dispatch(line string) tea.Cmd {
	fields := strings.Fields(line)
	verb := strings.ToLower(fields[0])

	// Bare numbers resolve the current event choice.
	if n, err := strconv.Atoi(verb); err == nil {
		return ui.resolveChoice(n)
	}

	switch verb {
	case "/go":
		if len(fields) < 2 {
			ui.lastErr = fmt.Errorf("usage: /go <department-id>")
			return nil
		}
		return ui.action("navigate", actionRequest{DepartmentID: fields[1]})
	case "/policy":
		if len(fields) < 2 {
			ui.lastErr = fmt.Errorf("usage: /policy <number|id>")
			return nil
		}
		return ui.policyCommand(fields[1])
	case "/turn":
		return ui.action("advance-turn", actionRequest{})
	case "/dismiss":
		return ui.action("dismiss-report", actionRequest{})
	case "/save":
		return ui.saveToClipboard()
	case "/load":
		return ui.loadFromClipboard()
	case "/cloudsave":
		return ui.action("cloud-save", actionRequest{})
	case "/cloudload":
		return ui.action("cloud-load", actionRequest{})
	case "/endings":
		return ui.fetchEndings()
	case "/help":
		ui.statusLine = ""
		ui.lastErr = nil
		ui.showGall = false
		ui.viewport.SetContent(ui.renderHelp())
		ui.viewport.GotoTop()
		return nil
	case "/quit", "/exit":
		ui.quitModal = true
		return nil
	default:
		ui.lastErr = fmt.Errorf("unknown command %q (try /help)", verb)
		return nil
	}
}

// policyCommand accepts either the listed policy number or a raw id.
func (ui *ConsoleUI) policyCommand(arg string) tea.Cmd {
	var pv *engine.PolicyView
	if n, err := strconv.Atoi(arg); err == nil {
		if ui.state == nil || n < 1 || n > len(ui.state.Policies) {
			ui.lastErr = fmt.Errorf("no policy numbered %d in this department", n)
			return nil
		}
		pv = &ui.state.Policies[n-1]
	} else {
		for i := range ui.state.Policies {
			if ui.state.Policies[i].ID == arg {
				pv = &ui.state.Policies[i]
				break
			}
		}
		if pv == nil {
			ui.lastErr = fmt.Errorf("no policy %q in this department", arg)
			return nil
		}
	}
	if pv.Type == catalog.PolicyEnact {
		return ui.action("enact-policy", actionRequest{PolicyID: pv.ID})
	}
	return ui.action("toggle-policy", actionRequest{PolicyID: pv.ID})
}

func (ui *ConsoleUI) resolveChoice(n int) tea.Cmd {
	if ui.state == nil || ui.state.CurrentEvent == nil {
		ui.lastErr = fmt.Errorf("no event to respond to")
		return nil
	}
	choices := ui.state.CurrentEvent.Choices
	if n < 1 || n > len(choices) {
		ui.lastErr = fmt.Errorf("choose between 1 and %d", len(choices))
		return nil
	}
	return ui.action("resolve-event", actionRequest{ChoiceID: choices[n-1].ID})
}

func (ui *ConsoleUI) action(name string, req actionRequest) tea.Cmd {
	ui.loading = true
	return func() tea.Msg {
		state, err := postAction(ui.client, ui.baseURL, ui.sessionID, name, req)
		return stateMsg{state: state, err: err}
	}
}

func (ui *ConsoleUI) saveToClipboard() tea.Cmd {
	ui.loading = true
	return func() tea.Msg {
		snapshot, err := exportSave(ui.client, ui.baseURL, ui.sessionID)
		if err != nil {
			return saveExportedMsg{err: err}
		}
		if err := clipboard.WriteAll(string(snapshot)); err != nil {
			return saveExportedMsg{err: fmt.Errorf("clipboard write failed: %w", err)}
		}
		return saveExportedMsg{}
	}
}

func (ui *ConsoleUI) loadFromClipboard() tea.Cmd {
	ui.loading = true
	return func() tea.Msg {
		raw, err := clipboard.ReadAll()
		if err != nil {
			return stateMsg{err: fmt.Errorf("clipboard read failed: %w", err)}
		}
		state, err := postAction(ui.client, ui.baseURL, ui.sessionID, "load",
			actionRequest{Snapshot: json.RawMessage(raw)})
		return stateMsg{state: state, note: "Save data loaded.", err: err}
	}
}

func (ui *ConsoleUI) fetchEndings() tea.Cmd {
	ui.loading = true
	return func() tea.Msg {
		endings, err := listEndings(ui.client, ui.baseURL, ui.playerID)
		return endingsMsg{endings: endings, err: err}
	}
}

func (ui *ConsoleUI) View() string {
	if !ui.ready {
		return "Initializing..."
	}

	if ui.quitModal {
		modal := modalStyle.Render("Quit the console? Unsaved progress is lost.\n\n[y] yes   [n] no")
		return lipgloss.Place(ui.width, ui.height, lipgloss.Center, lipgloss.Center, modal)
	}

	var b strings.Builder
	b.WriteString(ui.renderHeader())
	b.WriteString("\n")
	b.WriteString(ui.renderResourceBar())
	b.WriteString("\n")
	b.WriteString(separatorStyle.Render(strings.Repeat("─", ui.width)))
	b.WriteString("\n")
	b.WriteString(ui.viewport.View())
	b.WriteString("\n")
	b.WriteString(separatorStyle.Render(strings.Repeat("─", ui.width)))
	b.WriteString("\n")

	if ui.lastErr != nil {
		b.WriteString(errorStyle.Render("✗ " + ui.lastErr.Error()))
	} else if ui.loading {
		b.WriteString(infoStyle.Render("working..."))
	} else if ui.statusLine != "" {
		b.WriteString(infoStyle.Render(ui.statusLine))
	}
	b.WriteString("\n")
	b.WriteString(ui.input.View())
	return b.String()
}

func (ui *ConsoleUI) renderHeader() string {
	if ui.state == nil {
		return titleStyle.Render("Statecraft")
	}
	calendar := fmt.Sprintf("Turn %d · %d/%02d · phase: %s",
		ui.state.CurrentTurn, ui.state.CurrentYear, ui.state.CurrentMonth, ui.state.TurnPhase)
	return titleStyle.Render("Statecraft") + "  " + infoStyle.Render(calendar)
}

// renderResourceBar shows the headline resources in a fixed order.
func (ui *ConsoleUI) renderResourceBar() string {
	if ui.state == nil {
		return ""
	}
	res := ui.state.Resources
	parts := []string{
		resourceStyle.Render(ui.printer.Sprintf("₩%d", int64(res[resource.Currency]))),
		fmt.Sprintf("food %.0f", res[resource.Food]),
		fmt.Sprintf("stability %.0f", res[resource.SocialStability]),
		fmt.Sprintf("morale %.0f", res[resource.PublicMorale]),
		fmt.Sprintf("AI %.0f", res[resource.AIAutonomy]),
	}
	power := fmt.Sprintf("power %.0f/%.0f", res[resource.PowerConsumption], res[resource.PowerSupply])
	if res[resource.PowerConsumption] > res[resource.PowerSupply] {
		parts = append(parts, deficitStyle.Render(power))
	} else {
		parts = append(parts, power)
	}
	return "  " + strings.Join(parts, separatorStyle.Render("  │  "))
}

func (ui *ConsoleUI) renderContent() string {
	if ui.state == nil {
		return "No session."
	}
	if ui.showGall {
		return ui.renderEndingsGallery()
	}
	if ui.state.IsEnding && ui.state.EndingData != nil {
		return ui.renderEnding()
	}
	switch ui.state.TurnPhase {
	case engine.PhaseEvent:
		return ui.renderEvent()
	case engine.PhaseReport:
		return ui.renderReport()
	default:
		return ui.renderDepartment()
	}
}

func (ui *ConsoleUI) renderDepartment() string {
	var b strings.Builder
	dept := ui.state.CurrentDept
	if dept != nil {
		b.WriteString(speakerStyle.Render(dept.Name))
		b.WriteString("\n")
		if dept.Advisor.Name != "" {
			line := fmt.Sprintf("%s %s: %s", dept.Advisor.Portrait, dept.Advisor.Name, dept.Advisor.Greeting)
			b.WriteString(dialogueStyle.Render(ui.wrap(line)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(ui.state.Policies) == 0 {
		b.WriteString(infoStyle.Render("No policies in this department."))
	} else {
		b.WriteString("Policies:\n")
		for i, p := range ui.state.Policies {
			b.WriteString(ui.renderPolicyLine(i+1, p))
			b.WriteString("\n")
		}
	}

	b.WriteString("\nDepartments: ")
	ids := make([]string, 0, len(ui.state.Departments))
	for _, d := range ui.state.Departments {
		ids = append(ids, d.ID)
	}
	b.WriteString(infoStyle.Render(strings.Join(ids, ", ")))
	return b.String()
}

func (ui *ConsoleUI) renderPolicyLine(n int, p engine.PolicyView) string {
	marker := "  "
	switch {
	case p.IsEnacted:
		marker = policyActiveStyle.Render("★ ")
	case p.IsActive:
		marker = policyActiveStyle.Render("● ")
	case !p.CanActivate:
		marker = policyLockedStyle.Render("✗ ")
	}
	line := fmt.Sprintf("%s%2d. %s: %s", marker, n, p.Name, p.Description)
	if len(p.Cost) > 0 {
		costs := make([]string, 0, len(p.Cost))
		for _, name := range sortedKeys(p.Cost) {
			costs = append(costs, fmt.Sprintf("%s %.0f", name, p.Cost[name]))
		}
		line += infoStyle.Render(" (cost: " + strings.Join(costs, ", ") + ")")
	}
	if !p.CanActivate && !p.IsActive && !p.IsEnacted {
		return policyLockedStyle.Render(ui.wrap(line))
	}
	return ui.wrap(line)
}

func (ui *ConsoleUI) renderEvent() string {
	ev := ui.state.CurrentEvent
	if ev == nil {
		return "Waiting for the next event..."
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("⚠ " + ev.Name))
	b.WriteString("\n\n")
	if ev.Dialogue.Speaker != "" {
		b.WriteString(speakerStyle.Render(ev.Dialogue.Portrait + " " + ev.Dialogue.Speaker))
		b.WriteString("\n")
	}
	b.WriteString(dialogueStyle.Render(ui.wrap(ev.Dialogue.Text)))
	b.WriteString("\n\n")
	for i, c := range ev.Choices {
		line := fmt.Sprintf("%d. %s", i+1, c.Text)
		if !c.Available {
			b.WriteString(policyLockedStyle.Render(ui.wrap(line + " (unavailable)")))
		} else {
			b.WriteString(ui.wrap(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(infoStyle.Render("Type a number to respond."))
	return b.String()
}

func (ui *ConsoleUI) renderReport() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Monthly Report - Turn %d", ui.state.CurrentTurn)))
	b.WriteString("\n\n")
	if ui.state.Dialogue != nil {
		b.WriteString(speakerStyle.Render(ui.state.Dialogue.Portrait + " " + ui.state.Dialogue.Speaker))
		b.WriteString("\n")
		b.WriteString(dialogueStyle.Render(ui.wrap(ui.state.Dialogue.Text)))
		b.WriteString("\n\n")
	}
	if len(ui.state.TurnReport) == 0 {
		b.WriteString(infoStyle.Render("No resource changes this turn."))
	} else {
		for _, name := range sortedKeys(ui.state.TurnReport) {
			delta := ui.state.TurnReport[name]
			line := fmt.Sprintf("  %-18s %+.1f", name, delta)
			if delta < 0 {
				b.WriteString(deficitStyle.Render(line))
			} else {
				b.WriteString(resourceStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(infoStyle.Render("/dismiss to continue"))
	return b.String()
}

func (ui *ConsoleUI) renderEnding() string {
	ed := ui.state.EndingData
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("◆ %s (%s)", ed.Title, ed.Type)))
	b.WriteString("\n\n")
	if ed.Dialogue.Text != "" {
		b.WriteString(speakerStyle.Render(ed.Dialogue.Portrait + " " + ed.Dialogue.Speaker))
		b.WriteString("\n")
		b.WriteString(dialogueStyle.Render(ui.wrap(ed.Dialogue.Text)))
		b.WriteString("\n\n")
	}
	b.WriteString(ui.wrap(ed.Description))
	b.WriteString("\n\n")
	b.WriteString(infoStyle.Render("The nation carries on. /turn to keep playing, /endings for the gallery."))
	return b.String()
}

func (ui *ConsoleUI) renderEndingsGallery() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Endings Gallery"))
	b.WriteString("\n\n")
	for _, e := range ui.endings {
		if e.Unlocked {
			b.WriteString(resourceStyle.Render(fmt.Sprintf("  ◆ %s (%s)", e.Title, e.Type)))
			b.WriteString("\n")
			if e.Description != "" {
				b.WriteString(infoStyle.Render(ui.wrap("     " + e.Description)))
				b.WriteString("\n")
			}
		} else {
			b.WriteString(policyLockedStyle.Render(fmt.Sprintf("  ◇ %s (%s) - locked", e.Title, e.Type)))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(infoStyle.Render("esc to return"))
	return b.String()
}

func (ui *ConsoleUI) renderHelp() string {
	help := `Commands:

  /go <department-id>   visit a department
  /policy <n|id>        toggle or enact the listed policy
  /turn                 advance to the next month
  <number>              respond to the current event
  /dismiss              close the monthly report
  /save                 copy save data to the clipboard
  /load                 load save data from the clipboard
  /cloudsave            save progress to the server
  /cloudload            restore progress from the server
  /endings              show the endings gallery
  /quit                 exit the console`
	return help
}

func (ui *ConsoleUI) wrap(s string) string {
	w := ui.width - 4
	if w < 20 {
		w = 20
	}
	return wordwrap.String(s, w)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
