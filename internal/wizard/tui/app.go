package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/synapse-topology/internal/baseconfig"
	"github.com/muurk/synapse-topology/internal/flow"
	"github.com/muurk/synapse-topology/internal/logging"
)

// PersistFunc saves the wizard session. It is called after every screen
// change with the new state and a copy of the answers. Calls never overlap.
type PersistFunc func(state flow.State, answers *baseconfig.BaseConfig) error

// persistedMsg reports the outcome of a PersistFunc call.
type persistedMsg struct {
	err error
}

// keyMap defines the wizard key bindings
type keyMap struct {
	Next  key.Binding
	Back  key.Binding
	Up    key.Binding
	Down  key.Binding
	Check key.Binding
	Quit  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Back, k.Up, k.Down, k.Check, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Back},
		{k.Up, k.Down},
		{k.Check, k.Quit},
	}
}

func newKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "next"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "shift+tab"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "tab"),
			key.WithHelp("↓/tab", "down"),
		),
		Check: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "review answers"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// AppModel drives the setup wizard. Screen routing is delegated entirely
// to flow.State; the model only collects answers and renders screens.
type AppModel struct {
	State   flow.State
	Builder *baseconfig.Builder

	// Per-screen widgets, rebuilt on every screen change
	Inputs  []textinput.Model
	Fields  []field
	Options []option
	Focus   int // focused input
	Cursor  int // highlighted option

	// Err is the validation error that blocked the last advance
	Err error

	// Finished is set once the database screen is accepted and the
	// answers pass validation. Result then holds the final answers.
	Finished bool
	Result   *baseconfig.BaseConfig
	Warnings []error
	Quitting bool

	// Persist, when set, saves the session after every screen change.
	// One save runs at a time; changes made meanwhile are saved once it
	// returns.
	Persist PersistFunc
	Saving  bool
	SaveErr error
	Spinner spinner.Model

	pendingSave   bool
	quitAfterSave bool

	Width  int
	Height int

	Help help.Model
	Keys keyMap
}

// NewAppModel creates a wizard positioned at state with the given answers.
// A nil answers value starts from the defaults.
func NewAppModel(state flow.State, answers *baseconfig.BaseConfig) AppModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StatusStyle

	if !state.Screen.Valid() {
		state = flow.NewState()
	}

	m := AppModel{
		State:   state,
		Builder: baseconfig.NewBuilder(answers),
		Spinner: s,
		Width:   DefaultWidth,
		Height:  DefaultHeight,
		Help:    help.New(),
		Keys:    newKeyMap(),
	}
	m.State.Context = m.Builder.Context()
	m.enterScreen()
	return m
}

// SetSize sets the area the wizard draws into.
func (m *AppModel) SetSize(width, height int) {
	m.Width = width
	m.Height = height
	m.Help.Width = width
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	if len(m.Inputs) > 0 {
		return textinput.Blink
	}
	return nil
}

// Update handles all messages
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case persistedMsg:
		m.Saving = false
		m.SaveErr = msg.err
		if msg.err != nil {
			logging.Error("Failed to save wizard session", zap.Error(msg.err))
		}
		if m.pendingSave {
			m.pendingSave = false
			m.Saving = true
			return m, m.persistCmd()
		}
		if m.quitAfterSave {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if !m.Saving {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.quitAfterSave {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.Keys.Quit):
			m.Quitting = true
			if m.Saving {
				m.quitAfterSave = true
				return m, nil
			}
			return m, tea.Quit
		case key.Matches(msg, m.Keys.Check):
			m.storeInputs()
			return m.apply(flow.CheckBaseConfig())
		case key.Matches(msg, m.Keys.Back):
			m.storeInputs()
			return m.apply(flow.Back())
		case key.Matches(msg, m.Keys.Next):
			return m.advance()
		case key.Matches(msg, m.Keys.Up):
			return m.move(-1)
		case key.Matches(msg, m.Keys.Down):
			return m.move(1)
		}
	}

	if len(m.Inputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.Inputs[m.Focus], cmd = m.Inputs[m.Focus].Update(msg)
	return m, cmd
}

// advance commits the answers on the current screen, validates them and
// moves on. Invalid answers keep the wizard on the same screen.
func (m AppModel) advance() (tea.Model, tea.Cmd) {
	screen := m.State.Screen

	action, err := m.commit()
	if err == nil {
		err = baseconfig.ValidateScreen(screen, m.Builder.Peek())
	}
	if err != nil {
		m.Err = err
		logging.Debug("Advance refused",
			zap.String("screen", string(screen)),
			zap.Error(err),
		)
		return m, nil
	}

	if screen == flow.ScreenDatabase {
		return m.finish()
	}
	return m.apply(action)
}

// finish validates the whole answer set and ends the wizard.
func (m AppModel) finish() (tea.Model, tea.Cmd) {
	cfg, err := m.Builder.Build()
	if err != nil {
		m.Err = err
		return m, nil
	}

	m.Finished = true
	m.Result = cfg
	m.Warnings = m.Builder.Warnings()
	logging.Info("Wizard finished",
		zap.String("server_name", cfg.ServerName),
		zap.Int("warnings", len(m.Warnings)),
	)

	if m.Persist == nil {
		return m, tea.Quit
	}
	m.quitAfterSave = true
	return m, m.save()
}

// apply moves to the screen flow selects for action.
func (m AppModel) apply(action flow.Action) (tea.Model, tea.Cmd) {
	from := m.State.Screen
	m.State = m.State.Apply(action)
	m.State.Context = m.Builder.Context()

	logging.LogTransition(string(from), string(m.State.Screen), string(action.Type), action.Option)

	if m.State.Screen == from {
		return m, nil
	}

	m.enterScreen()

	cmds := []tea.Cmd{}
	if len(m.Inputs) > 0 {
		cmds = append(cmds, textinput.Blink)
	}
	if m.Persist != nil {
		wasSaving := m.Saving
		if cmd := m.save(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		if !wasSaving {
			cmds = append(cmds, m.Spinner.Tick)
		}
	}
	return m, tea.Batch(cmds...)
}

// save starts saving the current state, or marks it pending when a save
// is already running. The pending state is read when that save returns,
// so only the newest state is written.
func (m *AppModel) save() tea.Cmd {
	if m.Saving {
		m.pendingSave = true
		return nil
	}
	m.Saving = true
	return m.persistCmd()
}

// commit writes the current screen's answers into the builder and returns
// the action to advance with.
func (m *AppModel) commit() (flow.Action, error) {
	if err := m.storeInputs(); err != nil {
		return flow.Action{}, err
	}

	choice := ""
	if len(m.Options) > 0 {
		choice = m.Options[m.Cursor].Value
	}

	switch m.State.Screen {
	case flow.ScreenStatsReport:
		m.Builder.SetReportStats(choice == "yes")
	case flow.ScreenKeyExport:
		m.Builder.MarkSigningKeyExported()
	case flow.ScreenDelegationOptions:
		d := flow.DelegationType(choice)
		m.Builder.SetDelegation(d)
		return flow.AdvanceDelegation(d), nil
	case flow.ScreenTLS:
		t := flow.TLSType(choice)
		m.Builder.SetTLS(t)
		return flow.AdvanceTLS(t), nil
	case flow.ScreenReverseProxy:
		m.Builder.SetReverseProxy(baseconfig.ReverseProxy(choice))
	case flow.ScreenDatabase:
		m.Builder.SetDatabase(baseconfig.Database(choice))
	}
	return flow.Advance(), nil
}

// storeInputs copies text input values into the builder. Ports that do
// not parse are reported but the other inputs are still stored.
func (m *AppModel) storeInputs() error {
	value := func(i int) string {
		return strings.TrimSpace(m.Inputs[i].Value())
	}

	switch m.State.Screen {
	case flow.ScreenServerName:
		m.Builder.SetServerName(value(0))
	case flow.ScreenDelegationServerName:
		m.Builder.SetDelegationServerName(value(0))
	case flow.ScreenTLSCertPath:
		m.Builder.SetTLSPaths(value(0), value(1))
	case flow.ScreenDelegationPortSelection, flow.ScreenPortSelection:
		federation, err := parsePort(m.Fields[0].Name, value(0))
		if err != nil {
			return err
		}
		client, err := parsePort(m.Fields[1].Name, value(1))
		if err != nil {
			return err
		}
		if m.State.Screen == flow.ScreenPortSelection {
			m.Builder.SetPorts(federation, client)
		} else {
			m.Builder.SetDelegationPorts(federation, client)
		}
	}
	return nil
}

// enterScreen rebuilds the widgets for the current screen from the answers.
func (m *AppModel) enterScreen() {
	answers := m.Builder.Peek()
	screen := m.State.Screen

	m.Err = nil
	m.Focus = 0
	m.Cursor = 0

	m.Fields = screenFields(screen)
	m.Inputs = make([]textinput.Model, len(m.Fields))
	for i, f := range m.Fields {
		in := textinput.New()
		in.Placeholder = f.Placeholder
		in.CharLimit = 253
		in.Width = 40
		in.Prompt = "› "
		in.SetValue(f.Value(answers))
		if i == 0 {
			in.Focus()
			in.PromptStyle = FocusedInputStyle
		} else {
			in.PromptStyle = BlurredInputStyle
		}
		m.Inputs[i] = in
	}

	m.Options = screenOptions(screen)
	selected := selectedOption(screen, answers)
	for i, opt := range m.Options {
		if opt.Value == selected {
			m.Cursor = i
			break
		}
	}
}

// move shifts the highlighted option or the focused input by delta.
func (m AppModel) move(delta int) (tea.Model, tea.Cmd) {
	if len(m.Options) > 0 {
		m.Cursor = (m.Cursor + delta + len(m.Options)) % len(m.Options)
		return m, nil
	}
	if len(m.Inputs) < 2 {
		return m, nil
	}

	m.Inputs[m.Focus].Blur()
	m.Inputs[m.Focus].PromptStyle = BlurredInputStyle
	m.Focus = (m.Focus + delta + len(m.Inputs)) % len(m.Inputs)
	m.Inputs[m.Focus].PromptStyle = FocusedInputStyle
	return m, m.Inputs[m.Focus].Focus()
}

func (m AppModel) persistCmd() tea.Cmd {
	if m.Persist == nil {
		return nil
	}
	persist, state, answers := m.Persist, m.State, m.Builder.Peek()
	return func() tea.Msg {
		return persistedMsg{err: persist(state, answers)}
	}
}

// Answers returns a copy of the answers collected so far.
func (m AppModel) Answers() *baseconfig.BaseConfig {
	return m.Builder.Peek()
}

// View renders the current screen
func (m AppModel) View() string {
	if m.Quitting || m.Finished {
		return ""
	}
	return RenderApplicationContainer(m.buildContent(), m.Help.View(m.Keys), m.Width, m.Height)
}

func (m AppModel) buildContent() string {
	screen := m.State.Screen
	answers := m.Builder.Peek()

	var b strings.Builder
	b.WriteString(RenderTitle(screen.Title()))
	b.WriteString("\n")
	if desc := screenDescriptions[screen]; desc != "" {
		b.WriteString(desc)
		b.WriteString("\n\n")
	}

	if screen == flow.ScreenIntro {
		b.WriteString(m.buildIntro(answers))
	}

	for i, f := range m.Fields {
		b.WriteString(InputLabelStyle.Render(f.Label))
		b.WriteString("\n  ")
		b.WriteString(m.Inputs[i].View())
		b.WriteString("\n\n")
	}

	for i, opt := range m.Options {
		b.WriteString(RenderMenuItem(opt.Label, i == m.Cursor))
		b.WriteString("\n")
	}
	if len(m.Options) > 0 {
		b.WriteString("\n")
	}

	if title, body, ok, err := screenSnippet(screen, answers); ok {
		if err != nil {
			b.WriteString(RenderError(baseconfig.GetShortErrorMessage(err)))
			b.WriteString("\n")
			b.WriteString(baseconfig.GetTroubleshootingHint(err))
		} else {
			b.WriteString(SubtitleStyle.Render(title))
			b.WriteString("\n")
			b.WriteString(SnippetBoxStyle.Render(body))
		}
		b.WriteString("\n\n")
	}

	if m.Err != nil {
		b.WriteString(RenderError(baseconfig.GetShortErrorMessage(m.Err)))
		b.WriteString("\n\n")
	}

	if m.Saving {
		b.WriteString(m.Spinner.View() + StatusStyle.Render(" Saving session..."))
		b.WriteString("\n")
	} else if m.SaveErr != nil {
		b.WriteString(StatusStyle.Render(fmt.Sprintf("Session not saved: %v", m.SaveErr)))
		b.WriteString("\n")
	}

	if link := screenLink(screen); link != "" {
		b.WriteString(RenderLink(link))
	}
	return b.String()
}

// buildIntro summarises answers from a resumed session or a review.
func (m AppModel) buildIntro(answers *baseconfig.BaseConfig) string {
	if answers.ServerName == "" {
		return "Press enter to begin.\n\n"
	}

	var b strings.Builder
	b.WriteString(answers.String())
	b.WriteString("\n\n")

	warnings, critical := baseconfig.SeparateWarningsAndErrors(baseconfig.Validate(answers))
	if len(critical) > 0 {
		b.WriteString(RenderError(fmt.Sprintf("%d answer(s) need attention", len(critical))))
		b.WriteString("\n")
		b.WriteString(baseconfig.FormatValidationErrors(critical))
		b.WriteString("\n")
	}
	if len(warnings) > 0 {
		lines := make([]string, 0, len(warnings))
		for _, w := range warnings {
			lines = append(lines, w.Error())
		}
		b.WriteString(RenderWarnings(lines))
		b.WriteString("\n")
	}
	b.WriteString("Press enter to walk through the answers again.\n\n")
	return b.String()
}
