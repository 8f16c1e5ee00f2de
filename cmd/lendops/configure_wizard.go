// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/monadic/lendops/internal/clierr"
	"github.com/monadic/lendops/pkg/form"
	"github.com/monadic/lendops/pkg/numfmt"
	"github.com/monadic/lendops/pkg/schema"
	"github.com/monadic/lendops/pkg/submit"
	"github.com/monadic/lendops/pkg/wizard"
)

// Editable cell columns of a row
type cellColumn int

const (
	colValue cellColumn = iota
	colWeightage
	colMandatory
)

type configureKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Edit    key.Binding
	Toggle  key.Binding
	Clear   key.Binding
	Submit  key.Binding
	Back    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultConfigureKeyMap() configureKeyMap {
	return configureKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev column"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next column"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "]"),
			key.WithHelp("tab", "next section"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab", "["),
			key.WithHelp("shift+tab", "prev section"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "edit"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "clear"),
		),
		Submit: key.NewBinding(
			key.WithKeys("s", "ctrl+s"),
			key.WithHelp("s", "submit section"),
		),
		Back: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k configureKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Edit, k.NextTab, k.Submit, k.Back, k.Help, k.Quit}
}

func (k configureKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.NextTab, k.PrevTab, k.Back},
		{k.Edit, k.Toggle, k.Clear, k.Submit},
		{k.Help, k.Quit},
	}
}

// Configure wizard styles
var (
	configureTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Background(lipgloss.Color("236")).
				Padding(0, 1)

	configureTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Padding(0, 1)

	configureTabActiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("212")).
				Bold(true).
				Underline(true).
				Padding(0, 1)

	configureTabDoneStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82"))

	configureBorderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	configureHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("252")).
				Padding(0, 1)

	configureCellStyle = lipgloss.NewStyle().
				Padding(0, 1)

	configureRowActiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("212")).
				Padding(0, 1)

	configureCellSelectedStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("0")).
					Background(lipgloss.Color("212")).
					Padding(0, 1)

	configureDimStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	configureErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196"))

	configureSuccessStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82"))

	configureHelpStyle = lipgloss.NewStyle().
				MarginTop(1)
)

var kindTitle = cases.Title(language.English)

// ConfigureModel is the bubbletea model for one wizard screen
type ConfigureModel struct {
	wiz      *schema.Wizard
	loc      *wizard.URLLocation
	ctrl     *wizard.Controller
	engine   *form.Engine
	pipeline *submit.Pipeline
	recordID string
	log      *SessionLogger
	ctx      context.Context

	// Cursor over the row table; column indexes m.columns()
	cursor int
	column int

	editing    bool
	input      textinput.Model
	picking    bool
	optCursor  int
	showErrors bool

	toast    string
	toastErr bool

	spinner  spinner.Model
	help     help.Model
	keys     configureKeyMap
	showHelp bool
	width    int
	height   int

	quit bool
}

type configureSubmitMsg struct {
	sub *submit.Submission
	res *submit.Result
	err error
}

// NewConfigureModel mounts w at loc. The pipeline's completion set is
// shared with the wizard controller.
func NewConfigureModel(w *schema.Wizard, loc *wizard.URLLocation, recordID string, pipeline *submit.Pipeline, log *SessionLogger) ConfigureModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))

	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 64

	m := ConfigureModel{
		wiz:      w,
		loc:      loc,
		ctrl:     wizard.NewController(w, loc, pipeline.Completion()),
		engine:   form.NewEngine(nil),
		pipeline: pipeline,
		recordID: recordID,
		log:      log,
		ctx:      context.Background(),
		input:    ti,
		spinner:  s,
		help:     help.New(),
		keys:     defaultConfigureKeyMap(),
		width:    100,
		height:   30,
	}
	m.syncSection()
	return m
}

// Init initializes the model
func (m ConfigureModel) Init() tea.Cmd {
	return nil
}

func (m ConfigureModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		// Stop ticking once nothing is in flight
		if !m.anyPending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case configureSubmitMsg:
		return m.handleSubmitResult(msg)

	case tea.KeyMsg:
		if m.editing {
			return m.handleEditKey(msg)
		}
		if m.picking {
			return m.handlePickKey(msg)
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quit = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, m.keys.Down):
			if m.cursor < m.engine.Len()-1 {
				m.cursor++
			}

		case key.Matches(msg, m.keys.Left):
			if m.column > 0 {
				m.column--
			}

		case key.Matches(msg, m.keys.Right):
			if m.column < len(m.columns())-1 {
				m.column++
			}

		case key.Matches(msg, m.keys.NextTab):
			m.ctrl.SelectOffset(1)
			m.syncSection()

		case key.Matches(msg, m.keys.PrevTab):
			m.ctrl.SelectOffset(-1)
			m.syncSection()

		case key.Matches(msg, m.keys.Back):
			if !m.loc.Back() {
				m.setToast("No earlier section in history", true)
				return m, nil
			}
			m.ctrl.Navigated()
			m.syncSection()

		case key.Matches(msg, m.keys.Edit):
			return m.activate()

		case key.Matches(msg, m.keys.Toggle):
			if m.currentColumn() == colMandatory || m.isDropdown() {
				return m.activate()
			}

		case key.Matches(msg, m.keys.Clear):
			if m.currentColumn() == colValue {
				if err := m.engine.Assign(m.cursor, form.Empty()); err != nil {
					m.setToast(clierr.Short(err), true)
				}
			}

		case key.Matches(msg, m.keys.Submit):
			return m.submit()

		default:
			// Number keys jump straight to a section
			if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= len(m.wiz.Sections) {
				m.ctrl.Select(m.wiz.Sections[n-1].TabID)
				m.syncSection()
			}
		}
	}
	return m, nil
}

// syncSection reloads the engine after the active tab may have changed.
func (m *ConfigureModel) syncSection() {
	if !m.engine.Load(m.ctrl.Section()) {
		return
	}
	m.cursor = 0
	m.column = 0
	m.editing = false
	m.picking = false
	m.showErrors = false
	m.input.Blur()
	m.log.Section("SECTION " + m.ctrl.Active())
	m.log.Log("Location: %s", m.loc.String())
	if m.pipeline.Hold(m.engine, m.wiz.Resource, m.recordID) {
		m.log.Log("%s: submission still in flight", m.ctrl.Active())
	}
}

func (m ConfigureModel) columns() []cellColumn {
	cols := []cellColumn{colValue}
	sec := m.engine.Section()
	if sec == nil {
		return cols
	}
	if sec.Weightage {
		cols = append(cols, colWeightage)
	}
	if sec.MandatoryEditable() {
		cols = append(cols, colMandatory)
	}
	return cols
}

func (m ConfigureModel) currentColumn() cellColumn {
	cols := m.columns()
	if m.column >= len(cols) {
		return cols[len(cols)-1]
	}
	return cols[m.column]
}

func (m ConfigureModel) isDropdown() bool {
	if m.engine.Len() == 0 || m.currentColumn() != colValue {
		return false
	}
	return m.engine.Descriptor(m.cursor).ValueKind() == schema.KindDropdown
}

func (m ConfigureModel) anyPending() bool {
	for _, tab := range m.wiz.Tabs() {
		if m.pipeline.Pending(m.wiz.Resource, m.recordID, tab) {
			return true
		}
	}
	return false
}

func (m *ConfigureModel) setToast(msg string, isErr bool) {
	m.toast = msg
	m.toastErr = isErr
}

// activate starts editing the selected cell, opens the option picker or
// toggles the mandatory flag.
func (m ConfigureModel) activate() (tea.Model, tea.Cmd) {
	if m.engine.Len() == 0 {
		return m, nil
	}
	if m.engine.Locked() {
		m.setToast(clierr.Short(form.ErrLocked), true)
		return m, nil
	}

	switch m.currentColumn() {
	case colMandatory:
		if err := m.engine.ToggleMandatory(m.cursor); err != nil {
			m.setToast(clierr.Short(err), true)
		}
		return m, nil

	case colWeightage:
		row, _ := m.engine.Row(m.cursor)
		return m.startEdit(numfmt.FormatPercent(row.Weightage), "0-100")
	}

	d := m.engine.Descriptor(m.cursor)
	if d.ValueKind() == schema.KindDropdown {
		m.picking = true
		m.optCursor = 0
		return m, nil
	}
	return m.startEdit(m.editText(m.cursor), d.Subtitle)
}

// editText is the text shown when editing of row i starts.
func (m ConfigureModel) editText(i int) string {
	row, _ := m.engine.Row(i)
	if row.InputErr != nil {
		return row.Raw
	}
	if s, ok := row.Value.Str(); ok {
		if m.engine.Descriptor(i).ValueKind() == schema.KindMoney {
			return numfmt.FormatGroupedDigits(s)
		}
		return s
	}
	if n, ok := row.Value.Num(); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

func (m ConfigureModel) startEdit(text, placeholder string) (tea.Model, tea.Cmd) {
	m.editing = true
	m.input.Placeholder = placeholder
	m.input.SetValue(text)
	m.input.CursorEnd()
	cmd := m.input.Focus()
	return m, cmd
}

func (m ConfigureModel) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", "tab", "ctrl+c":
		m.editing = false
		m.input.Blur()
		m.input.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.applyInput()
	return m, cmd
}

// applyInput pushes the text box into the engine on every keystroke and
// rewrites the box when the engine normalised the value.
func (m *ConfigureModel) applyInput() {
	raw := m.input.Value()

	if m.currentColumn() == colWeightage {
		if strings.TrimSpace(raw) == "" {
			return
		}
		if err := m.engine.SetWeightage(m.cursor, raw); err != nil {
			m.setToast(clierr.Short(err), true)
			return
		}
		row, _ := m.engine.Row(m.cursor)
		m.rewriteIfChanged(raw, row.Weightage)
		return
	}

	d := m.engine.Descriptor(m.cursor)
	switch d.ValueKind() {
	case schema.KindMoney:
		formatted := numfmt.FormatGroupedDigits(raw)
		if formatted != raw {
			m.input.SetValue(formatted)
			m.input.CursorEnd()
		}
		_ = m.engine.SetInput(m.cursor, formatted)

	case schema.KindPercent:
		if err := m.engine.SetInput(m.cursor, raw); err != nil || strings.TrimSpace(raw) == "" {
			return
		}
		row, _ := m.engine.Row(m.cursor)
		if n, ok := row.Value.Num(); ok {
			m.rewriteIfChanged(raw, n)
		}

	default:
		// Parse errors stay on the row and show up inline
		_ = m.engine.SetInput(m.cursor, raw)
	}
}

func (m *ConfigureModel) rewriteIfChanged(raw string, stored float64) {
	if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && n == stored {
		return
	}
	m.input.SetValue(numfmt.FormatPercent(stored))
	m.input.CursorEnd()
}

func (m ConfigureModel) handlePickKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.engine.Descriptor(m.cursor)
	switch msg.String() {
	case "up", "k":
		if m.optCursor > 0 {
			m.optCursor--
		}
	case "down", "j":
		if m.optCursor < len(d.Options)-1 {
			m.optCursor++
		}
	case "enter", " ":
		if len(d.Options) == 0 {
			m.picking = false
			return m, nil
		}
		if err := m.engine.Select(m.cursor, d.Options[m.optCursor].Value); err != nil {
			m.setToast(clierr.Short(err), true)
		}
		if !d.Multi {
			m.picking = false
		}
	case "esc", "q":
		m.picking = false
	}
	return m, nil
}

// submit validates and locks the section on the UI goroutine, then sends
// the update in the background.
func (m ConfigureModel) submit() (tea.Model, tea.Cmd) {
	sub, err := m.pipeline.Prepare(submit.Request{Wizard: m.wiz, Engine: m.engine, RecordID: m.recordID})
	if err != nil {
		m.showErrors = clierr.IsValidation(err)
		m.setToast(clierr.Short(err), true)
		m.log.Log("Submit %s blocked: %v", m.ctrl.Active(), err)
		return m, nil
	}

	m.log.LogPayload(sub.Resource, sub.RecordID, sub.Payload)
	m.toast = ""
	m.showErrors = false
	pipeline, ctx := m.pipeline, m.ctx
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		res, err := pipeline.Send(ctx, sub)
		return configureSubmitMsg{sub: sub, res: res, err: err}
	})
}

func (m ConfigureModel) handleSubmitResult(msg configureSubmitMsg) (tea.Model, tea.Cmd) {
	m.pipeline.Release(msg.sub)
	m.log.LogResult(msg.sub.Section.TabID, msg.res, msg.err)

	if msg.err != nil {
		m.setToast(msg.sub.Section.Title+": "+clierr.Short(msg.err), true)
		return m, nil
	}

	m.setToast("Saved "+msg.sub.Section.Title, false)
	m.ctrl.Advance(msg.res.Tab)
	m.syncSection()
	return m, nil
}

func (m ConfigureModel) View() string {
	if m.quit {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	sec := m.engine.Section()
	if sec == nil {
		b.WriteString(configureErrorStyle.Render("This wizard has no sections."))
		return b.String()
	}
	if sec.Subtitle != "" {
		b.WriteString(configureDimStyle.Render(sec.Subtitle))
		b.WriteString("\n")
	}

	b.WriteString(m.renderTable())
	b.WriteString("\n")

	if m.picking {
		b.WriteString(m.renderPicker())
		b.WriteString("\n")
	}
	if m.showErrors {
		b.WriteString(m.renderErrors())
	}

	if m.engine.Locked() {
		b.WriteString(m.spinner.View() + " Submitting " + sec.Title + "...\n")
	}
	if m.toast != "" {
		style := configureSuccessStyle
		if m.toastErr {
			style = configureErrorStyle
		}
		b.WriteString(style.Render(m.toast))
		b.WriteString("\n")
	}

	b.WriteString(configureHelpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m ConfigureModel) renderHeader() string {
	title := m.wiz.Title
	if title == "" {
		title = m.wiz.ID
	}
	return configureTitleStyle.Render(title) + " " +
		configureDimStyle.Render(fmt.Sprintf("record %s  %s", m.recordID, m.loc.String()))
}

func (m ConfigureModel) renderTabs() string {
	parts := make([]string, 0, len(m.wiz.Sections))
	for i, sec := range m.wiz.Sections {
		label := fmt.Sprintf("%d %s", i+1, sec.Title)
		switch {
		case m.pipeline.Pending(m.wiz.Resource, m.recordID, sec.TabID):
			label = m.spinner.View() + " " + label
		case m.ctrl.Indicator(sec.TabID):
			label = configureTabDoneStyle.Render("✓") + " " + label
		}
		style := configureTabStyle
		if sec.TabID == m.ctrl.Active() {
			style = configureTabActiveStyle
		}
		parts = append(parts, style.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func kindLabel(d schema.ParameterDescriptor) string {
	label := kindTitle.String(string(d.ValueKind()))
	if d.ValueKind() == schema.KindDropdown && d.Multi {
		label += " (multi)"
	}
	return label
}

// tableColumn maps the cursor column to its index in the rendered table.
func (m ConfigureModel) tableColumn() int {
	sec := m.engine.Section()
	switch m.currentColumn() {
	case colWeightage:
		return 3
	case colMandatory:
		if sec.Weightage {
			return 4
		}
		return 3
	}
	return 2
}

func (m ConfigureModel) renderTable() string {
	sec := m.engine.Section()
	headers := []string{"Parameter", "Kind", "Value"}
	if sec.Weightage {
		headers = append(headers, "Weightage")
	}
	if sec.MandatoryColumn != schema.MandatoryHidden {
		headers = append(headers, "Mandatory")
	}

	fieldErrs := map[string][]string{}
	if m.showErrors {
		fieldErrs = m.engine.FieldErrors()
	}

	rows := make([][]string, 0, m.engine.Len())
	for i, r := range m.engine.Rows() {
		d := m.engine.Descriptor(i)

		name := d.Name
		if r.Mandatory {
			name += " *"
		}
		if len(fieldErrs[r.Parameter]) > 0 || r.InputErr != nil {
			name = configureErrorStyle.Render("! ") + name
		}

		value := m.engine.Display(i)
		if m.editing && i == m.cursor && m.currentColumn() == colValue {
			value = m.input.View()
		} else if value == "" {
			value = configureDimStyle.Render(placeholder(d.Subtitle))
		}

		cells := []string{name, kindLabel(d), value}
		if sec.Weightage {
			w := numfmt.FormatPercent(r.Weightage) + "%"
			if m.editing && i == m.cursor && m.currentColumn() == colWeightage {
				w = m.input.View()
			}
			cells = append(cells, w)
		}
		if sec.MandatoryColumn != schema.MandatoryHidden {
			cells = append(cells, mandatoryCell(r.Mandatory, sec.MandatoryEditable()))
		}
		rows = append(rows, cells)
	}

	selCol := m.tableColumn()
	cursor := m.cursor
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(configureBorderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return configureHeaderStyle
			case row == cursor && col == selCol:
				return configureCellSelectedStyle
			case row == cursor:
				return configureRowActiveStyle
			}
			return configureCellStyle
		})
	return t.Render()
}

func placeholder(subtitle string) string {
	if subtitle == "" {
		return "-"
	}
	return subtitle
}

func mandatoryCell(on, editable bool) string {
	if !editable {
		if on {
			return "yes"
		}
		return "no"
	}
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m ConfigureModel) renderPicker() string {
	d := m.engine.Descriptor(m.cursor)
	row, _ := m.engine.Row(m.cursor)

	var b strings.Builder
	title := "Choose " + d.Name
	if d.Multi {
		title += " (space toggles, esc closes)"
	}
	b.WriteString(configureHeaderStyle.Render(title))
	b.WriteString("\n")
	for i, opt := range d.Options {
		cursor := "  "
		if i == m.optCursor {
			cursor = "> "
		}
		selected := row.Value.Contains(opt.Value)
		if s, ok := row.Value.Str(); ok {
			selected = s == opt.Value
		}
		box := "( )"
		if d.Multi {
			box = "[ ]"
		}
		if selected {
			box = strings.Replace(box, " ", "x", 1)
		}
		line := fmt.Sprintf("%s%s %s", cursor, box, opt.Label)
		if i == m.optCursor {
			line = configureRowActiveStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m ConfigureModel) renderErrors() string {
	var b strings.Builder
	for _, fe := range m.engine.Validate() {
		b.WriteString(configureErrorStyle.Render(fmt.Sprintf("  %s: %s", fe.Field, fe.ErrorBody())))
		b.WriteString("\n")
	}
	return b.String()
}
