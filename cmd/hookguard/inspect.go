package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xrplf/hookguard/guard"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// captureSink records every event ValidateGuards emits so the TUI can
// render it; the package itself never needs more than one, but the
// interface promises one event per rejection plus one on acceptance.
type captureSink struct {
	events []guard.Event
}

func (s *captureSink) Emit(e guard.Event) {
	s.events = append(s.events, e)
}

type inspectModel struct {
	result   guard.Result
	code     guard.LogCode
	err      error
	events   []guard.Event
	viewport viewport.Model
	ready    bool
}

func newInspectModel(data []byte, strict bool, limits guard.Limits, account string) *inspectModel {
	sink := &captureSink{}
	result, code, err := guard.ValidateGuards(data, strict, limits, sink, account)
	return &inspectModel{result: result, code: code, err: err, events: sink.events}
}

func (m *inspectModel) Init() tea.Cmd {
	return nil
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := lipgloss.Height(titleStyle.Render("hookguard")) + 1
		footerHeight := lipgloss.Height(helpStyle.Render("q quit")) + 1
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.viewport.SetContent(m.body())
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// body renders the outcome, any logged events, and the full host-API
// whitelist as scrollable reference material.
func (m *inspectModel) body() string {
	var b strings.Builder

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("REJECTED: %s", m.code)))
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.err.Error()))
	} else {
		b.WriteString(resultStyle.Render("ACCEPTED"))
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("hook ceiling: "))
		b.WriteString(fmt.Sprintf("%d\n", m.result.HookCeiling))
		b.WriteString(labelStyle.Render("cbak ceiling: "))
		b.WriteString(fmt.Sprintf("%d\n", m.result.CbakCeiling))

		if len(m.result.Imports) > 0 {
			b.WriteString("\n")
			b.WriteString(labelStyle.Render("imports:"))
			b.WriteString("\n")
			for _, imp := range m.result.Imports {
				b.WriteString(fmt.Sprintf("  %s.%s  kind=%d\n", imp.Module, imp.Name, imp.Kind))
			}
		}

		if len(m.result.Exports) > 0 {
			b.WriteString("\n")
			b.WriteString(labelStyle.Render("exports:"))
			b.WriteString("\n")
			for _, exp := range m.result.Exports {
				b.WriteString(fmt.Sprintf("  %s  kind=%d idx=%d\n", exp.Name, exp.Kind, exp.Idx))
			}
		}
	}

	if len(m.events) > 0 {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("events:"))
		b.WriteString("\n")
		for _, e := range m.events {
			b.WriteString(fmt.Sprintf("  %s  %s\n", e.Code, e.Detail))
		}
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("env host-API whitelist:"))
	b.WriteString("\n")
	names := make([]string, 0, len(guard.Whitelist))
	for name := range guard.Whitelist {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sig := guard.Whitelist[name]
		b.WriteString(fmt.Sprintf("  %-18s %v -> %v\n", name, sig.Params, sig.Results))
	}

	return b.String()
}

func (m *inspectModel) View() string {
	if !m.ready {
		return "loading..."
	}
	return titleStyle.Render("hookguard") + "\n" +
		m.viewport.View() + "\n" +
		helpStyle.Render("↑/↓ scroll • q quit")
}

func runInteractive(data []byte, strict bool, limits guard.Limits, account string) error {
	p := tea.NewProgram(newInspectModel(data, strict, limits, account), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
