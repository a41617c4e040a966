// Package ui provides the interactive terminal form that hosts the
// type-ahead widget: a name field with a suggestion panel, and a ticker
// field filled in when a suggestion is picked.
package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/quickfin/tickerfind/internal/autocomplete"
	"github.com/quickfin/tickerfind/internal/search"
)

// Messages delivered into the form from the autocomplete controller.
type (
	// ShowSuggestionsMsg replaces the panel content and shows it.
	ShowSuggestionsMsg struct{ Items []search.Suggestion }
	// HidePanelMsg clears and hides the panel.
	HidePanelMsg struct{}
	// ApplySelectionMsg fills the name and ticker fields.
	ApplySelectionMsg struct{ Name, Ticker string }
)

const (
	focusName = iota
	focusTicker
)

// formModel is the bubbletea model for the investment form.
type formModel struct {
	styles Styles

	nameInput   textinput.Model
	tickerInput textinput.Model
	focus       int

	panelVisible bool
	items        []search.Suggestion
	cursor       int

	// Controller hooks; stubbed in tests.
	onInput   func(string)
	onSelect  func(int)
	onDismiss func()

	quitting bool
}

func newFormModel(styles Styles) formModel {
	name := textinput.New()
	name.Placeholder = "Security name"
	name.Prompt = "> "
	name.CharLimit = 120
	name.Width = 40
	name.Focus()

	ticker := textinput.New()
	ticker.Placeholder = "Ticker"
	ticker.Prompt = "> "
	ticker.CharLimit = 12
	ticker.Width = 40

	return formModel{
		styles:      styles,
		nameInput:   name,
		tickerInput: ticker,
		focus:       focusName,
		onInput:     func(string) {},
		onSelect:    func(int) {},
		onDismiss:   func() {},
	}
}

func (m formModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ShowSuggestionsMsg:
		m.items = msg.Items
		m.cursor = 0
		m.panelVisible = len(msg.Items) > 0
		return m, nil

	case HidePanelMsg:
		m.items = nil
		m.cursor = 0
		m.panelVisible = false
		return m, nil

	case ApplySelectionMsg:
		m.nameInput.SetValue(msg.Name)
		m.nameInput.CursorEnd()
		m.tickerInput.SetValue(msg.Ticker)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocusedInput(msg)
}

// handleKey routes key presses. Focus leaving the name field is the
// terminal analog of a click outside the panel: it dismisses.
func (m formModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		if m.panelVisible {
			m.onDismiss()
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case "tab", "shift+tab":
		if m.focus == focusName {
			m.onDismiss()
			m.focus = focusTicker
			m.nameInput.Blur()
			m.tickerInput.Focus()
		} else {
			m.focus = focusName
			m.tickerInput.Blur()
			m.nameInput.Focus()
		}
		return m, nil

	case "up":
		if m.panelVisible && m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down":
		if m.panelVisible && m.cursor < len(m.items)-1 {
			m.cursor++
		}
		return m, nil

	case "enter":
		if m.panelVisible {
			m.onSelect(m.cursor)
		}
		return m, nil
	}

	return m.updateFocusedInput(msg)
}

// updateFocusedInput forwards the message to the input that has focus and
// notifies the controller when the name text changed.
func (m formModel) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == focusName {
		before := m.nameInput.Value()
		m.nameInput, cmd = m.nameInput.Update(msg)
		if after := m.nameInput.Value(); after != before {
			m.onInput(after)
		}
	} else {
		m.tickerInput, cmd = m.tickerInput.Update(msg)
	}
	return m, cmd
}

func (m formModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.styles.Header.Render("Add investment"))
	b.WriteString("\n\n")

	b.WriteString(m.styles.Label.Render("Name"))
	b.WriteString("\n")
	b.WriteString(m.nameInput.View())
	b.WriteString("\n")

	if m.panelVisible {
		b.WriteString(m.renderPanel())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Label.Render("Ticker"))
	b.WriteString("\n")
	b.WriteString(m.tickerInput.View())
	b.WriteString("\n\n")

	b.WriteString(m.styles.Help.Render("↑/↓ choose · enter select · esc dismiss · tab switch field · ctrl+c quit"))
	b.WriteString("\n")

	return b.String()
}

// renderPanel renders the suggestion entries, one line each, in response
// order, with the cursor row highlighted.
func (m formModel) renderPanel() string {
	lines := make([]string, 0, len(m.items))
	for i, item := range m.items {
		entry := item.Display()
		if i == m.cursor {
			lines = append(lines, m.styles.EntrySelected.Render("▸ "+entry))
		} else {
			lines = append(lines, m.styles.Entry.Render("  "+entry))
		}
	}
	return m.styles.Panel.Render(strings.Join(lines, "\n"))
}

// FormOptions configures RunForm.
type FormOptions struct {
	// QuietPeriod is the debounce window for lookups.
	QuietPeriod time.Duration
	// MinQueryLen gates lookups.
	MinQueryLen int
	// NoColor disables styling.
	NoColor bool
}

// RunForm runs the interactive form until the user quits.
// Lookups go through the given function; results, selections and
// dismissals are delivered into the program as messages.
func RunForm(ctx context.Context, lookup autocomplete.LookupFunc, opts FormOptions) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("the form requires a terminal")
	}

	m := newFormModel(GetStyles(opts.NoColor || DetectNoColor()))

	var p *tea.Program
	ctrl := autocomplete.New(lookup, autocomplete.Callbacks{
		ShowResults: func(items []search.Suggestion) {
			if p != nil {
				p.Send(ShowSuggestionsMsg{Items: items})
			}
		},
		HidePanel: func() {
			if p != nil {
				p.Send(HidePanelMsg{})
			}
		},
		ApplySelection: func(name, ticker string) {
			if p != nil {
				p.Send(ApplySelectionMsg{Name: name, Ticker: ticker})
			}
		},
	}, autocomplete.Options{
		QuietPeriod: opts.QuietPeriod,
		MinQueryLen: opts.MinQueryLen,
		Context:     ctx,
	})
	defer ctrl.Stop()

	m.onInput = ctrl.OnInput
	m.onSelect = ctrl.Select
	m.onDismiss = ctrl.Dismiss

	p = tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
