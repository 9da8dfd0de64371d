// Package tui is the interactive list view. It reads snapshots from a
// liststore.Store, sends it intents, and drains the write queue after each
// change.
package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Makepad-fr/todolist/internal/model"
	"github.com/Makepad-fr/todolist/internal/store/liststore"
	"github.com/Makepad-fr/todolist/internal/ui"
)

// Flusher drains deferred writes.
type Flusher interface {
	Flush() error
}

// persistedMsg reports the outcome of a queue drain.
type persistedMsg struct{ err error }

// listItem adapts model.Item to bubbles/list.Item
type listItem struct {
	item model.Item
}

func (i listItem) Title() string       { return i.item.Text }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.item.Text }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	theme := ui.Current()
	box := mutedStyle.Render(theme.BoxUnchecked)
	text := it.item.Text
	if it.item.Completed {
		box = successStyle.Render(theme.BoxChecked)
		text = doneStyle.Render(text)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+box+" "+text)
}

var (
	toggleBind = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	removeBind = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	addBind    = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	quitBind   = key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit"))
)

// Model is the bubbletea model for the interactive list.
type Model struct {
	list  list.Model
	store *liststore.Store
	queue Flusher
	log   *zap.Logger

	// Inline add
	adding bool            // true when inline add is active
	ti     textinput.Model // text input for the new item
	addErr string          // last add validation error

	saveErr error // last failed drain, shown until the next good one

	width, height int
}

// New builds the view on the store's current snapshot.
func New(store *liststore.Store, queue Flusher, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}
	l := list.New(toListItems(store.Snapshot()), itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")
	l.DisableQuitKeybindings()
	l.KeyMap.NextPage.SetKeys("right", "l", "pgdown", "f") // "d" deletes here

	extra := func() []key.Binding { return []key.Binding{toggleBind, removeBind, addBind, quitBind} }
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "New item..."
	ti.CharLimit = 200

	m := Model{list: l, store: store, queue: queue, log: log, ti: ti}
	m.setTitle(store.Snapshot())
	return m
}

// Run starts the program and, once it exits, drains whatever writes are
// still queued.
func Run(store *liststore.Store, queue Flusher, log *zap.Logger) error {
	p := tea.NewProgram(New(store, queue, log), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return queue.Flush()
}

func toListItems(l model.List) []list.Item {
	out := make([]list.Item, 0, len(l))
	for _, it := range l {
		out = append(out, listItem{item: it})
	}
	return out
}

// Header title with live counts
func (m *Model) setTitle(l model.List) {
	dn, pn := l.Stats()
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), dn,
		pendingStyle.Render("•"), pn,
		accentStyle.Render("Total"), len(l),
	)
}

// apply shows next and, if it differs from what was shown, drains the
// write queue in a command.
func (m *Model) apply(before, next model.List) tea.Cmd {
	if next.Equal(before) {
		return nil
	}
	m.setTitle(next)
	return tea.Batch(m.list.SetItems(toListItems(next)), m.persist())
}

func (m Model) persist() tea.Cmd {
	q := m.queue
	return func() tea.Msg { return persistedMsg{err: q.Flush()} }
}

func (m Model) selectedID() (model.ID, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return "", false
	}
	return it.item.ID, true
}

func (m *Model) resize() {
	listHeight := m.height - 4
	if m.adding {
		listHeight = m.height - 6
	}
	m.list.SetSize(max(m.width-4, 0), max(listHeight, 0))
}

// Update and View implement Bubble Tea's Model
func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case persistedMsg:
		if msg.err != nil {
			m.saveErr = msg.err
			m.log.Warn("save from ui", zap.Error(msg.err))
			return m, m.list.NewStatusMessage(errorStyle.Render("save failed: " + msg.err.Error()))
		}
		m.saveErr = nil
		return m, nil
	}

	if m.adding {
		return m.updateAdding(msg)
	}

	// keys belong to the filter input while it is open
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case k.Type == tea.KeyEsc && m.list.FilterState() == list.FilterApplied:
			m.list.ResetFilter()
			return m, nil
		case key.Matches(k, quitBind):
			return m, tea.Quit
		case key.Matches(k, toggleBind):
			if id, ok := m.selectedID(); ok {
				before := m.store.Snapshot()
				return m, m.apply(before, m.store.Toggle(id))
			}
			return m, nil
		case key.Matches(k, removeBind):
			if id, ok := m.selectedID(); ok {
				before := m.store.Snapshot()
				return m, m.apply(before, m.store.Remove(id))
			}
			return m, nil
		case key.Matches(k, addBind):
			m.adding = true
			m.addErr = ""
			m.ti.SetValue("")
			m.resize()
			return m, m.ti.Focus()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdding(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyEnter:
			before := m.store.Snapshot()
			next := m.store.Add(m.ti.Value())
			if next.Equal(before) {
				m.addErr = "Text cannot be empty"
				return m, nil
			}
			m.stopAdding()
			cmd := m.apply(before, next)
			if m.list.FilterState() == list.Unfiltered {
				m.list.Select(len(next) - 1)
			}
			return m, cmd
		case tea.KeyEsc:
			m.stopAdding()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *Model) stopAdding() {
	m.adding = false
	m.addErr = ""
	m.ti.SetValue("")
	m.ti.Blur()
	m.resize()
}

func (m Model) View() string {
	content := m.list.View()
	if m.adding {
		title := "Add new item"
		if m.addErr != "" {
			title += " - " + errorStyle.Render(m.addErr)
		}
		content += "\n" + frameStyle.Render(title+"\n"+m.ti.View())
	}
	if m.saveErr != nil {
		content += "\n" + errorStyle.Render("not saved: "+m.saveErr.Error())
	}
	return frameStyle.Render(content)
}
