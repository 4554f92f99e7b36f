// Package notes is the browse view: all notes, a folder, a tag or a
// search, with a detail panel for the selected note.
package notes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/voicenote/internal/browse"
	"github.com/nhle/voicenote/internal/keys"
	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
	"github.com/nhle/voicenote/internal/service"
	appsync "github.com/nhle/voicenote/internal/sync"
	"github.com/nhle/voicenote/internal/theme"
	"github.com/nhle/voicenote/internal/ui"
)

// SearchDebounce is how long typing must pause before a search runs.
const SearchDebounce = 300 * time.Millisecond

// Subscription names published through the notifier.
const (
	subNotes     = "notes.list"
	subTag       = "notes.tag"
	subSearch    = "notes.search"
	subDetail    = "notes.detail"
	subNoteTodos = "notes.todos"
	subTags      = "notes.tags"
	subFolders   = "notes.folders"
)

// searchTickMsg fires when the debounce window of edit seq closes.
type searchTickMsg struct{ seq int }

// deleteNoteMsg is emitted once the user confirms a delete.
type deleteNoteMsg struct{ id int }

// noteDeletedMsg reports the outcome of a delete.
type noteDeletedMsg struct {
	id  int
	err error
}

// todosAcceptedMsg reports the outcome of accepting a note's suggestions.
type todosAcceptedMsg struct {
	accepted int
	err      error
}

// observers holds the live subscriptions. It sits behind a pointer so
// every copy of Model closes the same set.
type observers struct {
	notes, tag, search *query.Observer
	detail, noteTodos  *query.Observer
	tags, folders      *query.Observer
}

func (o *observers) closeList() {
	for _, ob := range []*query.Observer{o.notes, o.tag, o.search} {
		if ob != nil {
			ob.Close()
		}
	}
	o.notes, o.tag, o.search = nil, nil, nil
}

func (o *observers) closeDetail() {
	for _, ob := range []*query.Observer{o.detail, o.noteTodos} {
		if ob != nil {
			ob.Close()
		}
	}
	o.detail, o.noteTodos = nil, nil
}

func (o *observers) closeAll() {
	o.closeList()
	o.closeDetail()
	for _, ob := range []*query.Observer{o.tags, o.folders} {
		if ob != nil {
			ob.Close()
		}
	}
	o.tags, o.folders = nil, nil
}

// Model is the notes browse view.
type Model struct {
	svc      *service.Service
	notifier *appsync.Notifier
	keys     *keys.KeyMap
	obs      *observers

	sel     browse.Selection
	listing browse.View
	list    list.Model

	searching bool
	input     textinput.Model
	searchSeq int

	picker picker

	detailID int
	detail   viewport.Model

	confirm ui.Confirm
	alert   ui.Alert
	notice  string

	width  int
	height int
}

// New creates the notes view. Nothing is fetched until Init.
func New(svc *service.Service, n *appsync.Notifier, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, itemDelegate{}, width, height-2)
	l.Title = "Notes"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search notes..."
	si.Prompt = "/ "
	si.Width = width - 4

	vp := viewport.New(width/2, height-2)

	return Model{
		svc:      svc,
		notifier: n,
		keys:     k,
		obs:      &observers{},
		list:     l,
		input:    si,
		detail:   vp,
		width:    width,
		height:   height,
	}
}

// Init subscribes to the active note list, tags and folders.
func (m Model) Init() tea.Cmd {
	m.obs.tags = m.svc.WatchTags(m.notifier.Listener(subTags))
	m.obs.folders = m.svc.WatchFolders(m.notifier.Listener(subFolders))
	m.subscribe()
	return nil
}

// Close drops every subscription.
func (m Model) Close() {
	m.obs.closeAll()
}

// subscribe replaces the list observers for the current selection. Only
// the query backing the active mode is enabled.
func (m *Model) subscribe() {
	m.obs.closeList()
	plan := browse.Plan(m.sel)
	limit := m.svc.Page(model.PageParams{}).Limit
	m.obs.notes = m.svc.WatchNotes(m.sel.Folder, model.PageParams{}, plan.Notes, m.notifier.Listener(subNotes))
	m.obs.tag = m.svc.WatchTagNotes(m.sel.Tag, limit, plan.Tag, m.notifier.Listener(subTag))
	m.obs.search = m.svc.WatchSearch(m.sel.Query(), limit, plan.Search, m.notifier.Listener(subSearch))
	m.refresh()
}

// refresh re-derives the list and detail from the observers' current
// state.
func (m *Model) refresh() {
	m.listing = browse.Derive(m.sel, browse.Snapshots{
		Notes:  current(m.obs.notes),
		Tag:    current(m.obs.tag),
		Search: current(m.obs.search),
	})

	idx := m.list.Index()
	items := make([]list.Item, len(m.listing.Items))
	for i, it := range m.listing.Items {
		items[i] = noteItem{Item: it}
	}
	m.list.SetItems(items)
	if idx >= len(items) && len(items) > 0 {
		m.list.Select(len(items) - 1)
	}
	m.list.Title = "Notes · " + m.sel.Label()

	if m.detailID != 0 {
		m.detail.SetContent(m.renderDetail())
	}
}

func current(o *query.Observer) query.Snapshot {
	if o == nil {
		return query.Snapshot{Disabled: true}
	}
	return o.Current()
}

// Listing returns the derived state of the note list.
func (m Model) Listing() browse.View { return m.listing }

// Selection returns the active browse selection.
func (m Model) Selection() browse.Selection { return m.sel }

// DetailID returns the note shown in the detail panel, or 0.
func (m Model) DetailID() int { return m.detailID }

// Capturing reports whether the view consumes all key presses.
func (m Model) Capturing() bool {
	return m.searching || m.picker.open() || m.confirm.Open() || m.alert.Open()
}

// Update handles messages for the notes view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case appsync.QueryUpdatedMsg:
		for name := range msg.Updates {
			if strings.HasPrefix(name, "notes.") {
				m.refresh()
				if m.picker.open() {
					m.picker.reload(m.obs)
				}
				break
			}
		}
		return m, nil

	case searchTickMsg:
		if msg.seq != m.searchSeq {
			return m, nil
		}
		m.applySearch(m.input.Value())
		return m, nil

	case deleteNoteMsg:
		return m, m.deleteNote(msg.id)

	case noteDeletedMsg:
		if msg.err != nil {
			m.alert = ui.ErrorAlert("Could not delete note", msg.err)
			return m, nil
		}
		if m.detailID == msg.id {
			m.closeDetail()
		}
		m.notice = "Note deleted"
		m.refresh()
		return m, nil

	case todosAcceptedMsg:
		if msg.err != nil {
			m.alert = ui.ErrorAlert("Could not accept todos", msg.err)
			return m, nil
		}
		m.notice = pluralize(msg.accepted, "todo") + " accepted"
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.alert.Open():
			m.alert = m.alert.Update(msg)
			return m, nil
		case m.confirm.Open():
			var cmd tea.Cmd
			m.confirm, cmd = m.confirm.Update(msg)
			return m, cmd
		case m.picker.open():
			return m.handlePickerKeys(msg)
		case m.searching:
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	if m.confirm.Open() {
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys edits the query. The search runs once typing pauses
// for SearchDebounce, or at once on enter.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.input.Blur()
		m.searchSeq++
		m.applySearch(m.input.Value())
		return m, nil

	case "esc":
		m.searching = false
		m.input.Blur()
		m.input.Reset()
		m.searchSeq++
		if m.sel.Mode() == browse.ModeSearch {
			m.applySearch("")
		}
		return m, nil
	}

	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == prev {
		return m, cmd
	}
	m.searchSeq++
	seq := m.searchSeq
	tick := tea.Tick(SearchDebounce, func(time.Time) tea.Msg {
		return searchTickMsg{seq: seq}
	})
	return m, tea.Batch(cmd, tick)
}

// applySearch makes q the active selection. A blank query returns to all
// notes.
func (m *Model) applySearch(q string) {
	next := m.sel.WithSearch(q)
	if next == m.sel {
		return
	}
	m.sel = next
	m.list.Select(0)
	m.subscribe()
}

func (m *Model) setSelection(sel browse.Selection) {
	m.sel = sel
	m.input.Reset()
	m.list.Select(0)
	m.subscribe()
}

// handleNormalKeys processes key input when nothing has focus.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	m.notice = ""
	switch {
	case key.Matches(msg, m.keys.Select):
		it, ok := m.list.SelectedItem().(noteItem)
		if !ok {
			return m, nil
		}
		m.openDetail(it.ID)
		return m, nil

	case key.Matches(msg, m.keys.Back):
		if m.detailID != 0 {
			m.closeDetail()
			return m, nil
		}
		if m.sel != (browse.Selection{}) {
			m.setSelection(m.sel.Clear())
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.input.SetValue(m.sel.Search)
		m.input.CursorEnd()
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Tags):
		m.picker = newPicker(pickTags)
		m.picker.reload(m.obs)
		return m, nil

	case key.Matches(msg, m.keys.Folders):
		m.picker = newPicker(pickFolders)
		m.picker.reload(m.obs)
		return m, nil

	case key.Matches(msg, m.keys.ClearFilter):
		m.setSelection(m.sel.Clear())
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		for _, o := range []*query.Observer{m.obs.notes, m.obs.tag, m.obs.search, m.obs.detail, m.obs.noteTodos} {
			if o != nil {
				o.Refetch()
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		id, title := m.deleteTarget()
		if id == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.confirm, cmd = ui.NewConfirm("Delete note?", title, deleteNoteMsg{id: id})
		return m, cmd

	case key.Matches(msg, m.keys.Accept):
		if m.detailID == 0 {
			return m, nil
		}
		return m, m.acceptSuggestions()
	}

	if m.detailID != 0 {
		switch msg.String() {
		case "J", "pgdown":
			m.detail.HalfPageDown()
			return m, nil
		case "K", "pgup":
			m.detail.HalfPageUp()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// deleteTarget is the open note, else the highlighted one.
func (m Model) deleteTarget() (int, string) {
	if m.detailID != 0 {
		if n, ok := query.Result[model.Note](current(m.obs.detail)); ok {
			return n.ID, n.Title
		}
		return m.detailID, ""
	}
	if it, ok := m.list.SelectedItem().(noteItem); ok {
		return it.ID, it.Title
	}
	return 0, ""
}

func (m Model) deleteNote(id int) tea.Cmd {
	mu := m.svc.DeleteNote()
	return func() tea.Msg {
		_, err := mu.Mutate(context.Background(), id)
		return noteDeletedMsg{id: id, err: err}
	}
}

// acceptSuggestions accepts every suggested todo of the open note.
func (m Model) acceptSuggestions() tea.Cmd {
	list, ok := query.Result[model.TodoList](current(m.obs.noteTodos))
	if !ok {
		return nil
	}
	var ids []int
	for _, t := range list.Todos {
		if t.Status == model.TodoSuggested {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	mu := m.svc.AcceptNoteTodos()
	sel := service.NoteTodoSelection{NoteID: m.detailID, TodoIDs: ids}
	return func() tea.Msg {
		res, err := mu.Mutate(context.Background(), sel)
		return todosAcceptedMsg{accepted: res.Accepted, err: err}
	}
}

// Browse switches the list to sel and closes the open note.
func (m *Model) Browse(sel browse.Selection) {
	m.searching = false
	m.input.Blur()
	m.closeDetail()
	m.setSelection(sel)
}

// OpenNote shows note id in the detail panel.
func (m *Model) OpenNote(id int) {
	if id > 0 {
		m.openDetail(id)
	}
}

func (m *Model) openDetail(id int) {
	m.obs.closeDetail()
	m.detailID = id
	m.obs.detail = m.svc.WatchNote(id, m.notifier.Listener(subDetail))
	m.obs.noteTodos = m.svc.WatchNoteTodos(id, m.notifier.Listener(subNoteTodos))
	m.resize()
	m.detail.SetContent(m.renderDetail())
	m.detail.GotoTop()
}

func (m *Model) closeDetail() {
	m.obs.closeDetail()
	m.detailID = 0
	m.resize()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 4
	m.resize()
}

func (m *Model) resize() {
	listWidth := m.width
	if m.detailID != 0 {
		listWidth = m.width * 2 / 5
		m.detail.Width = m.width - listWidth - 4
		m.detail.Height = m.height - 4
	}
	m.list.SetSize(listWidth, m.height-2)
}

// View renders the notes view.
func (m Model) View() string {
	var body string
	if s := ui.RenderStatus(m.list.Width(), m.height-2, m.listing.Status, m.listing.Err, m.listing.EmptyMessage); s != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, theme.HeaderStyle.Render(m.list.Title), s)
	} else {
		body = m.list.View()
	}

	top := m.filterBar()
	if m.detailID != 0 {
		panel := theme.DetailPanelStyle.
			Width(m.detail.Width).
			Height(m.detail.Height).
			Render(m.detail.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, panel)
	}
	content := lipgloss.JoinVertical(lipgloss.Left, top, body)

	switch {
	case m.alert.Open():
		return overlay(m.width, m.height, m.alert.View())
	case m.confirm.Open():
		return overlay(m.width, m.height, m.confirm.View())
	case m.picker.open():
		return overlay(m.width, m.height, m.picker.view(m.height-4))
	}
	return content
}

func overlay(width, height int, dialog string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, dialog)
}

// filterBar shows the search input or the active filter.
func (m Model) filterBar() string {
	if m.searching {
		return lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.input.View())
	}
	line := theme.DimmedStyle.Render(m.sel.Mode().String() + ": " + m.sel.Label())
	if m.listing.Refreshing {
		line += theme.DimmedStyle.Render("  refreshing…")
	}
	if m.listing.Status == browse.StatusPopulated && m.listing.Err != nil {
		line += "  " + theme.ErrorStyle.Render("refresh failed")
	}
	if m.notice != "" {
		line += "  " + lipgloss.NewStyle().Foreground(theme.ColorGreen).Render(m.notice)
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(line)
}

// KeyHints returns keyboard shortcut hints for the status bar.
func (m Model) KeyHints() string {
	switch {
	case m.searching:
		return "type to search | enter apply | esc clear"
	case m.picker.open():
		return "j/k move | enter choose | esc close"
	case m.detailID != 0:
		return "esc close | d delete | a accept todos | J/K scroll"
	}
	return "enter open | / search | t tags | f folders | c clear | d delete | R refresh"
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
