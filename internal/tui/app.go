// Package tui is the interactive weekly grid: seven day columns, one
// row per project/task/activity, cell editing with H:MM or decimal
// input, and the save/submit/cancel/amend document actions.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/oleanders/weeklog/internal/api"
	"github.com/oleanders/weeklog/internal/grid"
	"github.com/oleanders/weeklog/internal/session"
	"github.com/oleanders/weeklog/internal/timevalue"
)

type viewState int

const (
	loadingView viewState = iota
	gridView
	pickerView
	noteView
	confirmView
	copyPreviewView
)

type confirmAction int

const (
	confirmNavigate confirmAction = iota
	confirmQuit
	confirmCancelDoc
)

type gridCursor struct {
	row int
	col int
}

type weekLoadedMsg struct {
	snap *session.Snapshot
	err  error
}

type saveDoneMsg struct {
	res grid.Result
	err error
}

type actionDoneMsg struct {
	verb string
	err  error
}

type copyLoadedMsg struct {
	rows []grid.Row
	err  error
}

type tasksLoadedMsg struct {
	items []pickItem
	err   error
}

type App struct {
	sess   *session.Session
	client *api.Client

	state     viewState
	spinner   spinner.Model
	cursor    gridCursor
	editing   bool
	cellInput textinput.Model
	noteInput textinput.Model
	picker    pickerModel

	statusMsg   string
	errMsg      string
	warnings    []string
	confirmWhat confirmAction
	pendingWeek grid.Week
	copyRows    []grid.Row
}

// NewApp builds the grid UI over a session. The client is only used for
// the task picker lookup; everything else flows through the session.
func NewApp(sess *session.Session, client *api.Client) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot

	cell := textinput.New()
	cell.CharLimit = 10
	cell.Width = 8

	note := textinput.New()
	note.CharLimit = 140
	note.Width = 50
	note.Placeholder = "Note for this day..."

	return &App{
		sess:      sess,
		client:    client,
		state:     loadingView,
		spinner:   s,
		cellInput: cell,
		noteInput: note,
	}
}

// Run starts the program in the alternate screen.
func Run(sess *session.Session, client *api.Client) error {
	p := tea.NewProgram(NewApp(sess, client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.fetchWeek())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	case weekLoadedMsg:
		return a.handleWeekLoaded(msg)
	case saveDoneMsg:
		return a.handleSaveDone(msg)
	case actionDoneMsg:
		return a.handleActionDone(msg)
	case copyLoadedMsg:
		return a.handleCopyLoaded(msg)
	case tasksLoadedMsg:
		if msg.err != nil {
			a.errMsg = msg.err.Error()
			a.state = gridView
			return a, nil
		}
		a.picker.setItems(msg.items)
		return a, nil
	}

	switch a.state {
	case loadingView:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	case gridView:
		return a.updateGrid(msg)
	case pickerView:
		return a.updatePicker(msg)
	case noteView:
		return a.updateNote(msg)
	case confirmView:
		return a.updateConfirm(msg)
	case copyPreviewView:
		return a.updateCopyPreview(msg)
	}

	return a, nil
}

func (a *App) View() string {
	switch a.state {
	case loadingView:
		return a.spinner.View() + " Loading week..."
	case gridView:
		return a.viewGrid()
	case pickerView:
		return a.picker.View()
	case noteView:
		return boxStyle.Render(titleStyle.Render("Day Note") + "\n" + a.noteInput.View() +
			"\n" + helpStyle.Render("Enter: apply • Esc: cancel"))
	case confirmView:
		return a.viewConfirm()
	case copyPreviewView:
		return a.viewCopyPreview()
	}
	return ""
}

func (a *App) viewGrid() string {
	var sb strings.Builder
	sb.WriteString(renderGrid(a.sess, a.cursor, a.editing, a.cellInput.Value()))

	if a.errMsg != "" {
		sb.WriteString("\n" + errorStyle.Render("Error: ") + a.errMsg)
	}
	for _, w := range a.warnings {
		sb.WriteString("\n" + warningStyle.Render("Warning: "+w))
	}
	if a.statusMsg != "" {
		sb.WriteString("\n" + successStyle.Render(a.statusMsg))
	}

	if a.editing {
		sb.WriteString("\n" + helpStyle.Render("Enter: apply • Esc: cancel • hours as 1:30 or 1.5"))
	} else {
		sb.WriteString("\n" + helpStyle.Render(
			"arrows: move • Enter: edit • n: note • b: billable • p/t/a: pick row fields\n"+
				"+: add row • D: delete row • c: copy last week • [ ]: change week\n"+
				"s: save • S: submit • C: cancel • A: amend • r: reload • q: quit"))
	}
	return sb.String()
}

func (a *App) viewConfirm() string {
	var prompt string
	switch a.confirmWhat {
	case confirmNavigate:
		prompt = "Discard unsaved changes and change week?"
	case confirmQuit:
		prompt = "Discard unsaved changes and quit?"
	case confirmCancelDoc:
		prompt = "Cancel this submitted timesheet? This cannot be undone."
	}
	return boxStyle.Render(warningStyle.Render(prompt) + "\n\n" +
		helpStyle.Render("y: yes • n/Esc: no"))
}

func (a *App) viewCopyPreview() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Copy Previous Week"))
	sb.WriteString("\n")
	for _, r := range a.copyRows {
		sb.WriteString(fmt.Sprintf("  %-40s %s\n", rowLabel(r), timevalue.Format(r.Total())))
	}
	sb.WriteString("\n" + helpStyle.Render("Enter/y: add these rows • Esc/n: cancel"))
	return boxStyle.Render(sb.String())
}

func (a *App) updateGrid(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.editing {
		return a.updateCellEdit(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}

	a.statusMsg = ""
	rows := a.sess.Rows()

	switch keyMsg.String() {
	case "q":
		if a.sess.Dirty() {
			a.confirmWhat = confirmQuit
			a.state = confirmView
			return a, nil
		}
		return a, tea.Quit
	case "up", "k":
		if a.cursor.row > 0 {
			a.cursor.row--
		}
	case "down", "j":
		if a.cursor.row < len(rows)-1 {
			a.cursor.row++
		}
	case "left", "h":
		if a.cursor.col > 0 {
			a.cursor.col--
		}
	case "right", "l":
		if a.cursor.col < grid.DaysPerWeek-1 {
			a.cursor.col++
		}
	case "enter":
		if len(rows) == 0 {
			return a, nil
		}
		a.editing = true
		a.errMsg = ""
		current := rows[a.cursor.row].DailyHours[a.cursor.col]
		if current > 0 {
			a.cellInput.SetValue(timevalue.Format(current))
		} else {
			a.cellInput.SetValue("")
		}
		return a, a.cellInput.Focus()
	case "n":
		if len(rows) == 0 {
			return a, nil
		}
		a.noteInput.SetValue(rows[a.cursor.row].Notes[a.cursor.col])
		a.state = noteView
		return a, a.noteInput.Focus()
	case "b":
		a.mutateRows(func(rs []grid.Row) {
			if a.cursor.row < len(rs) {
				r := &rs[a.cursor.row]
				r.Billable[a.cursor.col] = 1 - r.Billable[a.cursor.col]
			}
		})
	case "p":
		return a.openPicker(pickProject)
	case "t":
		return a.openTaskPicker()
	case "a":
		return a.openPicker(pickActivity)
	case "+":
		rowsCopy := append([]grid.Row(nil), rows...)
		rowsCopy = append(rowsCopy, grid.Row{OrderIndex: len(rowsCopy)})
		if err := a.sess.SetRows(rowsCopy); err != nil {
			a.errMsg = err.Error()
		} else {
			a.cursor.row = len(rowsCopy) - 1
		}
	case "D":
		if len(rows) == 0 {
			return a, nil
		}
		rowsCopy := append([]grid.Row(nil), rows...)
		rowsCopy = append(rowsCopy[:a.cursor.row], rowsCopy[a.cursor.row+1:]...)
		if err := a.sess.SetRows(rowsCopy); err != nil {
			a.errMsg = err.Error()
		} else if a.cursor.row >= len(rowsCopy) && a.cursor.row > 0 {
			a.cursor.row--
		}
	case "s":
		a.state = loadingView
		return a, tea.Batch(a.spinner.Tick, a.saveWeek())
	case "S":
		a.state = loadingView
		return a, tea.Batch(a.spinner.Tick, a.docAction("submit"))
	case "C":
		a.confirmWhat = confirmCancelDoc
		a.state = confirmView
		return a, nil
	case "A":
		a.state = loadingView
		return a, tea.Batch(a.spinner.Tick, a.docAction("amend"))
	case "c":
		a.state = loadingView
		return a, tea.Batch(a.spinner.Tick, a.loadCopy())
	case "[":
		return a.navigate(a.sess.Week().Previous())
	case "]":
		return a.navigate(a.sess.Week().Next())
	case "r":
		a.state = loadingView
		return a, tea.Batch(a.spinner.Tick, a.fetchWeek())
	}

	return a, nil
}

func (a *App) updateCellEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			hours, err := timevalue.Parse(a.cellInput.Value())
			if err != nil {
				a.errMsg = err.Error()
				return a, nil
			}
			a.mutateRows(func(rs []grid.Row) {
				if a.cursor.row < len(rs) {
					rs[a.cursor.row].DailyHours[a.cursor.col] = hours
				}
			})
			a.editing = false
			a.cellInput.Blur()
			return a, nil
		case "esc":
			a.editing = false
			a.errMsg = ""
			a.cellInput.Blur()
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.cellInput, cmd = a.cellInput.Update(msg)
	return a, cmd
}

func (a *App) updateNote(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			a.mutateRows(func(rs []grid.Row) {
				if a.cursor.row < len(rs) {
					rs[a.cursor.row].Notes[a.cursor.col] = a.noteInput.Value()
				}
			})
			a.noteInput.Blur()
			a.state = gridView
			return a, nil
		case "esc":
			a.noteInput.Blur()
			a.state = gridView
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.noteInput, cmd = a.noteInput.Update(msg)
	return a, cmd
}

func (a *App) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			a.state = gridView
			return a, nil
		case "enter":
			if it, ok := a.picker.selected(); ok {
				a.applyPick(it)
			}
			a.state = gridView
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.picker, cmd = a.picker.Update(msg)
	return a, cmd
}

func (a *App) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}

	switch keyMsg.String() {
	case "y":
		switch a.confirmWhat {
		case confirmNavigate:
			a.sess.DiscardChanges()
			if err := a.sess.Navigate(a.pendingWeek); err != nil {
				a.errMsg = err.Error()
				a.state = gridView
				return a, nil
			}
			a.cursor = gridCursor{}
			a.state = loadingView
			return a, tea.Batch(a.spinner.Tick, a.fetchWeek())
		case confirmQuit:
			return a, tea.Quit
		case confirmCancelDoc:
			a.state = loadingView
			return a, tea.Batch(a.spinner.Tick, a.docAction("cancel"))
		}
	case "n", "esc":
		a.state = gridView
		return a, nil
	}
	return a, nil
}

func (a *App) updateCopyPreview(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter", "y":
			if err := a.sess.ApplyCopy(a.copyRows); err != nil {
				a.errMsg = err.Error()
			} else {
				a.statusMsg = fmt.Sprintf("Copied %d rows from last week", len(a.copyRows))
			}
			a.copyRows = nil
			a.state = gridView
			return a, nil
		case "esc", "n":
			a.copyRows = nil
			a.state = gridView
			return a, nil
		}
	}
	return a, nil
}

func (a *App) navigate(to grid.Week) (tea.Model, tea.Cmd) {
	err := a.sess.Navigate(to)
	if errors.Is(err, session.ErrUnsavedChanges) {
		a.confirmWhat = confirmNavigate
		a.pendingWeek = to
		a.state = confirmView
		return a, nil
	}
	if err != nil {
		a.errMsg = err.Error()
		return a, nil
	}
	a.cursor = gridCursor{}
	a.state = loadingView
	return a, tea.Batch(a.spinner.Tick, a.fetchWeek())
}

func (a *App) openPicker(kind pickerKind) (tea.Model, tea.Cmd) {
	if len(a.sess.Rows()) == 0 {
		return a, nil
	}
	if !a.sess.Editable() {
		a.errMsg = session.ErrReadOnly.Error()
		return a, nil
	}

	var items []pickItem
	switch kind {
	case pickProject:
		for _, p := range a.sess.Projects() {
			items = append(items, pickItem{id: p.Name, label: p.ProjectName})
		}
	case pickActivity:
		for _, t := range a.sess.ActivityTypes() {
			items = append(items, pickItem{id: t.Name, label: t.Name})
		}
	}

	a.picker = newPicker(kind, items)
	a.state = pickerView
	return a, textinput.Blink
}

func (a *App) openTaskPicker() (tea.Model, tea.Cmd) {
	rows := a.sess.Rows()
	if len(rows) == 0 {
		return a, nil
	}
	if !a.sess.Editable() {
		a.errMsg = session.ErrReadOnly.Error()
		return a, nil
	}
	project := rows[a.cursor.row].Project
	if project == "" {
		a.errMsg = "select a project before picking a task"
		return a, nil
	}
	if a.client == nil {
		a.errMsg = "task lookup unavailable"
		return a, nil
	}

	a.picker = newPicker(pickTask, nil)
	a.picker.loading = true
	a.state = pickerView
	return a, tea.Batch(textinput.Blink, a.loadTasks(project))
}

func (a *App) applyPick(it pickItem) {
	a.mutateRows(func(rs []grid.Row) {
		if a.cursor.row >= len(rs) {
			return
		}
		r := &rs[a.cursor.row]
		switch a.picker.kind {
		case pickProject:
			r.Project = it.id
			r.ProjectName = it.label
			r.Task = ""
			r.TaskName = ""
		case pickTask:
			r.Task = it.id
			r.TaskName = it.label
		case pickActivity:
			r.ActivityType = it.id
			r.ActivityName = it.label
		}
	})
}

// mutateRows edits a copy of the grid and pushes it back through the
// session, which enforces the read-only rule and recomputes dirtiness.
func (a *App) mutateRows(fn func(rs []grid.Row)) {
	rows := append([]grid.Row(nil), a.sess.Rows()...)
	fn(rows)
	if err := a.sess.SetRows(rows); err != nil {
		a.errMsg = err.Error()
	} else {
		a.errMsg = ""
	}
}

func (a *App) handleWeekLoaded(msg weekLoadedMsg) (tea.Model, tea.Cmd) {
	a.state = gridView
	if msg.err != nil {
		a.errMsg = msg.err.Error()
		return a, nil
	}
	if !a.sess.Install(msg.snap) {
		return a, nil
	}
	a.errMsg = ""
	a.warnings = nil
	if a.cursor.row >= len(a.sess.Rows()) {
		a.cursor.row = 0
	}
	return a, nil
}

func (a *App) handleSaveDone(msg saveDoneMsg) (tea.Model, tea.Cmd) {
	a.state = gridView
	if errors.Is(msg.err, session.ErrValidation) {
		a.errMsg = strings.Join(msg.res.Errors, "; ")
		return a, nil
	}
	if msg.err != nil {
		a.errMsg = msg.err.Error()
		return a, nil
	}
	a.errMsg = ""
	a.warnings = msg.res.Warnings
	if doc := a.sess.Doc(); doc != nil {
		a.statusMsg = fmt.Sprintf("Saved %s", doc.Name)
	}
	return a, nil
}

func (a *App) handleActionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	a.state = gridView
	if msg.err != nil {
		a.errMsg = msg.err.Error()
		return a, nil
	}
	a.errMsg = ""
	if doc := a.sess.Doc(); doc != nil {
		a.statusMsg = fmt.Sprintf("%s: %s is now %s", msg.verb, doc.Name, doc.Status)
	}
	return a, nil
}

func (a *App) handleCopyLoaded(msg copyLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.errMsg = msg.err.Error()
		a.state = gridView
		return a, nil
	}
	a.copyRows = msg.rows
	a.state = copyPreviewView
	return a, nil
}

func (a *App) fetchWeek() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		snap, err := a.sess.Fetch(ctx)
		return weekLoadedMsg{snap: snap, err: err}
	}
}

func (a *App) saveWeek() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		res, err := a.sess.Save(ctx)
		return saveDoneMsg{res: res, err: err}
	}
}

func (a *App) docAction(verb string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var err error
		switch verb {
		case "submit":
			var res grid.Result
			res, err = a.sess.Submit(ctx)
			if errors.Is(err, session.ErrValidation) {
				err = fmt.Errorf("%s", strings.Join(res.Errors, "; "))
			}
		case "cancel":
			err = a.sess.Cancel(ctx)
		case "amend":
			err = a.sess.Amend(ctx)
		}
		return actionDoneMsg{verb: verb, err: err}
	}
}

func (a *App) loadCopy() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		rows, err := a.sess.CopyPreviousWeek(ctx)
		return copyLoadedMsg{rows: rows, err: err}
	}
}

func (a *App) loadTasks(project string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		tasks, err := a.client.TasksForProject(ctx, project)
		if err != nil {
			return tasksLoadedMsg{err: err}
		}
		items := make([]pickItem, 0, len(tasks))
		for _, t := range tasks {
			items = append(items, pickItem{id: t.Name, label: t.Subject})
		}
		return tasksLoadedMsg{items: items}
	}
}
