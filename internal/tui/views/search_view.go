package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/tui/ui"
	"github.com/rivo/tview"
)

// SearchView filters hangouts by username or email as the query is typed.
type SearchView struct {
	*tview.Flex
	theme   *ui.Theme
	input   *tview.InputField
	results *tview.Table
	data    []hangout.Hangout
}

// NewSearchView creates a new search view.
func NewSearchView(theme *ui.Theme) *SearchView {
	input := tview.NewInputField().
		SetLabel(" Search: ").
		SetFieldWidth(0)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	results := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	results.SetBorder(true)
	results.SetBorderColor(theme.BorderColor)
	results.SetBackgroundColor(theme.BgColor)
	results.SetTitle(" Results ")
	results.SetTitleColor(theme.TitleColor)
	results.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(results, 0, 1, false)

	return &SearchView{
		Flex:    flex,
		theme:   theme,
		input:   input,
		results: results,
	}
}

// SetOnQuery sets the callback run on every edit of the query.
func (sv *SearchView) SetOnQuery(fn func(query string)) {
	sv.input.SetChangedFunc(fn)
}

// SetOnDone sets the callback run when the query is submitted with Enter.
func (sv *SearchView) SetOnDone(fn func()) {
	sv.input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			fn()
		}
	})
}

// Update refreshes the results.
func (sv *SearchView) Update(results []hangout.Hangout) {
	sv.data = results
	sv.results.Clear()

	for col, h := range []string{" PEER", " EMAIL", " STATE"} {
		sv.results.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(sv.theme.TableHeaderFg).
			SetBackgroundColor(sv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold))
	}

	for i, h := range results {
		row := i + 1
		sv.results.SetCell(row, 0, tview.NewTableCell(" "+tview.Escape(h.Username)).SetMaxWidth(25).SetTextColor(sv.theme.FgColor))
		sv.results.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(h.Email)).SetExpansion(1).SetTextColor(sv.theme.FgColor))
		sv.results.SetCell(row, 2, tview.NewTableCell(" "+StateLabel(h)).SetMaxWidth(18).SetTextColor(sv.theme.FgColor))
	}
	if len(results) > 0 {
		sv.results.Select(1, 0)
	}
}

// SelectedPeer returns the username of the selected result, or "".
func (sv *SearchView) SelectedPeer() string {
	row, _ := sv.results.GetSelection()
	idx := row - 1
	if idx >= 0 && idx < len(sv.data) {
		return sv.data[idx].Username
	}
	return ""
}

// Reset clears the query and results.
func (sv *SearchView) Reset() {
	sv.input.SetText("")
	sv.Update(nil)
}

// Input returns the search input field.
func (sv *SearchView) Input() *tview.InputField {
	return sv.input
}

// Results returns the results table.
func (sv *SearchView) Results() *tview.Table {
	return sv.results
}
