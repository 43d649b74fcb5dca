// Package views holds the full-screen Bubble Tea views.
package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/reelscout/reelscout/internal/analytics"
	"github.com/reelscout/reelscout/internal/fetch"
	"github.com/reelscout/reelscout/internal/search"
	"github.com/reelscout/reelscout/internal/tmdb"
	"github.com/reelscout/reelscout/internal/tui"
	"github.com/reelscout/reelscout/internal/tui/empty"
	"github.com/reelscout/reelscout/internal/tui/format"
)

const (
	// Placeholder is shown in the empty search field.
	Placeholder = "Search movies ..."

	gridColumns  = 3
	cardHeight   = 5 // three content lines plus border
	minCardWidth = 14
)

// Trending lists the most-searched terms.
type Trending interface {
	Trending(ctx context.Context, limit int) ([]analytics.Search, error)
}

// Options configures a Search view.
type Options struct {
	Trending      Trending // optional
	TrendingLimit int
	Styles        *tui.Styles
	Locale        format.Locale
	Context       context.Context
	Themes        *tui.ThemeWatcher // optional live theme reload
}

type trendingMsg struct {
	searches []analytics.Search
	err      error
}

type searchFocus int

const (
	focusInput searchFocus = iota
	focusGrid
)

// Search is the movie search screen: a text field driving a Coordinator,
// with results laid out in a three-column grid.
type Search struct {
	coord    *search.Coordinator
	trending Trending
	limit    int
	ctx      context.Context
	styles   *tui.Styles
	themes   *tui.ThemeWatcher
	locale   format.Locale
	keys     searchKeyMap
	help     help.Model

	input    textinput.Model
	spinner  spinner.Model
	spinning bool

	focus         searchFocus
	cursor        int
	offset        int // first visible grid row
	width, height int

	popular     []analytics.Search
	trendingErr error
}

// NewSearch creates the search view around coord.
func NewSearch(coord *search.Coordinator, opts Options) *Search {
	styles := opts.Styles
	if styles == nil {
		styles = tui.NewStyles()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	limit := opts.TrendingLimit
	if limit <= 0 {
		limit = analytics.DefaultTrendingLimit
	}

	ti := textinput.New()
	ti.Placeholder = Placeholder
	ti.CharLimit = 256
	ti.Prompt = "⌕ "
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot

	v := &Search{
		coord:    coord,
		trending: opts.Trending,
		limit:    limit,
		ctx:      ctx,
		themes:   opts.Themes,
		locale:   opts.Locale,
		keys:     defaultSearchKeyMap(),
		help:     help.New(),
		input:    ti,
		spinner:  s,
		focus:    focusInput,
	}
	v.applyStyles(styles)
	return v
}

func (v *Search) applyStyles(styles *tui.Styles) {
	v.styles = styles
	v.input.PromptStyle = styles.Muted
	v.spinner.Style = styles.Spinner
	v.help.Styles.ShortKey = styles.Muted
	v.help.Styles.ShortDesc = styles.Help
}

// Coordinator returns the search coordinator driving this view.
func (v *Search) Coordinator() *search.Coordinator {
	return v.coord
}

// Init implements tea.Model.
func (v *Search) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, v.coord.Init(), v.loadTrending(), v.themes.Wait())
}

// SetSize sets the render area.
func (v *Search) SetSize(w, h int) {
	v.width = w
	v.height = h
	v.input.Width = max(0, w-8)
	v.help.Width = w
	v.scrollToCursor()
}

// Update implements tea.Model.
func (v *Search) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetSize(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v, v.afterCoordinator(v.handleKey(msg))

	case spinner.TickMsg:
		if !v.coord.Loading() {
			v.spinning = false
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case trendingMsg:
		v.popular, v.trendingErr = msg.searches, msg.err
		return v, nil

	case tui.ThemeChangedMsg:
		v.applyStyles(msg.Styles)
		return v, v.themes.Wait()

	case search.RecordedMsg:
		cmd := v.coord.Update(msg)
		if msg.Err != nil {
			return v, cmd
		}
		return v, tea.Batch(cmd, v.loadTrending())
	}

	return v, v.afterCoordinator(v.coord.Update(msg))
}

// afterCoordinator keeps view state consistent with the coordinator after
// it may have changed: the cursor stays on a result and the spinner runs
// while a search is in flight.
func (v *Search) afterCoordinator(cmd tea.Cmd) tea.Cmd {
	n := len(v.visibleMovies())
	if n == 0 {
		v.cursor, v.offset = 0, 0
		if v.focus == focusGrid {
			v.focusInput()
		}
	} else if v.cursor >= n {
		v.cursor = n - 1
	}
	v.scrollToCursor()

	if v.coord.Loading() && !v.spinning {
		v.spinning = true
		return tea.Batch(cmd, v.spinner.Tick)
	}
	return cmd
}

func (v *Search) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return tea.Quit

	case key.Matches(msg, v.keys.Retry):
		return v.coord.Retry()

	case key.Matches(msg, v.keys.Focus):
		v.toggleFocus()
		return nil

	case key.Matches(msg, v.keys.Back):
		if v.focus == focusGrid {
			v.focusInput()
			return nil
		}
		return tea.Quit
	}

	if v.focus == focusGrid {
		v.moveCursor(msg)
		return nil
	}
	return v.updateInput(msg)
}

func (v *Search) updateInput(msg tea.KeyMsg) tea.Cmd {
	before := v.input.Value()
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	if after := v.input.Value(); after != before {
		return tea.Batch(cmd, v.coord.SetQuery(after))
	}
	return cmd
}

func (v *Search) toggleFocus() {
	if v.focus == focusGrid {
		v.focusInput()
		return
	}
	if len(v.visibleMovies()) == 0 {
		return
	}
	v.focus = focusGrid
	v.input.Blur()
}

func (v *Search) focusInput() {
	v.focus = focusInput
	v.input.Focus()
}

func (v *Search) moveCursor(msg tea.KeyMsg) {
	n := len(v.visibleMovies())
	if n == 0 {
		return
	}
	next := v.cursor
	switch {
	case key.Matches(msg, v.keys.Left):
		next--
	case key.Matches(msg, v.keys.Right):
		next++
	case key.Matches(msg, v.keys.Up):
		next -= gridColumns
	case key.Matches(msg, v.keys.Down):
		next += gridColumns
	}
	if next < 0 || next >= n {
		return
	}
	v.cursor = next
	v.scrollToCursor()
}

func (v *Search) scrollToCursor() {
	rows := v.gridRows()
	row := v.cursor / gridColumns
	if row < v.offset {
		v.offset = row
	}
	if row >= v.offset+rows {
		v.offset = row - rows + 1
	}
}

// visibleMovies is the result set as shown: previous results stay on
// screen while a new search loads, and are hidden after a failure.
func (v *Search) visibleMovies() []tmdb.Movie {
	res := v.coord.Results()
	if res.State == fetch.StateError || res.State == fetch.StateIdle {
		return nil
	}
	return res.Data
}

// Selected returns the movie under the grid cursor.
func (v *Search) Selected() (tmdb.Movie, bool) {
	movies := v.visibleMovies()
	if v.focus != focusGrid || v.cursor >= len(movies) {
		return tmdb.Movie{}, false
	}
	return movies[v.cursor], true
}

func (v *Search) loadTrending() tea.Cmd {
	if v.trending == nil {
		return nil
	}
	src, ctx, limit := v.trending, v.ctx, v.limit
	return func() tea.Msg {
		searches, err := src.Trending(ctx, limit)
		return trendingMsg{searches: searches, err: err}
	}
}

// showHeader reports whether the "Search Results for" header is shown:
// not loading, no error, a non-blank raw query, and at least one result.
func (v *Search) showHeader() bool {
	res := v.coord.Results()
	return !res.Loading() &&
		res.Err == nil &&
		strings.TrimSpace(v.coord.Query()) != "" &&
		len(res.Data) > 0
}

// View implements tea.Model.
func (v *Search) View() string {
	if v.width == 0 || v.height == 0 {
		return ""
	}

	var sections []string
	sections = append(sections, v.styles.Title.Render("🎬 reelscout"))

	bar := v.styles.SearchBar
	if v.focus == focusInput {
		bar = v.styles.SearchBarFocused
	}
	sections = append(sections, bar.Width(max(0, v.width-2)).Render(v.input.View()))

	res := v.coord.Results()
	if res.Loading() {
		sections = append(sections, v.spinner.View()+" "+v.styles.Muted.Render("Searching..."))
	}
	if res.Err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+res.Err.Error()))
	}
	if v.showHeader() {
		sections = append(sections,
			v.styles.Heading.Render("Search Results for ")+v.styles.Accent.Render(v.coord.Query()))
	}

	if movies := v.visibleMovies(); len(movies) > 0 {
		sections = append(sections, v.renderGrid(movies))
	} else if !res.Loading() && res.Err == nil {
		sections = append(sections, v.renderEmpty(res))
	}

	body := lipgloss.JoinVertical(lipgloss.Left, sections...)
	footer := v.help.View(v.keys)
	gap := v.height - lipgloss.Height(body) - lipgloss.Height(footer)
	if gap > 0 {
		body += strings.Repeat("\n", gap)
	}
	return body + "\n" + footer
}

func (v *Search) renderEmpty(res search.Results) string {
	var msg empty.Message
	if res.Succeeded() && strings.TrimSpace(res.Key) != "" {
		msg = empty.NoSearchResults(res.Key)
	} else {
		msg = empty.StartSearching()
	}

	lines := []string{"", v.styles.Heading.Render(msg.Title)}
	if msg.Body != "" {
		lines = append(lines, v.styles.Body.Render(msg.Body))
	}
	for _, h := range msg.Hints {
		lines = append(lines, v.styles.Muted.Render("  "+h))
	}
	if !res.Succeeded() {
		lines = append(lines, v.renderTrending())
	}
	return strings.Join(lines, "\n")
}

func (v *Search) renderTrending() string {
	if v.trending == nil || v.trendingErr != nil {
		return ""
	}
	if len(v.popular) == 0 {
		msg := empty.NoTrending()
		return "\n" + v.styles.Muted.Render(msg.Title)
	}

	lines := []string{"", v.styles.Heading.Render("Trending searches")}
	for i, s := range v.popular {
		line := fmt.Sprintf("%d. %s", i+1, s.Term)
		if s.Title != "" && s.Title != s.Term {
			line += v.styles.Muted.Render("  " + s.Title)
		}
		line += "  " + v.styles.Muted.Render(v.locale.Searches(s.Count))
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// gridRows is how many card rows fit below the search bar and header.
func (v *Search) gridRows() int {
	// title, search bar (3), header, help
	const chrome = 1 + 3 + 1 + 1
	return max(1, (v.height-chrome)/cardHeight)
}

func (v *Search) cardWidth() int {
	// each card adds a 2-column border and 2 columns of padding
	return max(minCardWidth, (v.width-gridColumns)/gridColumns-4)
}

func (v *Search) renderGrid(movies []tmdb.Movie) string {
	w := v.cardWidth()
	start := v.offset * gridColumns
	end := min(len(movies), start+v.gridRows()*gridColumns)

	var rows []string
	for i := start; i < end; i += gridColumns {
		var cards []string
		for j := i; j < min(i+gridColumns, end); j++ {
			cards = append(cards, v.renderCard(movies[j], w, v.focus == focusGrid && j == v.cursor))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *Search) renderCard(m tmdb.Movie, width int, selected bool) string {
	style := v.styles.Card
	if selected {
		style = v.styles.CardSelected
	}

	title := ansi.Truncate(m.Title, width, "…")
	meta := v.styles.Rating.Render(v.locale.Rating(m)) + v.styles.Muted.Render("  "+format.Year(m))
	votes := v.styles.Muted.Render(ansi.Truncate(v.locale.Votes(m.VoteCount), width, "…"))

	return style.Width(width + 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, v.styles.CardTitle.Render(title), meta, votes))
}
