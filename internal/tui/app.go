package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/headlines/internal/browser"
	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/controller"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/storage"
	"github.com/pders01/headlines/internal/timeline"
)

const statusTTL = 3 * time.Second

// Deps are the collaborators the App talks to. Any of them may be nil; the
// matching features are then disabled.
type Deps struct {
	Store    *storage.Store
	Source   feed.Source
	Searcher search.Searcher
	Opener   browser.Opener
	// Session restores the query and sort order of the last run.
	Session *storage.Session
}

type App struct {
	config     *config.Config
	store      *storage.Store
	source     feed.Source
	searcher   search.Searcher
	opener     browser.Opener
	ctrl       *controller.Controller
	keyHandler *KeyHandler
	loc        *time.Location

	feedList     list.Model
	sortList     list.Model
	historyList  list.Model
	queryInput   textinput.Model
	historyInput textinput.Model
	viewport     viewport.Model
	spinner      spinner.Model

	view            View
	previousView    View
	cameFromHistory bool

	currentArticle *storage.Article
	expanded       bool
	loadingArticle bool
	resetSelection bool
	read           map[string]bool

	cancelFetch context.CancelFunc
	spinning    bool

	querySeq       int
	pendingQuery   string
	historySeq     int
	pendingHistory string
	historyQuery   string

	status     string
	statusKind StatusKind
	statusSeq  int

	width           int
	height          int
	err             error
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

func NewApp(cfg *config.Config, deps Deps) *App {
	loc := cfg.Location()

	mode := defaultMode(cfg.UI.DefaultSort)
	query := ""
	if deps.Session != nil {
		query = deps.Session.Query
		if m, err := timeline.ParseMode(deps.Session.Sort); err == nil {
			mode = m
		}
	}

	feedList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	feedList.Title = "› " + AppName
	feedList.SetShowStatusBar(false)
	feedList.SetShowTitle(false)
	// results come from the provider, not from local filtering
	feedList.SetFilteringEnabled(false)
	feedList.SetShowHelp(false)

	sortList := list.New(sortItems(mode), list.NewDefaultDelegate(), 0, 0)
	sortList.Title = "› sort by"
	sortList.SetShowStatusBar(false)
	sortList.SetFilteringEnabled(false)
	sortList.SetShowHelp(false)

	historyList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	historyList.Title = "› history"
	historyList.SetShowStatusBar(false)
	historyList.SetShowTitle(false)
	historyList.SetFilteringEnabled(false)
	historyList.SetShowHelp(false)

	qi := textinput.New()
	qi.Placeholder = "Search the news..."
	qi.Prompt = "› "
	qi.CharLimit = maxQueryLength
	qi.SetValue(query)

	hi := textinput.New()
	hi.Placeholder = "Search your reading history..."
	hi.Prompt = "› "
	hi.CharLimit = maxQueryLength

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	app := &App{
		config:   cfg,
		store:    deps.Store,
		source:   deps.Source,
		searcher: deps.Searcher,
		opener:   deps.Opener,
		ctrl: controller.New(controller.Options{
			Query:    query,
			Mode:     mode,
			PageSize: cfg.Provider.PageSize,
			Sentinel: cfg.Provider.RemovedTitle,
			Location: loc,
		}),
		loc:          loc,
		feedList:     feedList,
		sortList:     sortList,
		historyList:  historyList,
		queryInput:   qi,
		historyInput: hi,
		viewport:     viewport.New(0, 0),
		spinner:      sp,
		view:         ViewFeed,
		previousView: ViewFeed,
		read:         make(map[string]bool),
	}

	app.keyHandler = NewKeyHandler(app, cfg)

	return app
}

func defaultMode(name string) timeline.Mode {
	if m, err := timeline.ParseMode(name); err == nil {
		return m
	}
	return timeline.ModeMonth
}

func sortItems(current timeline.Mode) []list.Item {
	modes := timeline.Modes()
	items := make([]list.Item, len(modes))
	for i, m := range modes {
		items[i] = sortItem{mode: m, current: m == current}
	}
	return items
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.start(a.ctrl.Refresh()),
		a.loadReadURLs(),
		tea.EnterAltScreen,
	)
}

// start shows the loading state and runs req.
func (a *App) start(req controller.Request) tea.Cmd {
	a.err = nil
	a.resetSelection = true
	if a.source == nil {
		a.ctrl.Complete(req.Seq, nil, errNoSource)
		a.syncFeedList()
		return nil
	}
	a.syncFeedList()
	return tea.Batch(a.fetch(req), a.startSpinner())
}

func (a *App) startSpinner() tea.Cmd {
	if a.spinning {
		return nil
	}
	a.spinning = true
	return a.spinner.Tick
}

func (a *App) busy() bool {
	return a.ctrl.Loading() || a.loadingArticle
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		if a.view == ViewDetail && a.currentArticle != nil && !a.loadingArticle {
			cmds = append(cmds, a.renderArticle(a.currentArticle, a.expanded))
		}

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case spinner.TickMsg:
		if !a.busy() {
			a.spinning = false
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case fetchDoneMsg:
		return a, a.handleFetchDone(msg)

	case debounceFireMsg:
		return a, a.handleDebounce(msg)

	case articleRenderedMsg:
		if a.view == ViewDetail && a.currentArticle != nil && a.currentArticle.URL == msg.url {
			a.viewport.SetContent(msg.content)
			if a.loadingArticle {
				a.viewport.GotoTop()
			}
			a.loadingArticle = false
		}
		return a, nil

	case historyResultsMsg:
		if msg.query != a.historyQuery {
			return a, nil
		}
		items := make([]list.Item, len(msg.results))
		for i, r := range msg.results {
			items[i] = historyItem{result: r, loc: a.loc}
		}
		a.historyList.SetItems(items)
		switch {
		case len(items) == 0 && msg.query == "":
			a.setStatus(MsgNoHistory, StatusInfo)
		case len(items) == 0:
			a.setStatus(MsgNoResults, StatusInfo)
		default:
			a.setStatus(MsgResultsCount(len(items)), StatusInfo)
		}
		return a, nil

	case historySavedMsg:
		a.read[msg.url] = true
		a.syncFeedList()
		return a, nil

	case historyDeletedMsg:
		delete(a.read, msg.url)
		a.syncFeedList()
		return a, tea.Batch(a.flashStatus(MsgHistoryRemoved, StatusSuccess), a.searchHistory(a.historyQuery))

	case readURLsMsg:
		for url := range msg.urls {
			a.read[url] = true
		}
		a.syncFeedList()
		return a, nil

	case openedMsg:
		return a, a.flashStatus(MsgOpened(msg.title), StatusSuccess)

	case statusClearMsg:
		if msg.seq == a.statusSeq {
			a.status = ""
		}
		return a, nil

	case errorMsg:
		a.err = msg.err
		debuglog.Errorf("%v", msg.err)
		return a, nil
	}

	switch a.view {
	case ViewFeed:
		var cmd tea.Cmd
		if a.queryInput.Focused() {
			a.queryInput, cmd = a.queryInput.Update(msg)
		} else {
			a.feedList, cmd = a.feedList.Update(msg)
		}
		cmds = append(cmds, cmd)
	case ViewSort:
		var cmd tea.Cmd
		a.sortList, cmd = a.sortList.Update(msg)
		cmds = append(cmds, cmd)
	case ViewDetail:
		switch msg.(type) {
		case tea.WindowSizeMsg, tea.MouseMsg:
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	case ViewHistory:
		var cmd tea.Cmd
		if a.historyInput.Focused() {
			a.historyInput, cmd = a.historyInput.Update(msg)
		} else {
			a.historyList, cmd = a.historyList.Update(msg)
		}
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height

	// header (2) + input frame (3) + separator and status (2) + spacing
	listHeight := height - 8
	if listHeight < 3 {
		listHeight = 3
	}
	a.feedList.SetSize(width, listHeight)
	a.historyList.SetSize(width, listHeight)
	a.sortList.SetSize(width, height-3)

	a.viewport.Width = width
	a.viewport.Height = height - 3

	inputWidth := width - 8
	if inputWidth < 10 {
		inputWidth = width - 4
	}
	a.queryInput.Width = inputWidth
	a.historyInput.Width = inputWidth
}

func (a *App) handleFetchDone(msg fetchDoneMsg) tea.Cmd {
	if !a.ctrl.Latest(msg.seq) {
		debuglog.Debugf("dropping stale response #%d", msg.seq)
		return nil
	}
	next, more := a.ctrl.Complete(msg.seq, msg.page, msg.err)
	a.syncFeedList()
	if more {
		return a.fetch(next)
	}
	if a.cancelFetch != nil {
		a.cancelFetch()
		a.cancelFetch = nil
	}
	return nil
}

func (a *App) handleDebounce(msg debounceFireMsg) tea.Cmd {
	switch msg.kind {
	case debounceQuery:
		if msg.seq != a.querySeq {
			return nil
		}
		return a.applyQuery(a.pendingQuery)
	case debounceHistory:
		if msg.seq != a.historySeq {
			return nil
		}
		a.historyQuery = a.pendingHistory
		return a.searchHistory(a.historyQuery)
	}
	return nil
}

// applyQuery hands a settled query to the controller.
func (a *App) applyQuery(q string) tea.Cmd {
	req, ok := a.ctrl.SetQuery(q)
	if !ok {
		return nil
	}
	return tea.Batch(a.start(req), a.saveSession())
}

func (a *App) applyMode(m timeline.Mode) tea.Cmd {
	req, ok := a.ctrl.SetMode(m)
	a.sortList.SetItems(sortItems(a.ctrl.Mode()))
	if !ok {
		return nil
	}
	return tea.Batch(a.start(req), a.saveSession())
}

func (a *App) nextPage() tea.Cmd {
	before := a.ctrl.Page()
	req, fetch := a.ctrl.NextPage()
	if a.ctrl.Page() == before {
		if a.ctrl.Loading() {
			return nil
		}
		return a.flashStatus(MsgLastPage, StatusWarn)
	}
	a.err = nil
	a.resetSelection = true
	a.syncFeedList()
	if !fetch {
		return nil
	}
	return tea.Batch(a.fetch(req), a.startSpinner())
}

func (a *App) prevPage() tea.Cmd {
	if a.ctrl.Loading() {
		return nil
	}
	if !a.ctrl.PrevPage() {
		return a.flashStatus(MsgFirstPage, StatusWarn)
	}
	a.err = nil
	a.resetSelection = true
	a.syncFeedList()
	return nil
}

// syncFeedList rebuilds the feed list from the controller's current window,
// inserting a header row before each bucket in grouped modes.
func (a *App) syncFeedList() {
	v := a.ctrl.View()

	var items []list.Item
	if v.Mode.Bucketed() {
		for _, b := range v.Buckets {
			items = append(items, headerItem{label: b.Label, count: len(b.Articles)})
			for _, art := range b.Articles {
				items = append(items, a.newArticleItem(art))
			}
		}
	} else {
		for _, art := range v.Articles {
			items = append(items, a.newArticleItem(art))
		}
	}

	index := a.feedList.Index()
	a.feedList.SetItems(items)

	switch {
	case a.resetSelection && v.Status != controller.StatusLoading:
		a.resetSelection = false
		a.feedList.Select(firstArticle(items))
	case index < len(items):
		a.feedList.Select(index)
	}
}

func (a *App) newArticleItem(article *storage.Article) articleItem {
	return articleItem{article: article, read: a.read[article.URL], loc: a.loc}
}

func firstArticle(items []list.Item) int {
	for i, item := range items {
		if _, ok := item.(articleItem); ok {
			return i
		}
	}
	return 0
}

func (a *App) selectedArticle() *storage.Article {
	if i, ok := a.feedList.SelectedItem().(articleItem); ok {
		return i.article
	}
	return nil
}

func (a *App) selectedHistory() *storage.Article {
	if i, ok := a.historyList.SelectedItem().(historyItem); ok {
		return i.result.Article
	}
	return nil
}

// openDetail shows article in the detail view and records it as read.
func (a *App) openDetail(article *storage.Article, fromHistory bool) tea.Cmd {
	a.currentArticle = article
	a.cameFromHistory = fromHistory
	a.expanded = false
	a.loadingArticle = true
	a.previousView = a.view
	a.view = ViewDetail
	a.viewport.SetContent("")
	return tea.Batch(a.startSpinner(), a.renderArticle(article, false), a.saveHistory(article))
}

func (a *App) toggleExpanded() tea.Cmd {
	if a.currentArticle == nil || !canExpand(a.currentArticle, a.config.UI.Article.MaxDescriptionLength) {
		return nil
	}
	a.expanded = !a.expanded
	return a.renderArticle(a.currentArticle, a.expanded)
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.statusSeq++
	a.status = text
	a.statusKind = kind
}

// flashStatus shows text for statusTTL.
func (a *App) flashStatus(text string, kind StatusKind) tea.Cmd {
	a.setStatus(text, kind)
	seq := a.statusSeq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	maxWidth := a.config.UI.Article.WordWrapMaxWidth
	minWidth := a.config.UI.Article.WordWrapMinWidth
	if maxWidth <= 0 {
		maxWidth = 120
	}
	if minWidth <= 0 {
		minWidth = 40
	}

	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > maxWidth {
		wordWrapWidth = maxWidth
	}
	if wordWrapWidth < minWidth {
		wordWrapWidth = minWidth
	}
	if a.width < minWidth+10 {
		wordWrapWidth = a.width - 4
		if wordWrapWidth < 20 {
			wordWrapWidth = 20
		}
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) View() string {
	var content string
	bodyHeight := a.height - 3

	switch a.view {
	case ViewFeed:
		content = a.feedView()
	case ViewSort:
		content = a.sortList.View()
	case ViewDetail:
		if a.loadingArticle {
			content = renderCentered(a.width, bodyHeight, a.spinner.View()+" "+renderMuted(MsgLoadingArticle))
		} else {
			content = a.viewport.View()
		}
	case ViewHistory:
		content = a.historyView()
	}

	status := a.getCustomStatusBar()
	if status == "" {
		return content
	}

	separatorWidth := a.width - 2
	if separatorWidth < 0 {
		separatorWidth = 0
	}
	separator := SeparatorStyle.Render("─" + strings.Repeat("─", separatorWidth))
	return lipgloss.JoinVertical(lipgloss.Top, content, separator, status)
}

func (a *App) feedView() string {
	v := a.ctrl.View()

	subtitle := v.Mode.Title()
	if v.Status == controller.StatusReady {
		subtitle += " • " + MsgPageSummary(v.Page, v.Loaded, v.Total)
	}
	header := renderHeader(CompactLogo, subtitle, a.width)
	input := renderInputFrame(a.queryInput.View(), a.queryInput.Focused(), a.queryInput.Width)

	listHeight := a.height - 8
	if listHeight < 3 {
		listHeight = 3
	}

	var body string
	switch v.Status {
	case controller.StatusLoading:
		if len(a.feedList.Items()) > 0 {
			body = a.feedList.View()
		} else {
			body = renderCentered(a.width, listHeight, a.spinner.View()+" "+renderMuted(MsgLoading))
		}
	case controller.StatusError:
		body = renderCentered(a.width, listHeight, ErrorMessageStyle.Render(v.Message))
		if len(a.feedList.Items()) > 0 {
			body = a.feedList.View()
		}
	case controller.StatusEmpty:
		body = renderCentered(a.width, listHeight, renderMuted(MsgNoArticles))
	case controller.StatusIdle:
		body = renderCentered(a.width, listHeight, GetWelcomeMessage())
	default:
		body = a.feedList.View()
	}

	return ContentWrapper(a.width, a.height-3).Render(
		lipgloss.JoinVertical(lipgloss.Top, header, input, body),
	)
}

func (a *App) historyView() string {
	subtitle := "Articles you have opened"
	if ds, ok := a.searcher.(search.DebugStatser); ok {
		if n, err := ds.DocCount(); err == nil {
			subtitle = fmt.Sprintf("%s • idx: %d docs", subtitle, n)
		}
	}
	header := renderHeader("› history", subtitle, a.width)
	input := renderInputFrame(a.historyInput.View(), a.historyInput.Focused(), a.historyInput.Width)

	var helpText string
	switch {
	case a.historyInput.Focused():
		helpText = "Type to search • Tab/↓: results • Esc: back"
	case len(a.historyList.Items()) > 0:
		helpText = "↑↓: navigate • Enter: read • Tab/↑: search box • Esc: back"
	default:
		helpText = "No results found • Tab/↑: search box • Esc: back"
	}

	return ContentWrapper(a.width, a.height-3).Render(
		lipgloss.JoinVertical(lipgloss.Top, header, input, renderHelp(helpText), a.historyList.View()),
	)
}

func (a *App) getCustomStatusBar() string {
	commands := a.keyHandler.GetHelpForCurrentView()
	bar := lipgloss.NewStyle().Width(a.width).Padding(0, 1).Foreground(MutedColor)

	if a.err != nil {
		return bar.Render(ErrorMessageStyle.Render(fmt.Sprintf("✗ %v", a.err)))
	}

	if a.view == ViewFeed {
		v := a.ctrl.View()
		if v.Status == controller.StatusError {
			return bar.Render(ErrorMessageStyle.Render("✗ " + v.Message))
		}
		if v.Status == controller.StatusLoading {
			commands = append([]string{a.spinner.View() + " " + MsgLoading}, commands...)
		}
	}

	if a.status != "" {
		return bar.Render(a.statusKind.Style().Render(a.status) + renderMuted(" • ") + strings.Join(commands, " • "))
	}

	if len(commands) == 0 {
		return ""
	}
	return bar.Render(strings.Join(commands, " • "))
}
