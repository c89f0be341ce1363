package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/headlines/internal/browser"
	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/search"
)

const maxQueryLength = 256

type KeyHandler struct {
	app         *App
	config      *config.Config
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	modifierKey := cfg.Keys.Modifier + "+"
	return &KeyHandler{app: app, config: cfg, modifierKey: modifierKey}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewFeed:
		return kh.app.queryInput.Focused()
	case ViewHistory:
		return kh.app.historyInput.Focused()
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return kh.app, tea.Quit
	case "esc":
		if kh.app.view == ViewFeed {
			kh.app.queryInput.Blur()
			return kh.app, nil
		}
		return kh.navigateBack()
	case "enter":
		return kh.handleTextInputEnter()
	case "tab", "down":
		switch kh.app.view {
		case ViewFeed:
			kh.app.queryInput.Blur()
		case ViewHistory:
			if len(kh.app.historyList.Items()) > 0 {
				kh.app.historyInput.Blur()
				kh.app.historyList.Select(0)
			}
		}
		return kh.app, nil
	default:
		return kh.delegateToTextInput(msg)
	}
}

func (kh *KeyHandler) handleTextInputEnter() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewFeed:
		// skip the debounce and search right away
		kh.app.querySeq++
		kh.app.queryInput.Blur()
		query := kh.sanitizeSearchInput(kh.app.queryInput.Value())
		kh.app.pendingQuery = query
		return kh.app, kh.app.applyQuery(query)

	case ViewHistory:
		if items := kh.app.historyList.Items(); len(items) > 0 {
			if i, ok := items[0].(historyItem); ok {
				return kh.app, kh.app.openDetail(i.result.Article, true)
			}
		}
		return kh.app, nil

	default:
		return kh.app, nil
	}
}

// delegateToTextInput passes the key to the focused input and schedules a
// debounced search when the sanitized value changed.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch kh.app.view {
	case ViewFeed:
		prev := kh.sanitizeSearchInput(kh.app.queryInput.Value())
		kh.app.queryInput, cmd = kh.app.queryInput.Update(msg)

		newVal := kh.sanitizeSearchInput(kh.app.queryInput.Value())
		if newVal != prev {
			kh.app.pendingQuery = newVal
			kh.app.querySeq++
			return kh.app, tea.Batch(cmd, kh.app.debounce(debounceQuery, kh.app.querySeq))
		}
		return kh.app, cmd

	case ViewHistory:
		prev := kh.sanitizeSearchInput(kh.app.historyInput.Value())
		kh.app.historyInput, cmd = kh.app.historyInput.Update(msg)

		newVal := kh.sanitizeSearchInput(kh.app.historyInput.Value())
		if newVal != prev {
			kh.app.pendingHistory = newVal
			kh.app.historySeq++
			return kh.app, tea.Batch(cmd, kh.app.debounce(debounceHistory, kh.app.historySeq))
		}
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// handleCustomKeys handles only our custom action keys
func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "ctrl+c", "q":
		return kh.app, tea.Quit, true
	case "esc":
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case kh.modifierKey + "s":
		model, cmd := kh.enterHistoryMode()
		return model, cmd, true
	}

	switch kh.app.view {
	case ViewFeed:
		return kh.handleFeedCustomKeys(key)
	case ViewSort:
		return kh.handleSortCustomKeys(key)
	case ViewDetail:
		return kh.handleDetailCustomKeys(key)
	case ViewHistory:
		return kh.handleHistoryCustomKeys(key)
	default:
		return kh.app, nil, false
	}
}

func (kh *KeyHandler) handleFeedCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "/", kh.modifierKey + "f":
		return kh.app, kh.app.queryInput.Focus(), true
	case kh.modifierKey + "t":
		kh.app.sortList.SetItems(sortItems(kh.app.ctrl.Mode()))
		kh.app.sortList.Select(sortIndex(kh.app.sortList.Items(), kh.app.ctrl.Mode().String()))
		kh.app.view = ViewSort
		return kh.app, nil, true
	case kh.modifierKey + "r":
		return kh.app, kh.app.start(kh.app.ctrl.Refresh()), true
	case kh.modifierKey + "n", "]":
		return kh.app, kh.app.nextPage(), true
	case kh.modifierKey + "p", "[":
		return kh.app, kh.app.prevPage(), true
	case kh.modifierKey + "o":
		if article := kh.app.selectedArticle(); article != nil {
			return kh.app, kh.app.openURL(browser.Target{URL: article.URL, Title: article.Title}), true
		}
		return kh.app, nil, true
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) handleSortCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	if key == "enter" {
		if i, ok := kh.app.sortList.SelectedItem().(sortItem); ok {
			kh.app.view = ViewFeed
			return kh.app, kh.app.applyMode(i.mode), true
		}
		return kh.app, nil, true
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) handleDetailCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case kh.modifierKey + "o", "enter":
		if a := kh.app.currentArticle; a != nil {
			return kh.app, kh.app.openURL(browser.Target{URL: a.URL, Title: a.Title}), true
		}
		return kh.app, nil, true
	case kh.modifierKey + "e":
		return kh.app, kh.app.toggleExpanded(), true
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) handleHistoryCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case kh.modifierKey + "o":
		if a := kh.app.selectedHistory(); a != nil {
			return kh.app, kh.app.openURL(browser.Target{URL: a.URL, Title: a.Title}), true
		}
		return kh.app, nil, true
	case kh.modifierKey + "x":
		if a := kh.app.selectedHistory(); a != nil {
			return kh.app, kh.app.deleteHistory(a.URL), true
		}
		return kh.app, nil, true
	}
	return kh.app, nil, false
}

// delegateToCharm lets Charm handle all keys we don't intercept
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch kh.app.view {
	case ViewFeed:
		if msg.String() == "enter" {
			if article := kh.app.selectedArticle(); article != nil {
				return kh.app, kh.app.openDetail(article, false)
			}
			return kh.app, nil
		}
		if msg.String() == "up" && kh.app.feedList.Index() == 0 {
			return kh.app, kh.app.queryInput.Focus()
		}
		kh.app.feedList, cmd = kh.app.feedList.Update(msg)
		return kh.app, cmd

	case ViewSort:
		kh.app.sortList, cmd = kh.app.sortList.Update(msg)
		return kh.app, cmd

	case ViewHistory:
		switch msg.String() {
		case "tab", "shift+tab", "/", "i":
			return kh.app, kh.app.historyInput.Focus()
		case "up":
			if kh.app.historyList.Index() == 0 {
				return kh.app, kh.app.historyInput.Focus()
			}
		case "enter":
			if a := kh.app.selectedHistory(); a != nil {
				return kh.app, kh.app.openDetail(a, true)
			}
			return kh.app, nil
		}
		kh.app.historyList, cmd = kh.app.historyList.Update(msg)
		return kh.app, cmd

	case ViewDetail:
		kh.app.viewport, cmd = kh.app.viewport.Update(msg)
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// navigateBack implements smart back navigation
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	kh.app.err = nil
	kh.app.status = ""

	switch kh.app.view {
	case ViewSort:
		kh.app.view = ViewFeed
		return kh.app, nil

	case ViewHistory:
		kh.app.view = kh.app.previousView
		if kh.app.view == ViewHistory || kh.app.view == ViewDetail {
			kh.app.view = ViewFeed
		}
		kh.app.historyInput.Reset()
		kh.app.historyInput.Blur()
		kh.app.historyList.SetItems([]list.Item{})
		return kh.app, nil

	case ViewDetail:
		kh.app.currentArticle = nil
		kh.app.loadingArticle = false
		if kh.app.cameFromHistory {
			kh.app.view = ViewHistory
			kh.app.cameFromHistory = false
			kh.app.historyInput.Blur()
			return kh.app, nil
		}
		kh.app.view = ViewFeed
		return kh.app, nil

	default:
		return kh.app, tea.Quit
	}
}

// enterHistoryMode opens the history view listing recent reads.
func (kh *KeyHandler) enterHistoryMode() (tea.Model, tea.Cmd) {
	if kh.app.view != ViewHistory {
		kh.app.previousView = kh.app.view
	}
	kh.app.view = ViewHistory
	kh.app.historyInput.Reset()
	kh.app.historyList.SetItems([]list.Item{})
	kh.app.historySeq++
	kh.app.pendingHistory = ""
	kh.app.historyQuery = ""

	engineName := fmt.Sprintf("%T", kh.app.searcher)
	if ds, ok := kh.app.searcher.(search.DebugStatser); ok {
		if n, err := ds.DocCount(); err == nil {
			kh.app.setStatus(fmt.Sprintf("History: %s • idx: %d", engineName, n), StatusInfo)
		}
	}
	return kh.app, tea.Batch(kh.app.historyInput.Focus(), kh.app.searchHistory(""))
}

// sanitizeSearchInput sanitizes and limits search input length
func (kh *KeyHandler) sanitizeSearchInput(input string) string {
	input = strings.Join(strings.Fields(input), " ")
	if r := []rune(input); len(r) > maxQueryLength {
		input = strings.TrimSpace(string(r[:maxQueryLength]))
	}
	return input
}

func sortIndex(items []list.Item, mode string) int {
	for i, item := range items {
		if s, ok := item.(sortItem); ok && s.mode.String() == mode {
			return i
		}
	}
	return 0
}

// GetHelpForCurrentView returns only our custom help text (Charm handles the rest)
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	switch kh.app.view {
	case ViewFeed:
		if kh.app.queryInput.Focused() {
			return []string{"enter: search", "esc: done"}
		}
		help := []string{"/: search", kh.modifierKey + "t: sort", kh.modifierKey + "r: refresh"}
		v := kh.app.ctrl.View()
		if v.CanPrev {
			help = append(help, kh.modifierKey+"p: prev")
		}
		if v.CanNext {
			help = append(help, kh.modifierKey+"n: next")
		}
		if kh.app.selectedArticle() != nil {
			help = append(help, kh.modifierKey+"o: open")
		}
		return append(help, kh.modifierKey+"s: history")

	case ViewSort:
		return []string{"enter: select", "esc: cancel"}

	case ViewDetail:
		help := []string{kh.modifierKey + "o: open in browser"}
		if a := kh.app.currentArticle; a != nil && canExpand(a, kh.config.UI.Article.MaxDescriptionLength) {
			if kh.app.expanded {
				help = append(help, kh.modifierKey+"e: show less")
			} else {
				help = append(help, kh.modifierKey+"e: show more")
			}
		}
		return append(help, "esc: back")

	case ViewHistory:
		if kh.app.historyInput.Focused() {
			return []string{kh.modifierKey + "s: history"}
		}
		return []string{kh.modifierKey + "o: open", kh.modifierKey + "x: forget", kh.modifierKey + "s: history"}

	default:
		return []string{}
	}
}
