package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"linkpurge/internal/config"
	"linkpurge/internal/services"
	"linkpurge/internal/state"
)

type Model struct {
	state    *state.State
	scanner  services.Scanner
	purger   services.Purger
	deleter  services.Deleter
	progress services.ProgressProvider
	keys     KeyMap

	scanBase ScanOptions

	showHelp      bool
	scanning      bool
	searching     bool
	cancel        context.CancelFunc
	width         int
	height        int
	viewTop       int
	progressCount int64
	exitCode      int
}

// ScanOptions carries the scan settings rescans must reuse.
type ScanOptions struct {
	Xdev     bool
	Apparent bool
}

func NewModel(appState *state.State, scanner services.Scanner, purger services.Purger, deleter services.Deleter, options ScanOptions) Model {
	return Model{
		state:    appState,
		scanner:  scanner,
		purger:   purger,
		deleter:  deleter,
		progress: progressProvider(scanner),
		keys:     DefaultKeyMap(),
		scanBase: options,
		width:    100,
		height:   30,
	}
}

// ExitCode is read by the caller after the program finishes; partial
// delete failures surface as a nonzero process exit.
func (model Model) ExitCode() int {
	return model.exitCode
}

// ConfigSnapshot applies the session's preferences onto the loaded config,
// so persisting the snapshot keeps settings the session never touched.
func (model Model) ConfigSnapshot(base config.Config) config.Config {
	base.Path = model.state.RootPath
	base.Xdev = model.scanBase.Xdev
	base.Apparent = model.scanBase.Apparent
	base.SafeMode = model.state.Prefs.SafeMode
	base.SortMode = model.state.Prefs.SortMode
	return base
}

func (model Model) Init() tea.Cmd {
	return nil
}

func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return model.handleKey(typed)
	case tea.WindowSizeMsg:
		model.width = typed.Width
		model.height = typed.Height
		model.ensureCursorVisible()
		return model, nil
	case scanResultMsg:
		model.scanning = false
		model.cancel = nil
		if typed.err != nil {
			if errors.Is(typed.err, context.Canceled) {
				model.state.Status = "Scan cancelled"
				model.state.Mode = state.ModeBrowsing
				return model, nil
			}
			model.state.Status = fmt.Sprintf("Scan error: %v", typed.err)
			model.state.Mode = state.ModeBrowsing
			return model, nil
		}
		model.state.SetScan(typed.result)
		model.state.Status = fmt.Sprintf("Scan complete: %d entries (%s)",
			len(typed.result.Tree.Nodes), typed.result.Duration.Round(time.Millisecond))
		if typed.result.EntryErrors > 0 {
			model.state.Status += fmt.Sprintf(", %d entries skipped", typed.result.EntryErrors)
		}
		model.ensureCursorVisible()
		return model, nil
	case scanProgressMsg:
		if typed.progress.Completed {
			if model.scanning {
				return model, model.progressCmd()
			}
			return model, nil
		}
		model.progressCount = typed.progress.Scanned
		if typed.progress.Current != "" {
			model.state.Status = fmt.Sprintf("Scanning... %d entries (%s)", typed.progress.Scanned, typed.progress.Current)
		} else {
			model.state.Status = fmt.Sprintf("Scanning... %d entries", typed.progress.Scanned)
		}
		return model, model.progressCmd()
	case purgePreviewMsg:
		model.searching = false
		if typed.err != nil {
			model.state.Status = fmt.Sprintf("Hardlink search error: %v", typed.err)
			model.state.Mode = state.ModeBrowsing
			return model, nil
		}
		result := typed.result
		model.state.Preview = &result
		model.state.Mode = state.ModeConfirmingDelete
		model.state.Status = confirmPrompt(result, model.state.Prefs.DryRun)
		return model, nil
	case deleteResultMsg:
		result := typed.result
		model.state.Result = &result
		model.state.Mode = state.ModeShowingResult
		if typed.err != nil {
			model.state.Status = fmt.Sprintf("Delete error: %v", typed.err)
			model.exitCode = 2
			return model, nil
		}
		if result.FailedPaths > 0 {
			model.exitCode = 1
		}
		model.state.Status = resultSummary(result)
		return model, nil
	default:
		return model, nil
	}
}

func (model Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, model.keys.Quit):
		model = model.cancelScan("")
		model.state.Mode = state.ModeQuitting
		return model, tea.Quit
	case key.Matches(msg, model.keys.Help):
		model.showHelp = !model.showHelp
		return model, nil
	}

	switch model.state.Mode {
	case state.ModeConfirmingDelete:
		return model.handleConfirmKey(msg)
	case state.ModeShowingResult:
		return model.handleResultKey(msg)
	case state.ModeBrowsing:
		return model.handleBrowseKey(msg)
	default:
		return model, nil
	}
}

func (model Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, model.keys.Up):
		model.state.MoveCursor(-1)
		model.ensureCursorVisible()
		return model, nil
	case key.Matches(msg, model.keys.Down):
		model.state.MoveCursor(1)
		model.ensureCursorVisible()
		return model, nil
	case key.Matches(msg, model.keys.Enter), key.Matches(msg, model.keys.Right):
		if model.state.EnterDir() {
			model.viewTop = 0
		}
		return model, nil
	case key.Matches(msg, model.keys.Left), key.Matches(msg, model.keys.Back):
		if model.state.LeaveDir() {
			model.ensureCursorVisible()
		}
		return model, nil
	case key.Matches(msg, model.keys.Mark):
		if model.state.ToggleMark() {
			model.state.MoveCursor(1)
			model.ensureCursorVisible()
		}
		return model, nil
	case key.Matches(msg, model.keys.Clear):
		model.state.Selection.Clear()
		model.state.Status = "Marks cleared"
		return model, nil
	case key.Matches(msg, model.keys.Sort):
		model.state.ToggleSort()
		model.ensureCursorVisible()
		return model, nil
	case key.Matches(msg, model.keys.DryRun):
		model.state.Prefs.DryRun = !model.state.Prefs.DryRun
		if model.state.Prefs.DryRun {
			model.state.Status = "Dry-run on: nothing will be deleted"
		} else {
			model.state.Status = "Dry-run off"
		}
		return model, nil
	case key.Matches(msg, model.keys.Rescan):
		return model.beginScan(model.state.RootPath)
	case key.Matches(msg, model.keys.Purge):
		return model.beginPurge()
	default:
		return model, nil
	}
}

func (model Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, model.keys.Confirm):
		return model.confirmDelete()
	case key.Matches(msg, model.keys.Cancel):
		model.state.Preview = nil
		model.state.Mode = state.ModeBrowsing
		model.state.Status = "Purge cancelled"
		return model, nil
	default:
		return model, nil
	}
}

func (model Model) handleResultKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, model.keys.Confirm), key.Matches(msg, model.keys.Cancel), msg.Type == tea.KeyEnter:
		result := model.state.Result
		model.state.Preview = nil
		model.state.Result = nil
		if result != nil && !result.DryRun && result.DeletedPaths > 0 {
			model.state.Selection.Clear()
			return model.beginScan(model.state.RootPath)
		}
		model.state.Mode = state.ModeBrowsing
		return model, nil
	default:
		return model, nil
	}
}

// beginPurge resolves the marked selection to inode identities and kicks
// off the filesystem-wide hardlink search.
func (model Model) beginPurge() (tea.Model, tea.Cmd) {
	if model.state.Registry == nil {
		return model, nil
	}
	if model.searching {
		model.state.Status = "Hardlink search already running"
		return model, nil
	}
	targets := model.state.Selection.Identities(model.state.Tree)
	if len(targets) == 0 {
		model.state.Status = "Nothing marked - space marks the cursor entry"
		return model, nil
	}
	model.searching = true
	model.state.Status = fmt.Sprintf("Searching hardlinks for %d inodes...", len(targets))
	request := services.PurgeRequest{
		Targets:  targets,
		Registry: model.state.Registry,
		ScanRoot: model.state.RootPath,
	}
	return model, func() tea.Msg {
		result, err := model.purger.FindPaths(context.Background(), request)
		return purgePreviewMsg{result: result, err: err}
	}
}

func (model Model) confirmDelete() (tea.Model, tea.Cmd) {
	preview := model.state.Preview
	if preview == nil {
		model.state.Mode = state.ModeBrowsing
		return model, nil
	}
	model.state.Mode = state.ModeDeleting
	model.state.Status = "Deleting..."
	request := services.DeleteRequest{
		Inodes:    preview.Inodes,
		DryRun:    model.state.Prefs.DryRun,
		SafeMode:  model.state.Prefs.SafeMode,
		Confirmed: true,
	}
	return model, func() tea.Msg {
		result, err := model.deleter.Execute(context.Background(), request)
		return deleteResultMsg{result: result, err: err}
	}
}

func (model Model) beginScan(path string) (Model, tea.Cmd) {
	model = model.cancelScan("")
	ctx, cancel := context.WithCancel(context.Background())
	model.cancel = cancel
	model.scanning = true
	model.progressCount = 0
	model.state.Mode = state.ModeScanning
	model.state.Status = fmt.Sprintf("Scanning... %s", path)
	request := services.ScanRequest{
		RootPath: path,
		Xdev:     model.scanBase.Xdev,
		Apparent: model.scanBase.Apparent,
	}
	scan := func() tea.Msg {
		result, err := model.scanner.Scan(ctx, request)
		return scanResultMsg{result: result, err: err}
	}
	return model, tea.Batch(scan, model.progressCmd())
}

func (model Model) progressCmd() tea.Cmd {
	if model.progress == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			channel := model.progress.Progress()
			if channel == nil {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			progress, ok := <-channel
			if !ok {
				return scanProgressMsg{progress: services.ScanProgress{Completed: true}}
			}
			return scanProgressMsg{progress: progress}
		}
	}
}

func (model Model) cancelScan(message string) Model {
	if model.cancel != nil {
		model.cancel()
		model.cancel = nil
	}
	if message != "" {
		model.state.Status = message
	}
	model.scanning = false
	model.progressCount = 0
	return model
}

func progressProvider(scanner services.Scanner) services.ProgressProvider {
	provider, _ := scanner.(services.ProgressProvider)
	return provider
}

func (model *Model) ensureCursorVisible() {
	visible := model.state.VisibleNodes()
	if len(visible) == 0 {
		model.state.Cursor = 0
		model.viewTop = 0
		return
	}
	if model.state.Cursor >= len(visible) {
		model.state.Cursor = len(visible) - 1
	}
	if model.state.Cursor < 0 {
		model.state.Cursor = 0
	}
	listHeight := model.listHeight()
	if listHeight <= 0 {
		return
	}
	if model.state.Cursor < model.viewTop {
		model.viewTop = model.state.Cursor
	}
	if model.state.Cursor >= model.viewTop+listHeight {
		model.viewTop = model.state.Cursor - listHeight + 1
	}
	maxTop := len(visible) - listHeight
	if maxTop < 0 {
		maxTop = 0
	}
	if model.viewTop > maxTop {
		model.viewTop = maxTop
	}
}

func (model *Model) listHeight() int {
	return model.height - 6
}
