package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"linkpurge/internal/domain"
	"linkpurge/internal/services"
	"linkpurge/internal/state"
)

type uiStyles struct {
	headerStyle lipgloss.Style
	mutedStyle  lipgloss.Style
	statusStyle lipgloss.Style
	warnStyle   lipgloss.Style
	cursorStyle lipgloss.Style
	markedStyle lipgloss.Style
	linkStyle   lipgloss.Style
	panelBorder lipgloss.Style
}

func defaultStyles() uiStyles {
	return uiStyles{
		headerStyle: lipgloss.NewStyle().Bold(true),
		mutedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		statusStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true),
		warnStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true),
		cursorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		markedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		linkStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		panelBorder: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

func (model Model) View() string {
	styles := defaultStyles()
	if model.showHelp {
		return renderHelpView(model, styles)
	}
	body := renderBody(model, styles)
	footer := renderFooter(model, styles)
	return strings.Join([]string{body, footer}, "\n")
}

func renderBody(model Model, styles uiStyles) string {
	visible := model.state.VisibleNodes()
	bodyHeight := model.listHeight()
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	leftWidth, rightWidth, showRight := splitPanels(model.width)
	left := renderTreePanel(model, styles, visible, bodyHeight, leftWidth)
	if !showRight {
		return left
	}
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render("│")
	right := renderDetailPanel(model, styles, rightWidth, bodyHeight)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, sep, right)
}

func renderFooter(model Model, styles uiStyles) string {
	statusLine := trimStatus(model.state.Status, model.width)
	if model.scanning {
		statusLine = fmt.Sprintf("%s  %s", statusLine, progressBar(model.progressCount, 18))
	}
	statusStyle := styles.mutedStyle
	if strings.Contains(strings.ToLower(model.state.Status), "error") {
		statusStyle = styles.warnStyle
	}
	statusLine = statusStyle.Render(statusLine)

	markedCount, markedBytes := model.state.SelectionSummary()
	markedInfo := fmt.Sprintf("Marked: %d (%s)", markedCount, formatSize(markedBytes))
	sortInfo := fmt.Sprintf("Sort: %s", strings.ToUpper(string(model.state.Prefs.SortMode)))
	mode := "LIVE"
	if model.state.Prefs.DryRun {
		mode = "DRY-RUN"
	}
	left := fmt.Sprintf("%s  %s  %s", markedInfo, sortInfo, mode)
	keys := "↑/↓ move  →/enter open  ← parent  space mark  d purge  o sort  t dry-run  r rescan  ? help  q quit"
	switch model.state.Mode {
	case state.ModeConfirmingDelete:
		keys = "y confirm  n/esc cancel"
	case state.ModeShowingResult:
		keys = "enter continue"
	}
	footerLine := padLine(left, keys, model.width)
	return strings.Join([]string{statusLine, styles.mutedStyle.Render(footerLine)}, "\n")
}

func renderTreePanel(model Model, styles uiStyles, visible []*domain.Node, height, width int) string {
	if width < 20 {
		width = 20
	}
	contentWidth := maxInt(width-2, 10)
	crumbs := breadcrumbs(currentPath(model))
	status := "IDLE"
	if model.scanning {
		status = "SCANNING"
	}
	headerLine := padLine(styles.headerStyle.Render("linkpurge")+"  "+crumbs, styles.statusStyle.Render(status), contentWidth)
	listHeight := height - 1
	if listHeight < 1 {
		listHeight = 1
	}
	if len(visible) == 0 {
		message := "Empty directory"
		if model.scanning {
			message = "Scanning..."
		}
		lines := []string{headerLine, message}
		for i := 0; i < maxInt(listHeight-1, 0); i++ {
			lines = append(lines, "")
		}
		return styles.panelBorder.Width(contentWidth).Render(strings.Join(lines, "\n"))
	}
	start := clamp(model.viewTop, 0, maxInt(len(visible)-1, 0))
	end := start + listHeight
	if end > len(visible) {
		end = len(visible)
	}

	lines := make([]string, 0, height)
	lines = append(lines, headerLine)
	sizeWidth := 10
	for index := start; index < end; index++ {
		node := visible[index]
		marker := "[ ]"
		if model.state.Selection.IsMarked(node.ID) {
			marker = styles.markedStyle.Render("[x]")
		}
		name := node.Name
		if node.Kind == domain.KindDir {
			name += "/"
		}
		suffix := ""
		switch {
		case node.Kind == domain.KindDir && node.NotScanned:
			suffix = styles.mutedStyle.Render(" (other fs)")
		case node.Kind == domain.KindSymlink:
			suffix = styles.mutedStyle.Render(" ->")
		case node.Nlink > 1:
			label := fmt.Sprintf(" ⛓%d", node.Nlink)
			if !node.Owner {
				label += " dup"
			}
			suffix = styles.linkStyle.Render(label)
		}
		lineSize := fmt.Sprintf("%*s", sizeWidth, sizeLabel(node))
		line := fmt.Sprintf("%s %s %s%s", lineSize, marker, name, suffix)
		if index == model.state.Cursor {
			line = styles.cursorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return styles.panelBorder.Width(contentWidth).Render(strings.Join(lines, "\n"))
}

func renderDetailPanel(model Model, styles uiStyles, width, height int) string {
	switch model.state.Mode {
	case state.ModeConfirmingDelete, state.ModeDeleting:
		return renderPreviewPanel(model, styles, width, height)
	case state.ModeShowingResult:
		return renderResultPanel(model, styles, width, height)
	}
	node := model.state.CursorNode()
	contentWidth := maxInt(width-2, 10)
	if node == nil {
		return styles.panelBorder.Width(contentWidth).Render("No selection")
	}
	lines := []string{
		styles.headerStyle.Render("Path"),
		node.Path,
		"",
		styles.headerStyle.Render("Size"),
		fmt.Sprintf("Apparent: %s", formatSize(node.SizeBytes)),
		fmt.Sprintf("On disk : %s", formatSize(node.DiskUsage)),
		fmt.Sprintf("Subtree : %s", formatSize(node.AccumBytes)),
	}
	if node.Kind == domain.KindDir {
		lines = append(lines,
			fmt.Sprintf("Dirs  : %d", node.ChildCount),
			fmt.Sprintf("Files : %d", node.FileCount))
	}
	if node.Nlink > 1 {
		lines = append(lines, "", styles.headerStyle.Render("Hardlinks"),
			fmt.Sprintf("Inode: %s", node.Identity.String()),
			fmt.Sprintf("Links: %d", node.Nlink))
		if model.state.Registry != nil {
			if record, ok := model.state.Registry.Record(node.Identity); ok {
				shown := record.Paths
				if len(shown) > 6 {
					shown = shown[:6]
				}
				lines = append(lines, "Known paths:")
				for _, path := range shown {
					prefix := "  "
					if path == record.OwnerPath {
						prefix = "* "
					}
					lines = append(lines, prefix+path)
				}
				if len(record.Paths) > 6 {
					lines = append(lines, fmt.Sprintf("  ... %d more", len(record.Paths)-6))
				}
			}
		}
	}
	content := lipgloss.NewStyle().Width(contentWidth).Height(height).Render(strings.Join(lines, "\n"))
	return styles.panelBorder.Width(contentWidth).Render(content)
}

func renderPreviewPanel(model Model, styles uiStyles, width, height int) string {
	preview := model.state.Preview
	contentWidth := maxInt(width-2, 10)
	if preview == nil {
		return styles.panelBorder.Width(contentWidth).Render("Searching hardlinks...")
	}
	lines := []string{
		styles.headerStyle.Render("Purge Preview"),
		fmt.Sprintf("Search root: %s", preview.SearchRoot),
		fmt.Sprintf("Inodes : %d", len(preview.Inodes)),
		fmt.Sprintf("Paths  : %d", preview.PathCount),
		fmt.Sprintf("Frees  : %s", formatSize(preview.EstimatedBytes)),
	}
	if model.state.Prefs.DryRun {
		lines = append(lines, styles.statusStyle.Render("DRY-RUN: nothing will be deleted"))
	}
	if len(preview.Missing) > 0 {
		lines = append(lines, styles.warnStyle.Render(fmt.Sprintf("%d inodes no longer found", len(preview.Missing))))
	}
	paths := preview.SortedPaths()
	shown := paths
	limit := maxInt(height-len(lines)-3, 3)
	if len(shown) > limit {
		shown = shown[:limit]
	}
	lines = append(lines, "", styles.headerStyle.Render("Paths"))
	lines = append(lines, shown...)
	if len(paths) > len(shown) {
		lines = append(lines, fmt.Sprintf("... %d more", len(paths)-len(shown)))
	}
	content := lipgloss.NewStyle().Width(contentWidth).Height(height).Render(strings.Join(lines, "\n"))
	return styles.panelBorder.Width(contentWidth).Render(content)
}

func renderResultPanel(model Model, styles uiStyles, width, height int) string {
	result := model.state.Result
	contentWidth := maxInt(width-2, 10)
	if result == nil {
		return styles.panelBorder.Width(contentWidth).Render("Deleting...")
	}
	title := "Delete Result"
	if result.DryRun {
		title = "Dry-Run Result"
	}
	lines := []string{
		styles.headerStyle.Render(title),
		fmt.Sprintf("Deleted: %d", result.DeletedPaths),
		fmt.Sprintf("Failed : %d", result.FailedPaths),
		fmt.Sprintf("Freed  : %s (estimated)", formatSize(result.EstimatedFreedBytes)),
	}
	if result.MeasuredFreedBytes > 0 {
		lines = append(lines, fmt.Sprintf("Freed  : %s (measured)", formatSize(result.MeasuredFreedBytes)))
	}
	if result.Cancelled {
		lines = append(lines, styles.warnStyle.Render("Interrupted before completion"))
	}
	if len(result.Errors) > 0 {
		lines = append(lines, "", styles.warnStyle.Render("Errors"))
		shown := result.Errors
		if len(shown) > 8 {
			shown = shown[:8]
		}
		lines = append(lines, shown...)
	}
	content := lipgloss.NewStyle().Width(contentWidth).Height(height).Render(strings.Join(lines, "\n"))
	return styles.panelBorder.Width(contentWidth).Render(content)
}

func renderHelpView(model Model, styles uiStyles) string {
	bindings := []key.Binding{
		model.keys.Up,
		model.keys.Down,
		model.keys.Enter,
		model.keys.Left,
		model.keys.Mark,
		model.keys.Clear,
		model.keys.Purge,
		model.keys.Rescan,
		model.keys.Sort,
		model.keys.DryRun,
		model.keys.Confirm,
		model.keys.Cancel,
		model.keys.Help,
		model.keys.Quit,
	}
	lines := []string{styles.headerStyle.Render("linkpurge Help"), ""}
	lines = append(lines, styles.headerStyle.Render("How purge works"))
	lines = append(lines,
		"Marked entries resolve to inodes. The purge searches the whole",
		"filesystem for every hardlink to those inodes and deletes all of",
		"them together, so the space actually comes back.")
	lines = append(lines, "", styles.headerStyle.Render("Keys"))
	for _, binding := range bindings {
		keysLabel := strings.Join(binding.Keys(), ", ")
		lines = append(lines, fmt.Sprintf("%-14s %s", keysLabel, binding.Help().Desc))
	}
	lines = append(lines, "", "Press ? to close help")
	width := model.width
	if width <= 0 {
		width = 80
	}
	return styles.panelBorder.Width(maxInt(width-2, 10)).Render(strings.Join(lines, "\n"))
}

func confirmPrompt(result services.PurgeResult, dryRun bool) string {
	action := "delete"
	if dryRun {
		action = "dry-run"
	}
	return fmt.Sprintf("Purge %d inodes, %d paths, frees %s - confirm %s (y/n)",
		len(result.Inodes), result.PathCount, formatSize(result.EstimatedBytes), action)
}

func resultSummary(result services.DeleteResult) string {
	if result.DryRun {
		return fmt.Sprintf("Dry-run: would delete %d paths, freeing %s", result.DeletedPaths, formatSize(result.EstimatedFreedBytes))
	}
	summary := fmt.Sprintf("Deleted %d paths, freed %s", result.DeletedPaths, formatSize(result.EstimatedFreedBytes))
	if result.FailedPaths > 0 {
		summary += fmt.Sprintf(" (%d failed)", result.FailedPaths)
	}
	return summary
}

func currentPath(model Model) string {
	if node := model.state.Current(); node != nil {
		return node.Path
	}
	return model.state.RootPath
}

func breadcrumbs(path string) string {
	path = filepath.Clean(path)
	if path == "." {
		return "."
	}
	parts := strings.Split(path, string(filepath.Separator))
	if len(parts) == 0 {
		return path
	}
	if parts[0] == "" {
		parts[0] = string(filepath.Separator)
	}
	return strings.Join(parts, " › ")
}

func padLine(left, right string, width int) string {
	if width <= 0 {
		return left
	}
	space := width - lipgloss.Width(left) - lipgloss.Width(right)
	if space < 1 {
		return left + " " + right
	}
	return left + strings.Repeat(" ", space) + right
}

func splitPanels(width int) (int, int, bool) {
	if width < 80 {
		return width, 0, false
	}
	left := int(float64(width) * 0.55)
	if left < 40 {
		left = 40
	}
	right := width - left - 1
	if right < 30 {
		return width, 0, false
	}
	return left, right, true
}

func formatSize(size int64) string {
	if size < 0 {
		size = 0
	}
	return humanize.IBytes(uint64(size))
}

func sizeLabel(node *domain.Node) string {
	if node.Kind == domain.KindDir && node.NotScanned {
		return "--"
	}
	return formatSize(node.AccumBytes)
}

func progressBar(count int64, width int) string {
	if width <= 0 {
		return ""
	}
	pos := int(count % int64(width))
	filled := strings.Repeat("█", pos)
	gap := strings.Repeat("░", width-pos)
	return fmt.Sprintf("[%s%s]", filled, gap)
}

func trimStatus(message string, width int) string {
	if width <= 0 {
		return message
	}
	max := width - 4
	if max <= 0 || len(message) <= max {
		return message
	}
	return message[:max] + "..."
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
