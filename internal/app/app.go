package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"linkpurge/internal/config"
	"linkpurge/internal/logging"
	"linkpurge/internal/services"
	"linkpurge/internal/state"
	"linkpurge/internal/ui"
)

// Exit codes: 0 success, 1 some deletions failed, 2 hard failure before
// any deletion, 3 operator abort or interrupt.
const (
	exitOK      = 0
	exitPartial = 1
	exitFailure = 2
	exitAborted = 3
)

func Run() int {
	base := config.DefaultConfig()
	loaded, loadErr := config.LoadConfig()
	if loadErr == nil {
		base = loaded
	}
	cfg := config.ParseFlags(base)

	log, err := logging.New(cfg.Verbose, cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "linkpurge: cannot open log file:", err)
		return exitFailure
	}
	if loadErr != nil {
		log.WithError(loadErr).Warn("config load failed, using defaults")
	}

	excludes, excludeErr := config.LoadExcludes()
	if excludeErr != nil {
		log.WithError(excludeErr).Warn("exclude list load failed, using defaults")
	}
	cfg.Excludes = excludes

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scanner := services.NewFSScanner(log, cfg.Excludes)
	purger := services.NewFSPurger(log)
	deleter := services.NewFSDeleter(log)

	scan, code := obtainScan(ctx, log, cfg, scanner)
	if code != exitOK {
		return code
	}

	if cfg.SaveScan != "" {
		if err := services.SaveScan(cfg.SaveScan, scan); err != nil {
			log.WithError(err).Error("scan save failed")
			return exitFailure
		}
		log.WithField("path", cfg.SaveScan).Info("scan saved")
	}

	if cfg.Interactive {
		return runInteractive(log, cfg, scan, scanner, purger, deleter)
	}
	return runPipeline(ctx, log, cfg, scan, purger, deleter)
}

func obtainScan(ctx context.Context, log *logrus.Logger, cfg config.Config, scanner services.Scanner) (services.ScanResult, int) {
	if cfg.LoadScan != "" {
		scan, err := services.LoadScan(cfg.LoadScan)
		if err != nil {
			log.WithError(err).Error("scan load failed")
			return services.ScanResult{}, exitFailure
		}
		log.WithFields(logrus.Fields{
			"path": cfg.LoadScan,
			"root": scan.RootPath,
		}).Info("scan loaded")
		return scan, exitOK
	}

	scan, err := scanner.Scan(ctx, services.ScanRequest{
		RootPath: cfg.Path,
		Xdev:     cfg.Xdev,
		Apparent: cfg.Apparent,
	})
	if err != nil {
		if ctx.Err() != nil {
			log.Warn("scan interrupted")
			return services.ScanResult{}, exitAborted
		}
		log.WithError(err).Error("scan failed")
		return services.ScanResult{}, exitFailure
	}
	return scan, exitOK
}

func runInteractive(log *logrus.Logger, cfg config.Config, scan services.ScanResult, scanner services.Scanner, purger services.Purger, deleter services.Deleter) int {
	appState := state.New(state.Prefs{
		SortMode: cfg.SortMode,
		DryRun:   cfg.DryRun,
		SafeMode: cfg.SafeMode,
	})
	appState.SetScan(scan)

	// The TUI owns the terminal from here; log lines would tear the screen.
	logging.Silence(log, cfg.LogFile)

	model := ui.NewModel(appState, scanner, purger, deleter, ui.ScanOptions{
		Xdev:     cfg.Xdev,
		Apparent: cfg.Apparent,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := program.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "linkpurge:", err)
		return exitFailure
	}
	final, ok := finalModel.(ui.Model)
	if !ok {
		return exitOK
	}
	if err := config.SaveConfig(final.ConfigSnapshot(cfg)); err != nil {
		fmt.Fprintln(os.Stderr, "linkpurge: config save:", err)
	}
	return final.ExitCode()
}

func runPipeline(ctx context.Context, log *logrus.Logger, cfg config.Config, scan services.ScanResult, purger services.Purger, deleter services.Deleter) int {
	request := services.DeleteRequest{
		DryRun:   cfg.DryRun,
		SafeMode: cfg.SafeMode,
	}
	var estimated int64

	switch {
	case cfg.Symlinks:
		links := services.CollectSymlinks(scan)
		if len(links) == 0 {
			log.Info("no symlinks recorded, nothing to do")
			return exitOK
		}
		request.Links = links
		for _, link := range links {
			estimated += link.SizeBytes
		}
		fmt.Printf("Found %d symlinks under %s\n", len(links), scan.RootPath)

	case cfg.Contained:
		inodes := services.FindContained(scan)
		if len(inodes) == 0 {
			log.Info("no fully-contained inodes, nothing to do")
			return exitOK
		}
		request.Inodes = inodes
		paths := 0
		for _, inode := range inodes {
			paths += len(inode.Paths)
			estimated += inode.DiskUsage
		}
		fmt.Printf("Found %d fully-contained inodes (%d paths), frees %s\n",
			len(inodes), paths, humanize.IBytes(uint64(estimated)))

	default:
		targets := scan.Registry.Identities()
		if len(targets) == 0 {
			log.Info("no files recorded, nothing to do")
			return exitOK
		}
		preview, err := purger.FindPaths(ctx, services.PurgeRequest{
			Targets:  targets,
			Registry: scan.Registry,
			ScanRoot: scan.RootPath,
		})
		if err != nil {
			if ctx.Err() != nil {
				log.Warn("hardlink search interrupted")
				return exitAborted
			}
			log.WithError(err).Error("hardlink search failed")
			return exitFailure
		}
		request.Inodes = preview.Inodes
		estimated = preview.EstimatedBytes
		fmt.Printf("Found %d inodes (%d paths) under %s, frees %s\n",
			len(preview.Inodes), preview.PathCount, preview.SearchRoot,
			humanize.IBytes(uint64(estimated)))
		if len(preview.Missing) > 0 {
			fmt.Printf("Warning: %d targeted inodes no longer found\n", len(preview.Missing))
		}
	}

	if !cfg.Yes && !cfg.DryRun {
		if !confirmOnStdin() {
			fmt.Println("Aborted.")
			return exitAborted
		}
	}
	request.Confirmed = true

	result, err := deleter.Execute(ctx, request)
	if err != nil {
		log.WithError(err).Error("delete failed")
		return exitFailure
	}
	printResult(result)
	switch {
	case result.Cancelled:
		return exitAborted
	case result.FailedPaths > 0:
		return exitPartial
	default:
		return exitOK
	}
}

func confirmOnStdin() bool {
	fmt.Print("Delete these paths? [y/N] ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func printResult(result services.DeleteResult) {
	if result.DryRun {
		fmt.Printf("Dry-run: would delete %d paths, freeing %s\n",
			result.DeletedPaths, humanize.IBytes(uint64(result.EstimatedFreedBytes)))
		return
	}
	fmt.Printf("Deleted %d paths, freed %s (estimated)\n",
		result.DeletedPaths, humanize.IBytes(uint64(result.EstimatedFreedBytes)))
	if result.MeasuredFreedBytes > 0 {
		fmt.Printf("Free space delta on mount: %s\n", humanize.IBytes(uint64(result.MeasuredFreedBytes)))
	}
	if result.FailedPaths > 0 {
		fmt.Printf("%d paths failed:\n", result.FailedPaths)
		for _, message := range result.Errors {
			fmt.Println(" ", message)
		}
	}
	if result.Cancelled {
		fmt.Println("Interrupted before completion.")
	}
}
