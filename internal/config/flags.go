package config

import "flag"

func ParseFlags(base Config) Config {
	path := flag.String("path", base.Path, "Root directory to scan")
	xdev := flag.Bool("xdev", base.Xdev, "Stay on the starting filesystem (prune mount points)")
	interactive := flag.Bool("interactive", base.Interactive, "Open the interactive browser after scanning")
	yes := flag.Bool("yes", base.Yes, "Skip the confirmation prompt")
	dryRun := flag.Bool("dry-run", base.DryRun, "Report what would be deleted without touching anything")
	apparent := flag.Bool("apparent", base.Apparent, "Count apparent byte sizes instead of allocated blocks")
	contained := flag.Bool("contained", base.Contained, "Only target inodes whose every link lies inside the scanned tree")
	symlinks := flag.Bool("symlinks", base.Symlinks, "Target symlinks recorded by the scan instead of hardlinked files")
	saveScan := flag.String("save-scan", base.SaveScan, "Write the scan result to this file")
	loadScan := flag.String("load-scan", base.LoadScan, "Load a previous scan from this file instead of walking")
	verbose := flag.Bool("verbose", base.Verbose, "Enable debug logging")
	logFile := flag.String("log", base.LogFile, "Mirror log output to this file")
	safeMode := flag.Bool("safe-mode", base.SafeMode, "Refuse to delete under critical system paths")
	flag.Parse()

	base.Path = *path
	base.Xdev = *xdev
	base.Interactive = *interactive
	base.Yes = *yes
	base.DryRun = *dryRun
	base.Apparent = *apparent
	base.Contained = *contained
	base.Symlinks = *symlinks
	base.SaveScan = *saveScan
	base.LoadScan = *loadScan
	base.Verbose = *verbose
	base.LogFile = *logFile
	base.SafeMode = *safeMode
	if args := flag.Args(); len(args) > 0 {
		base.Path = args[0]
	}
	return base
}
