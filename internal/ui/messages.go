package ui

import "linkpurge/internal/services"

type scanResultMsg struct {
	result services.ScanResult
	err    error
}

type scanProgressMsg struct {
	progress services.ScanProgress
}

type purgePreviewMsg struct {
	result services.PurgeResult
	err    error
}

type deleteResultMsg struct {
	result services.DeleteResult
	err    error
}
