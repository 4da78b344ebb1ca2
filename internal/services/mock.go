package services

import (
	"context"
	"time"
)

// Mocks let the UI state machine run headlessly without touching a real
// filesystem.

type MockScanner struct {
	Result ScanResult
	Err    error
}

func (scanner *MockScanner) Scan(ctx context.Context, req ScanRequest) (ScanResult, error) {
	select {
	case <-ctx.Done():
		return ScanResult{}, ctx.Err()
	default:
	}
	result := scanner.Result
	result.RootPath = req.RootPath
	result.Duration = time.Millisecond
	return result, scanner.Err
}

type MockPurger struct {
	Result PurgeResult
	Err    error
}

func (purger *MockPurger) FindPaths(ctx context.Context, req PurgeRequest) (PurgeResult, error) {
	select {
	case <-ctx.Done():
		return PurgeResult{}, ctx.Err()
	default:
	}
	return purger.Result, purger.Err
}

type MockDeleter struct {
	Result   DeleteResult
	Err      error
	LastReq  DeleteRequest
	Executed bool
}

func (deleter *MockDeleter) Execute(ctx context.Context, req DeleteRequest) (DeleteResult, error) {
	deleter.LastReq = req
	deleter.Executed = true
	result := deleter.Result
	result.DryRun = req.DryRun
	if req.DryRun {
		return result, deleter.Err
	}
	if result.DeletedPaths == 0 {
		result.DeletedPaths = len(req.Links) + pathCount(req.Inodes)
	}
	return result, deleter.Err
}

var _ Scanner = (*MockScanner)(nil)
var _ Purger = (*MockPurger)(nil)
var _ Deleter = (*MockDeleter)(nil)
