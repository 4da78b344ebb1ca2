package services

import "context"

type Scanner interface {
	Scan(ctx context.Context, req ScanRequest) (ScanResult, error)
}

type Purger interface {
	FindPaths(ctx context.Context, req PurgeRequest) (PurgeResult, error)
}

type Deleter interface {
	Execute(ctx context.Context, req DeleteRequest) (DeleteResult, error)
}

type ProgressProvider interface {
	Progress() <-chan ScanProgress
}
