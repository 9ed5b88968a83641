package minter

//go:generate go run ./gen/...

import (
	"context"
	"time"

	"gitlab.com/scpcorp/nft-minter/common"
)

type Service interface {
	Progress(ctx context.Context, req *ProgressRequest) (*ProgressResponse, error)
	Failures(ctx context.Context, req *FailuresRequest) (*FailuresResponse, error)
}

type ProgressRequest struct {
}

type ProgressResponse struct {
	Kind         common.MintKind `json:"kind"`
	Running      bool            `json:"running"`
	Total        int             `json:"total"`
	Done         int             `json:"done"`
	Failed       int             `json:"failed"`
	Skipped      int             `json:"skipped"`
	CurrentBatch int             `json:"current_batch"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
}

type FailuresRequest struct {
}

type FailuresResponse struct {
	Failures []common.MintFailure `json:"failures"`
}

type Error struct {
	Msg string
}

func (err Error) Error() string {
	return err.Msg
}
