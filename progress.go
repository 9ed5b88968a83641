package minter

import (
	"context"
	"sync"
	"time"

	"gitlab.com/scpcorp/nft-minter/common"
)

// Progress tracks the current airdrop. It is fed by the batch loop and read
// by the API server from another goroutine.
type Progress struct {
	mu       sync.Mutex
	state    ProgressResponse
	failures []common.MintFailure

	now func() time.Time
}

func NewProgress() *Progress {
	return &Progress{now: time.Now}
}

func (p *Progress) Start(kind common.MintKind, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = ProgressResponse{
		Kind:      kind,
		Running:   true,
		Total:     total,
		StartedAt: p.now(),
	}
	p.failures = nil
}

func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Running = false
	p.state.FinishedAt = p.now()
}

func (p *Progress) BatchStarted(batch, size int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.CurrentBatch = batch
}

func (p *Progress) ItemDone(index int, address string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.state.Failed++
		p.failures = append(p.failures, common.MintFailure{
			Address: address,
			Error:   err.Error(),
		})
		return
	}
	p.state.Done++
}

func (p *Progress) ItemSkipped(index int, address string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Skipped++
}

func (p *Progress) Progress(ctx context.Context, req *ProgressRequest) (*ProgressResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	state := p.state
	return &state, nil
}

func (p *Progress) Failures(ctx context.Context, req *FailuresRequest) (*FailuresResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	failures := make([]common.MintFailure, len(p.failures))
	copy(failures, p.failures)
	return &FailuresResponse{Failures: failures}, nil
}
