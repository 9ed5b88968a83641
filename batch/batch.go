package batch

import (
	"context"
	"fmt"
	"log"
	"time"

	"gitlab.com/scpcorp/nft-minter/common"
)

type Settings struct {
	Size       int
	BatchDelay time.Duration
	ItemDelay  time.Duration
}

var DefaultSettings = Settings{
	Size:       common.BatchSize,
	BatchDelay: common.BatchDelay,
}

func (s Settings) Validate() error {
	if s.Size < 1 {
		return fmt.Errorf("batch size must be positive, got %d", s.Size)
	}
	if s.BatchDelay < 0 || s.ItemDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	return nil
}

// Checkpoint tells which recipients already got their NFT in a previous run.
type Checkpoint interface {
	IsMinted(ctx context.Context, address string) (bool, error)
}

// Observer receives progress events. Calls happen on the Run goroutine.
type Observer interface {
	BatchStarted(batch, size int)
	ItemDone(index int, address string, err error)
	ItemSkipped(index int, address string)
}

type MintFunc func(ctx context.Context, index int, address string) error

type Failure struct {
	Index   int
	Address string
	Err     error
}

type Report struct {
	Total       int
	Succeeded   int
	Failed      []Failure
	Skipped     int
	Batches     []int
	Interrupted bool
}

// Split partitions items into contiguous chunks of at most size items.
func Split(items []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	batches := make([][]string, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}

type Minter struct {
	settings   Settings
	checkpoint Checkpoint
	observer   Observer

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a batch minter. checkpoint and observer may be nil.
func New(settings Settings, checkpoint Checkpoint, observer Observer) *Minter {
	return &Minter{
		settings:   settings,
		checkpoint: checkpoint,
		observer:   observer,
		sleep:      sleepContext,
	}
}

// Run calls fn for every address, one at a time, in batches. A failed
// recipient is recorded and the run goes on. Cancelling ctx stops the run
// before the next recipient.
func (m *Minter) Run(ctx context.Context, addrs []string, fn MintFunc) Report {
	report := Report{Total: len(addrs)}
	batches := Split(addrs, m.settings.Size)

	index := 0
	for i, batch := range batches {
		if i > 0 {
			log.Printf("[batch]: waiting %s before next batch", m.settings.BatchDelay)
			if err := m.sleep(ctx, m.settings.BatchDelay); err != nil {
				report.Interrupted = true
				break
			}
		}
		log.Printf("[batch]: batch %d/%d, %d recipients", i+1, len(batches), len(batch))
		report.Batches = append(report.Batches, len(batch))
		if m.observer != nil {
			m.observer.BatchStarted(i+1, len(batch))
		}

		for j, addr := range batch {
			if j > 0 && m.settings.ItemDelay > 0 {
				if err := m.sleep(ctx, m.settings.ItemDelay); err != nil {
					report.Interrupted = true
					break
				}
			}
			if ctx.Err() != nil {
				report.Interrupted = true
				break
			}
			m.runOne(ctx, index, addr, fn, &report)
			index++
		}
		if report.Interrupted {
			break
		}
	}

	if report.Interrupted {
		log.Printf("[batch]: interrupted after %d of %d recipients", index, len(addrs))
	}
	return report
}

func (m *Minter) runOne(ctx context.Context, index int, addr string, fn MintFunc, report *Report) {
	if m.checkpoint != nil {
		minted, err := m.checkpoint.IsMinted(ctx, addr)
		if err != nil {
			log.Printf("[batch]: checkpoint lookup for %s failed, minting anyway: %v", addr, err)
		} else if minted {
			log.Printf("[batch]: %s already minted, skipping", addr)
			report.Skipped++
			if m.observer != nil {
				m.observer.ItemSkipped(index, addr)
			}
			return
		}
	}

	err := fn(ctx, index, addr)
	if err != nil {
		log.Printf("[batch]: mint for %s failed: %v", addr, err)
		report.Failed = append(report.Failed, Failure{
			Index:   index,
			Address: addr,
			Err:     err,
		})
	} else {
		report.Succeeded++
	}
	if m.observer != nil {
		m.observer.ItemDone(index, addr, err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
