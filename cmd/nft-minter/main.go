package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	goflags "github.com/jessevdk/go-flags"
	"gitlab.com/scpcorp/nft-minter/app"
)

const (
	exitFailure     = 1
	errWrongCommand = 2
)

var opts app.Config

func newParser() *goflags.Parser {
	parser := goflags.NewParser(&opts, goflags.HelpFlag|goflags.PassDoubleDash)
	parser.Name = "nft-minter"

	mustAdd := func(name, short, long string, data interface{}) *goflags.Command {
		cmd, err := parser.AddCommand(name, short, long, data)
		if err != nil {
			panic(err)
		}
		return cmd
	}
	mustAdd("mint", "Mint one NFT to the payer wallet",
		"Uploads the image and metadata and mints one standard NFT to the payer wallet.", &mintCommand{})
	airdrop := mustAdd("airdrop", "Mint a standard NFT to every CSV recipient",
		"Mints a standard NFT to every Solana wallet found in the users CSV, in batches.", &airdropCommand{})
	airdrop.Aliases = []string{"run"}
	mustAdd("airdrop-compressed", "Mint a compressed NFT to every CSV recipient",
		"Creates a merkle tree and mints a compressed NFT to every Solana wallet found in the users CSV.", &airdropCompressedCommand{})
	mustAdd("create-tree", "Create a merkle tree for compressed NFTs",
		"Creates a Bubblegum merkle tree owned by the payer and prints its address.", &createTreeCommand{})
	mustAdd("extract", "Print Solana wallets found in the users CSV",
		"Prints id,address pairs extracted from the linked_accounts column of the users CSV.", &extractCommand{})
	return parser
}

// shutdownContext is cancelled on SIGINT or SIGTERM.
func shutdownContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(c)
		select {
		case s := <-c:
			log.Printf("Got signal: %v, stopping after the current recipient", s)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func main() {
	log.SetFlags(0)

	parser := newParser()
	_, err := parser.Parse()
	if err == nil {
		return
	}

	var flagsErr *goflags.Error
	if errors.As(err, &flagsErr) {
		if flagsErr.Type == goflags.ErrHelp {
			parser.WriteHelp(os.Stdout)
		} else {
			log.Printf("%v", err)
		}
		os.Exit(errWrongCommand)
	}

	log.Printf("Error: %v", err)
	os.Exit(exitFailure)
}
