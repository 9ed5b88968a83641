package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	solanago "github.com/gagliardetto/solana-go"
	"gitlab.com/scpcorp/nft-minter/accounts"
	"gitlab.com/scpcorp/nft-minter/app"
	"gitlab.com/scpcorp/nft-minter/solana"
)

type networkArgs struct {
	Network string `positional-arg-name:"network" description:"mainnet or devnet (default)"`
}

// withApp starts the application for the given network, runs fn and
// releases everything afterwards.
func withApp(network string, fn func(ctx context.Context, a *app.App) error) error {
	ctx, cancel := shutdownContext()
	defer cancel()

	printBanner()
	a := app.New(opts)
	defer a.Close()
	if err := a.Start(ctx, network); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	if err := confirmNetwork(a.Network()); err != nil {
		return err
	}
	return fn(ctx, a)
}

func confirmNetwork(network solana.NetworkConfig) error {
	if network.Name != solana.NetworkMainnet || opts.Yes {
		return nil
	}
	proceed := false
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Mint on %s? This spends real SOL.", network.DisplayName),
	}
	if err := survey.AskOne(prompt, &proceed); err != nil {
		return fmt.Errorf("confirmation failed, pass --yes to skip it: %w", err)
	}
	if !proceed {
		return fmt.Errorf("cancelled by user")
	}
	return nil
}

type mintCommand struct {
	Args networkArgs `positional-args:"yes"`
}

func (c *mintCommand) Execute(args []string) error {
	return withApp(c.Args.Network, func(ctx context.Context, a *app.App) error {
		res, err := a.Mint(ctx)
		if err != nil {
			return err
		}
		printMint(a.Network(), res)
		return nil
	})
}

type airdropCommand struct {
	Args networkArgs `positional-args:"yes"`
}

func (c *airdropCommand) Execute(args []string) error {
	return withApp(c.Args.Network, func(ctx context.Context, a *app.App) error {
		report, err := a.Airdrop(ctx)
		printReport(a.Network(), "Airdrop", report)
		return err
	})
}

type airdropCompressedCommand struct {
	Args networkArgs `positional-args:"yes"`
}

func (c *airdropCompressedCommand) Execute(args []string) error {
	return withApp(c.Args.Network, func(ctx context.Context, a *app.App) error {
		tree, report, err := a.AirdropCompressed(ctx)
		if tree != (solanago.PublicKey{}) {
			printField("Tree", tree.String())
		}
		printReport(a.Network(), "Compressed airdrop", report)
		return err
	})
}

type createTreeCommand struct {
	Args networkArgs `positional-args:"yes"`
}

func (c *createTreeCommand) Execute(args []string) error {
	return withApp(c.Args.Network, func(ctx context.Context, a *app.App) error {
		tree, err := a.CreateTree(ctx)
		if err != nil {
			return err
		}
		printField("Tree", tree.String())
		return nil
	})
}

type extractCommand struct{}

func (c *extractCommand) Execute(args []string) error {
	records, err := accounts.ReadFile(opts.Users)
	if err != nil {
		return err
	}
	w := csv.NewWriter(os.Stdout)
	if err := w.Write([]string{"id", "address"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := w.Write([]string{r.ID, r.SolanaAddress}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
