package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	figure "github.com/common-nighthawk/go-figure"
	minter "gitlab.com/scpcorp/nft-minter"
	"gitlab.com/scpcorp/nft-minter/batch"
	"gitlab.com/scpcorp/nft-minter/common"
	"gitlab.com/scpcorp/nft-minter/solana"
)

var (
	titleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#9945FF")). // Solana purple
		Bold(true).
		Padding(1, 0)

	labelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#CCCCCC")).
		Width(12)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#14F195")).
		Bold(true)

	warningStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF6347")).
		Bold(true)
)

func printBanner() {
	banner := figure.NewFigure("nft-minter", "small", true)
	fmt.Println(titleStyle.Render(banner.String()))
}

func printField(label, value string) {
	fmt.Println(labelStyle.Render(label+":") + " " + value)
}

func printMint(network solana.NetworkConfig, res minter.MintResult) {
	fmt.Println(okStyle.Render("Minted on " + network.DisplayName))
	printField("Owner", res.Owner.String())
	printField("Mint", res.Mint.String())
	printField("Signature", res.Signature.String())
}

func printReport(network solana.NetworkConfig, title string, report batch.Report) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("%s on %s", title, network.DisplayName)))
	printField("Recipients", fmt.Sprint(report.Total))
	printField("Batches", fmt.Sprint(len(report.Batches)))
	printField("Minted", okStyle.Render(fmt.Sprint(report.Succeeded)))
	if report.Skipped > 0 {
		printField("Skipped", fmt.Sprint(report.Skipped))
	}
	if len(report.Failed) > 0 {
		printField("Failed", warningStyle.Render(fmt.Sprint(len(report.Failed))))
		for _, f := range report.Failed {
			fmt.Println("  " + warningStyle.Render(common.ShortAddr(f.Address)) + " " + f.Err.Error())
		}
	}
	if report.Interrupted {
		fmt.Println(warningStyle.Render("Interrupted, not every recipient was processed."))
	}
}
