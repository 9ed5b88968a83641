package metadata

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"github.com/BurntSushi/toml"
)

type Attribute struct {
	TraitType string `toml:"trait_type" json:"trait_type"`
	Value     string `toml:"value" json:"value"`
}

// Template holds the NFT description that does not depend on the uploaded
// image.
type Template struct {
	Name                 string      `toml:"name"`
	Symbol               string      `toml:"symbol"`
	Description          string      `toml:"description"`
	SellerFeeBasisPoints uint16      `toml:"seller_fee_basis_points"`
	ExternalURL          string      `toml:"external_url"`
	Collection           string      `toml:"collection"`
	Attributes           []Attribute `toml:"attributes"`
}

var DefaultTemplate = Template{
	Name:                 "My NFT",
	Symbol:               "MNFT",
	Description:          "Minted with nft-minter",
	SellerFeeBasisPoints: 500,
	Attributes: []Attribute{
		{TraitType: "Edition", Value: "Genesis"},
	},
}

// LoadTemplate reads a TOML template. A missing file yields DefaultTemplate.
func LoadTemplate(path string) (Template, error) {
	var t Template
	_, err := toml.DecodeFile(path, &t)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("[metadata]: %s not found, using built-in template", path)
		return DefaultTemplate, nil
	}
	if err != nil {
		return Template{}, fmt.Errorf("cannot decode metadata template %s: %w", path, err)
	}
	t.Name = strings.TrimSpace(t.Name)
	t.Symbol = strings.TrimSpace(t.Symbol)
	return t, nil
}
