package metadata

import (
	"encoding/json"
	"fmt"

	"gitlab.com/scpcorp/nft-minter/solana"
)

type File struct {
	URI  string `json:"uri"`
	Type string `json:"type"`
}

type Properties struct {
	Files    []File `json:"files"`
	Category string `json:"category"`
}

type Collection struct {
	Name string `json:"name"`
}

// Document follows the Metaplex token metadata JSON standard.
type Document struct {
	Name                 string      `json:"name"`
	Symbol               string      `json:"symbol"`
	Description          string      `json:"description"`
	Image                string      `json:"image"`
	ExternalURL          string      `json:"external_url,omitempty"`
	SellerFeeBasisPoints uint16      `json:"seller_fee_basis_points"`
	Attributes           []Attribute `json:"attributes"`
	Collection           *Collection `json:"collection,omitempty"`
	Properties           Properties  `json:"properties"`
}

// Build renders the off-chain metadata JSON for an uploaded image.
func Build(t Template, imageURI, contentType string) ([]byte, error) {
	if t.Symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", solana.ErrInvalidMetadata)
	}
	if imageURI == "" {
		return nil, fmt.Errorf("image uri is empty")
	}
	// The URI is not known yet, validate the on-chain fields with a stub.
	if err := t.OnChain("-").Validate(); err != nil {
		return nil, err
	}

	attributes := t.Attributes
	if attributes == nil {
		attributes = []Attribute{}
	}
	doc := Document{
		Name:                 t.Name,
		Symbol:               t.Symbol,
		Description:          t.Description,
		Image:                imageURI,
		ExternalURL:          t.ExternalURL,
		SellerFeeBasisPoints: t.SellerFeeBasisPoints,
		Attributes:           attributes,
		Properties: Properties{
			Files:    []File{{URI: imageURI, Type: contentType}},
			Category: "image",
		},
	}
	if t.Collection != "" {
		doc.Collection = &Collection{Name: t.Collection}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("cannot encode metadata: %w", err)
	}
	return data, nil
}

// OnChain returns the fields stored in the metadata account.
func (t Template) OnChain(uri string) solana.NFTMetadata {
	return solana.NFTMetadata{
		Name:                 t.Name,
		Symbol:               t.Symbol,
		URI:                  uri,
		SellerFeeBasisPoints: t.SellerFeeBasisPoints,
	}
}
