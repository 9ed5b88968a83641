package solana

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go/rpc"
)

const (
	NetworkDevnet  = "devnet"
	NetworkMainnet = "mainnet"
)

// ErrUnknownNetwork is returned for a network name outside of the fixed set.
var ErrUnknownNetwork = errors.New("unknown network")

// NetworkConfig is a static description of a cluster and the storage node
// used next to it. Selected once at startup.
type NetworkConfig struct {
	// Name is the CLI token: "devnet" or "mainnet".
	Name string

	// DisplayName is printed to the user.
	DisplayName string

	// Cluster config.
	Cluster rpc.Cluster

	// Upload node for images and metadata JSON.
	StorageEndpoint string
}

func NewDevNetConfig() NetworkConfig {
	return NetworkConfig{
		Name:        NetworkDevnet,
		DisplayName: "Devnet",
		Cluster: rpc.Cluster{
			Name: "devnet",
			RPC:  "https://api.devnet.solana.com",
			WS:   "wss://api.devnet.solana.com",
		},
		StorageEndpoint: "https://devnet.bundlr.network",
	}
}

func NewMainNetConfig() NetworkConfig {
	return NetworkConfig{
		Name:        NetworkMainnet,
		DisplayName: "Mainnet Beta",
		Cluster: rpc.Cluster{
			Name: "mainnet-beta",
			RPC:  "https://api.mainnet-beta.solana.com",
			WS:   "wss://api.mainnet-beta.solana.com",
		},
		StorageEndpoint: "https://node1.bundlr.network",
	}
}

// ConfigByName maps a CLI network token to its config. An empty token
// selects devnet.
func ConfigByName(name string) (NetworkConfig, error) {
	switch name {
	case "", NetworkDevnet:
		return NewDevNetConfig(), nil
	case NetworkMainnet:
		return NewMainNetConfig(), nil
	default:
		return NetworkConfig{}, fmt.Errorf("%w %q, expected %s or %s", ErrUnknownNetwork, name, NetworkMainnet, NetworkDevnet)
	}
}

// WithOverrides replaces the RPC and websocket endpoints when set.
// A websocket URL is derived from an overridden RPC URL unless given.
func (c NetworkConfig) WithOverrides(rpcURL, wsURL string) NetworkConfig {
	if rpcURL != "" {
		c.Cluster.RPC = rpcURL
		if wsURL == "" {
			wsURL = wsFromRPC(rpcURL)
		}
	}
	if wsURL != "" {
		c.Cluster.WS = wsURL
	}
	return c
}

func wsFromRPC(rpcURL string) string {
	switch {
	case strings.HasPrefix(rpcURL, "https://"):
		return "wss://" + strings.TrimPrefix(rpcURL, "https://")
	case strings.HasPrefix(rpcURL, "http://"):
		return "ws://" + strings.TrimPrefix(rpcURL, "http://")
	default:
		return rpcURL
	}
}
