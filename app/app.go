package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/starius/api2"
	minter "gitlab.com/scpcorp/nft-minter"
	"gitlab.com/scpcorp/nft-minter/accounts"
	"gitlab.com/scpcorp/nft-minter/arweave"
	"gitlab.com/scpcorp/nft-minter/batch"
	"gitlab.com/scpcorp/nft-minter/common"
	"gitlab.com/scpcorp/nft-minter/config"
	"gitlab.com/scpcorp/nft-minter/metadata"
	"gitlab.com/scpcorp/nft-minter/mintdb"
	"gitlab.com/scpcorp/nft-minter/solana"
)

type Config struct {
	Image    string `long:"image" env:"NFT_IMAGE" default:"./assets/image.png" description:"image to upload"`
	Users    string `long:"users" env:"NFT_USERS" default:"./users.sample.csv" description:"CSV export with id and linked_accounts columns"`
	Metadata string `long:"metadata" env:"NFT_METADATA" default:"./assets/metadata.toml" description:"TOML metadata template"`
	EnvFile  string `long:"env-file" env:"NFT_ENV_FILE" default:".env" description:"file with environment variables"`

	BatchSize  int           `long:"batch-size" env:"BATCH_SIZE" default:"5" description:"recipients per batch"`
	BatchDelay time.Duration `long:"batch-delay" env:"BATCH_DELAY" default:"2s" description:"pause between batches"`
	ItemDelay  time.Duration `long:"item-delay" env:"ITEM_DELAY" default:"0s" description:"pause between recipients inside a batch"`
	Attempts   uint          `long:"attempts" env:"RETRY_ATTEMPTS" default:"3" description:"attempts per upload or mint"`
	RetryDelay time.Duration `long:"retry-delay" env:"RETRY_DELAY" default:"5s" description:"pause between attempts"`

	TreeDepth  uint32 `long:"tree-depth" env:"TREE_DEPTH" default:"14" description:"merkle tree max depth"`
	TreeBuffer uint32 `long:"tree-buffer" env:"TREE_BUFFER" default:"64" description:"merkle tree max buffer size"`
	TreeCanopy uint32 `long:"tree-canopy" env:"TREE_CANOPY" default:"0" description:"merkle tree canopy depth"`
	TreePublic bool   `long:"tree-public" env:"TREE_PUBLIC" description:"allow anyone to mint into the tree"`

	DBCfgPath string `long:"checkpoint-db-cfg" env:"CHECKPOINT_DB_CFG" description:"Postgres TOML config; enables resumable airdrops"`
	ApiAddr   string `long:"api-addr" env:"API_ADDR" description:"host:port of the progress API, disabled when empty"`
	Yes       bool   `short:"y" long:"yes" description:"do not ask for confirmation on mainnet"`
}

func RunnerSettingsFromConfig(c Config, network string) minter.Settings {
	return minter.Settings{
		Network: network,
		Retry: common.RetryPolicy{
			Attempts: c.Attempts,
			Delay:    c.RetryDelay,
		},
		Batch: batch.Settings{
			Size:       c.BatchSize,
			BatchDelay: c.BatchDelay,
			ItemDelay:  c.ItemDelay,
		},
		Tree: solana.TreeConfig{
			MaxDepth:      c.TreeDepth,
			MaxBufferSize: c.TreeBuffer,
			CanopyDepth:   c.TreeCanopy,
			Public:        c.TreePublic,
		},
	}
}

// App owns the long lived resources of one CLI invocation.
type App struct {
	config  Config
	session config.Session

	solana *solana.Minter
	db     *mintdb.MintDB
	server *http.Server

	Runner *minter.Runner
}

func New(c Config) *App {
	return &App{config: c}
}

// Start reads the environment, connects to the network and, when
// configured, to the checkpoint database and starts the progress API.
func (a *App) Start(ctx context.Context, network string) error {
	config.LoadDotEnv(a.config.EnvFile)
	env, err := config.FromEnv()
	if err != nil {
		return err
	}
	session, err := config.NewSession(network, env)
	if err != nil {
		return err
	}
	a.session = session
	log.Printf("Network: %s (%s)", session.Network.DisplayName, session.Network.Cluster.RPC)

	a.solana, err = solana.NewMinter(ctx, session.Network, session.Key)
	if err != nil {
		return fmt.Errorf("failed to create solana minter: %w", err)
	}
	balance, err := a.solana.Balance(ctx)
	if err != nil {
		log.Printf("Wallet %s: cannot read balance: %v", a.solana.PublicKey(), err)
	} else {
		log.Printf("Wallet %s: %s SOL", a.solana.PublicKey(), common.LamportsToSOL(balance))
	}

	var checkpoint minter.Checkpoint
	if a.config.DBCfgPath != "" {
		pg, err := mintdb.OpenPostgresWithRetries(ctx, a.config.DBCfgPath, common.RetryAttempts)
		if err != nil {
			return fmt.Errorf("failed to open checkpoint db: %w", err)
		}
		a.db, err = mintdb.NewDB(pg)
		if err != nil {
			pg.Close()
			return fmt.Errorf("failed to initialize checkpoint db: %w", err)
		}
		checkpoint = a.db
	}

	uploader := arweave.NewHTTPUploader(session.Network.StorageEndpoint, session.StorageAPIKey)
	a.Runner, err = minter.New(RunnerSettingsFromConfig(a.config, session.Network.Name), uploader, a.solana, checkpoint)
	if err != nil {
		return fmt.Errorf("could not initialize runner: %w", err)
	}

	if a.config.ApiAddr != "" {
		routes := minter.GetRoutes(a.Runner.Progress())
		mux := http.NewServeMux()
		api2.BindRoutes(mux, routes)

		log.Printf("Listening on %v...", a.config.ApiAddr)
		a.server = &http.Server{Addr: a.config.ApiAddr, Handler: mux}
		go func() {
			if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("server.ListenAndServe failed: %v.", err)
			}
		}()
	}

	return nil
}

func (a *App) Network() solana.NetworkConfig {
	return a.session.Network
}

func (a *App) prepareAsset(ctx context.Context) (solana.NFTMetadata, error) {
	tmpl, err := metadata.LoadTemplate(a.config.Metadata)
	if err != nil {
		return solana.NFTMetadata{}, err
	}
	return a.Runner.PrepareAsset(ctx, a.config.Image, tmpl)
}

func (a *App) recipients() ([]string, error) {
	records, err := accounts.ReadFile(a.config.Users)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipients: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no solana wallets found in %s", a.config.Users)
	}
	log.Printf("Found %d recipients in %s", len(records), a.config.Users)
	return accounts.Addresses(records), nil
}

// Mint uploads the asset and mints one NFT to the payer wallet.
func (a *App) Mint(ctx context.Context) (minter.MintResult, error) {
	meta, err := a.prepareAsset(ctx)
	if err != nil {
		return minter.MintResult{}, err
	}
	return a.Runner.MintOne(ctx, a.solana.PublicKey(), meta)
}

func (a *App) Airdrop(ctx context.Context) (batch.Report, error) {
	recipients, err := a.recipients()
	if err != nil {
		return batch.Report{}, err
	}
	meta, err := a.prepareAsset(ctx)
	if err != nil {
		return batch.Report{}, err
	}
	return a.Runner.Airdrop(ctx, recipients, meta)
}

func (a *App) AirdropCompressed(ctx context.Context) (solanago.PublicKey, batch.Report, error) {
	recipients, err := a.recipients()
	if err != nil {
		return solanago.PublicKey{}, batch.Report{}, err
	}
	meta, err := a.prepareAsset(ctx)
	if err != nil {
		return solanago.PublicKey{}, batch.Report{}, err
	}
	return a.Runner.AirdropCompressed(ctx, recipients, meta)
}

func (a *App) CreateTree(ctx context.Context) (solanago.PublicKey, error) {
	return a.Runner.CreateTree(ctx)
}

func (a *App) Close() {
	if a.server != nil {
		if err := a.server.Close(); err != nil {
			log.Printf("server.Close failed: %v.", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Printf("mintdb.Close failed: %v", err)
		}
	}
	if a.solana != nil {
		if err := a.solana.Close(); err != nil {
			log.Printf("minter.Close failed: %v", err)
		}
	}
}
