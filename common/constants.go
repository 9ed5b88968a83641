package common

import "time"

const (
	BatchSize  = 5
	BatchDelay = 2 * time.Second

	RetryAttempts = 3
	RetryDelay    = 5 * time.Second

	DefaultImagePath    = "./assets/image.png"
	DefaultMetadataPath = "./assets/metadata.toml"
	DefaultUsersPath    = "./users.sample.csv"

	// Larger images still upload, but storage cost grows quickly.
	RecommendedImageSize = 1 << 20
)
