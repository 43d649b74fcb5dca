package analytics

import (
	"path/filepath"

	"github.com/reelscout/reelscout/internal/config"
	"github.com/reelscout/reelscout/internal/observability"
	"github.com/reelscout/reelscout/internal/output"
)

// Open returns the store selected by cfg.Analytics. appwriteKey is only
// consulted for the appwrite backend.
func Open(cfg *config.Config, appwriteKey string, hooks observability.Hooks) (Store, error) {
	switch cfg.Analytics {
	case config.AnalyticsOff:
		return Nop{}, nil

	case config.AnalyticsAppwrite:
		if cfg.AppwriteProjectID == "" || cfg.AppwriteDatabaseID == "" || cfg.AppwriteCollectionID == "" {
			return nil, output.ErrUsageHint(
				"Appwrite analytics is not configured",
				"Set APPWRITE_PROJECT_ID, APPWRITE_DATABASE_ID and APPWRITE_COLLECTION_ID, or use --analytics local",
			)
		}
		if appwriteKey == "" {
			return nil, &output.Error{
				Code:    output.CodeAuth,
				Message: "No Appwrite API key configured",
				Hint:    "Run: reelscout auth login --appwrite",
			}
		}
		return NewAppwriteStore(AppwriteOptions{
			Endpoint:     cfg.AppwriteEndpoint,
			ProjectID:    cfg.AppwriteProjectID,
			DatabaseID:   cfg.AppwriteDatabaseID,
			CollectionID: cfg.AppwriteCollectionID,
			APIKey:       appwriteKey,
			ImageBaseURL: cfg.ImageBaseURL,
			Hooks:        hooks,
		}), nil

	default:
		return NewFileStore(filepath.Join(cfg.CacheDir, DirName), cfg.ImageBaseURL), nil
	}
}
