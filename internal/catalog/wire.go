package catalog

import (
	"strings"

	"github.com/sirupsen/logrus"

	"valvefinder/internal/config"
	"valvefinder/internal/storage"
)

// NewLoaderFromConfig wires the configured sources. The backend list always
// goes through the sqlite cache. The image source is the backend index, an
// HTML directory listing or the local index.json, in that order of choice.
// A directory listing next to another image source only seeds placeholder
// cards; when it is the image source itself it is fetched once.
func NewLoaderFromConfig(cfg config.Config, client *Client, db *storage.DB, log *logrus.Entry) *Loader {
	l := &Loader{
		Backend:  NewSyncService(db, client, log),
		Metadata: FileMetadata{Path: cfg.MetadataPath},
		Banks:    FileBankOverrides{Path: cfg.BanksPath},
		Log:      log,
	}

	listingURL := strings.TrimSpace(cfg.ImageIndexURL)
	switch {
	case cfg.UseBackendImageIndex:
		l.Images = HTTPImageIndex{Client: client}
		if listingURL != "" {
			l.Files = DirListingImageIndex{URL: listingURL}
		}
	case listingURL != "":
		l.Images = DirListingImageIndex{URL: listingURL}
	default:
		l.Images = FileImageIndex{Path: cfg.ImageIndexPath, BaseURL: cfg.ImageBaseURL}
	}
	return l
}
