package catalog

import (
	"testing"

	"valvefinder/internal/config"
)

func TestNewLoaderFromConfigSources(t *testing.T) {
	db := openTestDB(t)
	cases := []struct {
		name       string
		cfg        config.Config
		wantImages string
		wantFiles  bool
	}{
		{"local index", config.Config{ImageIndexPath: "index.json"}, "file", false},
		{"dir listing fetched once", config.Config{ImageIndexURL: "http://static.test/"}, "listing", false},
		{"backend index plus listing", config.Config{UseBackendImageIndex: true, ImageIndexURL: "http://static.test/"}, "backend", true},
		{"backend index only", config.Config{UseBackendImageIndex: true}, "backend", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLoaderFromConfig(tc.cfg, NewClient(tc.cfg), db, quietLog())
			var kind string
			switch l.Images.(type) {
			case FileImageIndex:
				kind = "file"
			case DirListingImageIndex:
				kind = "listing"
			case HTTPImageIndex:
				kind = "backend"
			}
			if kind != tc.wantImages {
				t.Fatalf("images=%T", l.Images)
			}
			if (l.Files != nil) != tc.wantFiles {
				t.Fatalf("files=%v", l.Files)
			}
			if _, ok := l.Backend.(*SyncService); !ok {
				t.Fatalf("backend=%T", l.Backend)
			}
		})
	}
}
