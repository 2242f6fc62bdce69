package catalog

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"valvefinder/internal"
)

const cardPhotos = "STATIC/IMG/card-photos/"

func TestParseImageIndexShapes(t *testing.T) {
	cases := []struct {
		name string
		blob string
		want []internal.ImageEntry
	}{
		{
			name: "legacy images list",
			blob: `{"images": ["152860.jpg", "images/valvula_bola.png", 4]}`,
			want: []internal.ImageEntry{
				{ID: "152860", Ref: "152860", ImageURL: cardPhotos + "152860.jpg", Name: "152860"},
				{ID: "valvula_bola", Ref: "valvula_bola", ImageURL: cardPhotos + "valvula_bola.png", Name: "valvula_bola"},
			},
		},
		{
			name: "bare list",
			blob: `["a.jpg"]`,
			want: []internal.ImageEntry{{ID: "a", Ref: "a", ImageURL: cardPhotos + "a.jpg", Name: "a"}},
		},
		{
			name: "backend items",
			blob: `{"items": [{"id": 152860, "image": "/images/152860/1.jpg", "count": 2}, {"id": "x", "image": "x/1.jpg"}]}`,
			want: []internal.ImageEntry{
				{ID: "152860", Ref: "152860", ImageURL: "/images/152860/1.jpg", Name: "152860"},
				{ID: "x", Ref: "x", ImageURL: cardPhotos + "x/1.jpg", Name: "X"},
			},
		},
		{
			name: "ref mapping",
			blob: `{"valvula_b": ["1.jpg", "2.jpg"], "a": ["z.png"], "empty": []}`,
			want: []internal.ImageEntry{
				{ID: "a", Ref: "a", ImageURL: cardPhotos + "a/z.png", Name: "A"},
				{ID: "empty", Ref: "empty", Name: "Empty"},
				{ID: "valvula_b", Ref: "valvula_b", ImageURL: cardPhotos + "valvula_b/1.jpg", Name: "Válvula b"},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseImageIndex([]byte(tc.blob), cardPhotos)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got  %+v\nwant %+v", got, tc.want)
			}
		})
	}
}

func TestNormalizeImageURL(t *testing.T) {
	got := NormalizeImageURL(`STATIC/IMG/card-photos/images/sub\\a.jpg`)
	if got != "STATIC/IMG/card-photos/sub/a.jpg" {
		t.Fatalf("got %q", got)
	}
}

func TestFileImageIndexMissing(t *testing.T) {
	_, err := FileImageIndex{Path: filepath.Join(t.TempDir(), "index.json")}.Images(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err=%v", err)
	}
}

func TestParseBankOverrides(t *testing.T) {
	cases := []struct {
		name string
		blob string
		want map[string]internal.BankOverride
	}{
		{
			name: "list",
			blob: `[{"id": "1", "banco": "a", "ubicacion": "Banco A"}, {"ref": "R2", "id": "2", "bank": "B"}, {"banco": "C"}]`,
			want: map[string]internal.BankOverride{
				"1":  {Bank: "A", Location: internal.Locations{"Banco A"}},
				"R2": {Bank: "B"},
			},
		},
		{
			name: "flat",
			blob: `{"152860": "c", "77": {"bank": "d", "ubicacion": ["Banco D", "rack 1"]}}`,
			want: map[string]internal.BankOverride{
				"152860": {Bank: "C"},
				"77":     {Bank: "D", Location: internal.Locations{"Banco D", "rack 1"}},
			},
		},
		{
			name: "wrapped",
			blob: `{"map": {"152860": "A"}}`,
			want: map[string]internal.BankOverride{"152860": {Bank: "A"}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseBankOverrides([]byte(tc.blob))
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %+v want %+v", got, tc.want)
			}
		})
	}
}

func TestFileMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valvulas.json")
	blob := `[{"id": "v1", "nombre": "Uno", "ubicacion": "Banco A"}, {"id": "v2", "nombre": "Dos", "ubicacion": ["Banco B", "Banco C"], "cantidad": 2}]`
	if err := os.WriteFile(path, []byte(blob), 0o644); err != nil {
		t.Fatal(err)
	}
	records, err := FileMetadata{Path: path}.Metadata(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].Location.String() != "Banco A" || len(records[1].Location) != 2 || *records[1].Quantity != 2 {
		t.Fatalf("got %+v", records)
	}
}

func TestDirListingImageIndex(t *testing.T) {
	page := `<html><body><h1>Index of /card-photos/</h1>
<a href="../">../</a>
<a href="?C=N;O=D">Name</a>
<a href="152860.jpg">152860.jpg</a>
<a href="sub/valvula_bola.PNG">valvula_bola.PNG</a>
<a href="152860.jpg">dup</a>
<a href="notes.txt">notes.txt</a>
</body></html>`
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if r.URL.String() != "http://static.test/card-photos/" {
			t.Fatalf("unexpected url %s", r.URL)
		}
		return jsonResponse(http.StatusOK, page), nil
	})}
	dir := DirListingImageIndex{URL: "http://static.test/card-photos/", HTTPClient: client}

	files, err := dir.Files(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"http://static.test/card-photos/152860.jpg", "http://static.test/card-photos/sub/valvula_bola.PNG"}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("files=%v", files)
	}

	images, err := dir.Images(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 2 || images[1].ID != "valvula_bola" || images[1].ImageURL != want[1] {
		t.Fatalf("images=%+v", images)
	}
}

func TestDirListingUnavailable(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusForbidden, "nope"), nil
	})}
	_, err := DirListingImageIndex{URL: "http://static.test/", HTTPClient: client}.Files(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err=%v", err)
	}
}
