package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"valvefinder/internal"
	"valvefinder/internal/util"
)

type ImageSource interface {
	Images(ctx context.Context) ([]internal.ImageEntry, error)
}

type BackendSource interface {
	ListValves(ctx context.Context) ([]internal.BackendValve, error)
}

type MetadataSource interface {
	Metadata(ctx context.Context) ([]internal.ValveRecord, error)
}

type BankOverrideSource interface {
	BankOverrides(ctx context.Context) (map[string]internal.BankOverride, error)
}

// FileLister returns bare image file names or URLs; they seed placeholder
// records when no structured source answers.
type FileLister interface {
	Files(ctx context.Context) ([]string, error)
}

var (
	reSpuriousImages = regexp.MustCompile(`(?i)(card-photos/)images/`)
	reBackslashes    = regexp.MustCompile(`\\+`)
	reImageExt       = regexp.MustCompile(`(?i)\.(jpe?g|png|webp|gif|bmp)$`)
)

// FileImageIndex reads an index.json describing the card photo folder.
// Accepted shapes:
//
//	{"images": ["a.jpg", ...]}
//	["a.jpg", ...]
//	{"items": [{"id": "...", "image": "...", "count": n}]}
//	{"<ref>": ["img1.jpg", ...]}
type FileImageIndex struct {
	Path    string
	BaseURL string
}

func (f FileImageIndex) Images(ctx context.Context) ([]internal.ImageEntry, error) {
	blob, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("image index %s: %w", f.Path, ErrSourceUnavailable)
	}
	return ParseImageIndex(blob, f.BaseURL)
}

// ParseImageIndex decodes any of the index.json shapes FileImageIndex
// accepts. Relative image paths are resolved against baseURL.
func ParseImageIndex(blob []byte, baseURL string) ([]internal.ImageEntry, error) {
	var payload any
	if err := json.Unmarshal(blob, &payload); err != nil {
		return nil, fmt.Errorf("image index: %w", err)
	}

	switch t := payload.(type) {
	case []any:
		return imagesFromFiles(t, baseURL), nil
	case map[string]any:
		if list, ok := t["images"].([]any); ok {
			return imagesFromFiles(list, baseURL), nil
		}
		if items, ok := t["items"].([]any); ok {
			return imagesFromItems(items, baseURL), nil
		}
		return imagesFromMapping(t, baseURL), nil
	default:
		return nil, fmt.Errorf("image index: unexpected shape")
	}
}

func imagesFromFiles(list []any, baseURL string) []internal.ImageEntry {
	out := make([]internal.ImageEntry, 0, len(list))
	for _, item := range list {
		raw, ok := item.(string)
		if !ok {
			continue
		}
		file := util.FileBase(strings.TrimSpace(raw))
		base := util.StripExt(file)
		if base == "" {
			continue
		}
		out = append(out, internal.ImageEntry{
			ID:       base,
			Ref:      base,
			ImageURL: NormalizeImageURL(baseURL + file),
			Name:     base,
		})
	}
	return out
}

func imagesFromItems(items []any, baseURL string) []internal.ImageEntry {
	out := make([]internal.ImageEntry, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, ok := toIDString(m["id"])
		if !ok {
			continue
		}
		image, _ := m["image"].(string)
		out = append(out, internal.ImageEntry{
			ID:       id,
			Ref:      id,
			ImageURL: resolveImage(baseURL, image),
			Name:     util.TitleFromFilename(id),
		})
	}
	return out
}

// imagesFromMapping takes the first file of every ref folder. Refs are
// visited in sorted order so the result does not depend on map iteration.
func imagesFromMapping(m map[string]any, baseURL string) []internal.ImageEntry {
	refs := make([]string, 0, len(m))
	for ref := range m {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	out := make([]internal.ImageEntry, 0, len(refs))
	for _, ref := range refs {
		files, ok := m[ref].([]any)
		if !ok || strings.TrimSpace(ref) == "" {
			continue
		}
		first := ""
		for _, f := range files {
			if s, ok := f.(string); ok && strings.TrimSpace(s) != "" {
				first = strings.TrimSpace(s)
				break
			}
		}
		entry := internal.ImageEntry{ID: ref, Ref: ref, Name: util.TitleFromFilename(ref)}
		if first != "" {
			entry.ImageURL = NormalizeImageURL(baseURL + ref + "/" + first)
		}
		out = append(out, entry)
	}
	return out
}

func resolveImage(baseURL, image string) string {
	image = strings.TrimSpace(image)
	if image == "" {
		return ""
	}
	if strings.HasPrefix(image, "/") || strings.Contains(image, "://") {
		return NormalizeImageURL(image)
	}
	return NormalizeImageURL(baseURL + image)
}

// NormalizeImageURL drops a stray images/ segment right after card-photos/
// left behind by old indexes and turns backslashes into slashes.
func NormalizeImageURL(u string) string {
	out := reSpuriousImages.ReplaceAllString(u, "$1")
	return reBackslashes.ReplaceAllString(out, "/")
}

// HTTPImageIndex reads the backend /images_index endpoint.
type HTTPImageIndex struct {
	Client *Client
}

func (h HTTPImageIndex) Images(ctx context.Context) ([]internal.ImageEntry, error) {
	entries, err := h.Client.ImagesIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("images index: %w: %v", ErrSourceUnavailable, err)
	}
	return entries, nil
}

// DirListingImageIndex scrapes an HTML directory listing (nginx/Apache
// autoindex style) for image links.
type DirListingImageIndex struct {
	URL        string
	HTTPClient *http.Client
}

func (d DirListingImageIndex) Images(ctx context.Context) ([]internal.ImageEntry, error) {
	files, err := d.Files(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]internal.ImageEntry, 0, len(files))
	for _, f := range files {
		base := util.StripExt(util.FileBase(f))
		if base == "" {
			continue
		}
		out = append(out, internal.ImageEntry{ID: base, Ref: base, ImageURL: f, Name: base})
	}
	return out, nil
}

// Files returns the absolute URLs of every image linked from the listing,
// in page order, without duplicates.
func (d DirListingImageIndex) Files(ctx context.Context) ([]string, error) {
	base, err := url.Parse(d.URL)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return nil, err
	}
	client := d.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dir listing %s: %w: %v", d.URL, ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("dir listing %s: status %d: %w", d.URL, resp.StatusCode, ErrSourceUnavailable)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	out := []string{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "?") || !reImageExt.MatchString(path.Base(href)) {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	})
	return out, nil
}

// FileMetadata reads a static JSON array of catalog records (valvulas.json).
type FileMetadata struct {
	Path string
}

func (f FileMetadata) Metadata(ctx context.Context) ([]internal.ValveRecord, error) {
	blob, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("metadata %s: %w", f.Path, ErrSourceUnavailable)
	}
	var records []internal.ValveRecord
	if err := json.Unmarshal(blob, &records); err != nil {
		return nil, fmt.Errorf("metadata %s: %w", f.Path, err)
	}
	return records, nil
}

// FileBankOverrides reads banks.json. Accepted shapes:
//
//	[{"id"|"ref": "...", "banco"|"bank": "A", "ubicacion": ...}]
//	{"152860": "A", ...}
//	{"152860": {"banco": "A", "ubicacion": ...}}
//	{"map": {...}} wrapping either object form
type FileBankOverrides struct {
	Path string
}

func (f FileBankOverrides) BankOverrides(ctx context.Context) (map[string]internal.BankOverride, error) {
	blob, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("bank overrides %s: %w", f.Path, ErrSourceUnavailable)
	}
	return ParseBankOverrides(blob)
}

func ParseBankOverrides(blob []byte) (map[string]internal.BankOverride, error) {
	var payload any
	if err := json.Unmarshal(blob, &payload); err != nil {
		return nil, fmt.Errorf("bank overrides: %w", err)
	}

	out := map[string]internal.BankOverride{}
	switch t := payload.(type) {
	case []any:
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			key := util.FirstNonEmpty(util.Deref(toStringPtr(m["ref"])), util.Deref(toStringPtr(m["id"])))
			if key == "" {
				continue
			}
			out[key] = overrideFromObject(m)
		}
	case map[string]any:
		obj := t
		if inner, ok := t["map"].(map[string]any); ok {
			obj = inner
		}
		for key, v := range obj {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			switch val := v.(type) {
			case map[string]any:
				out[key] = overrideFromObject(val)
			default:
				if s := toStringPtr(val); s != nil {
					out[key] = internal.BankOverride{Bank: strings.ToUpper(*s)}
				}
			}
		}
	default:
		return nil, fmt.Errorf("bank overrides: unexpected shape")
	}
	return out, nil
}

func overrideFromObject(m map[string]any) internal.BankOverride {
	return internal.BankOverride{
		Bank:     strings.ToUpper(util.Deref(firstStringPtr(m["banco"], m["bank"]))),
		Location: toLocations(m["ubicacion"]),
	}
}
