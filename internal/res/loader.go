package res

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/h2non/filetype"
)

// ResourceType represents the type of resource
type ResourceType int

const (
	ResourceTypeUnknown ResourceType = iota
	ResourceTypeImage
	ResourceTypeFont
	ResourceTypeOther
)

// Resource represents a loaded resource
type Resource struct {
	URL      string
	Type     ResourceType
	Data     []byte
	MimeType string
}

// Reader returns a reader over the resource data
func (r *Resource) Reader() *bytes.Reader {
	return bytes.NewReader(r.Data)
}

// Loader fetches images and fonts from local files, http(s) URLs and data URLs
type Loader struct {
	// Base URL or file path for resolving relative URLs
	BaseURL string

	cache     map[string]*Resource
	cacheLock sync.RWMutex

	searchPaths []string
	client      *http.Client
}

// NewLoader creates a new resource loader
func NewLoader(baseURL string) *Loader {
	return &Loader{
		BaseURL: baseURL,
		cache:   make(map[string]*Resource),
		client:  &http.Client{},
	}
}

// SetClient replaces the HTTP client used for remote resources
func (l *Loader) SetClient(c *http.Client) {
	if c != nil {
		l.client = c
	}
}

// AddSearchPath adds a directory to search for local resources
func (l *Loader) AddSearchPath(path string) {
	l.searchPaths = append(l.searchPaths, path)
}

// Load loads a resource without cancellation
func (l *Loader) Load(urlStr string) (*Resource, error) {
	return l.LoadContext(context.Background(), urlStr)
}

// LoadContext loads a resource from a URL or file path. Results are cached by
// the original reference.
func (l *Loader) LoadContext(ctx context.Context, urlStr string) (*Resource, error) {
	urlStr = strings.TrimSpace(urlStr)
	if urlStr == "" {
		return nil, errors.New("empty resource reference")
	}

	l.cacheLock.RLock()
	if res, ok := l.cache[urlStr]; ok {
		l.cacheLock.RUnlock()
		return res, nil
	}
	l.cacheLock.RUnlock()

	var (
		res *Resource
		err error
	)
	if strings.HasPrefix(urlStr, "data:") {
		res, err = parseDataURL(urlStr)
	} else {
		var resolved string
		if resolved, err = l.resolveURL(urlStr); err == nil {
			if isRemote(resolved) {
				res, err = l.loadRemote(ctx, resolved)
			} else {
				res, err = l.loadLocal(resolved)
			}
		}
	}
	if err != nil {
		return nil, err
	}

	l.cacheLock.Lock()
	l.cache[urlStr] = res
	l.cacheLock.Unlock()
	return res, nil
}

// LoadImage loads a resource and checks it is an image
func (l *Loader) LoadImage(ctx context.Context, urlStr string) (*Resource, error) {
	res, err := l.LoadContext(ctx, urlStr)
	if err != nil {
		return nil, err
	}
	if res.Type != ResourceTypeImage {
		return nil, fmt.Errorf("resource is not an image: %s", urlStr)
	}
	return res, nil
}

// LoadFont loads a resource and checks it is a font
func (l *Loader) LoadFont(ctx context.Context, urlStr string) (*Resource, error) {
	res, err := l.LoadContext(ctx, urlStr)
	if err != nil {
		return nil, err
	}
	if res.Type != ResourceTypeFont {
		return nil, fmt.Errorf("resource is not a font: %s", urlStr)
	}
	return res, nil
}

func isRemote(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// parseDataURL parses a data URL (RFC 2397):
//
//	data:image/png;base64,<base64>
//	data:image/svg+xml,%3Csvg...
func parseDataURL(u string) (*Resource, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(u, "data:"), ",")
	if !ok {
		return nil, errors.New("invalid data URL")
	}

	mime := ""
	isBase64 := false
	for i, c := range strings.Split(meta, ";") {
		c = strings.TrimSpace(c)
		switch {
		case i == 0:
			mime = strings.ToLower(c)
		case strings.EqualFold(c, "base64"):
			isBase64 = true
		}
	}

	var data []byte
	if isBase64 {
		d, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data URL: %w", err)
		}
		data = d
	} else if d, err := url.PathUnescape(payload); err == nil {
		data = []byte(d)
	} else {
		data = []byte(payload)
	}
	return newResource(shortRef(u), data, mime), nil
}

func shortRef(u string) string {
	if len(u) > 48 {
		return u[:48] + "..."
	}
	return u
}

// resolveURL resolves a reference relative to the base URL or directory
func (l *Loader) resolveURL(urlStr string) (string, error) {
	if isRemote(urlStr) || filepath.IsAbs(urlStr) {
		return urlStr, nil
	}
	if strings.HasPrefix(urlStr, "file://") {
		return strings.TrimPrefix(urlStr, "file://"), nil
	}

	if !isRemote(l.BaseURL) {
		base := l.BaseURL
		if fi, err := os.Stat(base); err != nil || !fi.IsDir() {
			base = filepath.Dir(base)
		}
		return filepath.Join(base, urlStr), nil
	}

	baseURL, err := url.Parse(l.BaseURL)
	if err != nil {
		return "", err
	}
	relURL, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(relURL).String(), nil
}

func (l *Loader) loadRemote(ctx context.Context, urlStr string) (*Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unable to fetch %s: %s", urlStr, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", urlStr, err)
	}
	mime, _, _ := strings.Cut(resp.Header.Get("Content-Type"), ";")
	return newResource(urlStr, data, strings.TrimSpace(mime)), nil
}

func (l *Loader) loadLocal(path string) (*Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return l.loadFromSearchPaths(path)
		}
		return nil, err
	}
	return newResource(path, data, ""), nil
}

func (l *Loader) loadFromSearchPaths(filename string) (*Resource, error) {
	base := filepath.Base(filename)
	for _, dir := range l.searchPaths {
		path := filepath.Join(dir, base)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return newResource(path, data, ""), nil
	}
	return nil, fmt.Errorf("resource not found: %s", filename)
}

// newResource sniffs the content when the declared MIME type is missing or
// generic
func newResource(ref string, data []byte, mime string) *Resource {
	if mime == "" || mime == "application/octet-stream" || mime == "text/plain" {
		mime = sniffMimeType(ref, data)
	}
	return &Resource{URL: ref, Data: data, MimeType: mime, Type: resourceType(mime)}
}

func sniffMimeType(ref string, data []byte) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if looksLikeSVG(data) {
		return "image/svg+xml"
	}
	return mimeFromExt(ref)
}

func looksLikeSVG(data []byte) bool {
	head := bytes.ToLower(data[:min(len(data), 1024)])
	return bytes.Contains(head, []byte("<svg"))
}

func mimeFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".bmp":
		return "image/bmp"
	case ".svg":
		return "image/svg+xml"
	case ".ttf":
		return "font/ttf"
	case ".otf":
		return "font/otf"
	case ".woff":
		return "font/woff"
	case ".woff2":
		return "font/woff2"
	default:
		return "application/octet-stream"
	}
}

func resourceType(mime string) ResourceType {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return ResourceTypeImage
	case strings.HasPrefix(mime, "font/"), strings.HasPrefix(mime, "application/font"),
		mime == "application/x-font-ttf", mime == "application/vnd.ms-opentype":
		return ResourceTypeFont
	case mime == "":
		return ResourceTypeUnknown
	}
	return ResourceTypeOther
}
