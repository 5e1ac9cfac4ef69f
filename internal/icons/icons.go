package icons

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sync"

	"github.com/i474232898/weather-widget/internal/weather"
)

// ErrNotFound is returned for unknown packages and resources.
var ErrNotFound = errors.New("icon not found")

var extensions = []struct {
	ext         string
	contentType string
}{
	{".png", "image/png"},
	{".svg", "image/svg+xml"},
	{".webp", "image/webp"},
}

// Packs serves icon packs from a file system: one directory per package,
// one file per drawable, looked up by base name.
type Packs struct {
	fsys fs.FS

	mu      sync.Mutex
	bundles map[string]*Bundle
}

// NewPacks creates Packs over fsys.
func NewPacks(fsys fs.FS) *Packs {
	return &Packs{fsys: fsys, bundles: make(map[string]*Bundle)}
}

// Open returns the bundle of packageName.
func (p *Packs) Open(packageName string) (weather.IconBundle, error) {
	if !fs.ValidPath(packageName) || packageName == "." {
		return nil, fmt.Errorf("%w: invalid package %q", ErrNotFound, packageName)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if b, ok := p.bundles[packageName]; ok {
		return b, nil
	}

	info, err := fs.Stat(p.fsys, packageName)
	if err != nil {
		return nil, fmt.Errorf("%w: package %s: %v", ErrNotFound, packageName, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: package %s is not a directory", ErrNotFound, packageName)
	}

	b := &Bundle{fsys: p.fsys, pkg: packageName}
	p.bundles[packageName] = b
	return b, nil
}

// Bundle is one icon package.
type Bundle struct {
	fsys fs.FS
	pkg  string
}

// Image loads the drawable called name.
func (b *Bundle) Image(name string) (weather.Image, error) {
	if name == "" || !fs.ValidPath(name) || path.Base(name) != name {
		return weather.Image{}, fmt.Errorf("%w: invalid name %q", ErrNotFound, name)
	}
	for _, e := range extensions {
		data, err := fs.ReadFile(b.fsys, path.Join(b.pkg, name+e.ext))
		if err != nil {
			continue
		}
		return weather.Image{
			Package:     b.pkg,
			Name:        name,
			ContentType: e.contentType,
			Data:        data,
		}, nil
	}
	return weather.Image{}, fmt.Errorf("%w: %s/%s", ErrNotFound, b.pkg, name)
}
