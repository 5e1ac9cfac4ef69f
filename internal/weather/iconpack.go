package weather

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ErrIconResolution is returned when an icon package or resource cannot be resolved.
var ErrIconResolution = errors.New("icon resolution failed")

// IconPackState is the resolution state of the active icon pack.
type IconPackState int

const (
	IconPackUnresolved IconPackState = iota
	IconPackDefault
	IconPackCustom
)

func (s IconPackState) String() string {
	switch s {
	case IconPackDefault:
		return "default"
	case IconPackCustom:
		return "custom"
	default:
		return "unresolved"
	}
}

// placeholderSVG is a solid red square used when nothing else resolves.
var placeholderSVG = []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"><rect width="1" height="1" fill="#FF0000"/></svg>`)

// Placeholder returns the always-available fallback image.
func Placeholder() Image {
	return Image{
		Name:        "placeholder",
		ContentType: "image/svg+xml",
		Data:        placeholderSVG,
		Placeholder: true,
	}
}

// SplitIconPack splits an icon-pack identifier at its last '.' into package
// name and icon prefix.
func SplitIconPack(id string) (pkg, prefix string, err error) {
	idx := strings.LastIndex(id, ".")
	if idx <= 0 || idx == len(id)-1 {
		return "", "", fmt.Errorf("%w: malformed icon pack %q", ErrIconResolution, id)
	}
	return id[:idx], id[idx+1:], nil
}

// iconPack tracks the selected package, prefix and opened bundle.
type iconPack struct {
	mu sync.RWMutex

	source        IconSource
	log           zerolog.Logger
	defaultPkg    string
	defaultPrefix string

	state     IconPackState
	pkg       string
	prefix    string
	settingID string
	bundle    IconBundle
}

func newIconPack(source IconSource, defaultPkg, defaultPrefix string, log zerolog.Logger) *iconPack {
	return &iconPack{
		source:        source,
		log:           log,
		defaultPkg:    defaultPkg,
		defaultPrefix: defaultPrefix,
	}
}

// update applies the icon-pack identifier of the latest snapshot.
func (p *iconPack) update(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id == "" {
		p.loadDefault()
		return
	}
	if p.settingID == "" || id != p.settingID {
		p.settingID = id
		p.loadCustom()
	}
}

func (p *iconPack) loadDefault() {
	p.pkg = p.defaultPkg
	p.prefix = p.defaultPrefix
	p.settingID = p.pkg + "." + p.prefix
	p.state = IconPackDefault

	bundle, err := p.open(p.pkg)
	if err != nil {
		p.log.Warn().Err(err).Str("package", p.pkg).Msg("no default icon package found")
		p.bundle = nil
		p.state = IconPackUnresolved
		return
	}
	p.bundle = bundle
}

func (p *iconPack) loadCustom() {
	p.log.Debug().Str("iconPack", p.settingID).Msg("loading custom icon pack")

	pkg, prefix, err := SplitIconPack(p.settingID)
	if err == nil {
		var bundle IconBundle
		bundle, err = p.open(pkg)
		if err == nil {
			p.pkg = pkg
			p.prefix = prefix
			p.bundle = bundle
			p.state = IconPackCustom
			return
		}
	}
	p.log.Warn().Err(err).Str("iconPack", p.settingID).Msg("icon pack loading failed, loading default")
	p.loadDefault()
}

func (p *iconPack) open(pkg string) (IconBundle, error) {
	if p.source == nil {
		return nil, fmt.Errorf("%w: no icon source", ErrIconResolution)
	}
	bundle, err := p.source.Open(pkg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIconResolution, pkg, err)
	}
	if bundle == nil {
		return nil, fmt.Errorf("%w: %s: empty bundle", ErrIconResolution, pkg)
	}
	return bundle, nil
}

// active returns the current bundle and prefix; bundle may be nil.
func (p *iconPack) active() (IconBundle, string, string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bundle, p.pkg, p.prefix
}

func (p *iconPack) status() (IconPackState, string, string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state, p.pkg, p.prefix
}
