package weather

import (
	"context"
	"errors"
	"sync"
)

type fakeProvider struct {
	mu sync.Mutex

	weather    []WeatherRow
	weatherErr error
	settings   []SettingsRow
	settingErr error

	weatherCalls  int
	settingsCalls int
}

func (p *fakeProvider) QueryWeather(context.Context) ([]WeatherRow, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.weatherCalls++
	return p.weather, p.weatherErr
}

func (p *fakeProvider) QuerySettings(context.Context) ([]SettingsRow, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settingsCalls++
	return p.settings, p.settingErr
}

type fakePackages struct {
	states map[string]EnabledState
}

func (p fakePackages) EnabledState(_ context.Context, name string) (EnabledState, error) {
	state, ok := p.states[name]
	if !ok {
		return StateDefault, ErrPackageNotFound
	}
	return state, nil
}

func installed() fakePackages {
	return fakePackages{states: map[string]EnabledState{ServicePackage: StateEnabled}}
}

type fakeIcons struct {
	packs map[string][]string
	opens int
}

func (f *fakeIcons) Open(pkg string) (IconBundle, error) {
	f.opens++
	names, ok := f.packs[pkg]
	if !ok {
		return nil, errors.New("package not installed")
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return fakeBundle{pkg: pkg, names: set}, nil
}

type fakeBundle struct {
	pkg   string
	names map[string]bool
}

func (b fakeBundle) Image(name string) (Image, error) {
	if !b.names[name] {
		return Image{}, errors.New("resource not found")
	}
	return Image{Package: b.pkg, Name: name, ContentType: "image/png", Data: []byte(name)}, nil
}

type fakeCache struct {
	mu       sync.Mutex
	snapshot *Snapshot
}

func (c *fakeCache) Store(s *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = s
}

func (c *fakeCache) Load() (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		return nil, errors.New("empty")
	}
	return c.snapshot, nil
}

func (c *fakeCache) Clear() {
	c.Store(nil)
}

type fakeRecorder struct {
	queries   []string
	fallbacks []string
}

func (r *fakeRecorder) QueryCompleted(result string) { r.queries = append(r.queries, result) }
func (r *fakeRecorder) IconFallback(kind string)     { r.fallbacks = append(r.fallbacks, kind) }
