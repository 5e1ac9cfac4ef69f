package weather

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitIconPack(t *testing.T) {
	tests := []struct {
		id         string
		wantPkg    string
		wantPrefix string
		wantErr    bool
	}{
		{id: "org.omnirom.omnijaws.google_new_light", wantPkg: "org.omnirom.omnijaws", wantPrefix: "google_new_light"},
		{id: "a.b", wantPkg: "a", wantPrefix: "b"},
		{id: "noseparator", wantErr: true},
		{id: ".leading", wantErr: true},
		{id: "trailing.", wantErr: true},
		{id: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			pkg, prefix, err := SplitIconPack(tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIconResolution)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPkg, pkg)
			assert.Equal(t, tt.wantPrefix, prefix)
		})
	}
}

func newTestIconPack(src *fakeIcons) *iconPack {
	return newIconPack(src, DefaultIconPackage, DefaultIconPrefix, zerolog.Nop())
}

func TestIconPackUpdateSameIDDoesNotReload(t *testing.T) {
	src := &fakeIcons{packs: map[string][]string{"com.example.icons": {"mono_32"}}}
	p := newTestIconPack(src)

	p.update("com.example.icons.mono")
	p.update("com.example.icons.mono")

	assert.Equal(t, 1, src.opens)
	state, pkg, prefix := p.status()
	assert.Equal(t, IconPackCustom, state)
	assert.Equal(t, "com.example.icons", pkg)
	assert.Equal(t, "mono", prefix)
}

func TestIconPackSwitchesBetweenPacks(t *testing.T) {
	src := &fakeIcons{packs: map[string][]string{
		DefaultIconPackage:  {"google_new_light_na"},
		"com.example.icons": {"mono_32"},
	}}
	p := newTestIconPack(src)

	p.update("com.example.icons.mono")
	p.update("")

	state, pkg, prefix := p.status()
	assert.Equal(t, IconPackDefault, state)
	assert.Equal(t, DefaultIconPackage, pkg)
	assert.Equal(t, DefaultIconPrefix, prefix)

	p.update("com.example.icons.mono")
	state, _, _ = p.status()
	assert.Equal(t, IconPackCustom, state)
}

func TestIconPackMissingDefaultIsUnresolved(t *testing.T) {
	p := newTestIconPack(&fakeIcons{packs: map[string][]string{}})

	p.update("com.missing.mono")

	state, pkg, _ := p.status()
	assert.Equal(t, IconPackUnresolved, state)
	assert.Equal(t, DefaultIconPackage, pkg)
	bundle, _, _ := p.active()
	assert.Nil(t, bundle)
}

func TestIconPackNilSource(t *testing.T) {
	p := newIconPack(nil, DefaultIconPackage, DefaultIconPrefix, zerolog.Nop())
	p.update("")

	state, _, _ := p.status()
	assert.Equal(t, IconPackUnresolved, state)
}
