package di

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type dbConfig struct {
	uri string
}

func (c dbConfig) Configure(p *Partial) error { return nil }
func (c dbConfig) ProvideURI() string         { return c.uri }

func TestInstallModulesRegistersProvideMethods(t *testing.T) {
	p := New()
	require.NoError(t, InstallModules(p, dbConfig{uri: "mongodb://localhost"}))
	c := MustSeal(p)
	inj := MustNewInjector(c)
	require.Equal(t, "mongodb://localhost", Get[string](inj))
}

type pluginModule struct{ name string }

func (m pluginModule) Configure(p *Partial) error { return nil }
func (m pluginModule) ProvideMultiName() string   { return m.name }

type pluginModuleA struct{ pluginModule }
type pluginModuleB struct{ pluginModule }

func (m pluginModuleA) Configure(p *Partial) error { return nil }
func (m pluginModuleA) ProvideMultiName() string   { return m.name }
func (m pluginModuleB) Configure(p *Partial) error { return nil }
func (m pluginModuleB) ProvideMultiName() string   { return m.name }

func TestInstallModulesMultiPrefixRegistersMultibinding(t *testing.T) {
	p := New()
	require.NoError(t, InstallModules(p,
		pluginModuleA{pluginModule{name: "alpha"}},
		pluginModuleB{pluginModule{name: "beta"}},
	))
	c := MustSeal(p)
	inj := MustNewInjector(c)
	names := GetMultibindings[string](inj)
	require.ElementsMatch(t, []string{"alpha", "beta"}, names)
}

func TestInstallModulesSameTypeUnequalNonZeroDuplicateFails(t *testing.T) {
	p := New()
	require.NoError(t, InstallModules(p, pluginModule{name: "alpha"}))
	err := InstallModules(p, pluginModule{name: "beta"})
	require.Error(t, err)
}

func TestInstallModulesMergesZeroValueDuplicate(t *testing.T) {
	p := New()
	require.NoError(t, InstallModules(p, dbConfig{uri: "mongodb://primary"}))
	require.NoError(t, InstallModules(p, dbConfig{}))
	c := MustSeal(p)
	inj := MustNewInjector(c)
	require.Equal(t, "mongodb://primary", Get[string](inj))
}

func TestInstallModulesRejectsUnequalNonZeroDuplicate(t *testing.T) {
	p := New()
	require.NoError(t, InstallModules(p, dbConfig{uri: "mongodb://primary"}))
	err := InstallModules(p, dbConfig{uri: "mongodb://secondary"})
	require.Error(t, err)
	var cfg *ConfigError
	require.ErrorAs(t, err, &cfg)
	require.Equal(t, DuplicateBinding, cfg.Kind)
}

func TestInstallModulesRejectsNonStruct(t *testing.T) {
	p := New()
	err := InstallModules(p, 42)
	require.Error(t, err)
}

func TestMustInstallModulesPanicsOnError(t *testing.T) {
	p := New()
	require.NoError(t, InstallModules(p, dbConfig{uri: "mongodb://primary"}))
	require.Panics(t, func() {
		MustInstallModules(p, dbConfig{uri: "mongodb://other"})
	})
}
