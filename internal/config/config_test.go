// File: internal/config/config_test.go
package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/18999029117-create/weaver/internal/config"
)

func TestNewDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := config.NewDefaultConfig()

	// Logger defaults.
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "weaver", cfg.Logger.ServiceName)

	// Browser defaults.
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 45*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, time.Second, cfg.Browser.PickPollInterval)

	// Heuristic lists must all be populated.
	assert.NotEmpty(t, cfg.Heuristics.LoaderSelectors)
	assert.NotEmpty(t, cfg.Heuristics.FormItemContainers)
	assert.NotEmpty(t, cfg.Heuristics.DialogContainers)
	assert.NotEmpty(t, cfg.Heuristics.AutocompletePanels)
	assert.NotEmpty(t, cfg.Heuristics.InputWrapperClasses)
	assert.NotEmpty(t, cfg.Heuristics.GenericPrompts)
	assert.Equal(t, 2, cfg.Heuristics.MaxShadowDepth)
}

func TestLoadAppliesOverrides(t *testing.T) {
	t.Parallel()
	v := viper.New()
	v.Set("logger.level", "debug")
	v.Set("browser.remote_url", "http://127.0.0.1:9222")
	v.Set("browser.headless", false)
	v.Set("heuristics.max_shadow_depth", 3)
	v.Set("heuristics.loader_selectors", []string{".custom-loader"})

	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "http://127.0.0.1:9222", cfg.Browser.RemoteURL)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 3, cfg.Heuristics.MaxShadowDepth)
	assert.Equal(t, []string{".custom-loader"}, cfg.Heuristics.LoaderSelectors)

	// Struct-slice rules are not viper-defaultable; Load must fill them.
	assert.NotEmpty(t, cfg.Heuristics.FormItemContainers)
	assert.NotEmpty(t, cfg.Heuristics.DialogContainers)
}

func TestNormalizeClampsAndFills(t *testing.T) {
	t.Parallel()
	h := config.HeuristicsConfig{MaxShadowDepth: -1}
	h.Normalize()

	assert.Equal(t, 0, h.MaxShadowDepth)
	assert.Equal(t, 50, h.Proximity.MaxTextLength)
	assert.NotEmpty(t, h.LoaderSelectors)
	assert.NotEmpty(t, h.AutocompletePanels)
}

func TestDefaultRuleShapes(t *testing.T) {
	t.Parallel()
	for _, rule := range config.DefaultFormItemRules() {
		assert.NotEmpty(t, rule.Container)
		assert.NotEmpty(t, rule.Label)
	}
	for _, rule := range config.DefaultDialogRules() {
		assert.NotEmpty(t, rule.Container)
		assert.NotEmpty(t, rule.Name)
	}
	for _, rule := range config.DefaultAutocompleteRules() {
		assert.NotEmpty(t, rule.Panel)
		assert.NotEmpty(t, rule.Option)
	}
	assert.Contains(t, config.NewDefaultConfig().Heuristics.GenericPrompts, "请输入")
}
