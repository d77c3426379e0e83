// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Browser    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	Heuristics HeuristicsConfig `mapstructure:"heuristics" yaml:"heuristics"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for attaching to or launching the browser the
// live-page adapter drives.
type BrowserConfig struct {
	// RemoteURL attaches to an already running browser's DevTools endpoint
	// (e.g. http://127.0.0.1:9222). Empty means launch a fresh instance.
	RemoteURL         string        `mapstructure:"remote_url" yaml:"remote_url"`
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	SnapshotTimeout   time.Duration `mapstructure:"snapshot_timeout" yaml:"snapshot_timeout"`
	// PickPollInterval is the cadence at which the CLI drains the pick mailbox.
	PickPollInterval time.Duration `mapstructure:"pick_poll_interval" yaml:"pick_poll_interval"`
}

// HeuristicsConfig collects every tuned constant of the inference engines.
// These are heuristic calibration, not protocol: pages built on conventions
// outside the defaults can widen the lists without a rebuild.
type HeuristicsConfig struct {
	// LoaderSelectors are checked in order by the readiness gate; the first
	// visibly rendered match short-circuits a scan with a loading status.
	LoaderSelectors []string `mapstructure:"loader_selectors" yaml:"loader_selectors"`

	// FormItemContainers maps a framework form-item wrapper class to the class
	// of its label child, tried in order by the label engine.
	FormItemContainers []FormItemRule `mapstructure:"form_item_containers" yaml:"form_item_containers"`

	// DialogContainers are modal wrapper selectors paired with the selector of
	// their title element, tried in order by the dialog context extractor.
	DialogContainers []DialogRule `mapstructure:"dialog_containers" yaml:"dialog_containers"`

	// AutocompletePanels are the floating option-list conventions harvested by
	// the scanner's second pass.
	AutocompletePanels []AutocompleteRule `mapstructure:"autocomplete_panels" yaml:"autocomplete_panels"`

	// InputWrapperClasses mark container elements whose children count as
	// input-like for hover highlighting.
	InputWrapperClasses []string `mapstructure:"input_wrapper_classes" yaml:"input_wrapper_classes"`

	// GridRowClasses and GridCellClasses recognize virtualized grid rows for
	// the grid-position selector strategy.
	GridRowClasses  []string `mapstructure:"grid_row_classes" yaml:"grid_row_classes"`
	GridCellClasses []string `mapstructure:"grid_cell_classes" yaml:"grid_cell_classes"`

	// Proximity tunes the visual-proximity label fallback.
	Proximity ProximityConfig `mapstructure:"proximity" yaml:"proximity"`

	// GenericPrompts are label texts demoted to the next fallback because they
	// are placeholder prompts, not field names.
	GenericPrompts []string `mapstructure:"generic_prompts" yaml:"generic_prompts"`

	// GeneratedClassPrefixes are class-token prefixes excluded from CSS path
	// generation because frameworks mint them per build.
	GeneratedClassPrefixes []string `mapstructure:"generated_class_prefixes" yaml:"generated_class_prefixes"`

	// MaxShadowDepth bounds shadow-root recursion. A latency cap, not a
	// correctness requirement: two levels cover observed real-world nesting.
	MaxShadowDepth int `mapstructure:"max_shadow_depth" yaml:"max_shadow_depth"`
}

// FormItemRule pairs a framework form-item container class with its label class.
type FormItemRule struct {
	Container string `mapstructure:"container" yaml:"container"`
	Label     string `mapstructure:"label" yaml:"label"`
}

// DialogRule pairs a modal container selector with its title selector. An empty
// Title means the dialog has no addressable title element and the extractor
// falls back to the rule's generic name.
type DialogRule struct {
	Container string `mapstructure:"container" yaml:"container"`
	Title     string `mapstructure:"title" yaml:"title"`
	Name      string `mapstructure:"name" yaml:"name"`
}

// AutocompleteRule pairs a floating panel selector with its option selector and
// the wrapper class its owning input sits in.
type AutocompleteRule struct {
	Panel        string `mapstructure:"panel" yaml:"panel"`
	Option       string `mapstructure:"option" yaml:"option"`
	InputWrapper string `mapstructure:"input_wrapper" yaml:"input_wrapper"`
}

// ProximityConfig holds the distance thresholds of the visual-proximity label
// fallback, in CSS pixels.
type ProximityConfig struct {
	LeftRadius    float64 `mapstructure:"left_radius" yaml:"left_radius"`
	AboveRadius   float64 `mapstructure:"above_radius" yaml:"above_radius"`
	RightRadius   float64 `mapstructure:"right_radius" yaml:"right_radius"`
	CrossGap      float64 `mapstructure:"cross_gap" yaml:"cross_gap"`
	MaxTextLength int     `mapstructure:"max_text_length" yaml:"max_text_length"`
	// ContainerClassFragments mark shared layout containers that earn a
	// same-section bonus during scoring.
	ContainerClassFragments []string `mapstructure:"container_class_fragments" yaml:"container_class_fragments"`
}

// Load reads configuration from viper into a Config, applying defaults first.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Heuristics.Normalize()
	return &cfg, nil
}

// NewDefaultConfig returns the configuration with every default applied and no
// file or environment input.
func NewDefaultConfig() *Config {
	v := viper.New()
	cfg, err := Load(v)
	if err != nil {
		// Defaults always unmarshal; a failure here is a programming error.
		panic(err)
	}
	return cfg
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// Logger
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "weaver")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// Browser
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.navigation_timeout", 45*time.Second)
	v.SetDefault("browser.snapshot_timeout", 15*time.Second)
	v.SetDefault("browser.pick_poll_interval", time.Second)

	// Heuristics
	v.SetDefault("heuristics.loader_selectors", DefaultLoaderSelectors())
	v.SetDefault("heuristics.input_wrapper_classes", DefaultInputWrapperClasses())
	v.SetDefault("heuristics.grid_row_classes", []string{"vxe-body--row", "el-table__row", "ant-table-row", "ivu-table-row"})
	v.SetDefault("heuristics.grid_cell_classes", []string{"vxe-body--column", "el-table__cell", "ant-table-cell", "ivu-table-cell"})
	v.SetDefault("heuristics.proximity.left_radius", 250.0)
	v.SetDefault("heuristics.proximity.above_radius", 60.0)
	v.SetDefault("heuristics.proximity.right_radius", 200.0)
	v.SetDefault("heuristics.proximity.cross_gap", 150.0)
	v.SetDefault("heuristics.proximity.max_text_length", 50)
	v.SetDefault("heuristics.proximity.container_class_fragments", []string{"section", "card", "panel", "form", "group", "fieldset"})
	v.SetDefault("heuristics.generic_prompts", []string{"请输入", "请选择", "输入", "选择", "Please enter", "Please select"})
	v.SetDefault("heuristics.generated_class_prefixes", []string{"ng-", "v-", "_", "css-", "sc-"})
	v.SetDefault("heuristics.max_shadow_depth", 2)
}

// DefaultLoaderSelectors is the ordered loading/skeleton convention list across
// the supported UI frameworks.
func DefaultLoaderSelectors() []string {
	return []string{
		".ant-spin-spinning", ".ant-spin-container.ant-spin-blur",
		".el-loading-mask", ".el-loading-spinner", ".v-loading",
		".ivu-spin", ".van-loading", ".weui-loading", ".layui-layer-loading",
		".modal-loading", `[class*="loading"]:not(input):not(button)`,
		`[class*="spinner"]:not(input)`, ".skeleton", ".placeholder",
	}
}

// DefaultInputWrapperClasses lists framework wrapper classes whose descendants
// are treated as input-like by the interaction surface.
func DefaultInputWrapperClasses() []string {
	return []string{
		"el-input", "el-select", "el-textarea", "el-date-editor",
		"ant-input-affix-wrapper", "ant-select-selector", "ant-picker",
		"ivu-input-wrapper", "ivu-select-selection",
		"van-field__body", "layui-input-block", "input-group",
	}
}

// DefaultFormItemRules is the ordered framework form-item convention list.
func DefaultFormItemRules() []FormItemRule {
	return []FormItemRule{
		{Container: "el-form-item", Label: "el-form-item__label"},
		{Container: "ant-form-item", Label: "ant-form-item-label"},
		{Container: "ivu-form-item", Label: "ivu-form-item-label"},
		{Container: "van-field", Label: "van-field__label"},
		{Container: "layui-form-item", Label: "layui-form-label"},
		{Container: "form-group", Label: "control-label"},
	}
}

// DefaultDialogRules is the ordered modal container convention list, framework
// wrappers first and generic .modal last.
func DefaultDialogRules() []DialogRule {
	return []DialogRule{
		{Container: ".el-dialog", Title: ".el-dialog__title", Name: "el-dialog"},
		{Container: ".ant-modal", Title: ".ant-modal-title", Name: "ant-modal"},
		{Container: ".ivu-modal", Title: ".ivu-modal-header", Name: "ivu-modal"},
		{Container: ".van-dialog", Title: ".van-dialog__header", Name: "van-dialog"},
		{Container: ".layui-layer", Title: ".layui-layer-title", Name: "layui-layer"},
		{Container: ".modal", Title: ".modal-title", Name: "modal"},
	}
}

// DefaultAutocompleteRules is the floating option-panel convention list.
func DefaultAutocompleteRules() []AutocompleteRule {
	return []AutocompleteRule{
		{Panel: ".el-autocomplete-suggestion", Option: "li", InputWrapper: "el-autocomplete"},
		{Panel: ".el-select-dropdown", Option: ".el-select-dropdown__item", InputWrapper: "el-select"},
		{Panel: ".ant-select-dropdown", Option: ".ant-select-item-option", InputWrapper: "ant-select"},
		{Panel: ".ivu-select-dropdown", Option: ".ivu-select-item", InputWrapper: "ivu-select"},
		{Panel: `[role="listbox"]`, Option: `[role="option"]`, InputWrapper: ""},
		{Panel: "datalist", Option: "option", InputWrapper: ""},
	}
}

// Normalize fills list-valued heuristics viper cannot default cleanly (slices
// of structs) and clamps nonsensical values.
func (h *HeuristicsConfig) Normalize() {
	if len(h.LoaderSelectors) == 0 {
		h.LoaderSelectors = DefaultLoaderSelectors()
	}
	if len(h.FormItemContainers) == 0 {
		h.FormItemContainers = DefaultFormItemRules()
	}
	if len(h.DialogContainers) == 0 {
		h.DialogContainers = DefaultDialogRules()
	}
	if len(h.AutocompletePanels) == 0 {
		h.AutocompletePanels = DefaultAutocompleteRules()
	}
	if len(h.InputWrapperClasses) == 0 {
		h.InputWrapperClasses = DefaultInputWrapperClasses()
	}
	if h.MaxShadowDepth < 0 {
		h.MaxShadowDepth = 0
	}
	if h.Proximity.MaxTextLength <= 0 {
		h.Proximity.MaxTextLength = 50
	}
}
