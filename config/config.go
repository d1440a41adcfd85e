package config

import (
	"bytes"
	_ "embed" // for default config
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"path"
	"strings"
)

//go:embed config.default.yml
var defaultConfig []byte

// Config for the catalog reconciliation tools
type Config struct {
	MySQL   MySQLConfig   `mapstructure:"mysql"`
	Log     LogConfig     `mapstructure:"log"`
	Jaeger  JaegerConfig  `mapstructure:"jaeger"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Scraper ScraperConfig `mapstructure:"scraper"`

	// BrandKeywords maps a brand name to the keywords given to it when it is auto-discovered
	BrandKeywords map[string][]string `mapstructure:"brand_keywords"`
}

// JaegerConfig ...
type JaegerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// MetricsConfig ...
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

// ScraperConfig ...
type ScraperConfig struct {
	Banks             []string `mapstructure:"banks"`
	SourceDir         string   `mapstructure:"source_dir"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second"`
	Parallelism       int      `mapstructure:"parallelism"`
}

const envPrefix = "CATALOG"

func loadConfig(dir string, name string) Config {
	_ = godotenv.Load(path.Join(dir, ".env"))

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaultConfig)); err != nil {
		panic(err)
	}

	v.SetConfigName(name)
	v.AddConfigPath(dir)
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		panic(err)
	}
	return conf
}

// Load reads config.yml from the working directory over the defaults
func Load() Config {
	return loadConfig(".", "config")
}

// LoadTestConfig reads config.test.yml from rootDir over the defaults
func LoadTestConfig(rootDir string) Config {
	return loadConfig(rootDir, "config.test")
}
