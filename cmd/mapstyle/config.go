// Config file loading for the mapstyle CLI.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/joeblew999/plat-style/internal/mapstyle"
)

const (
	configFileName = "mapstyle"
	configFileType = "yaml"

	cfgKeyAccessToken  = "mapbox_api_access_token"
	cfgKeyAPIURL       = "mapbox_api_url"
	cfgKeyDefaultStyle = "default_style"
	cfgKeyStyles       = "styles"
)

// fileConfig is the content of mapstyle.yaml. Values set on the command
// line win over the file.
type fileConfig struct {
	MapboxAPIAccessToken string
	MapboxAPIURL         string
	DefaultStyle         string
	Styles               []mapstyle.StyleDefinition
}

type styleEntry struct {
	ID          string `mapstructure:"id"`
	Label       string `mapstructure:"label"`
	URL         string `mapstructure:"url"`
	Icon        string `mapstructure:"icon"`
	AccessToken string `mapstructure:"access_token"`
}

// loadConfig reads mapstyle.yaml from path, or from dataDir when path is
// empty. A missing file is not an error. MAPSTYLE_* env vars override the
// file.
func loadConfig(path, dataDir string) (fileConfig, error) {
	v := viper.New()
	v.SetDefault(cfgKeyAPIURL, mapstyle.DefaultMapboxAPIURL)
	v.SetEnvPrefix("MAPSTYLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(dataDir)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fileConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	var entries []styleEntry
	if err := v.UnmarshalKey(cfgKeyStyles, &entries); err != nil {
		return fileConfig{}, fmt.Errorf("decode %s: %w", cfgKeyStyles, err)
	}

	cfg := fileConfig{
		MapboxAPIAccessToken: v.GetString(cfgKeyAccessToken),
		MapboxAPIURL:         v.GetString(cfgKeyAPIURL),
		DefaultStyle:         v.GetString(cfgKeyDefaultStyle),
	}
	for _, e := range entries {
		if e.ID == "" || e.URL == "" {
			return fileConfig{}, fmt.Errorf("style entry needs id and url: %+v", e)
		}
		cfg.Styles = append(cfg.Styles, mapstyle.StyleDefinition{
			ID:          e.ID,
			Label:       e.Label,
			URL:         e.URL,
			Icon:        e.Icon,
			AccessToken: e.AccessToken,
		})
	}
	return cfg, nil
}
