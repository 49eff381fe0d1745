package cmd

import (
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/etnz/krakenacb"
	"github.com/spf13/viper"
)

// Config holds the defaults every subcommand flag falls back to. Values come
// from an optional kat.yaml (working directory or ~/.config/kat) or from
// KAT_* environment variables; command line flags always win.
type Config struct {
	LedgerFile string `mapstructure:"ledger_file"`
	FallbackFX string `mapstructure:"fallback_fx"`
	Year       int    `mapstructure:"year"`
}

// config loads the configuration once, the first time a subcommand declares
// its flags.
var config = sync.OnceValue(loadConfig)

func loadConfig() Config {
	viper.SetConfigName("kat")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/kat")

	viper.SetEnvPrefix("kat")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("ledger_file", "ledgers.csv")
	viper.SetDefault("fallback_fx", "1.3978")
	viper.SetDefault("year", int(krakenacb.PreviousTaxYear()))

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Printf("warning: ignoring unreadable config file: %v", err)
		}
	}

	c := Config{}
	if err := viper.Unmarshal(&c); err != nil {
		log.Printf("warning: ignoring malformed config: %v", err)
		return Config{
			LedgerFile: "ledgers.csv",
			FallbackFX: "1.3978",
			Year:       int(krakenacb.PreviousTaxYear()),
		}
	}
	return c
}
