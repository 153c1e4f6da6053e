package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Badge    BadgeConfig    `mapstructure:"badge"`
	Radio    RadioConfig    `mapstructure:"radio"`
	GameLog  GameLogConfig  `mapstructure:"gamelog"`
	Hub      HubConfig      `mapstructure:"hub"`
	Recorder RecorderConfig `mapstructure:"recorder"`
}

// BadgeConfig 徽章本体的游戏参数
type BadgeConfig struct {
	Addr           string `mapstructure:"addr"`
	DebounceMs     int    `mapstructure:"debounce_ms"`
	ActiveTimeMs   int    `mapstructure:"active_time_ms"`
	GuessTimeoutMs int    `mapstructure:"guess_timeout_ms"`
	MaxRounds      int    `mapstructure:"max_rounds"`
	FlashUnitMs    int    `mapstructure:"flash_unit_ms"`
	MetricsAddress string `mapstructure:"metrics_address"`
	Debug          bool   `mapstructure:"debug"`
}

type RadioConfig struct {
	HubURL string `mapstructure:"hub_url"`
}

type GameLogConfig struct {
	Path          string `mapstructure:"path"`
	Endpoint      string `mapstructure:"endpoint"`
	FlushPeriodMs int    `mapstructure:"flush_period_ms"`
}

type HubConfig struct {
	Address string `mapstructure:"address"`
}

type RecorderConfig struct {
	Address    string         `mapstructure:"address"`
	RPCAddress string         `mapstructure:"rpc_address"`
	Driver     string         `mapstructure:"driver"` // "gorm" or "pq"
	Postgres   PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	setDefaults()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}

// setDefaults: 10 ms debounce and active-time windows, a 5 s inter-press
// guess window, a 4-round game cap.
func setDefaults() {
	viper.SetDefault("badge.debounce_ms", 10)
	viper.SetDefault("badge.active_time_ms", 10)
	viper.SetDefault("badge.guess_timeout_ms", 5000)
	viper.SetDefault("badge.max_rounds", 4)
	viper.SetDefault("badge.flash_unit_ms", 100)
	viper.SetDefault("gamelog.path", "gamelog.db")
	viper.SetDefault("gamelog.flush_period_ms", 60000)
	viper.SetDefault("radio.hub_url", "ws://localhost:8686/air")
	viper.SetDefault("hub.address", ":8686")
	viper.SetDefault("recorder.address", ":8787")
	viper.SetDefault("recorder.rpc_address", ":8788")
	viper.SetDefault("recorder.driver", "gorm")
}
