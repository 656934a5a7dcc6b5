package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string
	}
	Game struct {
		MaxPlayers   int
		SmallBlind   int64
		BigBlind     int64
		InitialChips int64
	}
	AI struct {
		URL        string
		Timeout    time.Duration
		ThinkDelay time.Duration
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Lobby struct {
		TTL time.Duration
	}
	Log struct {
		Level string
	}
}

var C Config

func defaults(v *viper.Viper) {
	v.SetDefault("server.port", ":3001")

	v.SetDefault("game.maxPlayers", 10)
	v.SetDefault("game.smallBlind", 10)
	v.SetDefault("game.bigBlind", 20)
	v.SetDefault("game.initialChips", 1000)

	// 为空时使用内置策略
	v.SetDefault("ai.url", "")
	v.SetDefault("ai.timeout", 5*time.Second)
	v.SetDefault("ai.thinkDelay", time.Second)

	// 为空时大厅目录使用内存实现
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("lobby.ttl", 10*time.Minute)
	v.SetDefault("log.level", "info")
}

// Load 读取默认值 -> 配置文件（可选）-> HOLDEM_* 环境变量，结果写入 C
func Load(path string) error {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix("HOLDEM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return err
	}
	C = c
	return nil
}
