package shared

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv      string
	TCPAddr     string
	HTTPAddr    string
	MetricsAddr string

	HotelsFile string
	UsersFile  string
	MySQLDSN   string // when set, the user register lives in MySQL

	RedisAddr string // when set, ranking digests are published to Redis
	RedisPass string
	RedisDB   int

	MulticastAddr string

	MaxConns      int
	SavePeriod    time.Duration
	RankingPeriod time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	return Config{
		AppEnv:        env("APP_ENV", "prod"),
		TCPAddr:       env("TCP_ADDR", ":9999"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ""),
		HotelsFile:    env("HOTELS_FILE", "hotels.json"),
		UsersFile:     env("USERS_FILE", "users.json"),
		MySQLDSN:      env("MYSQL_DSN", ""),
		RedisAddr:     env("REDIS_ADDR", ""),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		MulticastAddr: env("MULTICAST_ADDR", "224.0.0.1:6789"),
		MaxConns:      atoi("MAX_CONNS", 10),
		SavePeriod:    time.Duration(atoi("SAVE_PERIOD_SECONDS", 30)) * time.Second,
		RankingPeriod: time.Duration(atoi("RANKING_PERIOD_SECONDS", 10)) * time.Second,
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
