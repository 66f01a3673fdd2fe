// 包 utils：外部存储连接（Postgres、Redis）与自签证书
package utils

import (
	"database/sql"
	"net"
	"net/url"
	"os"
	"strconv"

	_ "github.com/lib/pq"
)

// BuildPostgresDSNFromEnv：PG_* 变量拼接 DSN，缺省连接本机 passport 库；口令按 URL 规则转义
func BuildPostgresDSNFromEnv() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(env("PG_HOST", "localhost"), env("PG_PORT", "5432")),
		Path:   "/" + env("PG_DB", "passport"),
	}
	user := env("PG_USER", "postgres")
	if pass := os.Getenv("PG_PASSWORD"); pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}
	u.RawQuery = url.Values{"sslmode": {env("PG_SSLMODE", "disable")}}.Encode()
	return u.String()
}

// OpenPostgresFromEnv：数据集只在启动与重载时整表读取，连接池保持较小
func OpenPostgresFromEnv() (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSNFromEnv())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(envInt("PG_MAX_OPEN_CONNS", 4))
	db.SetMaxIdleConns(envInt("PG_MAX_IDLE_CONNS", 2))
	return db, nil
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
