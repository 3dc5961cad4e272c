package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"schoolbus/internal/utils"

	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr string
	GinMode string

	DBDriver      string
	DatabaseURL   string
	DBAutoMigrate bool

	Timezone string
	Location *time.Location

	JWTSecret string
	JWTTTL    time.Duration

	CORSAllowedOrigins []string

	NATSURL           string
	NATSSubjectPrefix string

	MetricsEnabled bool

	RouteCacheSize int
	RouteCacheTTL  time.Duration
}

// LoadEnv reads .env (when present) and the process environment.
func LoadEnv() (Env, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	env := Env{
		AppAddr:           getenvDefault("APP_ADDR", ":8080"),
		GinMode:           strings.TrimSpace(os.Getenv("GIN_MODE")),
		DBDriver:          strings.ToLower(getenvDefault("DB_DRIVER", "mysql")),
		DBAutoMigrate:     parseBool(os.Getenv("DB_AUTO_MIGRATE")),
		Timezone:          getenvDefault("APP_TIMEZONE", "Asia/Jakarta"),
		JWTSecret:         strings.TrimSpace(os.Getenv("JWT_SECRET")),
		NATSURL:           strings.TrimSpace(os.Getenv("NATS_URL")),
		NATSSubjectPrefix: getenvDefault("NATS_SUBJECT_PREFIX", "schoolbus"),
		MetricsEnabled:    parseBool(getenvDefault("METRICS_ENABLED", "true")),
	}

	if env.DBDriver != "mysql" && env.DBDriver != "pgx" {
		return env, fmt.Errorf("invalid DB_DRIVER: %q (want mysql or pgx)", env.DBDriver)
	}

	env.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if env.DatabaseURL == "" {
		if env.DBDriver == "pgx" {
			return env, fmt.Errorf("DATABASE_URL is required when DB_DRIVER=pgx")
		}
		env.DatabaseURL = fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s",
			getenvDefault("DB_USER", "root"),
			os.Getenv("DB_PASSWORD"),
			getenvDefault("DB_HOST", "127.0.0.1:3306"),
			getenvDefault("DB_NAME", "schoolbus"),
		)
	}

	loc, err := utils.LoadLocation(env.Timezone)
	if err != nil {
		return env, fmt.Errorf("invalid APP_TIMEZONE: %v", err)
	}
	env.Location = loc

	if env.JWTSecret == "" {
		return env, fmt.Errorf("JWT_SECRET is required")
	}

	ttlHours, err := parsePositiveInt("JWT_TTL_HOURS", 24)
	if err != nil {
		return env, err
	}
	env.JWTTTL = time.Duration(ttlHours) * time.Hour

	if raw := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				env.CORSAllowedOrigins = append(env.CORSAllowedOrigins, o)
			}
		}
	}

	if env.RouteCacheSize, err = parsePositiveInt("ROUTE_CACHE_SIZE", 256); err != nil {
		return env, err
	}
	ttlSec, err := parsePositiveInt("ROUTE_CACHE_TTL_SEC", 300)
	if err != nil {
		return env, err
	}
	env.RouteCacheTTL = time.Duration(ttlSec) * time.Second

	return env, nil
}

func getenvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func parsePositiveInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}
