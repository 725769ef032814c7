package config

import (
	"log"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port           string
	DBDSN          string
	UploadDir      string
	LogFile        string
	SessionTTL     time.Duration
	Currency       string
	ServiceName    string
	KafkaBrokers   []string
	RedisAddr      string
	GCSBucket      string
	SendGridAPIKey string
	MailFrom       string
	CORSOrigins    []string
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func Load() Config {
	ttl, err := time.ParseDuration(getenv("SESSION_TTL", "30m"))
	if err != nil || ttl <= 0 {
		log.Printf("[config] bad SESSION_TTL, using 30m")
		ttl = 30 * time.Minute
	}
	cfg := Config{
		Port:           getenv("PORT", "8000"),
		DBDSN:          getenv("DB_DSN", "gitshop.db"), // sqlite file in project root
		UploadDir:      getenv("UPLOAD_DIR", "./uploads"),
		LogFile:        getenv("LOG_FILE", "./gitshop.log"),
		SessionTTL:     ttl,
		Currency:       getenv("CURRENCY", "USD"),
		ServiceName:    getenv("SERVICE_NAME", "gitshop-api"),
		KafkaBrokers:   splitCSV(os.Getenv("KAFKA_BROKERS")),
		RedisAddr:      getenv("REDIS_ADDR", ""),
		GCSBucket:      getenv("GCS_BUCKET", ""),
		SendGridAPIKey: getenv("SENDGRID_API_KEY", ""),
		MailFrom:       getenv("MAIL_FROM", "orders@gitshop.local"),
		CORSOrigins:    splitCSV(getenv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8000")),
	}
	// secrets are reported as presence only
	log.Printf("[config] PORT=%s DB=%s UPLOAD_DIR=%s LOG_FILE=%s KAFKA=%d REDIS=%t GCS=%t SENDGRID=%t",
		cfg.Port, driverOf(cfg.DBDSN), cfg.UploadDir, cfg.LogFile,
		len(cfg.KafkaBrokers), cfg.RedisAddr != "", cfg.GCSBucket != "", cfg.SendGridAPIKey != "")
	return cfg
}

func driverOf(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	return "sqlite:" + dsn
}
