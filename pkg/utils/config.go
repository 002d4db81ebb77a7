package utils

import (
	"os"
	"strconv"
	"time"
)

// Config carries everything the server and CLI need from the
// environment.
type Config struct {
	CatalogURI      string
	CatalogUsername string
	CatalogAPIKey   string
	BundleDir       string
	ListenAddr      string
}

func LoadConfig() Config {
	cfg := Config{
		CatalogURI:      os.Getenv("BUNDLEGEN_CATALOG_URI"),
		CatalogUsername: os.Getenv("BUNDLEGEN_CATALOG_USERNAME"),
		CatalogAPIKey:   os.Getenv("BUNDLEGEN_CATALOG_API_KEY"),
		BundleDir:       os.Getenv("BUNDLEGEN_BUNDLE_DIR"),
		ListenAddr:      os.Getenv("BUNDLEGEN_LISTEN_ADDR"),
	}
	if cfg.BundleDir == "" {
		cfg.BundleDir = "./bundles"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	return cfg
}

// Complete reports whether the catalog settings needed for generation
// are all present.
func (c Config) Complete() bool {
	return c.CatalogURI != "" && c.CatalogUsername != "" && c.CatalogAPIKey != ""
}

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("BUNDLEGEN_JWT_SECRET")
	if secret == "" {
		// dev default (change for production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("BUNDLEGEN_JWT_ISSUER")
	if issuer == "" {
		issuer = "bundlegen"
	}

	duration := 24 * time.Hour
	if ttl := os.Getenv("BUNDLEGEN_JWT_TTL_HOURS"); ttl != "" {
		if hours, err := strconv.Atoi(ttl); err == nil && hours > 0 {
			duration = time.Duration(hours) * time.Hour
		}
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: duration,
	}
}
