package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultPort           = 3318
	DefaultFaceThreshold  = 0.6
	DefaultFaceMargin     = 0.1
	MinQRSecretLen        = 16
	defaultEnvFile        = ".env"
	defaultDatabaseDriver = "sqlite"
)

type Config struct {
	Port          int
	DatabaseURL   string
	DatabaseType  string
	AdminKey      string
	QRSecret      string
	IPHashSalt    string
	FaceThreshold float64
	FaceMargin    float64
}

// ParseFlags reads flags, then the environment (seeded from the env file),
// then defaults. Missing secrets are an error.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile string
	var threshold, margin string

	fset := flag.NewFlagSet("checkpoint", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fset.IntVar(&cfg.Port, "p", 0, "Server port")
	fset.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fset.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fset.StringVar(&envFile, "env-file", defaultEnvFile, "Env file to load before reading the environment")

	// Secrets (prefer env variables, but allow CLI for dev)
	fset.StringVar(&cfg.AdminKey, "admin-key", "", "Admin API key (prefer env)")
	fset.StringVar(&cfg.QRSecret, "qr-secret", "", "QR payload secret (prefer env)")
	fset.StringVar(&cfg.IPHashSalt, "ip-salt", "", "Salt for scanner IP hashes (prefer env)")

	// Face matching
	fset.StringVar(&threshold, "face-threshold", "", "Max descriptor distance for a face match")
	fset.StringVar(&margin, "face-margin", "", "Min distance gap between best and runner-up match")

	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	// Real environment wins over the file
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = defaultDatabaseDriver
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	// Secrets - MUST be provided
	if cfg.AdminKey == "" {
		cfg.AdminKey = os.Getenv("ADMIN_KEY")
	}
	if cfg.AdminKey == "" {
		return Config{}, errors.New("ADMIN_KEY required")
	}

	if cfg.QRSecret == "" {
		cfg.QRSecret = os.Getenv("QR_SECRET")
	}
	if cfg.QRSecret == "" {
		return Config{}, errors.New("QR_SECRET required")
	}
	if len(cfg.QRSecret) < MinQRSecretLen {
		return Config{}, fmt.Errorf("QR_SECRET must be at least %d bytes", MinQRSecretLen)
	}

	if cfg.IPHashSalt == "" {
		cfg.IPHashSalt = os.Getenv("IP_HASH_SALT")
	}
	if cfg.IPHashSalt == "" {
		cfg.IPHashSalt = cfg.AdminKey
	}

	var err error
	if cfg.FaceThreshold, err = floatSetting(threshold, "FACE_MATCH_THRESHOLD", DefaultFaceThreshold); err != nil {
		return Config{}, err
	}
	if cfg.FaceMargin, err = floatSetting(margin, "FACE_MATCH_MARGIN", DefaultFaceMargin); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// floatSetting resolves flag value, then env, then def. Negative values are rejected.
func floatSetting(flagVal, env string, def float64) (float64, error) {
	s := flagVal
	if s == "" {
		s = os.Getenv(env)
	}
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s value %q", env, s)
	}
	return v, nil
}
