// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Sources

Each setting is resolved in order: CLI flag, environment variable, then
default. Before the environment is read, the file named by -env-file
(".env" unless set) is loaded with godotenv. Variables already present in
the environment are never overwritten by the file, and a missing file is
not an error.

# Flags and Environment Variables

	-p               PORT                  Server port (default 3318)
	-d               DATABASE_URL          Database URL (required)
	-t               DATABASE_TYPE         sqlite or postgres (default sqlite)
	-admin-key       ADMIN_KEY             Admin API key (required)
	-qr-secret       QR_SECRET             QR payload secret, >= 16 bytes (required)
	-ip-salt         IP_HASH_SALT          Salt for scanner IP hashes (default: admin key)
	-face-threshold  FACE_MATCH_THRESHOLD  Max descriptor distance (default 0.6)
	-face-margin     FACE_MATCH_MARGIN     Min gap to runner-up (default 0.1)
	-env-file                              Env file to load (default .env)

# Example

	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	// ...
	mux := router.NewRouter(conn, cfg, codec)
*/
package cliparse
