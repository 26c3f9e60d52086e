// Command token prints credentials for the read endpoint.
//
//	token -subject dashboard -ttl 720h   # JWT signed with JWT_SECRET
//	token -hash-key                      # bcrypt hash of API_KEY for API_KEY_HASH
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"pricewatch/internal/config"
	"pricewatch/internal/platform/apikey"
	jwtmw "pricewatch/internal/platform/jwt"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	subject := fs.String("subject", "", "client identifier written to the sub claim")
	ttl := fs.Duration("ttl", 30*24*time.Hour, "token lifetime")
	hashKey := fs.Bool("hash-key", false, "print a bcrypt hash of API_KEY instead of a JWT")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if *hashKey {
		hash, err := apikey.HashKey(cfg.Auth.APIKey)
		if err != nil {
			return fmt.Errorf("API_KEY: %w", err)
		}
		_, err = fmt.Fprintln(out, hash)
		return err
	}

	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if *ttl <= 0 {
		return errors.New("-ttl must be positive")
	}
	token, err := jwtmw.NewGenerator(cfg.Auth.JWTSecret, *ttl).GenerateToken(*subject)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
