package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"pawfect/internal/auth"
	"pawfect/internal/config"
)

func main() {
	subject := flag.String("sub", "", "Token subject (owner id)")
	email := flag.String("email", "", "Optional email claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.Environment == "prod" {
		log.Fatalf("BLOCKED: devtoken must not be used in production")
	}
	if cfg.JWTSecret == "" {
		log.Fatalf("JWT_SECRET must be set")
	}

	token, err := auth.IssueToken(cfg.JWTSecret, *subject, *email, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
