package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"Picfeed/internal/auth"
)

// devtoken mints an HS256 bearer token signed with AUTH_JWT_SECRET for local development.
//
// Usage:
//
//	go run ./cmd/devtoken -sub user_alice -name Alice
//	curl -H "Authorization: Bearer $(go run ./cmd/devtoken -sub user_alice)" localhost:8080/posts
func main() {
	sub := flag.String("sub", "", "external user id placed in the sub claim (required)")
	name := flag.String("name", "", "optional display name claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()

	if *sub == "" {
		flag.Usage()
		os.Exit(2)
	}

	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		log.Fatal("AUTH_JWT_SECRET is not set")
	}

	token, err := auth.MintHS256(secret, *sub, *name, os.Getenv("AUTH_ISSUER"), *ttl)
	if err != nil {
		log.Fatalf("Failed to mint token: %v", err)
	}
	fmt.Println(token)
}
