// Command tokengen mints bearer tokens for the admin HTTP API.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/spec-kit/ticket-bridge/internal/auth"
	"github.com/spec-kit/ticket-bridge/internal/domain"
)

func main() {
	subject := pflag.StringP("subject", "s", "", "Discord user ID of the staff operator (or service name)")
	service := pflag.Bool("service", false, "mint a service token instead of a staff token")
	secret := pflag.String("secret", os.Getenv("AUTH_JWT_SECRET"), "signing secret (defaults to $AUTH_JWT_SECRET)")
	ttl := pflag.Int("ttl", 60, "token lifetime in minutes")
	pflag.Parse()

	if *subject == "" || *secret == "" {
		pflag.Usage()
		os.Exit(2)
	}

	kind := domain.SubjectTypeStaff
	if *service {
		kind = domain.SubjectTypeService
	}
	token, expiresAt, err := auth.NewTokenManager(*secret, *ttl).GenerateToken(*subject, kind)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
}
