// Command admintoken prints an admin bearer token for the box office API,
// signed with JWT_SECRET.  Operator authentication is outside the service;
// whoever can read the secret can mint a token.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-seat-ticketing/internal/utils"
)

func main() {
	subject := flag.String("sub", "box-office-admin", "token subject")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("missing required env var: JWT_SECRET")
	}
	tok, err := utils.NewAccessToken(secret, *subject, utils.RoleAdmin, *ttl)
	if err != nil {
		log.WithError(err).Fatal("could not sign token")
	}
	fmt.Println(tok.Token)
}
