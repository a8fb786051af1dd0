// Command token mints a bearer token for local development. Tokens are
// normally issued by the external credential store; this signs one with
// the same shared secret so the API can be exercised with curl.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
)

func main() {
	userFlag := flag.String("user", "", "user ID (a random one is generated when empty)")
	name := flag.String("name", "dev", "display name carried in the token")
	secret := flag.String("secret", os.Getenv(config.EnvPrefix+"_AUTH_JWT_SECRET"), "JWT signing secret")
	lifetime := flag.Int("lifetime", 60, "token lifetime in minutes")
	flag.Parse()

	token, userID, err := mint(*secret, *userFlag, *name, *lifetime)
	if err != nil {
		log.Fatalf("token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "user_id: %s\n", userID)
	fmt.Println(token)
}

func mint(secret, rawUserID, name string, lifetimeMinutes int) (string, uuid.UUID, error) {
	userID := uuid.New()
	if rawUserID != "" {
		var err error
		if userID, err = uuid.Parse(rawUserID); err != nil {
			return "", uuid.Nil, fmt.Errorf("invalid user ID: %w", err)
		}
	}

	svc, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:            secret,
		TokenLifetimeMinutes: lifetimeMinutes,
	})
	if err != nil {
		return "", uuid.Nil, err
	}

	token, err := svc.GenerateToken(context.Background(), userID, name)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, userID, nil
}
