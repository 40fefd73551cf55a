// seed inserts a development user with a stored phone number, so a flow started for that username
// skips the phone prompt. Idempotent: an existing user only gets its phone number updated.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"

	"phone-verification/internal/config"
	"phone-verification/internal/db"
	"phone-verification/internal/flow"
	"phone-verification/internal/user/domain"
	userrepo "phone-verification/internal/user/repository"
)

func main() {
	username := flag.String("username", "dev", "Username of the seeded user")
	phone := flag.String("phone", "+15005550006", "Phone number stored on the user")
	flag.Parse()

	cfg, err := config.LoadUnchecked()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env or set DATABASE_URL")
	}
	attribute := cfg.PhoneNumberAttribute
	if attribute == "" {
		attribute = flow.DefaultPhoneAttribute
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()
	users := userrepo.NewPostgresRepository(conn)

	u, err := users.GetByUsername(ctx, *username)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if u != nil {
		log.Printf("seed: user %s exists, updating %s", *username, attribute)
	} else {
		now := time.Now().UTC()
		u = &domain.User{
			ID:        uuid.New().String(),
			Username:  *username,
			Status:    domain.UserStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("create user: %v", err)
		}
	}

	if err := users.SetAttribute(ctx, u.ID, attribute, *phone); err != nil {
		log.Fatalf("set %s: %v", attribute, err)
	}
	log.Printf("Seed completed: start a flow with username %q to verify %s", *username, *phone)
}
