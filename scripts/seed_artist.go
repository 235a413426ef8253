package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/encorestage/encore/internal/domain/user"
	"github.com/encorestage/encore/pkg/auth"
)

// Grants a role to a user and prints an access token for the sign-in form.
func main() {
	fmt.Println("adding artist role into database...")

	err := godotenv.Load()
	if err != nil {
		log.Println("warning: .env file not found, use system environment variables.")
	}

	dsn := os.Getenv("DB_DSN")
	userID := os.Getenv("SEED_USER_ID")
	if userID == "" {
		userID = uuid.NewString()
	}
	email := os.Getenv("SEED_EMAIL")
	role := user.ParseRole(os.Getenv("SEED_ROLE"))
	if os.Getenv("SEED_ROLE") == "" {
		role = user.RoleArtist
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("cannot connect DB: %v", err)
	}
	defer pool.Close()

	query := `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role = $2
	`
	_, err = pool.Exec(context.Background(), query, userID, string(role))
	if err != nil {
		log.Fatalf("cannot set role: %v", err)
	}

	issuer := os.Getenv("AUTH_ISSUER")
	if issuer == "" {
		issuer = "encore"
	}
	jwtSvc := auth.NewJWTService(os.Getenv("JWT_SECRET"), 24*time.Hour, issuer)
	token, err := jwtSvc.GenerateToken(userID, email)
	if err != nil {
		log.Fatalf("cannot issue token: %v", err)
	}

	fmt.Printf("user '%s' now has role '%s'\n", userID, role)
	fmt.Printf("access token (24h): %s\n", token)
}
