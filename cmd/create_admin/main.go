package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
	"taskboard/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Seeds an admin account. Registration through the API always yields the
// "user" role, so the first admin comes from here.
func main() {
	username := flag.String("username", "admin", "admin username")
	email := flag.String("email", "", "admin email (required)")
	password := flag.String("password", "", "admin password (required)")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("email and password are required")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	hash, err := service.HashPassword(*password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	repo := repository.NewUserRepository(db)
	u := &domain.User{
		Username: *username,
		Email:    *email,
		Password: hash,
		Role:     domain.RoleAdmin,
	}
	if err := repo.Create(context.Background(), u); err != nil {
		log.Fatalf("create admin: %v", err)
	}

	fmt.Printf("admin created: id=%d email=%s\n", u.ID, u.Email)
}
