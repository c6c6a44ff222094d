package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/stemsi/tutor-portal/internal/config"
	"github.com/stemsi/tutor-portal/internal/database"
	"github.com/stemsi/tutor-portal/internal/docstore"
	"github.com/stemsi/tutor-portal/internal/logger"
	"github.com/stemsi/tutor-portal/internal/model"
	"github.com/stemsi/tutor-portal/internal/repository"
	"github.com/stemsi/tutor-portal/internal/service"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL and Redis ───────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	docs := docstore.New(pool, rdb, log)
	accountRepo := repository.NewAccountRepository(pool)
	authService := service.NewAuthService(cfg, rdb, accountRepo, log)
	studentService := service.NewStudentService(docs, repository.NewStudentRepository(docs), accountRepo, authService)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string, required bool) string {
		fmt.Printf("Enter %s: ", label)
		v, _ := reader.ReadString('\n')
		v = strings.TrimSpace(v)
		if required && v == "" {
			fmt.Printf("Error: %s is required\n", label)
			os.Exit(1)
		}
		return v
	}

	fmt.Println("=== Create New Student ===")

	profile := model.StudentProfile{
		FullName:          prompt("Full Name", true),
		Email:             prompt("Email", true),
		PhoneNumber:       prompt("Phone Number", false),
		ParentPhoneNumber: prompt("Parent Phone Number", false),
		PassportID:        prompt("Passport ID", false),
		AdminID:           prompt("Owner (admin) ID", true),
	}

	// Password
	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	created, err := studentService.Create(ctx, service.NewStudent{Profile: profile, Password: password})
	if err != nil {
		if errors.Is(err, service.ErrEmailInUse) {
			fmt.Printf("Error: %s is already registered\n", profile.Email)
			return
		}
		log.Fatal().Err(err).Msg("Failed to create student")
	}

	fmt.Printf("\nSuccess! Student '%s' (%s) created with ID: %s\n", created.FullName, created.Email, created.ID)
}
