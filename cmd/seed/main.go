package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/petlovers/petlovers-api/config"
	"github.com/petlovers/petlovers-api/internal/application"
	"github.com/petlovers/petlovers-api/internal/domain/apperror"
	"github.com/petlovers/petlovers-api/internal/domain/entity"
	pginfra "github.com/petlovers/petlovers-api/internal/infrastructure/postgres"
	"github.com/petlovers/petlovers-api/pkg/helpers"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

var samplePets = []application.CreatePetInput{
	{Species: "Dog", Info: entity.PetInfo{
		Name: "Biscuit", Breed: "Beagle", Age: 3,
		Description:     "Friendly beagle who loves long walks and belly rubs.",
		Characteristics: entity.Characteristics{Size: "Medium", Color: "Tricolor", CoatType: "Short", IsVaccinated: true, IsNeutered: true},
	}},
	{Species: "Cat", Info: entity.PetInfo{
		Name: "Miso", Breed: "Domestic Shorthair", Age: 2,
		Description:     "Calm indoor cat, gets along with other cats.",
		Characteristics: entity.Characteristics{Size: "Small", Color: "Orange", CoatType: "Short", IsVaccinated: true},
	}},
	{Species: "Rabbit", Info: entity.PetInfo{
		Name: "Clover", Breed: "Holland Lop", Age: 1,
		Description:     "Curious bunny, litter trained.",
		Characteristics: entity.Characteristics{Size: "Small", Color: "White"},
	}},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, pginfra.PoolOptionsFrom(cfg, cfg.AppName+"-seed"))
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()

	users := pginfra.NewUserRepository(pool)
	jwtManager := helpers.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())
	auth := application.NewAuthService(users, helpers.NewPasswordHasher(cfg.PasswordHashIterations), jwtManager, logger)
	pets := application.NewPetService(pginfra.NewPetRepository(pool), logger)

	email := getenv("SEED_ADMIN_EMAIL", "admin@petlovers.local")
	password := getenv("SEED_ADMIN_PASSWORD", "password123")

	var userID string
	res, err := auth.Register(ctx, application.RegisterInput{
		Email:           email,
		Password:        password,
		ConfirmPassword: password,
		FirstName:       "Shelter",
		LastName:        "Admin",
	})
	switch {
	case err == nil:
		userID = res.User.ID
		fmt.Printf("seeded user: id=%s email=%s password=%s\n", userID, email, password)
	case errors.Is(err, apperror.ErrConflict):
		u, gErr := users.GetByEmail(ctx, entity.NormalizeEmail(email))
		if gErr != nil {
			logger.WithError(gErr).Fatal("failed to load existing admin")
		}
		userID = u.ID
		fmt.Printf("user already exists: id=%s email=%s\n", userID, email)
	default:
		logger.WithError(err).Fatal("failed to seed user")
	}

	if _, err := auth.AssignRole(ctx, userID, entity.RoleAdmin); err != nil {
		logger.WithError(err).Fatal("failed to assign admin role")
	}
	fmt.Println("assigned admin role to seeded user (if not already)")

	existing, err := pets.ListAvailable(ctx)
	if err != nil {
		logger.WithError(err).Fatal("failed to list pets")
	}
	if len(existing) > 0 {
		fmt.Printf("%d available pets already present, skipping pet seed\n", len(existing))
		return
	}
	for _, in := range samplePets {
		v, err := pets.Create(ctx, in)
		if err != nil {
			logger.WithError(err).WithField("name", in.Info.Name).Fatal("failed to seed pet")
		}
		fmt.Printf("seeded pet: id=%s name=%s species=%s\n", v.ID, v.Name, v.Species)
	}
}
