package seeder

import (
	"context"

	"cofound/internal/database"
	"cofound/internal/domain/user"
)

type demoUser struct {
	Email string
	Role  user.Role
	Name  string
}

var demoUsers = []demoUser{
	{Email: "admin@cofound.dev", Role: user.RoleAdmin, Name: "Ops"},
	{Email: "maya@cofound.dev", Role: user.RoleFounder, Name: "Maya Lestari"},
	{Email: "tomas@cofound.dev", Role: user.RoleFounder, Name: "Tomas Reyes"},
	{Email: "ari@cofound.dev", Role: user.RoleBuilder, Name: "Ari Wibowo"},
	{Email: "lena@cofound.dev", Role: user.RoleBuilder, Name: "Lena Brandt"},
	{Email: "sam@cofound.dev", Role: user.RoleBuilder, Name: "Sam Okafor"},
	{Email: "nadia@cofound.dev", Role: user.RoleBuilder, Name: "Nadia Rahman"},
}

type UserSeeder struct{}

func (UserSeeder) Name() string { return "users" }

func (UserSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "users", "id", "email", "role", "display_name", "avatar_url"); err != nil {
		return err
	}
	if err := EnsureTableColumns(ctx, db, "user_stats", "user_id"); err != nil {
		return err
	}

	return database.WithTx(ctx, db, func(tx database.Tx) error {
		for _, u := range demoUsers {
			id := SeedID(u.Email)
			if _, err := tx.Exec(ctx,
				`INSERT INTO users (id, email, role, display_name) VALUES ($1, $2, $3, $4)
				 ON CONFLICT DO NOTHING`,
				id, u.Email, string(u.Role), u.Name,
			); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO user_stats (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, id,
			); err != nil {
				return err
			}
		}
		return nil
	})
}
