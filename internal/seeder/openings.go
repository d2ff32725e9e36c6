package seeder

import (
	"context"

	"cofound/internal/database"
	"cofound/internal/domain/opening"
)

type demoOpening struct {
	Founder  string
	Title    string
	RoleType string
	Required []string
	Equity   opening.Range
	Cash     opening.Range
	Hours    int
	Remote   opening.RemotePreference
}

var demoOpenings = []demoOpening{
	{
		Founder:  "maya@cofound.dev",
		Title:    "Technical co-founder for a logistics marketplace",
		RoleType: "CTO",
		Required: []string{"go", "postgresql"},
		Equity:   opening.Range{Min: 8, Max: 20},
		Hours:    30,
		Remote:   opening.RemoteOnly,
	},
	{
		Founder:  "maya@cofound.dev",
		Title:    "Founding frontend engineer",
		RoleType: "Frontend",
		Required: []string{"react", "typescript"},
		Equity:   opening.Range{Min: 1, Max: 5},
		Cash:     opening.Range{Min: 24000, Max: 60000},
		Hours:    20,
		Remote:   opening.RemoteHybrid,
	},
	{
		Founder:  "tomas@cofound.dev",
		Title:    "Data lead for a climate analytics product",
		RoleType: "Data",
		Required: []string{"python", "machine learning"},
		Cash:     opening.Range{Min: 72000, Max: 120000},
		Hours:    40,
		Remote:   opening.RemoteFlexible,
	},
}

type OpeningSeeder struct{}

func (OpeningSeeder) Name() string { return "openings" }

func (OpeningSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "openings",
		"id",
		"founder_id",
		"title",
		"role_type",
		"required_skills",
		"equity_min",
		"equity_max",
		"cash_min",
		"cash_max",
		"hours_per_week",
		"remote_preference",
		"status",
	); err != nil {
		return err
	}

	return database.WithTx(ctx, db, func(tx database.Tx) error {
		for _, o := range demoOpenings {
			_, err := tx.Exec(ctx,
				`INSERT INTO openings (
					id, founder_id, title, role_type, required_skills,
					equity_min, equity_max, cash_min, cash_max,
					hours_per_week, remote_preference, status
				)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
				ON CONFLICT (id) DO NOTHING`,
				SeedID(o.Founder+"/"+o.Title),
				SeedID(o.Founder),
				o.Title,
				o.RoleType,
				o.Required,
				o.Equity.Min, o.Equity.Max,
				o.Cash.Min, o.Cash.Max,
				o.Hours,
				string(o.Remote),
				string(opening.StatusActive),
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
