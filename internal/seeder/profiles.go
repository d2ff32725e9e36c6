package seeder

import (
	"context"

	"cofound/internal/database"
	"cofound/internal/domain/builder"
	"cofound/internal/domain/opening"
)

type demoProfile struct {
	Email        string
	Skills       []string
	Risk         builder.RiskAppetite
	Openness     []builder.Compensation
	Equity       opening.Range
	Cash         opening.Range
	Hours        int
	Roles        []string
	Remote       opening.RemotePreference
	Subscription builder.SubscriptionTier
}

var demoProfiles = []demoProfile{
	{
		Email:        "ari@cofound.dev",
		Skills:       []string{"go", "postgresql", "kubernetes"},
		Risk:         builder.RiskHigh,
		Openness:     []builder.Compensation{builder.CompEquityOnly, builder.CompEquityHeavy},
		Equity:       opening.Range{Min: 5, Max: 15},
		Hours:        30,
		Roles:        []string{"CTO", "Backend"},
		Remote:       opening.RemoteOnly,
		Subscription: builder.TierBoosted,
	},
	{
		Email:        "lena@cofound.dev",
		Skills:       []string{"react", "typescript", "design systems"},
		Risk:         builder.RiskMedium,
		Openness:     []builder.Compensation{builder.CompEquityHeavy, builder.CompCashHeavy},
		Equity:       opening.Range{Min: 2, Max: 8},
		Cash:         opening.Range{Min: 36000, Max: 72000},
		Hours:        20,
		Roles:        []string{"Frontend"},
		Remote:       opening.RemoteHybrid,
		Subscription: builder.TierFree,
	},
	{
		Email:        "sam@cofound.dev",
		Skills:       []string{"python", "machine learning", "postgresql"},
		Risk:         builder.RiskLow,
		Openness:     []builder.Compensation{builder.CompCashOnly},
		Cash:         opening.Range{Min: 84000, Max: 108000},
		Hours:        40,
		Roles:        []string{"Data"},
		Remote:       opening.RemoteFlexible,
		Subscription: builder.TierFree,
	},
	{
		Email:        "nadia@cofound.dev",
		Skills:       []string{"go", "react"},
		Risk:         builder.RiskMedium,
		Openness:     []builder.Compensation{builder.CompEquityHeavy},
		Equity:       opening.Range{Min: 3, Max: 10},
		Hours:        25,
		Roles:        []string{"CTO", "Fullstack"},
		Remote:       opening.RemoteFlexible,
		Subscription: builder.TierFree,
	},
}

type BuilderProfileSeeder struct{}

func (BuilderProfileSeeder) Name() string { return "builder_profiles" }

func (BuilderProfileSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "builder_profiles",
		"user_id",
		"skills",
		"risk_appetite",
		"compensation_openness",
		"desired_equity_min",
		"desired_equity_max",
		"desired_cash_min",
		"desired_cash_max",
		"hours_per_week",
		"role_interests",
		"remote_preference",
		"subscription_tier",
		"is_complete",
	); err != nil {
		return err
	}

	return database.WithTx(ctx, db, func(tx database.Tx) error {
		for _, p := range demoProfiles {
			openness := make([]string, 0, len(p.Openness))
			for _, c := range p.Openness {
				openness = append(openness, string(c))
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO builder_profiles (
					user_id, skills, risk_appetite, compensation_openness,
					desired_equity_min, desired_equity_max, desired_cash_min, desired_cash_max,
					hours_per_week, role_interests, remote_preference, subscription_tier, is_complete
				)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,TRUE)
				ON CONFLICT (user_id) DO NOTHING`,
				SeedID(p.Email),
				p.Skills,
				string(p.Risk),
				openness,
				p.Equity.Min, p.Equity.Max,
				p.Cash.Min, p.Cash.Max,
				p.Hours,
				p.Roles,
				string(p.Remote),
				string(p.Subscription),
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
