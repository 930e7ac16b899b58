package store

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-bot/internal/domain"
)

// seedCategory is one entry of the starter set every new user receives.
type seedCategory struct {
	Name      string
	Type      domain.CategoryType
	IsDefault bool
}

// defaultCategories is the starter set, in Spanish. "General" and
// "General Ingreso" are the marked defaults the extractor falls back to
// when nothing more specific fits.
var defaultCategories = []seedCategory{
	{Name: "General", Type: domain.CategoryExpense, IsDefault: true},
	{Name: "Comida", Type: domain.CategoryExpense},
	{Name: "Transporte", Type: domain.CategoryExpense},
	{Name: "Casa", Type: domain.CategoryExpense},
	{Name: "Ocio", Type: domain.CategoryExpense},
	{Name: "Suscripciones", Type: domain.CategoryExpense},
	{Name: "Salud", Type: domain.CategoryExpense},
	{Name: "Educación", Type: domain.CategoryExpense},
	{Name: "Regalos", Type: domain.CategoryExpense},
	{Name: "General Ingreso", Type: domain.CategoryIncome, IsDefault: true},
	{Name: "Salario", Type: domain.CategoryIncome},
	{Name: "Inversiones", Type: domain.CategoryIncome},
}

// EnsureDefaultCategories seeds the starter categories for the user if they
// have none yet. Returns true when the seed ran.
func (s *Store) EnsureDefaultCategories(ctx context.Context, userID int64) (bool, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM categories WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("EnsureDefaultCategories: counting categories for user %d: %w", userID, err)
	}
	if count > 0 {
		return false, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("EnsureDefaultCategories: starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, seed := range defaultCategories {
		_, err := tx.Exec(ctx, `
			INSERT INTO categories (user_id, name, type, is_default)
			VALUES ($1, $2, $3, $4)`,
			userID, seed.Name, seed.Type, seed.IsDefault)
		if err != nil {
			return false, fmt.Errorf("EnsureDefaultCategories: inserting category %q: %w", seed.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("EnsureDefaultCategories: committing: %w", err)
	}

	s.log.Info().Int64("user_id", userID).Int("count", len(defaultCategories)).
		Msg("Seeded default categories")
	return true, nil
}
