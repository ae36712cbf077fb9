package seed

import (
	"errors"
	"fmt"
	"log"

	"Showdown/models"

	"gorm.io/gorm"
)

type demoPool struct {
	Title       string
	Description string
	Selections  []string
}

var pools = []demoPool{
	{
		Title:       "Best Snack",
		Description: "Salty, sweet or somewhere in between.",
		Selections:  []string{"Chips", "Pretzels", "Popcorn", "Trail Mix", "Candy Bar"},
	},
	{
		Title:       "Best Pizza Topping",
		Description: "One topping. No half-and-half.",
		Selections: []string{
			"Pepperoni", "Mushroom", "Sausage", "Onion",
			"Pineapple", "Olive", "Bacon", "Jalapeno",
		},
	},
	{
		Title:       "Coin Flip",
		Description: "Heads or tails.",
		Selections:  []string{"Heads", "Tails"},
	},
}

// Load creates the demo pools that are missing. Existing pools are left alone.
func Load(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, demo := range pools {
			candidate := models.Pool{Title: demo.Title, Description: demo.Description}
			candidate.Prepare()

			_, err := models.FindPoolBySlug(tx, candidate.Slug)
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			if msgs := candidate.Validate(); len(msgs) > 0 {
				return fmt.Errorf("demo pool %q: %v", demo.Title, msgs)
			}
			pool, err := candidate.SavePool(tx)
			if err != nil {
				return fmt.Errorf("cannot seed pool %q: %w", demo.Title, err)
			}

			for _, name := range demo.Selections {
				sel := models.Selection{PoolID: pool.ID, Name: name}
				sel.Prepare()
				if _, err := sel.SaveSelection(tx); err != nil {
					return fmt.Errorf("cannot seed selection %q: %w", name, err)
				}
			}
			log.Printf("[seed] created pool %s with %d selections", pool.Slug, len(demo.Selections))
		}
		return nil
	})
}
