package store

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/devilmonastery/shopfeed/internal/config"
)

// Seed loads configured fixtures. Plaintext passwords are hashed with cost.
// Seeded users are pre-verified.
func (s *Store) Seed(seed config.SeedConfig, cost int) error {
	for _, st := range seed.Stores {
		s.EnsureStore(st.ID)
		for _, p := range st.Products {
			s.AddProduct(st.ID, p.Name, p.Price)
		}
	}

	for i, su := range seed.Users {
		hash := su.PasswordHash
		if hash == "" {
			b, err := bcrypt.GenerateFromPassword([]byte(su.Password), cost)
			if err != nil {
				return fmt.Errorf("seed.users[%d]: hash password: %w", i, err)
			}
			hash = string(b)
		}

		u, err := s.CreateUser(su.Email, su.Name, hash, su.StoreID)
		if errors.Is(err, ErrEmailTaken) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed.users[%d]: %w", i, err)
		}
		if err := s.Verify(u.Email, u.VerifyCode); err != nil {
			return fmt.Errorf("seed.users[%d]: verify: %w", i, err)
		}
	}
	return nil
}
