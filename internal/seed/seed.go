// Package seed bootstraps demo accounts for development environments.
package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/smallbiznis/courier/internal/user/domain"
	"gorm.io/gorm"
)

var demoUsers = []struct {
	email   string
	display string
}{
	{"alice@courier.local", "Alice"},
	{"bob@courier.local", "Bob"},
	{"carol@courier.local", "Carol"},
}

// EnsureDemoUsers creates a small fixed set of users so a fresh
// development database can exercise send, group, and alert flows
// without an identity provider in front.
func EnsureDemoUsers(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, du := range demoUsers {
			var existing userdomain.User
			err := tx.WithContext(ctx).
				Where("email = ?", du.email).
				First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			user := userdomain.User{
				ID:          node.Generate(),
				Email:       du.email,
				DisplayName: du.display,
			}
			if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
