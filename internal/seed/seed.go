package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	authdomain "github.com/smallbiznis/cotiza/internal/auth/domain"
	"github.com/smallbiznis/cotiza/internal/auth/password"
	"github.com/smallbiznis/cotiza/internal/config"
	templatedomain "github.com/smallbiznis/cotiza/internal/template/domain"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail    = "admin@cotiza.local"
	defaultAdminPassword = "cambiame1"
	defaultAdminDisplay  = "Administrador"
)

// EnsureDefaultAdmin seeds the bootstrap admin account so a fresh install
// is usable immediately. The account is flagged is_default until its
// password is rotated.
func EnsureDefaultAdmin(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user authdomain.User
		err := tx.WithContext(ctx).
			Where("email = ?", defaultAdminEmail).
			First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(defaultAdminPassword)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		user = authdomain.User{
			ID:           node.Generate(),
			Email:        defaultAdminEmail,
			DisplayName:  defaultAdminDisplay,
			PasswordHash: &hashed,
			Role:         authdomain.RoleAdmin,
			IsDefault:    true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.WithContext(ctx).Create(&user).Error
	})
}

// EnsureBrandingTemplates seeds one branded template per configured profile.
// Existing slots are left untouched so operator edits survive restarts.
func EnsureBrandingTemplates(db *gorm.DB, branding config.BrandingConfig) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, profile := range branding.Profiles {
			name := strings.TrimSpace(profile.Name)
			if name == "" {
				continue
			}

			var existing templatedomain.Template
			err := tx.WithContext(ctx).
				Where("slot = ?", profile.Slot).
				First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			now := time.Now().UTC()
			accent := strings.TrimSpace(profile.AccentHex)
			if accent == "" {
				accent = "#0F172A"
			}
			template := templatedomain.Template{
				ID:         node.Generate(),
				Slot:       profile.Slot,
				Name:       name,
				Slug:       slug.Make(name),
				City:       strings.TrimSpace(profile.City),
				Footer:     strings.TrimSpace(profile.Footer),
				AccentHex:  strings.ToUpper(accent),
				Conditions: strings.TrimSpace(profile.Conditions),
				Active:     true,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := tx.WithContext(ctx).Create(&template).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
