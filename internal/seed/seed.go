// Package seed loads the initial accounts and catalog of a venue from a YAML file.
package seed

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"rccafe/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type File struct {
	Users  []User  `yaml:"users"`
	Tracks []Track `yaml:"tracks"`
	Games  []Game  `yaml:"games"`
}

type User struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Phone    string `yaml:"phone"`
	Role     string `yaml:"role"`
}

type Track struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Game struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Duration    int    `yaml:"duration"`
	Price       string `yaml:"price"`
	MaxPlayers  int    `yaml:"max_players"`
}

// Result counts what Apply created; existing rows are left untouched.
type Result struct {
	Users, Tracks, Games int
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// Apply inserts every user (by email), track and game (by name) that does not exist yet.
func Apply(db *gorm.DB, f *File) (Result, error) {
	var res Result
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, u := range f.Users {
			created, err := seedUser(tx, u)
			if err != nil {
				return err
			}
			if created {
				res.Users++
			}
		}
		for _, t := range f.Tracks {
			track := models.Track{Name: t.Name, Description: t.Description, IsActive: true}
			created, err := createMissing(tx, &models.Track{}, &track, t.Name)
			if err != nil {
				return fmt.Errorf("track %q: %w", t.Name, err)
			}
			if created {
				res.Tracks++
			}
		}
		for _, g := range f.Games {
			price, err := decimal.NewFromString(g.Price)
			if err != nil {
				return fmt.Errorf("game %q price: %w", g.Name, err)
			}
			game := models.Game{
				Name:        g.Name,
				Description: g.Description,
				Duration:    g.Duration,
				Price:       price,
				MaxPlayers:  g.MaxPlayers,
				IsActive:    true,
			}
			created, err := createMissing(tx, &models.Game{}, &game, g.Name)
			if err != nil {
				return fmt.Errorf("game %q: %w", g.Name, err)
			}
			if created {
				res.Games++
			}
		}
		return nil
	})
	return res, err
}

// createMissing inserts row unless a record of model with the same name exists.
func createMissing(tx *gorm.DB, model, row interface{}, name string) (bool, error) {
	var n int64
	if err := tx.Model(model).Where("name = ?", name).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	return true, tx.Create(row).Error
}

func seedUser(tx *gorm.DB, u User) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if email == "" || u.Password == "" {
		return false, fmt.Errorf("user %q: email and password are required", u.Name)
	}
	role := models.Role(strings.ToUpper(u.Role))
	switch role {
	case "":
		role = models.RoleCustomer
	case models.RoleCustomer, models.RoleStaff, models.RoleAdmin:
	default:
		return false, fmt.Errorf("user %q: unknown role %q", email, u.Role)
	}

	var existing models.User
	err := tx.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	user := models.User{
		Name:         u.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if u.Phone != "" {
		phone := u.Phone
		user.Phone = &phone
	}
	if err := tx.Create(&user).Error; err != nil {
		return false, fmt.Errorf("user %q: %w", email, err)
	}
	return true, nil
}
