package db

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/drevalle/caterops/internal/models"
)

func ConnectAndMigrate() (*gorm.DB, error) {
	dsn := GetNormalizedDSN()
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is empty, check the environment configuration")
	}
	var db *gorm.DB
	var err error
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}
	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			break
		}
		fmt.Println("Retrying DB connection...", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	// Print masked DSN once for diagnostics (before migrations for visibility)
	masked := dsn
	if strings.Contains(masked, "password=") {
		re := regexp.MustCompile(`(password=)([^\s]+)`)
		masked = re.ReplaceAllString(masked, `${1}***`)
	}
	fmt.Println("[DB] Using DSN:", masked)

	// MIGRATIONS=1 runs sql migrations via golang-migrate; otherwise
	// AutoMigrate keeps dev setups convenient.
	if v := strings.ToLower(os.Getenv("MIGRATIONS")); v == "1" || v == "true" || v == "yes" {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
	}

	for _, table := range []string{"units", "ingredients", "recipes", "events"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	// Seeding only when explicitly requested via DB_SEED=1|true
	if v := strings.ToLower(os.Getenv("DB_SEED")); v == "1" || v == "true" || v == "yes" {
		SeedUnits(db)
	}
	return db, nil
}

// AutoMigrate creates/updates the schema from the models. Shared with the
// sqlite-backed tests.
func AutoMigrate(db *gorm.DB) error {
	modelsToMigrate := []interface{}{
		&models.UnitCategory{}, &models.Unit{},
		&models.Ingredient{}, &models.IngredientPriceHistory{},
		&models.Tag{}, &models.Recipe{}, &models.RecipeItem{},
		&models.Event{}, &models.EventOrder{},
	}
	for _, m := range modelsToMigrate {
		if migErr := db.AutoMigrate(m); migErr != nil {
			return fmt.Errorf("automigrate %T: %w", m, migErr)
		}
	}
	return nil
}

// SeedUnits inserts the base measurement vocabulary: weight in grams, volume
// in milliliters, count in units.
func SeedUnits(db *gorm.DB) {
	categories := map[string]*models.UnitCategory{}
	for _, name := range []string{"Weight", "Volume", "Count"} {
		var existing models.UnitCategory
		if err := db.Where("name = ?", name).First(&existing).Error; err == gorm.ErrRecordNotFound {
			existing = models.UnitCategory{Name: name}
			db.Create(&existing)
		}
		categories[name] = &existing
	}
	baseUnits := []models.Unit{
		{Name: "Gram", Abbreviation: "g", CategoryID: categories["Weight"].ID, ConversionToBase: 1, IsBaseUnit: true},
		{Name: "Kilogram", Abbreviation: "kg", CategoryID: categories["Weight"].ID, ConversionToBase: 1000},
		{Name: "Milliliter", Abbreviation: "ml", CategoryID: categories["Volume"].ID, ConversionToBase: 1, IsBaseUnit: true},
		{Name: "Liter", Abbreviation: "l", CategoryID: categories["Volume"].ID, ConversionToBase: 1000},
		{Name: "Unit", Abbreviation: "unit", CategoryID: categories["Count"].ID, ConversionToBase: 1, IsBaseUnit: true},
		{Name: "Dozen", Abbreviation: "dz", CategoryID: categories["Count"].ID, ConversionToBase: 12},
	}
	for _, u := range baseUnits {
		var existing models.Unit
		if err := db.Where("abbreviation = ?", u.Abbreviation).First(&existing).Error; err == gorm.ErrRecordNotFound {
			db.Create(&u)
		}
	}
}

// runSQLMigrations executes migrations in ./migrations using golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
