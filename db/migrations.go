package db

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Migration represents a single database migration
type Migration struct {
	ID   int
	Name string
	Up   func(*gorm.DB) error
}

// allMigrations is the ordered list of all migrations.
// They run before AutoMigrate, so each one must tolerate a fresh database.
var allMigrations = []Migration{
	{
		ID:   1,
		Name: "0001_dedupe_project_identity",
		Up:   migration0001DedupeProjectIdentity,
	},
	{
		ID:   2,
		Name: "0002_clear_epoch_last_built",
		Up:   migration0002ClearEpochLastBuilt,
	},
}

// AllModels returns all the models that need to be migrated
func AllModels() []any {
	return []any{
		&MigrationModel{},
		&ServerModel{},
		&ProjectModel{},
	}
}

// AutoMigrateAll runs the manual migrations and then auto-migration for all models
func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(&MigrationModel{}); err != nil {
		return err
	}

	if err := RunMigrations(db, len(allMigrations)); err != nil {
		return err
	}

	return db.AutoMigrate(AllModels()...)
}

// RunMigrations runs all migrations up to and including the specified ID.
// If targetID is 0 or negative, all migrations are run.
func RunMigrations(db *gorm.DB, targetID int) error {
	if targetID <= 0 {
		targetID = len(allMigrations)
	}

	for _, migration := range allMigrations {
		if migration.ID > targetID {
			break
		}

		applied, err := migrationApplied(db, migration.Name)
		if err != nil {
			return fmt.Errorf("failed to check migration %s: %w", migration.Name, err)
		}
		if applied {
			continue
		}

		if err := migration.Up(db); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Name, err)
		}

		if err := recordMigration(db, migration.Name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.Name, err)
		}
	}

	return nil
}

func migrationApplied(db *gorm.DB, name string) (bool, error) {
	var count int64
	err := db.Model(&MigrationModel{}).Where("name = ?", name).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func recordMigration(db *gorm.DB, name string) error {
	return db.Create(&MigrationModel{Name: name, AppliedAt: time.Now()}).Error
}

// CreateSchemaAtMigration creates the database schema as it existed at a specific migration version.
// migrationID 0 is the legacy schema, which had no identity constraint on projects.
func CreateSchemaAtMigration(db *gorm.DB, migrationID int) error {
	if err := db.AutoMigrate(&MigrationModel{}); err != nil {
		return err
	}

	if err := createInitialSchema(db); err != nil {
		return err
	}

	if migrationID > 0 {
		return RunMigrations(db, migrationID)
	}

	return nil
}

func createInitialSchema(db *gorm.DB) error {
	return db.Exec(`
		CREATE TABLE IF NOT EXISTS servers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			url TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		);
		CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			server_id TEXT NOT NULL,
			db TEXT NOT NULL,
			version TEXT NOT NULL,
			category TEXT NOT NULL,
			activity TEXT NOT NULL,
			status TEXT NOT NULL,
			last_built DATETIME,
			last_sha TEXT NOT NULL,
			web_url TEXT NOT NULL,
			included_in_status INTEGER NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error
}

// migration0001DedupeProjectIdentity keeps the most recently updated row per (name, server_id)
// so that the unique identity index can be created
func migration0001DedupeProjectIdentity(db *gorm.DB) error {
	if !db.Migrator().HasTable(&ProjectModel{}) {
		return nil
	}

	return db.Exec(`
		DELETE FROM projects WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY name, server_id ORDER BY updated_at DESC, id DESC
				) AS rn
				FROM projects
			) WHERE rn = 1
		)
	`).Error
}

// migration0002ClearEpochLastBuilt removes "never built" sentinels stored by older agents
func migration0002ClearEpochLastBuilt(db *gorm.DB) error {
	if !db.Migrator().HasTable(&ProjectModel{}) {
		return nil
	}

	return db.Exec(`UPDATE projects SET last_built = NULL WHERE substr(last_built, 1, 4) = '1970'`).Error
}
