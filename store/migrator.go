package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/mod/semver"
)

// Migration layout:
//
//   - migration/{driver}/LATEST.sql is the full schema applied to an empty database.
//   - migration/{driver}/{major.minor}/NN__description.sql are incremental scripts.
//     A script's schema version is major.minor.(NN+1).
//
// The applied version is kept in system_setting under "schema_version".

//go:embed migration
var migrationFS embed.FS

const (
	// MigrateFileNameSplit is the split character between the patch version and the description in the migration file name.
	MigrateFileNameSplit = "__"
	// LatestSchemaFileName is the name of the latest schema file.
	LatestSchemaFileName = "LATEST.sql"

	defaultSchemaVersion = "0.0.0"
)

// Migrate brings the schema up to the version embedded in the binary.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.preMigrate(ctx); err != nil {
		return errors.Wrap(err, "failed to pre-migrate")
	}

	databaseVersion, err := s.getDatabaseSchemaVersion(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get database schema version")
	}
	currentVersion, err := s.GetCurrentSchemaVersion()
	if err != nil {
		return errors.Wrap(err, "failed to get current schema version")
	}

	if compareVersion(databaseVersion, currentVersion) > 0 {
		slog.Error("cannot downgrade schema version",
			slog.String("databaseVersion", databaseVersion),
			slog.String("currentVersion", currentVersion),
		)
		return errors.Errorf("cannot downgrade schema version from %s to %s", databaseVersion, currentVersion)
	}
	if compareVersion(currentVersion, databaseVersion) > 0 {
		if err := s.applyMigrations(ctx, databaseVersion, currentVersion); err != nil {
			return errors.Wrap(err, "failed to apply migrations")
		}
	}
	return nil
}

func (s *Store) applyMigrations(ctx context.Context, databaseVersion, targetVersion string) error {
	filePaths, err := s.listMigrationScripts()
	if err != nil {
		return err
	}

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	slog.Info("start migration",
		slog.String("databaseVersion", databaseVersion),
		slog.String("targetVersion", targetVersion))

	applied := 0
	for _, filePath := range filePaths {
		fileVersion, err := schemaVersionOfScript(filePath)
		if err != nil {
			return err
		}
		if !shouldApplyMigration(fileVersion, databaseVersion, targetVersion) {
			continue
		}

		slog.Info("applying migration", slog.String("file", filePath), slog.String("version", fileVersion))
		bytes, err := migrationFS.ReadFile(filePath)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration file: %s", filePath)
		}
		if err := s.execute(ctx, tx, string(bytes)); err != nil {
			return errors.Wrapf(err, "failed to execute migration %s", filePath)
		}
		applied++
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit migration transaction")
	}
	slog.Info("migration completed", slog.Int("migrationsApplied", applied))

	return s.updateSchemaVersion(ctx, targetVersion)
}

// preMigrate applies LATEST.sql to an uninitialized database.
func (s *Store) preMigrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	if initialized {
		return nil
	}

	filePath := s.getMigrationBasePath() + LatestSchemaFileName
	bytes, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Errorf("failed to read latest schema file: %s", err)
	}
	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()
	slog.Info("initializing new database with latest schema", slog.String("file", filePath))
	if err := s.execute(ctx, tx, string(bytes)); err != nil {
		return errors.Errorf("failed to execute SQL file %s, err %s", filePath, err)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	schemaVersion, err := s.GetCurrentSchemaVersion()
	if err != nil {
		return errors.Wrap(err, "failed to get current schema version")
	}
	slog.Info("database initialized successfully", slog.String("schemaVersion", schemaVersion))
	return s.updateSchemaVersion(ctx, schemaVersion)
}

func (s *Store) getMigrationBasePath() string {
	return fmt.Sprintf("migration/%s/", s.profile.Driver)
}

func (s *Store) listMigrationScripts() ([]string, error) {
	filePaths, err := fs.Glob(migrationFS, s.getMigrationBasePath()+"*/*.sql")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read migration files")
	}
	sort.Slice(filePaths, func(i, j int) bool {
		vi, _ := schemaVersionOfScript(filePaths[i])
		vj, _ := schemaVersionOfScript(filePaths[j])
		return compareVersion(vi, vj) < 0
	})
	return filePaths, nil
}

// GetCurrentSchemaVersion returns the newest schema version embedded for the driver.
func (s *Store) GetCurrentSchemaVersion() (string, error) {
	filePaths, err := s.listMigrationScripts()
	if err != nil {
		return "", err
	}
	if len(filePaths) == 0 {
		return defaultSchemaVersion, nil
	}
	return schemaVersionOfScript(filePaths[len(filePaths)-1])
}

func (s *Store) getDatabaseSchemaVersion(ctx context.Context) (string, error) {
	setting, err := s.driver.GetSystemSetting(ctx, systemSettingSchemaVersion)
	if err != nil {
		return "", err
	}
	if setting == nil || setting.Value == "" {
		return defaultSchemaVersion, nil
	}
	return setting.Value, nil
}

func (s *Store) updateSchemaVersion(ctx context.Context, schemaVersion string) error {
	if _, err := s.driver.UpsertSystemSetting(ctx, &SystemSetting{
		Name:  systemSettingSchemaVersion,
		Value: schemaVersion,
	}); err != nil {
		return errors.Wrap(err, "failed to update schema version")
	}
	return nil
}

// schemaVersionOfScript turns migration/sqlite/0.1/00__x.sql into 0.1.1.
func schemaVersionOfScript(filePath string) (string, error) {
	elements := strings.Split(filepath.ToSlash(filePath), "/")
	if len(elements) < 2 {
		return "", errors.Errorf("invalid file path: %s", filePath)
	}
	minorVersion := elements[len(elements)-2]
	filename := elements[len(elements)-1]
	if !strings.Contains(filename, MigrateFileNameSplit) {
		return "", errors.Errorf("invalid migration filename format (missing %s): %s", MigrateFileNameSplit, filename)
	}
	rawPatchVersion := strings.Split(filename, MigrateFileNameSplit)[0]
	patchVersion, err := strconv.Atoi(rawPatchVersion)
	if err != nil {
		return "", errors.Wrapf(err, "failed to convert patch version to int: %s", rawPatchVersion)
	}
	return fmt.Sprintf("%s.%d", minorVersion, patchVersion+1), nil
}

func shouldApplyMigration(fileVersion, databaseVersion, targetVersion string) bool {
	return compareVersion(fileVersion, databaseVersion) > 0 && compareVersion(targetVersion, fileVersion) >= 0
}

// compareVersion compares bare "major.minor.patch" versions.
func compareVersion(a, b string) int {
	return semver.Compare("v"+a, "v"+b)
}

// execute runs a script inside tx. PostgreSQL needs one statement per ExecContext.
func (s *Store) execute(ctx context.Context, tx *sql.Tx, stmt string) error {
	if s.profile.Driver == "postgres" {
		for i, single := range splitSQL(stmt) {
			if _, err := tx.ExecContext(ctx, single); err != nil {
				return errors.Wrapf(err, "failed to execute statement %d: %s", i+1, single)
			}
		}
		return nil
	}
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to execute statement")
	}
	return nil
}

// splitSQL splits a script on semicolons outside quotes and comments.
func splitSQL(script string) []string {
	var (
		statements []string
		current    strings.Builder
		inQuote    bool
	)
	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" && stmt != ";" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for _, line := range strings.Split(script, "\n") {
		if !inQuote && strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		for i := 0; i < len(line); i++ {
			ch := line[i]
			switch {
			case ch == '\'':
				inQuote = !inQuote
				current.WriteByte(ch)
			case !inQuote && ch == '-' && i+1 < len(line) && line[i+1] == '-':
				i = len(line)
			case !inQuote && ch == ';':
				current.WriteByte(ch)
				flush()
			default:
				current.WriteByte(ch)
			}
		}
		current.WriteByte('\n')
	}
	flush()
	return statements
}
