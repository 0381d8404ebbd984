package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pageza/foodgram/backend/internal/models"
)

// useSQLite points the configuration at a fresh SQLite file and returns its
// path.
func useSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "foodgram.db")
	t.Setenv("CI", "false")
	t.Setenv("ENV", "test")
	t.Setenv("SECRETS_DIR", t.TempDir())
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", path)
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("MEDIA_DIR", t.TempDir())
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func inspect(t *testing.T, path string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestImportIngredientsCommand(t *testing.T) {
	dbPath := useSQLite(t)
	file := filepath.Join(t.TempDir(), "ingredients.json")
	require.NoError(t, os.WriteFile(file, []byte(`[
		{"name": "flour", "measurement_unit": "g"},
		{"name": "milk", "measurement_unit": "ml"},
		{"name": "", "measurement_unit": "g"}
	]`), 0o644))

	out, errOut, err := execute(t, "import-ingredients", "-p", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 ingredients.")
	assert.Contains(t, errOut, "skipped item 2")

	out, _, err = execute(t, "import-ingredients", "--path", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 ingredients.")

	var count int64
	require.NoError(t, inspect(t, dbPath).Model(&models.Ingredient{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestImportIngredientsRequiresPath(t *testing.T) {
	useSQLite(t)
	_, _, err := execute(t, "import-ingredients")
	assert.Error(t, err)
}

func TestCreateSuperuserCommand(t *testing.T) {
	dbPath := useSQLite(t)

	out, _, err := execute(t, "createsuperuser", "--email", "admin@example.com", "--username", "admin", "--password", "long-enough")
	require.NoError(t, err)
	assert.Contains(t, out, "Superuser admin created")

	var user models.User
	require.NoError(t, inspect(t, dbPath).Where("username = ?", "admin").First(&user).Error)
	assert.True(t, user.IsStaff)
	assert.NotEqual(t, "long-enough", user.PasswordHash)

	_, _, err = execute(t, "createsuperuser", "--email", "admin@example.com", "--username", "admin2", "--password", "long-enough")
	assert.Error(t, err, "email already taken")
}
