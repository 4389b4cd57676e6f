package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "ledger.db"))
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateCommand(t *testing.T) {
	setupDB(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "dirty=false")
}

func TestUserCreateCommand(t *testing.T) {
	setupDB(t)

	out, err := run(t, "user", "create", "--email", "root@example.com", "--password", "secret", "--admin")
	require.NoError(t, err)
	assert.Contains(t, out, "root@example.com, ADMIN")

	_, err = run(t, "user", "create", "--email", "root@example.com", "--password", "secret")
	require.Error(t, err)
	assert.Equal(t, "Email is already registered", err.Error())
}

func TestUserCreateRequiresFlags(t *testing.T) {
	setupDB(t)

	_, err := run(t, "user", "create", "--email", "a@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password")
}

func TestImportCommand(t *testing.T) {
	dir := setupDB(t)
	_, err := run(t, "user", "create", "--email", "ann@example.com", "--password", "pw")
	require.NoError(t, err)

	file := filepath.Join(dir, "upload.csv")
	require.NoError(t, os.WriteFile(file, []byte("category,type,amount\nfood,EXPENSE,10\n"), 0o600))

	out, err := run(t, "import", "--user", "ann@example.com", file)
	require.NoError(t, err)
	assert.Contains(t, out, ": 0 created")
	assert.Contains(t, out, "line 2: skipped")
}

func TestImportCommandParseError(t *testing.T) {
	dir := setupDB(t)
	_, err := run(t, "user", "create", "--email", "ann@example.com", "--password", "pw")
	require.NoError(t, err)

	file := filepath.Join(dir, "upload.csv")
	require.NoError(t, os.WriteFile(file, []byte("category,type,amount\nfood,EXPENSE,10,extra\n"), 0o600))

	_, err = run(t, "import", "--user", "ann@example.com", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CSV parse error")
}

func TestImportCommandUnknownUser(t *testing.T) {
	dir := setupDB(t)
	file := filepath.Join(dir, "upload.csv")
	require.NoError(t, os.WriteFile(file, []byte("category,type,amount\n"), 0o600))

	_, err := run(t, "import", "--user", "ghost@example.com", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no user with email "ghost@example.com"`)
}

func TestExportCommand(t *testing.T) {
	dir := setupDB(t)
	_, err := run(t, "user", "create", "--email", "ann@example.com", "--password", "pw")
	require.NoError(t, err)

	out, err := run(t, "export", "--user", "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "id,categoryId,typeId,amount,date,description\n", out)

	target := filepath.Join(dir, "out.xlsx")
	_, err = run(t, "export", "--user", "ann@example.com", "--format", "xlsx", "-o", target)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))

	_, err = run(t, "export", "--user", "ann@example.com", "--format", "pdf")
	require.Error(t, err)
}
