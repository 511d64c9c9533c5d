package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devaloi/agora/internal/domain"
	"github.com/devaloi/agora/internal/store"
)

func TestCreateAdmin(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "agora.db")
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("LOG_LEVEL", "disabled")

	t.Run("should create an admin account", func(t *testing.T) {
		var out bytes.Buffer
		root := NewRoot()
		root.SetOut(&out)
		root.SetArgs([]string{"create-admin", "--username", "root", "--email", "root@example.com", "--password", "Secret123"})

		require.NoError(t, root.Execute())
		require.Contains(t, out.String(), "username=root")

		s, err := store.NewSQLite(dbPath)
		require.NoError(t, err)
		defer s.Close()

		u, err := s.UserByUsername(context.Background(), "root")
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, u.Role)
		require.True(t, u.IsActive)
	})

	t.Run("should refuse a duplicate", func(t *testing.T) {
		root := NewRoot()
		root.SetOut(&bytes.Buffer{})
		root.SetArgs([]string{"create-admin", "--username", "root", "--email", "root@example.com", "--password", "Secret123"})
		require.Error(t, root.Execute())
	})

	t.Run("should require every flag", func(t *testing.T) {
		root := NewRoot()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"create-admin", "--username", "root"})
		require.Error(t, root.Execute())
	})
}
