package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/pkg/types"
)

func TestDataSourceName(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  types.Config
		want string
	}{
		{
			name: "data dir",
			cfg:  types.Config{DataDir: dir},
			want: "file:" + filepath.Join(dir, DatabaseFile) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		},
		{
			name: "dsn with query",
			cfg:  types.Config{DSN: "file:x.db?mode=memory"},
			want: "file:x.db?mode=memory&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		},
		{
			name: "dsn with pragma kept",
			cfg:  types.Config{DSN: "file:x.db?_pragma=foreign_keys(1)"},
			want: "file:x.db?_pragma=foreign_keys(1)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dataSourceName(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
