package database

import (
	"context"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithPassword(t *testing.T) {
	dsn := "app@tcp(db:3306)/andromeda"

	out, err := WithPassword(dsn, "")
	require.NoError(t, err)
	assert.Equal(t, dsn, out)

	out, err = WithPassword(dsn, "p@ss:word")
	require.NoError(t, err)
	cfg, err := mysql.ParseDSN(out)
	require.NoError(t, err)
	assert.Equal(t, "app", cfg.User)
	assert.Equal(t, "p@ss:word", cfg.Passwd)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "andromeda", cfg.DBName)

	_, err = WithPassword("no slash here", "pw")
	assert.Error(t, err)
}

func TestOpenRejectsBadDSN(t *testing.T) {
	_, err := Open(context.Background(), "no slash here")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse dsn")
}
