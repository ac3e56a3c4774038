package database

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConnectRedisPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectRedis("redis://" + mr.Addr())
	require.NoError(t, err)
	require.NoError(t, client.Close())
}

func TestConnectRejectsEmptyURLs(t *testing.T) {
	_, err := ConnectRedis("")
	require.Error(t, err)

	_, err = ConnectPostgres("")
	require.Error(t, err)

	conn, err := ConnectNATS("", "lms", zerolog.Nop())
	require.NoError(t, err)
	require.Nil(t, conn)
}

func TestMigrateCreatesTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	for _, table := range []string{"students", "courses", "lessons", "enrollments", "quiz_responses", "lesson_states", "upload_records"} {
		require.True(t, db.Migrator().HasTable(table), table)
	}
}
