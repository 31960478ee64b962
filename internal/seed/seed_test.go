package seed_test

import (
	"testing"

	"pulse/internal/database"
	"pulse/internal/models"
	"pulse/internal/seed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedPopulates(t *testing.T) {
	db, err := database.ConnectTest()
	require.NoError(t, err)

	s := seed.NewSeeder(db)
	require.NoError(t, s.Seed(seed.Options{
		NumUsers:    12,
		NumRooms:    4,
		NumMessages: 40,
	}))

	var users, settings, rooms, channels, messages int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Settings{}).Count(&settings).Error)
	require.NoError(t, db.Model(&models.Room{}).Count(&rooms).Error)
	require.NoError(t, db.Model(&models.Channel{}).Count(&channels).Error)
	require.NoError(t, db.Model(&models.Message{}).Count(&messages).Error)

	assert.EqualValues(t, 12, users)
	assert.EqualValues(t, 12, settings)
	assert.GreaterOrEqual(t, rooms, int64(4))
	// Every room has at least its Welcome channel.
	assert.GreaterOrEqual(t, channels, rooms)
	assert.EqualValues(t, 40, messages)

	t.Run("DM rooms carry the normalized pair", func(t *testing.T) {
		var dms []models.Room
		require.NoError(t, db.Where("dm = ?", true).Find(&dms).Error)
		for _, dm := range dms {
			require.NotNil(t, dm.DMLowID)
			require.NotNil(t, dm.DMHighID)
			assert.Less(t, *dm.DMLowID, *dm.DMHighID)
		}
	})

	t.Run("seeded users share the dev password", func(t *testing.T) {
		var user models.User
		require.NoError(t, db.First(&user).Error)
		assert.NotEqual(t, seed.DevPassword, user.PasswordDigest)
		assert.True(t, user.Verified)
	})
}

func TestClearAll(t *testing.T) {
	db, err := database.ConnectTest()
	require.NoError(t, err)

	s := seed.NewSeeder(db)
	require.NoError(t, s.Seed(seed.Options{NumUsers: 5, NumRooms: 2, NumMessages: 10}))
	require.NoError(t, s.ClearAll())

	var users, rooms int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Room{}).Count(&rooms).Error)
	assert.Zero(t, users)
	assert.Zero(t, rooms)
}
