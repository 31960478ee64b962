package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"pulse/internal/auth"
	"pulse/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DevPassword is the password every seeded user gets, so any account can be
// logged into during development.
const DevPassword = "SeededPass123!"

// Factory builds domain entities and persists them to the database. It is
// a thin helper used by the seeder and tests.
type Factory struct {
	db *gorm.DB

	// Password hashing is deliberately slow, so one digest is computed
	// and shared by every seeded user.
	salt   string
	digest string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())

	salt, err := auth.NewSalt()
	if err != nil {
		panic(fmt.Sprintf("seed: salt generation failed: %v", err))
	}
	digest, err := auth.HashPassword(DevPassword, salt)
	if err != nil {
		panic(fmt.Sprintf("seed: password hashing failed: %v", err))
	}
	return &Factory{db: db, salt: salt, digest: digest}
}

// CreateUser persists a verified user with a generated profile and a
// default settings row.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	// A random suffix keeps generated usernames clear of the unique index.
	username := strings.ToLower(gofakeit.Username()) + "_" + gofakeit.DigitN(4)
	user := &models.User{
		Username:       username,
		Email:          username + "@" + gofakeit.DomainName(),
		DisplayName:    gofakeit.Name(),
		About:          gofakeit.Sentence(8),
		ProfilePic:     fmt.Sprintf("https://picsum.photos/seed/%s/256/256", gofakeit.UUID()),
		Verified:       true,
		PasswordSalt:   f.salt,
		PasswordDigest: f.digest,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	settings := &models.Settings{UserID: user.ID, Settings: models.DefaultSettings()}
	if err := f.db.Create(settings).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateFriendship persists a friendship from creator to friend.
func (f *Factory) CreateFriendship(creatorID, friendID uint, accepted bool) (*models.Friendship, error) {
	friendship := &models.Friendship{
		CreatorID: creatorID,
		FriendID:  friendID,
		Accepted:  accepted,
	}
	if err := f.db.Create(friendship).Error; err != nil {
		return nil, err
	}
	return friendship, nil
}

// CreateRoom persists a group room with its owner as the first member and
// a Welcome channel.
func (f *Factory) CreateRoom(ownerID uint, name string) (*models.Room, error) {
	room := &models.Room{
		Name:       name,
		CreatorID:  ownerID,
		ProfilePic: fmt.Sprintf("https://picsum.photos/seed/%s/128/128", gofakeit.UUID()),
	}
	if err := f.db.Create(room).Error; err != nil {
		return nil, err
	}
	membership := &models.RoomMembership{RoomID: room.ID, UserID: ownerID}
	if err := f.db.Create(membership).Error; err != nil {
		return nil, err
	}
	if _, err := f.CreateChannel(room.ID, "Welcome"); err != nil {
		return nil, err
	}
	return room, nil
}

// CreateDM persists a direct-message room between two users.
func (f *Factory) CreateDM(userA, userB uint) (*models.Room, error) {
	low, high := models.DMPair(userA, userB)
	room := &models.Room{
		Name:      fmt.Sprintf("dm-%d-%d", low, high),
		CreatorID: userA,
		DM:        true,
		DMLowID:   &low,
		DMHighID:  &high,
	}
	if err := f.db.Create(room).Error; err != nil {
		return nil, err
	}
	for _, id := range []uint{userA, userB} {
		m := &models.RoomMembership{RoomID: room.ID, UserID: id, DM: true}
		if err := f.db.Create(m).Error; err != nil {
			return nil, err
		}
	}
	if _, err := f.CreateChannel(room.ID, "Welcome"); err != nil {
		return nil, err
	}
	return room, nil
}

// CreateChannel persists a channel in the given room.
func (f *Factory) CreateChannel(roomID uint, name string) (*models.Channel, error) {
	channel := &models.Channel{
		RoomID:      roomID,
		Name:        name,
		Description: gofakeit.Sentence(6),
	}
	if err := f.db.Create(channel).Error; err != nil {
		return nil, err
	}
	return channel, nil
}

// CreateMessage persists a message with a timestamp spread over the last
// 30 days.
func (f *Factory) CreateMessage(channelID, senderID uint) (*models.Message, error) {
	back := time.Duration(rand.Intn(30*24)) * time.Hour
	message := &models.Message{
		ChannelID: channelID,
		SenderID:  senderID,
		Content:   gofakeit.Sentence(rand.Intn(12) + 3),
		Timestamp: time.Now().Add(-back),
	}
	if err := f.db.Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// CreateNote persists a private note from creator about subject.
func (f *Factory) CreateNote(creatorID, subjectID uint) error {
	note := &models.Note{
		CreatorID: creatorID,
		SubjectID: subjectID,
		Note:      gofakeit.Sentence(6),
	}
	return f.db.Create(note).Error
}
