// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"

	"pulse/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumRooms    int
	NumMessages int
	ShouldClean bool
}

var roomNames = []string{
	"General", "Movies", "Music", "Television", "Gaming",
	"Fitness", "Hobbies", "Sports", "Technology",
	"Anime", "Books", "Food", "Travel", "Programming", "Linux",
	"Frontend", "Backend", "DevOps", "Cloud", "AI", "Startups",
	"Homelab", "Art", "History", "Philosophy", "Science",
}

var channelNames = []string{
	"Welcome", "general", "off-topic", "memes", "announcements",
	"help", "showcase", "random", "voice-text", "links",
}

// Seeder populates the database with generated users, rooms, and chatter.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder bound to the given database.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db)}
}

// ClearAll deletes all seedable data. Delete order follows the foreign-key
// graph from leaves to roots.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	tables := []string{
		"messages", "invites", "notes", "settings",
		"room_memberships", "channels", "rooms",
		"friendships", "sessions", "users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// Seed populates the database according to opts.
func (s *Seeder) Seed(opts Options) error {
	log.Printf("Seeding %d users, %d rooms, %d messages...",
		opts.NumUsers, opts.NumRooms, opts.NumMessages)

	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	users, err := s.SeedUsers(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("created %d users", len(users))

	friendships, err := s.SeedFriendships(users)
	if err != nil {
		return fmt.Errorf("failed to create friendships: %w", err)
	}
	log.Printf("created %d friendships", len(friendships))

	rooms, err := s.SeedRooms(users, opts.NumRooms)
	if err != nil {
		return fmt.Errorf("failed to create rooms: %w", err)
	}
	log.Printf("created %d rooms", len(rooms))

	dms, err := s.SeedDMs(friendships)
	if err != nil {
		return fmt.Errorf("failed to create DMs: %w", err)
	}
	log.Printf("created %d DM rooms", len(dms))

	count, err := s.SeedMessages(append(rooms, dms...), opts.NumMessages)
	if err != nil {
		return fmt.Errorf("failed to create messages: %w", err)
	}
	log.Printf("created %d messages", count)

	if err := s.SeedNotes(users); err != nil {
		return fmt.Errorf("failed to create notes: %w", err)
	}

	log.Println("Seeding complete")
	return nil
}

// SeedUsers creates n verified users with settings rows, all sharing the
// development password.
func (s *Seeder) SeedUsers(n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// SeedFriendships links each user to a handful of random peers. Roughly
// four out of five are accepted; the rest stay pending.
func (s *Seeder) SeedFriendships(users []*models.User) ([]*models.Friendship, error) {
	var friendships []*models.Friendship
	seen := make(map[[2]uint]bool)

	for _, user := range users {
		targets := rand.Intn(4) + 1
		for i := 0; i < targets; i++ {
			other := users[rand.Intn(len(users))]
			if other.ID == user.ID {
				continue
			}
			low, high := models.DMPair(user.ID, other.ID)
			key := [2]uint{low, high}
			if seen[key] {
				continue
			}
			seen[key] = true

			accepted := rand.Intn(5) > 0
			f, err := s.factory.CreateFriendship(user.ID, other.ID, accepted)
			if err != nil {
				return nil, err
			}
			friendships = append(friendships, f)
		}
	}
	return friendships, nil
}

// SeedRooms creates n group rooms, each owned by a random user with a
// random slice of the user base as members and a few channels.
func (s *Seeder) SeedRooms(users []*models.User, n int) ([]*models.Room, error) {
	rooms := make([]*models.Room, 0, n)
	for i := 0; i < n; i++ {
		owner := users[rand.Intn(len(users))]
		name := roomNames[rand.Intn(len(roomNames))]

		room, err := s.factory.CreateRoom(owner.ID, name)
		if err != nil {
			return nil, err
		}

		memberCount := rand.Intn(8) + 2
		for j := 0; j < memberCount; j++ {
			member := users[rand.Intn(len(users))]
			if member.ID == owner.ID {
				continue
			}
			// Duplicate picks are fine, AddMember is idempotent here.
			_ = s.db.Where(models.RoomMembership{RoomID: room.ID, UserID: member.ID}).
				FirstOrCreate(&models.RoomMembership{
					RoomID: room.ID,
					UserID: member.ID,
				}).Error
		}

		channelCount := rand.Intn(3) + 2
		for j := 1; j < channelCount; j++ {
			name := channelNames[rand.Intn(len(channelNames))]
			if _, err := s.factory.CreateChannel(room.ID, name); err != nil {
				return nil, err
			}
		}

		rooms = append(rooms, room)
	}
	return rooms, nil
}

// SeedDMs opens a DM room for roughly half the accepted friendships.
func (s *Seeder) SeedDMs(friendships []*models.Friendship) ([]*models.Room, error) {
	var dms []*models.Room
	for _, f := range friendships {
		if !f.Accepted || rand.Intn(2) == 0 {
			continue
		}
		dm, err := s.factory.CreateDM(f.CreatorID, f.FriendID)
		if err != nil {
			return nil, err
		}
		dms = append(dms, dm)
	}
	return dms, nil
}

// SeedMessages spreads n messages across the channels of the given rooms,
// sent by random members.
func (s *Seeder) SeedMessages(rooms []*models.Room, n int) (int, error) {
	type target struct {
		channelID uint
		memberIDs []uint
	}
	var targets []target

	for _, room := range rooms {
		var channels []models.Channel
		if err := s.db.Where("room_id = ?", room.ID).Find(&channels).Error; err != nil {
			return 0, err
		}
		var memberships []models.RoomMembership
		if err := s.db.Where("room_id = ?", room.ID).Find(&memberships).Error; err != nil {
			return 0, err
		}
		ids := make([]uint, 0, len(memberships))
		for _, m := range memberships {
			ids = append(ids, m.UserID)
		}
		if len(ids) == 0 {
			continue
		}
		for _, ch := range channels {
			targets = append(targets, target{channelID: ch.ID, memberIDs: ids})
		}
	}
	if len(targets) == 0 {
		return 0, nil
	}

	created := 0
	for i := 0; i < n; i++ {
		t := targets[rand.Intn(len(targets))]
		sender := t.memberIDs[rand.Intn(len(t.memberIDs))]
		if _, err := s.factory.CreateMessage(t.channelID, sender); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// SeedNotes gives a quarter of the users a private note about a random peer.
func (s *Seeder) SeedNotes(users []*models.User) error {
	for _, user := range users {
		if rand.Intn(4) != 0 {
			continue
		}
		subject := users[rand.Intn(len(users))]
		if subject.ID == user.ID {
			continue
		}
		if err := s.factory.CreateNote(user.ID, subject.ID); err != nil {
			return err
		}
	}
	return nil
}
