// Command seed loads sample users and members into the database, or wipes it
// with -destroy.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dukerupert/rollcall/internal/auth"
	"github.com/dukerupert/rollcall/internal/config"
	"github.com/dukerupert/rollcall/internal/database"
	"github.com/dukerupert/rollcall/internal/logging"
	"github.com/dukerupert/rollcall/internal/model"
	"github.com/dukerupert/rollcall/internal/store"
)

const seedPassword = "password123"

type seedUser struct {
	name, email, role string
}

var seedUsers = []seedUser{
	{"Admin User", "admin@baps.com", model.RoleAdmin},
	{"UK Super Admin", "super@baps.com", model.RoleSuperAdmin},
}

var seedMembers = []model.Member{
	{Name: "Ravi Patel", Email: "ravi@example.com", Mobile: "9876543210", Active: true},
	{Name: "Sunny Shah", Email: "sunny@example.com", Mobile: "9876543211", Active: true},
	{Name: "Kishan Kumar", Mobile: "9876543212", Active: false},
	{Name: "Priya Joshi", Email: "priya@example.com", Active: true},
	{Name: "Amit Trivedi", Mobile: "9876543214", Active: true},
}

type stores struct {
	users         *store.UserStore
	members       *store.MemberStore
	attendance    *store.AttendanceStore
	announcements *store.AnnouncementStore
}

func newStores(db *sql.DB) stores {
	return stores{
		users:         store.NewUserStore(db),
		members:       store.NewMemberStore(db),
		attendance:    store.NewAttendanceStore(db),
		announcements: store.NewAnnouncementStore(db),
	}
}

func main() {
	destroy := flag.Bool("destroy", false, "delete all data instead of importing")
	flag.Parse()

	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	s := newStores(db)
	ctx := context.Background()

	if *destroy {
		err = destroyData(ctx, s)
	} else {
		err = importData(ctx, s)
	}
	if err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
	if *destroy {
		slog.Info("data destroyed")
	} else {
		slog.Info("data imported", "users", len(seedUsers), "members", len(seedMembers))
	}
}

// importData wipes existing data first so repeated runs give the same result.
func importData(ctx context.Context, s stores) error {
	if err := destroyData(ctx, s); err != nil {
		return err
	}

	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		return err
	}
	for _, u := range seedUsers {
		if _, err := s.users.Create(ctx, u.name, u.email, hash, u.role); err != nil {
			return fmt.Errorf("create user %s: %w", u.email, err)
		}
	}
	for _, m := range seedMembers {
		if _, err := s.members.Create(ctx, m); err != nil {
			return fmt.Errorf("create member %s: %w", m.Name, err)
		}
	}
	return nil
}

func destroyData(ctx context.Context, s stores) error {
	if err := s.attendance.DeleteAll(ctx); err != nil {
		return err
	}
	if err := s.announcements.DeleteAll(ctx); err != nil {
		return err
	}
	if err := s.members.DeleteAll(ctx); err != nil {
		return err
	}
	return s.users.DeleteAll(ctx)
}
