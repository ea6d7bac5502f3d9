package memory

import (
	"time"

	"github.com/reelclub/movie-club/internal/domain/club"
	"github.com/reelclub/movie-club/internal/domain/theme"
)

const (
	ClubIDMidnightReel  = "club-midnight-reel"
	ClubIDSundayMatinee = "club-sunday-matinee"
)

func SeedClubs() []club.Club {
	return []club.Club{
		{
			ID:        ClubIDMidnightReel,
			Name:      "Midnight Reel",
			OwnerID:   "user-ana",
			InviteKey: "midnight-reel-2026",
		},
		{
			ID:        ClubIDSundayMatinee,
			Name:      "Sunday Matinee",
			OwnerID:   "user-piotr",
			InviteKey: "sunday-matinee-2026",
		},
	}
}

func SeedMembers() []club.Member {
	return []club.Member{
		{ClubID: ClubIDMidnightReel, UserID: "user-ana", Nickname: "Ana", Role: club.RoleDirector, IsActive: true},
		{ClubID: ClubIDMidnightReel, UserID: "user-ben", Nickname: "Ben", Role: club.RoleMember, IsActive: true},
		{ClubID: ClubIDMidnightReel, UserID: "user-cleo", Nickname: "Cleo", Role: club.RoleMember, IsActive: true},
		{ClubID: ClubIDMidnightReel, UserID: "user-dmitri", Nickname: "Dmitri", Role: club.RoleMember, IsActive: false},
		{ClubID: ClubIDSundayMatinee, UserID: "user-piotr", Nickname: "Piotr", Role: club.RoleDirector, IsActive: true},
		{ClubID: ClubIDSundayMatinee, UserID: "user-quinn", Nickname: "Quinn", Role: club.RoleMember, IsActive: true},
	}
}

func SeedThemes() []theme.Theme {
	submitted := time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC)
	return []theme.Theme{
		{ID: "theme-001", ClubID: ClubIDMidnightReel, Text: "One-location thrillers", SubmittedBy: "user-ben", SubmittedAt: submitted},
		{ID: "theme-002", ClubID: ClubIDMidnightReel, Text: "Debut features", SubmittedBy: "user-cleo", SubmittedAt: submitted.Add(time.Hour)},
		{ID: "theme-003", ClubID: ClubIDMidnightReel, Text: "Movies your parents loved", SubmittedBy: "user-ana", SubmittedAt: submitted.Add(2 * time.Hour)},
		{ID: "theme-004", ClubID: ClubIDSundayMatinee, Text: "Animation that is not for kids", SubmittedBy: "user-quinn", SubmittedAt: submitted.Add(3 * time.Hour)},
	}
}
