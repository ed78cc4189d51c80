package main

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// DecisionOutcome is an admin verdict on a pending access request.
type DecisionOutcome string

const (
	OutcomeApprove DecisionOutcome = "approve"
	OutcomeReject  DecisionOutcome = "reject"
)

// UserStore holds the user table and the access state machine:
// pending -> approved, pending -> rejected, rejected -> pending
// (re-request), approved -> rejected (admin revocation). All transitions
// except the first-contact creation are admin-initiated.
type UserStore struct {
	db             *gorm.DB
	adminIDs       map[int64]bool
	adminUsernames map[string]bool
}

func NewUserStore(db *gorm.DB, adminIDs []int64, adminUsernames []string) *UserStore {
	store := &UserStore{
		db:             db,
		adminIDs:       make(map[int64]bool, len(adminIDs)),
		adminUsernames: make(map[string]bool, len(adminUsernames)),
	}
	for _, id := range adminIDs {
		store.adminIDs[id] = true
	}
	for _, name := range adminUsernames {
		name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "@"))
		if name != "" {
			store.adminUsernames[name] = true
		}
	}
	return store
}

// IsAdmin recognizes admins from config (ID or username) and from user
// rows promoted to the admin role.
func (s *UserStore) IsAdmin(telegramID int64, username string) bool {
	if s.adminIDs[telegramID] {
		return true
	}
	if s.adminUsernames[strings.ToLower(strings.TrimPrefix(username, "@"))] {
		return true
	}
	var count int64
	err := s.db.Model(&User{}).
		Where("telegram_id = ? AND role = ?", telegramID, RoleAdmin).
		Count(&count).Error
	return err == nil && count > 0
}

// RequestAccess registers first contact as pending, turns a rejected user
// back into pending, and is an idempotent no-op for an approved one.
// Username and chat ID are refreshed in every case.
func (s *UserStore) RequestAccess(telegramID int64, username string, chatID int64) (User, error) {
	var user User
	err := s.db.Where("telegram_id = ?", telegramID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = User{
			TelegramID: telegramID,
			Username:   username,
			ChatID:     chatID,
			Status:     StatusPending,
			Role:       RoleUser,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return User{}, err
		}
		return user, nil
	}
	if err != nil {
		return User{}, err
	}

	user.Username = username
	user.ChatID = chatID
	if user.Status == StatusRejected {
		user.Status = StatusPending
		user.ApprovedAt = nil
		user.ApprovedBy = ""
	}
	if err := s.db.Save(&user).Error; err != nil {
		return User{}, err
	}
	return user, nil
}

// Decide applies an admin verdict. Approve stamps who and when; reject
// clears both. Revoking an approved user is the same reject transition.
func (s *UserStore) Decide(adminID int64, adminUsername string, telegramID int64, outcome DecisionOutcome) (User, error) {
	if !s.IsAdmin(adminID, adminUsername) {
		return User{}, ErrForbidden
	}
	var user User
	err := s.db.Where("telegram_id = ?", telegramID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}

	switch outcome {
	case OutcomeApprove:
		now := time.Now()
		user.Status = StatusApproved
		user.ApprovedAt = &now
		user.ApprovedBy = adminIdentity(adminID, adminUsername)
	case OutcomeReject:
		user.Status = StatusRejected
		user.ApprovedAt = nil
		user.ApprovedBy = ""
	default:
		return User{}, errors.New("unknown decision outcome")
	}
	if err := s.db.Save(&user).Error; err != nil {
		return User{}, err
	}
	return user, nil
}

// Remove hard-deletes a user. Admin-only; the one explicit deletion path.
func (s *UserStore) Remove(adminID int64, adminUsername string, telegramID int64) error {
	if !s.IsAdmin(adminID, adminUsername) {
		return ErrForbidden
	}
	res := s.db.Unscoped().Where("telegram_id = ?", telegramID).Delete(&User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsApproved reports whether the user may receive reminders.
func (s *UserStore) IsApproved(telegramID int64) (bool, error) {
	var count int64
	err := s.db.Model(&User{}).
		Where("telegram_id = ? AND status = ?", telegramID, StatusApproved).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *UserStore) ListPending() ([]User, error) {
	var users []User
	err := s.db.Where("status = ?", StatusPending).Order("created_at asc").Find(&users).Error
	return users, err
}

func (s *UserStore) ListAll() ([]User, error) {
	var users []User
	err := s.db.Order("created_at asc").Find(&users).Error
	return users, err
}

// Recipients returns the chats the daily summary goes to: every approved
// user plus every known admin, regardless of the admin's own approval
// status, deduplicated by chat.
func (s *UserStore) Recipients() ([]User, error) {
	users, err := s.ListAll()
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool)
	var recipients []User
	for _, u := range users {
		if u.ChatID == 0 || seen[u.ChatID] {
			continue
		}
		if u.Status == StatusApproved || s.IsAdmin(u.TelegramID, u.Username) {
			seen[u.ChatID] = true
			recipients = append(recipients, u)
		}
	}
	return recipients, nil
}

func adminIdentity(id int64, username string) string {
	if username != "" {
		return username
	}
	return strconv.FormatInt(id, 10)
}
