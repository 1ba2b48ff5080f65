package models

import "time"

type User struct {
	ID           int        `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	LastSeenAt   *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Word struct {
	ID   int    `json:"id"`
	Word string `json:"word"`
}

type UserWord struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	WordID    int       `json:"word_id"`
	Word      string    `json:"word"`
	Learned   bool      `json:"learned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SortMode is the ordering used when picking words for an auto reminder.
type SortMode string

const (
	SortNewest SortMode = "newest"
	SortOldest SortMode = "oldest"
	SortRandom SortMode = "random"
)

func (m SortMode) Valid() bool {
	switch m {
	case SortNewest, SortOldest, SortRandom:
		return true
	}
	return false
}

type WordReminder struct {
	ID                 int        `json:"id"`
	UserID             int        `json:"user_id"`
	AutoWordReminderID *int       `json:"auto_word_reminder_id,omitempty"`
	Reminder           string     `json:"reminder"`
	Finish             time.Time  `json:"finish"`
	IsActive           bool       `json:"is_active"`
	HasReminderOnload  bool       `json:"has_reminder_onload"`
	StartsAt           time.Time  `json:"starts_at"`
	LastFiredAt        *time.Time `json:"last_fired_at,omitempty"`
	State              string     `json:"state,omitempty"`
	UserWords          []UserWord `json:"user_words"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// AutoWordReminder is the persisted generator that produces a fresh
// WordReminder every Duration.
type AutoWordReminder struct {
	ID                int        `json:"id"`
	UserID            int        `json:"user_id"`
	Reminder          string     `json:"reminder"`
	DurationMs        int64      `json:"duration"`
	WordCount         int        `json:"word_count"`
	IsActive          bool       `json:"is_active"`
	HasReminderOnload bool       `json:"has_reminder_onload"`
	HasLearnedWords   bool       `json:"has_learned_words"`
	SortMode          SortMode   `json:"sort_mode"`
	NextRunAt         *time.Time `json:"next_run_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// PushToken is one device registration for native push.
type PushToken struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

type PushSubscription struct {
	ID       int    `json:"id"`
	UserID   int    `json:"user_id"`
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

type CreateWordReminderRequest struct {
	Auto              bool         `json:"auto"`
	Reminder          CadenceInput `json:"reminder"`
	IsActive          *bool        `json:"is_active"`
	HasReminderOnload *bool        `json:"has_reminder_onload"`

	Finish    *time.Time `json:"finish,omitempty"`
	UserWords []int      `json:"user_words,omitempty"`

	Duration        *DurationInput `json:"duration,omitempty"`
	WordCount       int            `json:"word_count,omitempty"`
	CreateNow       *bool          `json:"create_now,omitempty"`
	HasLearnedWords *bool          `json:"has_learned_words,omitempty"`
	Order           SortMode       `json:"order,omitempty"`
}

type UpdateWordReminderRequest struct {
	Reminder          CadenceInput `json:"reminder"`
	IsActive          *bool        `json:"is_active"`
	HasReminderOnload *bool        `json:"has_reminder_onload"`
	Finish            *time.Time   `json:"finish"`
	UserWords         []int        `json:"user_words"`
}

type AutoWordReminderRequest struct {
	Reminder          CadenceInput   `json:"reminder"`
	Duration          *DurationInput `json:"duration"`
	WordCount         int            `json:"word_count"`
	CreateNow         *bool          `json:"create_now"`
	IsActive          *bool          `json:"is_active"`
	HasReminderOnload *bool          `json:"has_reminder_onload"`
	HasLearnedWords   *bool          `json:"has_learned_words"`
	SortMode          SortMode       `json:"sort_mode"`
}

type CreateUserWordRequest struct {
	Word string `json:"word"`
}

type UpdateUserWordRequest struct {
	Learned *bool `json:"learned"`
}

type CreateFCMTokenRequest struct {
	Token string `json:"token"`
}

type SubscriptionRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember,omitempty"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
