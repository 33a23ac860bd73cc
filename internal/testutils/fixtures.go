package testutils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	answerModel "terminal-terrace/testmaker/internal/model/answer"
	attachmentModel "terminal-terrace/testmaker/internal/model/attachment"
	taskModel "terminal-terrace/testmaker/internal/model/task"
	userModel "terminal-terrace/testmaker/internal/model/user"
)

// NewTestUser builds an unsaved active local user with unique username/email
func NewTestUser(opts ...UserOption) *userModel.User {
	uniqueID := uuid.NewString()
	username := fmt.Sprintf("test_user_%s", uniqueID)
	hash := "hashed:password"

	u := &userModel.User{
		Username:       &username,
		Email:          fmt.Sprintf("test_%s@example.com", uniqueID),
		HashedPassword: &hash,
		Role:           userModel.RoleStudent,
		OAuthProvider:  userModel.ProviderLocal,
		IsActive:       true,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// CreateTestUser creates a test user with unique username/email
func CreateTestUser(db *gorm.DB, opts ...UserOption) *userModel.User {
	u := NewTestUser(opts...)
	if err := db.Create(u).Error; err != nil {
		panic(fmt.Sprintf("Failed to create test user: %v", err))
	}
	return u
}

// UserOption configures test user
type UserOption func(*userModel.User)

func WithUsername(username string) UserOption {
	return func(u *userModel.User) {
		u.Username = &username
	}
}

func WithEmail(email string) UserOption {
	return func(u *userModel.User) {
		u.Email = email
	}
}

func WithRole(role userModel.Role) UserOption {
	return func(u *userModel.User) {
		u.Role = role
	}
}

func WithPasswordHash(hash string) UserOption {
	return func(u *userModel.User) {
		u.HashedPassword = &hash
	}
}

// WithOAuth turns the user into an externally authenticated account without a local password
func WithOAuth(provider userModel.Provider, id string) UserOption {
	return func(u *userModel.User) {
		u.OAuthProvider = provider
		u.OAuthID = &id
		u.HashedPassword = nil
	}
}

func WithInactive() UserOption {
	return func(u *userModel.User) {
		u.IsActive = false
	}
}

// NewTestTask builds an unsaved task owned by checkerID
func NewTestTask(checkerID uint, opts ...TaskOption) *taskModel.Task {
	t := &taskModel.Task{
		Title:       fmt.Sprintf("test_task_%s", uuid.NewString()),
		Description: "Test task description",
		LessonName:  "Algorithms",
		LessonType:  taskModel.LessonLecture,
		Specialty:   "Software Engineering",
		Course:      1,
		CheckerID:   checkerID,
		Files:       attachmentModel.List{},
		Photos:      attachmentModel.List{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CreateTestTask creates a test task
func CreateTestTask(db *gorm.DB, checkerID uint, opts ...TaskOption) *taskModel.Task {
	t := NewTestTask(checkerID, opts...)
	if err := db.Omit("Checker").Create(t).Error; err != nil {
		panic(fmt.Sprintf("Failed to create test task: %v", err))
	}
	return t
}

// TaskOption configures test task
type TaskOption func(*taskModel.Task)

func WithTitle(title string) TaskOption {
	return func(t *taskModel.Task) {
		t.Title = title
	}
}

func WithCourse(specialty string, course int) TaskOption {
	return func(t *taskModel.Task) {
		t.Specialty = specialty
		t.Course = course
	}
}

func WithDeadline(deadline time.Time) TaskOption {
	return func(t *taskModel.Task) {
		t.Deadline = &deadline
	}
}

func WithLessonType(lt taskModel.LessonType) TaskOption {
	return func(t *taskModel.Task) {
		t.LessonType = lt
	}
}

func WithLessonName(name string) TaskOption {
	return func(t *taskModel.Task) {
		t.LessonName = name
	}
}

func WithTaskFiles(files ...attachmentModel.Attachment) TaskOption {
	return func(t *taskModel.Task) {
		t.Files = append(t.Files, files...)
	}
}

// NewTestAnswer builds an unsaved submitted answer
func NewTestAnswer(taskID, studentID uint, opts ...AnswerOption) *answerModel.Answer {
	a := &answerModel.Answer{
		TaskID:    taskID,
		StudentID: studentID,
		Message:   "done",
		Files:     attachmentModel.List{},
		Photos:    attachmentModel.List{},
		Status:    answerModel.StatusSubmitted,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CreateTestAnswer creates a test answer
func CreateTestAnswer(db *gorm.DB, taskID, studentID uint, opts ...AnswerOption) *answerModel.Answer {
	a := NewTestAnswer(taskID, studentID, opts...)
	if err := db.Omit("Task", "Student").Create(a).Error; err != nil {
		panic(fmt.Sprintf("Failed to create test answer: %v", err))
	}
	return a
}

// AnswerOption configures test answer
type AnswerOption func(*answerModel.Answer)

func WithGrade(grade int, status answerModel.Status) AnswerOption {
	return func(a *answerModel.Answer) {
		now := time.Now()
		a.Grade = &grade
		a.Status = status
		a.GradedAt = &now
	}
}

func WithAnswerPhotos(photos ...attachmentModel.Attachment) AnswerOption {
	return func(a *answerModel.Answer) {
		a.Photos = append(a.Photos, photos...)
	}
}

// ApplyAttachments mirrors the jsonb append/remove expressions for in-memory repositories
func ApplyAttachments(list attachmentModel.List, appended attachmentModel.List, removedID string) attachmentModel.List {
	out := make(attachmentModel.List, 0, len(list)+len(appended))
	for _, a := range list {
		if removedID != "" && a.ID == removedID {
			continue
		}
		out = append(out, a)
	}
	return append(out, appended...)
}
