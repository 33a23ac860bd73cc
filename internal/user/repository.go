package user

import (
	"context"
	"strings"

	"gorm.io/gorm"

	answerModel "terminal-terrace/testmaker/internal/model/answer"
	attachmentModel "terminal-terrace/testmaker/internal/model/attachment"
	taskModel "terminal-terrace/testmaker/internal/model/task"
	userModel "terminal-terrace/testmaker/internal/model/user"
)

// UserRepository 用户数据访问
type UserRepository interface {
	Create(ctx context.Context, u *userModel.User) error
	GetByID(ctx context.Context, id uint) (*userModel.User, error)
	GetByUsername(ctx context.Context, username string) (*userModel.User, error)
	GetByEmail(ctx context.Context, email string) (*userModel.User, error)
	GetByOAuth(ctx context.Context, provider userModel.Provider, oauthID string) (*userModel.User, error)
	List(ctx context.Context, q ListQuery) ([]userModel.User, int64, error)
	UsernameTaken(ctx context.Context, username string, excludeID uint) (bool, error)
	EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error)
	Update(ctx context.Context, id uint, changes map[string]any) error
	MarkEmailVerified(ctx context.Context, id uint, email string) (bool, error)
	Delete(ctx context.Context, id uint) error
	AttachmentsOwnedBy(ctx context.Context, userID uint) ([]attachmentModel.List, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *userModel.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*userModel.User, error) {
	var u userModel.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	return &u, err
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*userModel.User, error) {
	var u userModel.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	return &u, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*userModel.User, error) {
	var u userModel.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	return &u, err
}

func (r *userRepository) GetByOAuth(ctx context.Context, provider userModel.Provider, oauthID string) (*userModel.User, error) {
	var u userModel.User
	err := r.db.WithContext(ctx).
		Where("oauth_provider = ? AND oauth_id = ?", provider, oauthID).
		First(&u).Error
	return &u, err
}

// List 按条件分页，按 id 升序
func (r *userRepository) List(ctx context.Context, q ListQuery) ([]userModel.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&userModel.User{})
	if q.Role != "" {
		query = query.Where("role = ?", q.Role)
	}
	if q.IsActive != nil {
		query = query.Where("is_active = ?", *q.IsActive)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + s + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ? OR full_name ILIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []userModel.User
	err := query.Order("id ASC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&users).Error
	return users, total, err
}

func (r *userRepository) UsernameTaken(ctx context.Context, username string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userModel.User{}).
		Where("username = ? AND id <> ?", username, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userModel.User{}).
		Where("email = ? AND id <> ?", email, excludeID).
		Count(&count).Error
	return count > 0, err
}

// MarkEmailVerified 仅当邮箱仍为 email 时置为已验证
func (r *userRepository) MarkEmailVerified(ctx context.Context, id uint, email string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&userModel.User{}).
		Where("id = ? AND email = ?", id, email).
		Update("is_email_verified", true)
	return result.RowsAffected > 0, result.Error
}

func (r *userRepository) Update(ctx context.Context, id uint, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&userModel.User{}).Where("id = ?", id).Updates(changes)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete 外键级联删除该用户的作业和提交
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&userModel.User{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AttachmentsOwnedBy 用户作为 checker 的作业、这些作业下的提交、用户自己的提交，三者的附件列表
func (r *userRepository) AttachmentsOwnedBy(ctx context.Context, userID uint) ([]attachmentModel.List, error) {
	db := r.db.WithContext(ctx)

	var tasks []taskModel.Task
	if err := db.Select("id", "files", "photos").Where("checker_id = ?", userID).Find(&tasks).Error; err != nil {
		return nil, err
	}

	var answers []answerModel.Answer
	err := db.Select("id", "files", "photos").
		Where("student_id = ? OR task_id IN (?)", userID,
			db.Model(&taskModel.Task{}).Select("id").Where("checker_id = ?", userID)).
		Find(&answers).Error
	if err != nil {
		return nil, err
	}

	lists := make([]attachmentModel.List, 0, 2*(len(tasks)+len(answers)))
	for _, t := range tasks {
		lists = append(lists, t.Files, t.Photos)
	}
	for _, a := range answers {
		lists = append(lists, a.Files, a.Photos)
	}
	return lists, nil
}
