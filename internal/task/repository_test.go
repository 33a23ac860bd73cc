package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"terminal-terrace/testmaker/internal/attachment"
	answerModel "terminal-terrace/testmaker/internal/model/answer"
	attachmentModel "terminal-terrace/testmaker/internal/model/attachment"
	taskModel "terminal-terrace/testmaker/internal/model/task"
	userModel "terminal-terrace/testmaker/internal/model/user"
	"terminal-terrace/testmaker/internal/testutils"
)

func TestTaskRepository_UniqueTitle(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	checker := testutils.CreateTestUser(db, testutils.WithRole(userModel.RoleTeacher))

	require.NoError(t, repo.Create(ctx, testutils.NewTestTask(checker.ID, testutils.WithTitle("Unique Intro"))))
	taken, err := repo.TitleTaken(ctx, "Unique Intro", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	// 唯一约束冲突后事务失效，放在最后
	err = repo.Create(ctx, testutils.NewTestTask(checker.ID, testutils.WithTitle("Unique Intro")))
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestTaskRepository_AttachmentExpressions(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	checker := testutils.CreateTestUser(db, testutils.WithRole(userModel.RoleTeacher))
	task := testutils.CreateTestTask(db, checker.ID,
		testutils.WithTaskFiles(attachmentModel.Attachment{ID: "a", Name: "a.pdf", URL: "u/a"}))

	require.NoError(t, repo.AppendAttachments(ctx, task.ID, attachment.ColumnFiles, attachmentModel.List{
		{ID: "b", Name: "b.pdf", URL: "u/b"},
		{ID: "c", Name: "a.pdf", URL: "u/c"},
	}))
	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, got.Files, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got.Files[0].ID, got.Files[1].ID, got.Files[2].ID})

	require.NoError(t, repo.RemoveAttachment(ctx, task.ID, attachment.ColumnFiles, "b"))
	got, err = repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, got.Files, 2)
	assert.Equal(t, "a", got.Files[0].ID)
	assert.Equal(t, "c", got.Files[1].ID)

	// 删除最后一项后是空数组而不是 null
	require.NoError(t, repo.RemoveAttachment(ctx, task.ID, attachment.ColumnPhotos, "none"))
	got, err = repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Photos)
	assert.Empty(t, got.Photos)
}

func TestTaskRepository_List(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	checker := testutils.CreateTestUser(db, testutils.WithRole(userModel.RoleTeacher))
	now := time.Now().UTC()

	testutils.CreateTestTask(db, checker.ID, testutils.WithLessonName("Linear Algebra"), testutils.WithDeadline(now.Add(48*time.Hour)))
	testutils.CreateTestTask(db, checker.ID, testutils.WithLessonName("Algebra II"), testutils.WithDeadline(now.Add(-time.Hour)))
	testutils.CreateTestTask(db, checker.ID, testutils.WithLessonName("Physics"), testutils.WithLessonType(taskModel.LessonLab))

	tests := []struct {
		name  string
		query ListQuery
		names []string
	}{
		{"课程名模糊匹配，按截止时间排序", ListQuery{LessonName: "algebra"}, []string{"Algebra II", "Linear Algebra"}},
		{"未截止", ListQuery{LessonName: "algebra", Upcoming: true}, []string{"Linear Algebra"}},
		{"已截止", ListQuery{Overdue: true}, []string{"Algebra II"}},
		{"课程类型", ListQuery{LessonType: taskModel.LessonLab}, []string{"Physics"}},
		{"全部，无截止时间的在最后", ListQuery{}, []string{"Algebra II", "Linear Algebra", "Physics"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.query
			q.CheckerID = &checker.ID
			q.Page, q.PageSize = 1, 10
			tasks, total, err := repo.List(ctx, q, now)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.names)), total)
			var names []string
			for _, task := range tasks {
				names = append(names, task.LessonName)
			}
			assert.Equal(t, tt.names, names)
		})
	}
}

func TestTaskRepository_DeleteCascades(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	checker := testutils.CreateTestUser(db, testutils.WithRole(userModel.RoleTeacher))
	student := testutils.CreateTestUser(db)
	task := testutils.CreateTestTask(db, checker.ID)
	photo := attachmentModel.Attachment{ID: "p", Name: "p.png", URL: "u/p"}
	testutils.CreateTestAnswer(db, task.ID, student.ID, testutils.WithAnswerPhotos(photo))

	lists, err := repo.AnswerAttachments(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, attachmentModel.List{photo}, lists[1])

	require.NoError(t, repo.Delete(ctx, task.ID))
	var count int64
	require.NoError(t, db.Model(&answerModel.Answer{}).Where("task_id = ?", task.ID).Count(&count).Error)
	assert.Zero(t, count)
	assert.ErrorIs(t, repo.Delete(ctx, task.ID), gorm.ErrRecordNotFound)
}
