package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	attachmentModel "terminal-terrace/testmaker/internal/model/attachment"
	userModel "terminal-terrace/testmaker/internal/model/user"
	"terminal-terrace/testmaker/internal/testutils"
)

func TestReferenceRepository_ReferencedURLs(t *testing.T) {
	db := testutils.SetupTestDB(t)
	teacher := testutils.CreateTestUser(db, testutils.WithRole(userModel.RoleTeacher))
	student := testutils.CreateTestUser(db)

	task := testutils.CreateTestTask(db, teacher.ID,
		testutils.WithTaskFiles(attachmentModel.Attachment{ID: "f", Name: "f.pdf", URL: "http://minio:9000/testmaker/tasks/1/files/f.pdf"}))
	testutils.CreateTestAnswer(db, task.ID, student.ID,
		testutils.WithAnswerPhotos(attachmentModel.Attachment{ID: "p", Name: "p.png", URL: "http://minio:9000/testmaker/answers/1/photos/p.png"}))

	urls, err := NewReferenceRepository(db).ReferencedURLs(context.Background())
	require.NoError(t, err)
	assert.Contains(t, urls, "http://minio:9000/testmaker/tasks/1/files/f.pdf")
	assert.Contains(t, urls, "http://minio:9000/testmaker/answers/1/photos/p.png")
}
