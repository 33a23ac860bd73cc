package reconcile

import (
	"context"

	"gorm.io/gorm"

	answerModel "terminal-terrace/testmaker/internal/model/answer"
	attachmentModel "terminal-terrace/testmaker/internal/model/attachment"
	taskModel "terminal-terrace/testmaker/internal/model/task"
)

const batchSize = 500

// ReferenceSource 数据库中仍被引用的附件地址
type ReferenceSource interface {
	ReferencedURLs(ctx context.Context) ([]string, error)
}

type referenceRepository struct {
	db *gorm.DB
}

func NewReferenceRepository(db *gorm.DB) ReferenceSource {
	return &referenceRepository{db: db}
}

func appendURLs(urls []string, lists ...attachmentModel.List) []string {
	for _, list := range lists {
		for _, a := range list {
			urls = append(urls, a.URL)
		}
	}
	return urls
}

// ReferencedURLs 分批读取作业和提交的附件列
func (r *referenceRepository) ReferencedURLs(ctx context.Context) ([]string, error) {
	var urls []string

	var tasks []taskModel.Task
	err := r.db.WithContext(ctx).Select("id", "files", "photos").
		FindInBatches(&tasks, batchSize, func(tx *gorm.DB, batch int) error {
			for _, t := range tasks {
				urls = appendURLs(urls, t.Files, t.Photos)
			}
			return nil
		}).Error
	if err != nil {
		return nil, err
	}

	var answers []answerModel.Answer
	err = r.db.WithContext(ctx).Select("id", "files", "photos").
		FindInBatches(&answers, batchSize, func(tx *gorm.DB, batch int) error {
			for _, a := range answers {
				urls = appendURLs(urls, a.Files, a.Photos)
			}
			return nil
		}).Error
	if err != nil {
		return nil, err
	}
	return urls, nil
}
