// Package attachment 管理作业与提交的附件：校验、上传、补偿删除、批量清理。
package attachment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	attachmentModel "terminal-terrace/testmaker/internal/model/attachment"
	"terminal-terrace/testmaker/packages/response"
	"terminal-terrace/testmaker/packages/storage"
)

type Manager struct {
	store   storage.ObjectStore
	maxSize int64
	logger  *slog.Logger
}

func NewManager(store storage.ObjectStore, maxSize int64, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, maxSize: maxSize, logger: logger}
}

// ValidateFiles 检查大小
func (m *Manager) ValidateFiles(files []Upload) error {
	for _, f := range files {
		if err := m.checkSize(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePhotos 检查整批照片的类型和大小，任何一张不合法都不上传
func (m *Manager) ValidatePhotos(photos []Upload) error {
	for _, p := range photos {
		if !AllowedPhotoTypes[p.MediaType()] {
			return response.NewBusinessError(
				response.WithErrorCode(response.ValidationFailed),
				response.WithErrorMessage(fmt.Sprintf("不支持的图片类型 %q (%s)，仅支持 jpeg/png/gif/webp", p.ContentType, p.Name)),
			)
		}
		if err := m.checkSize(p); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) checkSize(u Upload) error {
	if m.maxSize > 0 && u.Size > m.maxSize {
		return response.NewBusinessError(
			response.WithErrorCode(response.ValidationFailed),
			response.WithErrorMessage(fmt.Sprintf("文件 %s 超过大小限制 %d 字节", u.Name, m.maxSize)),
		)
	}
	return nil
}

// UploadFiles 按顺序上传普通文件
func (m *Manager) UploadFiles(ctx context.Context, kind storage.Kind, entityID uint, files []Upload) (attachmentModel.List, error) {
	if err := m.ValidateFiles(files); err != nil {
		return nil, err
	}
	return m.uploadBatch(ctx, kind, entityID, storage.FolderFiles, files)
}

// UploadPhotos 先校验整批，再按顺序上传
func (m *Manager) UploadPhotos(ctx context.Context, kind storage.Kind, entityID uint, photos []Upload) (attachmentModel.List, error) {
	if err := m.ValidatePhotos(photos); err != nil {
		return nil, err
	}
	return m.uploadBatch(ctx, kind, entityID, storage.FolderPhotos, photos)
}

// uploadBatch 中途失败时删除本批已上传的对象
func (m *Manager) uploadBatch(ctx context.Context, kind storage.Kind, entityID uint, folder storage.Folder, items []Upload) (attachmentModel.List, error) {
	uploaded := make(attachmentModel.List, 0, len(items))
	for _, item := range items {
		a, err := m.uploadOne(ctx, kind, entityID, folder, item)
		if err != nil {
			if len(uploaded) > 0 {
				report := m.DeleteAll(context.WithoutCancel(ctx), uploaded)
				m.logger.Warn("上传中断，已回收本批对象",
					"entity", kind, "id", entityID, "deleted", len(report.Deleted), "failed", report.Failed)
			}
			return nil, response.NewBusinessError(
				response.WithErrorCode(response.StorageFailure),
				response.WithErrorMessage(fmt.Sprintf("上传文件 %s 失败", item.Name)),
				response.WithError(err),
			)
		}
		uploaded = append(uploaded, a)
	}
	return uploaded, nil
}

func (m *Manager) uploadOne(ctx context.Context, kind storage.Kind, entityID uint, folder storage.Folder, item Upload) (attachmentModel.Attachment, error) {
	objectName, objectID := storage.BuildObjectName(kind, entityID, folder, item.Name)

	r, err := item.Open()
	if err != nil {
		return attachmentModel.Attachment{}, fmt.Errorf("打开文件失败: %w", err)
	}
	defer r.Close()

	url, err := m.store.Upload(ctx, objectName, r, item.Size, item.ContentType)
	if err != nil {
		return attachmentModel.Attachment{}, err
	}
	return attachmentModel.Attachment{ID: objectID, Name: item.Name, URL: url}, nil
}

// Delete 删除单个附件对象，失败返回 StorageFailure
func (m *Manager) Delete(ctx context.Context, a attachmentModel.Attachment) error {
	objectName, err := m.store.ObjectName(a.URL)
	if err != nil {
		return response.NewBusinessError(
			response.WithErrorCode(response.StorageFailure),
			response.WithErrorMessage("附件地址无法解析"),
			response.WithError(err),
		)
	}
	if err := m.store.Delete(ctx, objectName); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return response.NewBusinessError(
			response.WithErrorCode(response.StorageFailure),
			response.WithErrorMessage(fmt.Sprintf("删除附件 %s 失败", a.Name)),
			response.WithError(err),
		)
	}
	return nil
}

// DeleteAll 逐项尽力删除，失败记录在报告里而不返回错误
func (m *Manager) DeleteAll(ctx context.Context, lists ...attachmentModel.List) CleanupReport {
	var report CleanupReport
	for _, list := range lists {
		for _, a := range list {
			objectName, err := m.store.ObjectName(a.URL)
			if err != nil {
				report.fail(a.URL, err.Error())
				m.logger.Warn("附件地址无法解析，跳过", "url", a.URL, "error", err)
				continue
			}
			if err := m.store.Delete(ctx, objectName); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
				report.fail(objectName, err.Error())
				m.logger.Warn("删除附件对象失败", "object", objectName, "error", err)
				continue
			}
			report.Deleted = append(report.Deleted, objectName)
		}
	}
	return report
}

// Presign 生成附件的临时访问地址
func (m *Manager) Presign(ctx context.Context, a attachmentModel.Attachment, ttl time.Duration) (string, error) {
	objectName, err := m.store.ObjectName(a.URL)
	if err != nil {
		return "", response.NewBusinessError(
			response.WithErrorCode(response.StorageFailure),
			response.WithErrorMessage("附件地址无法解析"),
			response.WithError(err),
		)
	}
	url, err := m.store.Presign(ctx, objectName, ttl)
	if err != nil {
		return "", response.NewBusinessError(
			response.WithErrorCode(response.StorageFailure),
			response.WithErrorMessage("生成临时地址失败"),
			response.WithError(err),
		)
	}
	return url, nil
}
