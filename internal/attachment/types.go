package attachment

import (
	"bytes"
	"io"
	"mime/multipart"
	"strings"

	attachmentModel "terminal-terrace/testmaker/internal/model/attachment"
)

// AllowedPhotoTypes 照片允许的 Content-Type
var AllowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Upload 一个待上传的文件
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FromFileHeader 包装 multipart 表单文件
func FromFileHeader(fh *multipart.FileHeader) Upload {
	return Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// FromFileHeaders 批量包装，保持顺序
func FromFileHeaders(fhs []*multipart.FileHeader) []Upload {
	out := make([]Upload, 0, len(fhs))
	for _, fh := range fhs {
		out = append(out, FromFileHeader(fh))
	}
	return out
}

// FromForm 取出表单中的 files 和 photos 字段，表单为 nil 时都为空
func FromForm(form *multipart.Form) (files, photos []Upload) {
	if form == nil {
		return nil, nil
	}
	return FromFileHeaders(form.File["files"]), FromFileHeaders(form.File["photos"])
}

// FromBytes 内存中的文件
func FromBytes(name, contentType string, data []byte) Upload {
	return Upload{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// MediaType 去掉参数并转小写
func (u Upload) MediaType() string {
	ct, _, _ := strings.Cut(u.ContentType, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

// CleanupReport 批量删除对象的逐项结果
type CleanupReport struct {
	Deleted []string          `json:"deleted"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// OK 全部删除成功
func (r CleanupReport) OK() bool {
	return len(r.Failed) == 0
}

func (r *CleanupReport) fail(key, reason string) {
	if r.Failed == nil {
		r.Failed = make(map[string]string)
	}
	r.Failed[key] = reason
}

// Remove 先按 ID 匹配，否则取第一个同名附件
func Remove(list attachmentModel.List, key string) (attachmentModel.Attachment, attachmentModel.List, bool) {
	idx := -1
	for i, a := range list {
		if a.ID != "" && a.ID == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i, a := range list {
			if a.Name == key {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return attachmentModel.Attachment{}, list, false
	}

	rest := make(attachmentModel.List, 0, len(list)-1)
	rest = append(rest, list[:idx]...)
	rest = append(rest, list[idx+1:]...)
	return list[idx], rest, true
}

// Find 与 Remove 相同的匹配规则，不修改列表
func Find(list attachmentModel.List, key string) (attachmentModel.Attachment, bool) {
	a, _, ok := Remove(list, key)
	return a, ok
}
