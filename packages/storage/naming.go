package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Kind 对象所属实体
type Kind string

const (
	KindTask   Kind = "tasks"
	KindAnswer Kind = "answers"
)

// Folder 附件类别
type Folder string

const (
	FolderFiles  Folder = "files"
	FolderPhotos Folder = "photos"
)

// BuildObjectName 生成 <kind>/<id>/<folder>/<uuid>.<ext>
// 照片缺省扩展名为 jpg，普通文件没有扩展名时不加后缀
func BuildObjectName(kind Kind, entityID uint, folder Folder, originalName string) (objectName, objectID string) {
	objectID = uuid.NewString()
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(originalName)), ".")
	if ext == "" && folder == FolderPhotos {
		ext = "jpg"
	}
	objectName = fmt.Sprintf("%s/%d/%s/%s", kind, entityID, folder, objectID)
	if ext != "" {
		objectName += "." + ext
	}
	return objectName, objectID
}

// Prefix 该类实体全部对象的公共前缀
func (k Kind) Prefix() string {
	return string(k) + "/"
}

// ObjectNameFromURL URL 以 base 开头时去掉 base；否则丢弃 scheme、空段、host、bucket 四段
func ObjectNameFromURL(base, rawURL string) (string, error) {
	base = strings.TrimRight(base, "/")
	if base != "" && strings.HasPrefix(rawURL, base+"/") {
		name := strings.TrimPrefix(rawURL, base+"/")
		if name != "" {
			return stripQuery(name), nil
		}
	}

	parts := strings.Split(rawURL, "/")
	if len(parts) < 5 {
		return "", fmt.Errorf("storage: 无法从 URL 解析对象名: %q", rawURL)
	}
	name := strings.Join(parts[4:], "/")
	if name == "" {
		return "", fmt.Errorf("storage: 无法从 URL 解析对象名: %q", rawURL)
	}
	return stripQuery(name), nil
}

func stripQuery(name string) string {
	if i := strings.IndexByte(name, '?'); i >= 0 {
		return name[:i]
	}
	return name
}
