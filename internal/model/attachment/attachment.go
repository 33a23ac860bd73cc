package attachment

import "gorm.io/datatypes"

// Attachment 附件元数据，ID 为对象名中的 uuid
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// List 以 jsonb 存储的有序附件列表
type List = datatypes.JSONSlice[Attachment]
