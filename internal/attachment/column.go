package attachment

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	attachmentModel "terminal-terrace/testmaker/internal/model/attachment"
)

// Column 附件列表所在的 jsonb 列
type Column string

const (
	ColumnFiles  Column = "files"
	ColumnPhotos Column = "photos"
)

// AppendExpr 在数据库端把 items 追加到列尾
func AppendExpr(column Column, items attachmentModel.List) clause.Expr {
	return gorm.Expr(string(column)+" || ?::jsonb", items)
}

// RemoveExpr 在数据库端按 id 删除列表中的一项，保持其余顺序
func RemoveExpr(column Column, id string) clause.Expr {
	return gorm.Expr(
		"(SELECT COALESCE(jsonb_agg(e ORDER BY n), '[]'::jsonb) FROM jsonb_array_elements("+string(column)+") WITH ORDINALITY AS t(e, n) WHERE e->>'id' IS DISTINCT FROM ?)",
		id,
	)
}
