package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

func isPostgresDialect(dialect string) bool {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return true
	default:
		return false
	}
}

// supportsRowLocking sqlite 不支持 SELECT ... FOR UPDATE。
func supportsRowLocking(dialect string) bool {
	return dialect != "sqlite"
}

func likeOperatorByDialect(dialect string) string {
	if isPostgresDialect(dialect) {
		return "ILIKE"
	}
	return "LIKE"
}

// textColumnExpr JSON 列按文本比较（postgres 需显式转换）。
func textColumnExpr(dialect, column string) string {
	if isPostgresDialect(dialect) {
		return fmt.Sprintf("CAST(%s AS TEXT)", column)
	}
	return column
}

// buildLikeCondition 构建多列 OR LIKE 条件，列名为代码常量，值全部参数化。
func buildLikeCondition(db *gorm.DB, columns []string, keyword string) (string, []interface{}) {
	operator := likeOperatorByDialect(dbDialectName(db))
	like := "%" + escapeLike(keyword) + "%"
	parts := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, column := range columns {
		trimmed := strings.TrimSpace(column)
		if trimmed == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s ? ESCAPE '\\'", trimmed, operator))
		args = append(args, like)
	}
	return strings.Join(parts, " OR "), args
}

// escapeLike 转义 LIKE 通配符，避免用户输入改变匹配语义。
func escapeLike(raw string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(raw)
}
