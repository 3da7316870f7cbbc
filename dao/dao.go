// Package dao 封装对 MySQL 的读写
package dao

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 违反唯一约束
	ErrDuplicate = errors.New("duplicate record")
)

// MySQL 唯一键冲突错误码
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
