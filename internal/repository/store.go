package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"mentorhub_backend/internal/util"
	"mentorhub_backend/pkg/monitoring"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const defaultQueryTimeout = 5 * time.Second

// MySQL 中可重试的错误码：连接数过多、锁等待超时、死锁
var transientMySQLCodes = map[uint16]bool{
	1040: true,
	1205: true,
	1213: true,
}

// classifyError 将驱动错误归入引擎的错误分类
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", util.ErrNotFound, err)
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %v", util.ErrTransientStore, err)
	}
	return err
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return transientMySQLCodes[myErr.Number]
	}
	return false
}

// boundedDB 为每次存储调用附加超时和耗时统计
type boundedDB struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func (b boundedDB) run(ctx context.Context, op string, fn func(db *gorm.DB) error) error {
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := fn(b.DB.WithContext(ctx))
	monitoring.ObserveStoreCall(op, time.Since(start), err)

	// 超时可能以驱动自身的错误形式返回，这里以 ctx 状态为准
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %s timed out after %s", util.ErrTransientStore, op, timeout)
	}
	return classifyError(err)
}
