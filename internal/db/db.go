package db

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/logx"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/models"
)

var conn *gorm.DB

// Init opens the shared database at path and keeps it in the package
// singleton used by Conn().
func Init(path string) error {
	gdb, err := Open(path)
	if err != nil {
		return err
	}
	conn = gdb
	logx.L().WithField("path", path).Info("database ready (sqlite)")
	return nil
}

// Open opens an isolated database at path, migrates it, and creates the
// partial unique indexes. Tests use it directly against temp files.
func Open(path string) (*gorm.DB, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true, // unique violations become gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}

	// SQLite works best with a single writer; cap the pool accordingly.
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := gdb.AutoMigrate(
		&models.Child{},
		&models.Session{},
		&models.PresenceRecord{},
		&models.PrecheckCode{},
		&models.Notification{},
	); err != nil {
		return nil, err
	}

	// Partial unique indexes GORM can't express with struct tags. These are
	// the store-level guarantees behind the open-session and duplicate
	// check-in races: the losing writer hits a unique violation.
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_sessions_open
		   ON sessions(status) WHERE status = 'open'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_presence_present
		   ON presence_records(child_id, session_id) WHERE status = 'present'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_precheck_pending
		   ON precheck_codes(child_id, session_id) WHERE status = 'pending'`,
		`CREATE INDEX IF NOT EXISTS idx_precheck_session_code
		   ON precheck_codes(session_id, code)`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return nil, err
		}
	}

	return gdb, nil
}

func Conn() *gorm.DB {
	return conn
}
