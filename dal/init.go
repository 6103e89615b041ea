package dal

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/joltify-finance/token-staking/dal/do"
)

// GlobalDBClient is the connection opened by InitDB.
var GlobalDBClient *gorm.DB

const (
	DBTypeMySQL  = "mysql"
	DBTypeSQLite = "sqlite"
)

type DBConfig struct {
	// Type is either mysql or sqlite.
	Type     string
	Username string
	Password string
	// Address including the ip address and port of database (e.g. 127.0.0.1:3306)
	Address      string
	DatabaseName string
	// Path of the sqlite database file, ":memory:" for a private in-memory one.
	Path string
}

func (cfg *DBConfig) dialector(withDatabase bool) (gorm.Dialector, error) {
	switch cfg.Type {
	case DBTypeMySQL, "":
		dbName := ""
		if withDatabase {
			dbName = cfg.DatabaseName
		}
		dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local", cfg.Username, cfg.Password,
			cfg.Address, dbName)
		return mysql.Open(dsn), nil
	case DBTypeSQLite:
		return sqlite.Open(cfg.Path), nil
	}
	return nil, fmt.Errorf("unknown database type %q", cfg.Type)
}

// OpenDB connects to the database described by cfg, creating the database
// and the tables first when autoCreate is set.
func OpenDB(cfg *DBConfig, autoCreate bool) (*gorm.DB, error) {
	if autoCreate && cfg.Type != DBTypeSQLite {
		err := CreateDatabase(cfg)
		if err != nil {
			return nil, err
		}
	}

	if cfg.Type == DBTypeSQLite {
		log.Infof("Opening sqlite database %v...", cfg.Path)
	} else {
		log.Infof("Connecting to database %v at %v...", cfg.DatabaseName, cfg.Address)
	}

	dialector, err := cfg.dialector(true)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	if cfg.Type == DBTypeSQLite {
		// one connection, so that an in-memory database is shared and
		// writers never race on the file lock
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if autoCreate {
		err = CreateTables(db)
		if err != nil {
			return nil, err
		}
	}

	log.Infof("Successfully connect to database")
	return db, nil
}

func InitDB(cfg *DBConfig, autoCreate bool) error {
	db, err := OpenDB(cfg, autoCreate)
	if err != nil {
		return err
	}
	GlobalDBClient = db
	return nil
}

func CreateDatabase(cfg *DBConfig) error {
	log.Infof("Creating database %s...", cfg.DatabaseName)

	dialector, err := cfg.dialector(false)
	if err != nil {
		return err
	}
	db, err := gorm.Open(dialector, nil)
	if err != nil {
		return err
	}

	createSQL := fmt.Sprintf(
		"CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4;",
		cfg.DatabaseName,
	)

	err = db.Exec(createSQL).Error
	if err != nil {
		log.Infof("Unable to create database %s...", cfg.DatabaseName)
		return err
	}
	return nil
}

var tables = []struct {
	name  string
	model interface{}
}{
	{"pool_infos", &do.PoolInfo{}},
	{"account_infos", &do.AccountInfo{}},
	{"rate_history_infos", &do.RateHistoryInfo{}},
	{"event_infos", &do.EventInfo{}},
	{"pool_snapshot_infos", &do.PoolSnapshotInfo{}},
	{"token_balances", &do.TokenBalance{}},
	{"token_allowances", &do.TokenAllowance{}},
	{"token_metas", &do.TokenMeta{}},
}

func CreateTables(db *gorm.DB) error {
	for _, table := range tables {
		log.Infof("Creating table %s...", table.name)
		err := db.AutoMigrate(table.model)
		if err != nil {
			log.Infof("Fail to create table %s", table.name)
			return err
		}
	}
	return nil
}
