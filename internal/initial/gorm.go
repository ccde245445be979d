package initial

import (
	"fmt"
	"log"
	"os"
	"time"

	"CivicLink/internal/config"
	assistantEntity "CivicLink/internal/modules/assistant/domain/entity"
	"CivicLink/pkg/zlog"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var GormDB *gorm.DB

func init() {
	conf := config.GetConfig()

	// 未配置 MySQL 时跳过，对话流水落库自动降级为仅日志
	if conf.MysqlConfig.Host == "" {
		zlog.Warn("MySQL 未配置，跳过初始化（对话流水不落库）")
		return
	}

	port := conf.MysqlConfig.Port
	if port == 0 {
		port = 3306
	}
	dbName := conf.MysqlConfig.DatabaseName
	if dbName == "" {
		dbName = conf.AppName
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		conf.MysqlConfig.User, conf.MysqlConfig.Password, conf.MysqlConfig.Host, port, dbName)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var err error
	GormDB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		zlog.Fatal(err.Error())
	}

	// 自动迁移，没有表时自动建表
	err = GormDB.AutoMigrate(
		&assistantEntity.ConversationLog{},
	)
	if err != nil {
		zlog.Fatal(err.Error())
	}
}
