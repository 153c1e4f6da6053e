// persistence/gorm_postgresql.go
package persistence

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/wfunc/simonbadge/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold: time.Second,   // 慢SQL阈值
			LogLevel:      logger.Silent, // 日志级别
			Colorful:      false,         // 禁用彩色打印
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	// 获取通用数据库对象 sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormGameRecord{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveGameRecords 保存游戏记录
func (p *GormPostgreSQL) SaveGameRecords(records []models.GameRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]models.GormGameRecord, 0, len(records))
	for _, r := range records {
		rows = append(rows, models.GormGameRecord{
			RecordID: r.ID,
			Badge:    r.Badge,
			GameMode: r.Mode,
			Rounds:   r.Rounds,
			DidWin:   r.DidWin,
			Peer:     r.Peer,
			Seed:     int64(r.Seed),
			PlayedAt: r.PlayedAt,
		})
	}

	// 重复上传直接忽略
	return p.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_id"}},
		DoNothing: true,
	}).Create(&rows).Error
}

// GetBadgeStats 获取徽章统计信息
func (p *GormPostgreSQL) GetBadgeStats(badge string) (models.BadgeStats, error) {
	stats := models.BadgeStats{Badge: badge}

	err := p.db.Raw(`
        SELECT
            COUNT(*) as total_games,
            SUM(CASE WHEN did_win THEN 1 ELSE 0 END) as wins,
            SUM(CASE WHEN NOT did_win THEN 1 ELSE 0 END) as losses,
            SUM(CASE WHEN game_mode = 'versus' THEN 1 ELSE 0 END) as versus_games,
            COALESCE(MAX(rounds), 0) as best_rounds
        FROM gorm_game_records
        WHERE badge = ? AND deleted_at IS NULL`,
		badge,
	).Scan(&stats).Error
	if err != nil {
		return models.BadgeStats{}, err
	}
	if stats.TotalGames == 0 {
		return models.BadgeStats{}, ErrRecordNotFound
	}
	return stats, nil
}

// ListGameRecords 查询游戏记录
func (p *GormPostgreSQL) ListGameRecords(badge string, limit int) ([]models.GameRecord, error) {
	var rows []models.GormGameRecord
	q := p.db.Order("played_at DESC")
	if badge != "" {
		q = q.Where("badge = ?", badge)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]models.GameRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.GameRecord{
			ID:       row.RecordID,
			Badge:    row.Badge,
			Mode:     row.GameMode,
			Rounds:   row.Rounds,
			DidWin:   row.DidWin,
			Peer:     row.Peer,
			Seed:     uint32(row.Seed),
			PlayedAt: row.PlayedAt,
		})
	}
	return records, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
