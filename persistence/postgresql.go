// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/wfunc/simonbadge/models"
)

// PostgreSQL 数据库实现
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS game_records (
            id SERIAL PRIMARY KEY,
            record_id VARCHAR(64) UNIQUE NOT NULL,
            badge VARCHAR(32) NOT NULL,
            game_mode VARCHAR(16) NOT NULL,
            rounds INT NOT NULL DEFAULT 0,
            did_win BOOLEAN NOT NULL DEFAULT FALSE,
            peer VARCHAR(32),
            seed BIGINT,
            played_at TIMESTAMP NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_game_records_badge ON game_records(badge);
        CREATE INDEX IF NOT EXISTS idx_game_records_played_at ON game_records(played_at);
    `)

	return err
}

// SaveGameRecords 保存游戏记录
func (p *PostgreSQL) SaveGameRecords(records []models.GameRecord) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 重复上传直接忽略
	query := `
        INSERT INTO game_records (record_id, badge, game_mode, rounds, did_win, peer, seed, played_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (record_id) DO NOTHING
    `
	for _, r := range records {
		if _, err := tx.ExecContext(ctx, query,
			r.ID, r.Badge, r.Mode, r.Rounds, r.DidWin, r.Peer, int64(r.Seed), r.PlayedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetBadgeStats 获取徽章统计信息
func (p *PostgreSQL) GetBadgeStats(badge string) (models.BadgeStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats := models.BadgeStats{Badge: badge}
	query := `
        SELECT
            COUNT(*),
            COALESCE(SUM(CASE WHEN did_win THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN NOT did_win THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN game_mode = 'versus' THEN 1 ELSE 0 END), 0),
            COALESCE(MAX(rounds), 0)
        FROM game_records
        WHERE badge = $1
    `
	err := p.db.QueryRowContext(ctx, query, badge).Scan(
		&stats.TotalGames, &stats.Wins, &stats.Losses, &stats.VersusGames, &stats.BestRounds)
	if err != nil {
		return models.BadgeStats{}, err
	}
	if stats.TotalGames == 0 {
		return models.BadgeStats{}, ErrRecordNotFound
	}
	return stats, nil
}

// ListGameRecords 查询游戏记录
func (p *PostgreSQL) ListGameRecords(badge string, limit int) ([]models.GameRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        SELECT record_id, badge, game_mode, rounds, did_win, COALESCE(peer, ''), COALESCE(seed, 0), played_at
        FROM game_records
    `
	args := []interface{}{}
	if badge != "" {
		query += ` WHERE badge = $1`
		args = append(args, badge)
	}
	query += ` ORDER BY played_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.GameRecord
	for rows.Next() {
		var r models.GameRecord
		var seed int64
		if err := rows.Scan(&r.ID, &r.Badge, &r.Mode, &r.Rounds, &r.DidWin, &r.Peer, &seed, &r.PlayedAt); err != nil {
			return nil, err
		}
		r.Seed = uint32(seed)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
