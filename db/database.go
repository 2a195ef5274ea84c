package db

import (
	"database/sql"
	"fmt"
	"log"

	"SplitTrackFM/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
func InitDB() error {
	if err := createSongsTable(); err != nil {
		return err
	}

	log.Println("Database initialization completed.")
	return nil
}

// createSongsTable 本地歌曲登记表。只追加不修改，
// 元数据本体在存储网络里，这里只是列表页用的索引。
func createSongsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS songs (
		id INT AUTO_INCREMENT PRIMARY KEY,
		entity_key VARCHAR(66) NOT NULL UNIQUE,
		song_title VARCHAR(255) NOT NULL,
		artist VARCHAR(255) NOT NULL,
		nft_address VARCHAR(42),
		splitter_address VARCHAR(42),
		tx_hash VARCHAR(66),
		agreement_hash VARCHAR(66),
		created_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		INDEX idx_artist (artist)
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create songs table: %w", err)
	}
	log.Println("Songs table initialized successfully (or already exists).")
	return nil
}
