package repository

import (
	"database/sql"
	"fmt"
	"time"

	"SplitTrackFM/db"
	"SplitTrackFM/model"
)

// SongRepository defines the interface for the local song registry.
type SongRepository interface {
	CreateSong(record *model.SongRecord) (int64, error)
	GetByEntityKey(entityKey string) (*model.SongRecord, error)
	ListSongs(limit int) ([]*model.SongRecord, error)
	ListSongsByArtist(artist string) ([]*model.SongRecord, error)
}

// mysqlSongRepository implements SongRepository for MySQL.
type mysqlSongRepository struct {
	DB *sql.DB
}

// NewMySQLSongRepository creates a new instance of mysqlSongRepository.
func NewMySQLSongRepository() SongRepository {
	return &mysqlSongRepository{DB: db.DB}
}

// CreateSong adds a registry row for a song that was successfully created.
func (r *mysqlSongRepository) CreateSong(record *model.SongRecord) (int64, error) {
	query := `INSERT INTO songs (entity_key, song_title, artist, nft_address, splitter_address, tx_hash, agreement_hash, created_at, expires_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateSong: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(record.EntityKey, record.SongTitle, record.Artist,
		record.NFTAddress, record.SplitterAddress, record.TxHash, record.AgreementHash,
		record.CreatedAt, record.ExpiresAt)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateSong: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateSong: %w", err)
	}
	return id, nil
}

// GetByEntityKey retrieves a registry row by its entity key.
func (r *mysqlSongRepository) GetByEntityKey(entityKey string) (*model.SongRecord, error) {
	query := `SELECT id, entity_key, song_title, artist, nft_address, splitter_address, tx_hash, agreement_hash, created_at, expires_at
	           FROM songs WHERE entity_key = ?`
	row := r.DB.QueryRow(query, entityKey)

	record := &model.SongRecord{}
	err := scanSongRecord(row, record)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not registered locally
		}
		return nil, fmt.Errorf("failed to scan song record for key %s: %w", entityKey, err)
	}
	return record, nil
}

// ListSongs retrieves the most recently created songs, unexpired first.
func (r *mysqlSongRepository) ListSongs(limit int) ([]*model.SongRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, entity_key, song_title, artist, nft_address, splitter_address, tx_hash, agreement_hash, created_at, expires_at
	           FROM songs WHERE expires_at > ? ORDER BY created_at DESC LIMIT ?`
	rows, err := r.DB.Query(query, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	return collectSongRecords(rows)
}

// ListSongsByArtist retrieves all unexpired registry rows for one artist.
func (r *mysqlSongRepository) ListSongsByArtist(artist string) ([]*model.SongRecord, error) {
	query := `SELECT id, entity_key, song_title, artist, nft_address, splitter_address, tx_hash, agreement_hash, created_at, expires_at
	           FROM songs WHERE artist = ? AND expires_at > ? ORDER BY created_at DESC`
	rows, err := r.DB.Query(query, artist, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query songs by artist %s: %w", artist, err)
	}
	defer rows.Close()

	return collectSongRecords(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSongRecord(row rowScanner, record *model.SongRecord) error {
	return row.Scan(&record.ID, &record.EntityKey, &record.SongTitle, &record.Artist,
		&record.NFTAddress, &record.SplitterAddress, &record.TxHash, &record.AgreementHash,
		&record.CreatedAt, &record.ExpiresAt)
}

func collectSongRecords(rows *sql.Rows) ([]*model.SongRecord, error) {
	var records []*model.SongRecord
	for rows.Next() {
		record := &model.SongRecord{}
		if err := scanSongRecord(rows, record); err != nil {
			return nil, fmt.Errorf("failed to scan song record row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating song record rows: %w", err)
	}
	return records, nil
}
