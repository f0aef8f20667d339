package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carelink/carelink-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a document does not exist
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a transaction keeps losing the
	// version race after exhausting its retries
	ErrConflict = errors.New("document was modified concurrently")
)

const maxTransactionRetries = 5

// documentRow is the storage representation of a document
type documentRow struct {
	ID         uint      `gorm:"primaryKey"`
	Collection string    `gorm:"size:100;not null;uniqueIndex:idx_documents_collection_key"`
	Key        string    `gorm:"size:200;not null;uniqueIndex:idx_documents_collection_key"`
	Data       []byte    `gorm:"type:jsonb;not null"`
	Version    int64     `gorm:"not null;default:1"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (documentRow) TableName() string {
	return "documents"
}

// Document is a versioned JSON record addressed by collection and key
type Document struct {
	Collection string          `json:"collection"`
	Key        string          `json:"key"`
	Data       json.RawMessage `json:"data"`
	Version    int64           `json:"version"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// UpdateFunc receives the current document (nil when it does not exist
// yet) and returns the full new contents. Any error aborts the
// transaction and is returned unchanged to the caller.
type UpdateFunc func(current *Document) (json.RawMessage, error)

// Store persists documents and notifies subscribers about writes
type Store struct {
	db       *gorm.DB
	notifier Notifier
}

// New creates a document store backed by the given database
func New(database *gorm.DB, notifier Notifier) *Store {
	return &Store{db: database, notifier: notifier}
}

// Migrate creates the documents table
func Migrate(database *gorm.DB) error {
	return database.AutoMigrate(&documentRow{})
}

// Get fetches a single document
func (s *Store) Get(ctx context.Context, collection, key string) (*Document, error) {
	var row documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND key = ?", collection, key).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return row.toDocument(), nil
}

// List fetches every document in a collection, newest writes first
func (s *Store) List(ctx context.Context, collection string) ([]Document, error) {
	var rows []documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := make([]Document, 0, len(rows))
	for i := range rows {
		docs = append(docs, *rows[i].toDocument())
	}
	return docs, nil
}

// RunTransaction performs an atomic read-modify-write on one document.
// The write only lands if the document version is unchanged since the
// read; on a lost race the whole cycle is retried. Subscribers are
// notified after the commit.
func (s *Store) RunTransaction(ctx context.Context, collection, key string, update UpdateFunc) (*Document, error) {
	for attempt := 0; attempt < maxTransactionRetries; attempt++ {
		current, err := s.Get(ctx, collection, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		newData, err := update(current)
		if err != nil {
			return nil, err
		}

		saved, err := s.commit(ctx, collection, key, current, newData)
		if errors.Is(err, ErrConflict) {
			logger.Warn("Document write conflict, retrying", map[string]interface{}{
				"collection": collection,
				"key":        key,
				"attempt":    attempt + 1,
			})
			continue
		}
		if err != nil {
			return nil, err
		}

		s.publish(ctx, saved)
		return saved, nil
	}

	return nil, ErrConflict
}

func (s *Store) commit(ctx context.Context, collection, key string, current *Document, newData json.RawMessage) (*Document, error) {
	now := time.Now()

	if current == nil {
		row := documentRow{
			Collection: collection,
			Key:        key,
			Data:       newData,
			Version:    1,
			UpdatedAt:  now,
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				// Someone else created it first; re-read and retry
				return nil, ErrConflict
			}
			return nil, fmt.Errorf("failed to create document: %w", err)
		}
		return row.toDocument(), nil
	}

	nextVersion := current.Version + 1
	result := s.db.WithContext(ctx).
		Model(&documentRow{}).
		Where("collection = ? AND key = ? AND version = ?", collection, key, current.Version).
		Updates(map[string]interface{}{
			"data":       []byte(newData),
			"version":    nextVersion,
			"updated_at": now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrConflict
	}

	return &Document{
		Collection: collection,
		Key:        key,
		Data:       newData,
		Version:    nextVersion,
		UpdatedAt:  now,
	}, nil
}

// Subscribe registers a handler invoked with the full document after
// every committed write. The returned function cancels the
// subscription.
func (s *Store) Subscribe(ctx context.Context, collection, key string, handler func(doc *Document)) (func(), error) {
	return s.notifier.Subscribe(ctx, channelFor(collection, key), func(payload []byte) {
		var doc Document
		if err := json.Unmarshal(payload, &doc); err != nil {
			logger.Error("Failed to decode document notification", err, map[string]interface{}{
				"collection": collection,
				"key":        key,
			})
			return
		}
		handler(&doc)
	})
}

func (s *Store) publish(ctx context.Context, doc *Document) {
	payload, err := json.Marshal(doc)
	if err != nil {
		logger.Error("Failed to encode document notification", err, nil)
		return
	}
	if err := s.notifier.Publish(ctx, channelFor(doc.Collection, doc.Key), payload); err != nil {
		logger.Error("Failed to publish document notification", err, map[string]interface{}{
			"collection": doc.Collection,
			"key":        doc.Key,
		})
	}
}

func channelFor(collection, key string) string {
	return fmt.Sprintf("doc:%s:%s", collection, key)
}

func (r *documentRow) toDocument() *Document {
	return &Document{
		Collection: r.Collection,
		Key:        r.Key,
		Data:       json.RawMessage(r.Data),
		Version:    r.Version,
		UpdatedAt:  r.UpdatedAt,
	}
}

func isUniqueViolation(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "unique constraint") ||
		strings.Contains(errStr, "unique failed")
}
