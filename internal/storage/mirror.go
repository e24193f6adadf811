// Package storage is the durable local mirror of the cart: one session row,
// the serialized item list and a last-sync timestamp. The mirror is read
// once at startup and only written afterwards; during a live session the
// in-memory store is the only source of truth.
package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/nwca-cart/internal/constants"
	"github.com/nwca-cart/internal/models"
)

// Mirror is the durable mirror repository.
type Mirror struct {
	db *gorm.DB
}

// NewMirror creates a mirror over an opened database.
func NewMirror(db *gorm.DB) *Mirror {
	return &Mirror{db: db}
}

// SaveSession replaces the stored session. Sessions are never mutated in
// place, only replaced.
func (m *Mirror) SaveSession(session *models.CartSession) error {
	if session == nil {
		return nil
	}
	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.CartSession{}).Error; err != nil {
			return err
		}
		return tx.Create(session).Error
	})
}

// LoadSession returns the stored session, nil when none exists.
func (m *Mirror) LoadSession() (*models.CartSession, error) {
	var session models.CartSession
	err := m.db.First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ReplaceItems overwrites the mirrored item list wholesale. Local ids are
// assigned by the engine and preserved across writes.
func (m *Mirror) ReplaceItems(sessionID string, items []models.CartItem) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.CartItemSize{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].SessionID = sessionID
		}
		return tx.Create(&items).Error
	})
}

// LoadItems returns the mirrored items of a session with their sizes.
func (m *Mirror) LoadItems(sessionID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := m.db.Preload("Sizes").
		Where("session_id = ?", sessionID).
		Order("local_id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// SetLastSync stores the last successful sync time.
func (m *Mirror) SetLastSync(t time.Time) error {
	meta := models.MirrorMeta{
		Key:   constants.MetaKeyLastSync,
		Value: t.UTC().Format(time.RFC3339Nano),
	}
	var existing models.MirrorMeta
	err := m.db.Where("key = ?", meta.Key).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return m.db.Create(&meta).Error
	}
	if err != nil {
		return err
	}
	return m.db.Model(&existing).Update("value", meta.Value).Error
}

// LastSync returns the stored last sync time, zero when never synced.
func (m *Mirror) LastSync() (time.Time, error) {
	var meta models.MirrorMeta
	err := m.db.Where("key = ?", constants.MetaKeyLastSync).First(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, meta.Value)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
