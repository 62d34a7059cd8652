// Package presentation stores the per-presentation records: deck
// configuration, the durable slide index, the uploaded document and its
// metadata. Drivers only move bytes; Store owns the encoding.
package presentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sharetube/smartpresent/internal/playback"
)

var (
	ErrNotFound       = errors.New("presentation record not found")
	ErrInvalidPayload = errors.New("invalid presentation record")
)

const (
	KeyConfig       = "config"
	KeyCurrentIndex = "currentIndex"
	KeyBlob         = "presentationBlob"
	KeyMeta         = "meta"
)

// Key is the storage key of one record.
func Key(presentationID, key string) string {
	return "presentation:" + presentationID + ":" + key
}

type Meta struct {
	Owner     string    `json:"owner"`
	FileName  string    `json:"file_name"`
	PageCount int       `json:"page_count"`
	CreatedAt time.Time `json:"created_at"`
}

// KV is implemented by storage drivers. Get returns ErrNotFound for a
// missing record.
type KV interface {
	Get(ctx context.Context, presentationID, key string) ([]byte, error)
	Put(ctx context.Context, presentationID, key string, value []byte) error
	PutMany(ctx context.Context, presentationID string, values map[string][]byte) error
	Exists(ctx context.Context, presentationID string) (bool, error)
}

type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Create writes metadata and the initial deck together.
func (s *Store) Create(ctx context.Context, presentationID string, meta Meta, deck playback.Deck) error {
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal meta: %w", err)
	}
	deckData, err := json.Marshal(deck)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := s.kv.PutMany(ctx, presentationID, map[string][]byte{
		KeyMeta:   metaData,
		KeyConfig: deckData,
	}); err != nil {
		return fmt.Errorf("failed to create presentation: %w", err)
	}

	return nil
}

func (s *Store) Exists(ctx context.Context, presentationID string) (bool, error) {
	return s.kv.Exists(ctx, presentationID)
}

func (s *Store) SetConfig(ctx context.Context, presentationID string, deck playback.Deck) error {
	data, err := json.Marshal(deck)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return s.kv.Put(ctx, presentationID, KeyConfig, data)
}

func (s *Store) GetConfig(ctx context.Context, presentationID string) (playback.Deck, error) {
	data, err := s.kv.Get(ctx, presentationID, KeyConfig)
	if err != nil {
		return nil, err
	}

	var deck playback.Deck
	if err := json.Unmarshal(data, &deck); err != nil {
		return nil, fmt.Errorf("%w: config: %v", ErrInvalidPayload, err)
	}

	return deck, nil
}

func (s *Store) SetCurrentIndex(ctx context.Context, presentationID string, index int) error {
	return s.kv.Put(ctx, presentationID, KeyCurrentIndex, []byte(strconv.Itoa(index)))
}

func (s *Store) GetCurrentIndex(ctx context.Context, presentationID string) (int, error) {
	data, err := s.kv.Get(ctx, presentationID, KeyCurrentIndex)
	if err != nil {
		return 0, err
	}

	index, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, fmt.Errorf("%w: current index: %v", ErrInvalidPayload, err)
	}

	return index, nil
}

func (s *Store) SetBlob(ctx context.Context, presentationID string, blob []byte) error {
	return s.kv.Put(ctx, presentationID, KeyBlob, blob)
}

func (s *Store) GetBlob(ctx context.Context, presentationID string) ([]byte, error) {
	return s.kv.Get(ctx, presentationID, KeyBlob)
}

func (s *Store) GetMeta(ctx context.Context, presentationID string) (Meta, error) {
	data, err := s.kv.Get(ctx, presentationID, KeyMeta)
	if err != nil {
		return Meta{}, err
	}

	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, fmt.Errorf("%w: meta: %v", ErrInvalidPayload, err)
	}

	return meta, nil
}
