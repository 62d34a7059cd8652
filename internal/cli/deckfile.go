package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/sharetube/smartpresent/internal/playback"
	"github.com/sharetube/smartpresent/pkg/validator"
)

// deckFile is the on-disk deck format:
//
//	[[slides]]
//	page = 1
//	command = "Intro"
//	duration = 20
type deckFile struct {
	Slides []playback.Slide `json:"slides" toml:"slides" validate:"required,min=1,dive"`
}

func LoadDeck(path string) (playback.Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deck file: %w", err)
	}

	deck, err := decodeDeck(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("deck file %s: %w", path, err)
	}

	return deck, nil
}

func decodeDeck(r io.Reader) (playback.Deck, error) {
	var file deckFile

	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return nil, fmt.Errorf("unknown keys: %s", strictErr.String())
		}
		return nil, fmt.Errorf("decode toml: %w", err)
	}

	if validationErrors, ok := validator.NewValidator().Validate(file); !ok {
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			messages = append(messages, fmt.Sprintf("%s: %s", e.Field, e.Message))
		}
		return nil, fmt.Errorf("invalid deck: %s", strings.Join(messages, "; "))
	}

	return playback.Deck(file.Slides), nil
}
