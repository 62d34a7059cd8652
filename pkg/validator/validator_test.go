package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slide struct {
	Page    int    `json:"page" validate:"min=1"`
	Command string `json:"command" validate:"required"`
}

type request struct {
	Owner  string  `json:"owner" validate:"required,max=8"`
	Store  string  `json:"store" validate:"oneof=redis sqlite"`
	Slides []slide `json:"slides" validate:"required,min=1,dive"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	errs, ok := v.Validate(request{Owner: "ana", Store: "redis", Slides: []slide{{Page: 1, Command: "Intro"}}})
	assert.True(t, ok)
	assert.Empty(t, errs)

	errs, ok = v.Validate(request{Owner: "a very long name", Store: "mongo", Slides: []slide{{Page: 0, Command: ""}}})
	require.False(t, ok)

	byField := make(map[string]ValidationError)
	for _, e := range errs {
		byField[e.Field] = e
	}

	assert.Equal(t, "MAX", byField["owner"].Code)
	assert.Equal(t, "owner must not exceed 8 characters long", byField["owner"].Message)
	assert.Equal(t, "ONEOF", byField["store"].Code)
	assert.Equal(t, "MIN", byField["slides[0].page"].Code)
	assert.Equal(t, "page must be at least 1", byField["slides[0].page"].Message)
	assert.Equal(t, "REQUIRED", byField["slides[0].command"].Code)
}

func TestValidateEmptySlice(t *testing.T) {
	v := NewValidator()

	errs, ok := v.Validate(request{Owner: "ana", Store: "sqlite", Slides: []slide{}})
	require.False(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "slides", errs[0].Field)
	assert.Equal(t, "slides must be at least 1 items", errs[0].Message)
}
