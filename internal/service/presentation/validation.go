package presentation

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var OwnerRule = []validation.Rule{
	validation.Required,
	validation.Length(1, 64),
}

var FileNameRule = []validation.Rule{
	validation.Required,
	validation.Length(1, 255),
}

var PageCountRule = []validation.Rule{
	validation.Required,
	validation.Min(1),
	validation.Max(1000),
}

var PresentationIDRule = []validation.Rule{
	validation.Required,
	is.UUIDv4,
}
