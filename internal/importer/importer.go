package importer

import (
	"io"

	"github.com/anshimpay/anshim/internal/importer/transferlog"
)

type Parser interface {
	Parse(r io.Reader) ([]transferlog.Row, error)
}
