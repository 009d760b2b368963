package importer

import (
	"fmt"
	"io"

	"github.com/anshimpay/anshim/internal/encoding"
	"github.com/anshimpay/anshim/internal/importer/transferlog"
)

type Service struct {
	transfers Parser
}

func NewService() *Service {
	return &Service{
		transfers: transferlog.New(),
	}
}

// Import decodes a bank transfer-log export to UTF-8 and parses it. The
// bank format is auto-detected from the header row.
func (s *Service) Import(r io.Reader) ([]transferlog.Row, error) {
	utf8r, err := encoding.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("decoding transfer log: %w", err)
	}

	return s.transfers.Parse(utf8r)
}
