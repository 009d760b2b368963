package importer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"

	"github.com/anshimpay/anshim/internal/importer"
)

// Banks export transfer logs as EUC-KR CSV; Import must decode and parse
// in one pass.
func TestImport_EUCKRTransferLog(t *testing.T) {
	csv := strings.Join([]string{
		`거래일자,의뢰인명,출금,입금,적요`,
		`2026-07-15,최지우,,"3,300,000",AS-1A2B3C4D`,
	}, "\n")

	encoded, err := korean.EUCKR.NewEncoder().String(csv)
	require.NoError(t, err)

	rows, err := importer.NewService().Import(strings.NewReader(encoded))

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "최지우", rows[0].Payer)
	assert.Equal(t, "AS-1A2B3C4D", rows[0].Memo)
	assert.Equal(t, int64(3_300_000), rows[0].Amount)
}

func TestImport_UnknownFormat(t *testing.T) {
	_, err := importer.NewService().Import(strings.NewReader("foo,bar\n1,2\n"))

	assert.Error(t, err)
}
