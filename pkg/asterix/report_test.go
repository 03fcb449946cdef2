package asterix

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vog/asterix/internal/testutil"
)

func TestSortRecords(t *testing.T) {
	hexStr := testutil.LoadHex(t, "cat034_two_records.hex")
	result, err := DecodeHex(hexStr)
	require.NoError(t, err)
	require.Len(t, result.Blocks, 1)
	require.Len(t, result.Blocks[0].Records, 2)

	// Wire order has the later time first.
	require.Equal(t, 4.0, result.Blocks[0].Records[0]["time"].Number)
	result.SortRecords()
	require.Equal(t, 2.0, result.Blocks[0].Records[0]["time"].Number)
	require.Equal(t, 4.0, result.Blocks[0].Records[1]["time"].Number)
}

func TestReportGolden(t *testing.T) {
	hexStr := testutil.LoadHex(t, "cat034_two_records.hex")
	result, err := DecodeHex(hexStr)
	require.NoError(t, err)
	result.SortRecords()
	require.Equal(t, testutil.LoadText(t, "cat034_two_records.txt"), result.Report())
}

func TestReportEmptyResult(t *testing.T) {
	var result Result
	require.Equal(t, "", result.Report())
}
