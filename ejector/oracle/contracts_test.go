package oracle

import (
	"math/big"
	"testing"

	"github.com/lidofinance/validator-ejector/testing/require"
)

func TestDecodeReportSubmission_WrongSelector(t *testing.T) {
	calldata, err := hashConsensusABI.Pack("submitReport", big.NewInt(1), [32]byte{}, big.NewInt(1))
	require.NoError(t, err)
	_, err = decodeReportSubmission(calldata)
	require.ErrorContains(t, "not a submitReportData call", err)
}

func TestDecodeReportSubmission_RoundTrip(t *testing.T) {
	report := ReportData{
		ConsensusVersion: big.NewInt(1),
		RefSlot:          big.NewInt(5400000),
		RequestsCount:    big.NewInt(1),
		DataFormat:       big.NewInt(1),
		Data:             packExitRequest(1, 123, 55555, testPubkey(0xaa)),
	}
	calldata, err := exitBusOracleABI.Pack("submitReportData", report, big.NewInt(1))
	require.NoError(t, err)

	got, err := decodeReportSubmission(calldata)
	require.NoError(t, err)
	require.Equal(t, uint64(5400000), got.Report.RefSlot.Uint64())
	require.DeepEqual(t, report.Data, got.Report.Data)

	want, err := reportHash(&report)
	require.NoError(t, err)
	require.Equal(t, want, got.Hash)
}

func TestReportHash_SensitiveToEveryByte(t *testing.T) {
	report := ReportData{
		ConsensusVersion: big.NewInt(1),
		RefSlot:          big.NewInt(5400000),
		RequestsCount:    big.NewInt(1),
		DataFormat:       big.NewInt(1),
		Data:             packExitRequest(1, 123, 55555, testPubkey(0xaa)),
	}
	original, err := reportHash(&report)
	require.NoError(t, err)

	for i := range report.Data {
		report.Data[i] ^= 0x01
		tampered, err := reportHash(&report)
		require.NoError(t, err)
		require.NotEqual(t, original, tampered, "Flipping byte %d must change the report hash", i)
		report.Data[i] ^= 0x01
	}
}
