package laszip

import (
	"testing"

	"github.com/ordishs/lidario/itemcodec"
	"github.com/stretchr/testify/require"
)

func TestDescriptorRoundTrip(t *testing.T) {
	d := &Descriptor{
		Compressor:      CompressorChunked,
		VersionMajor:    2,
		VersionMinor:    0,
		VersionRevision: 2,
		ChunkSize:       50000,
		Items: []itemcodec.Item{
			{Type: itemcodec.TypePoint10, Size: 20},
			{Type: itemcodec.TypeGPSTime11, Size: 8},
			{Type: itemcodec.TypeRGB12, Size: 6},
		},
	}

	payload := d.Encode()
	got, err := Decode(payload)
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func TestDescriptorValidateRejectsUnknownCompressor(t *testing.T) {
	d := &Descriptor{Compressor: 99}
	require.Error(t, d.Validate())
}

func TestDescriptorValidateRejectsOversizedChunk(t *testing.T) {
	d := &Descriptor{ChunkSize: maxChunkSize + 1}
	require.Error(t, d.Validate())
}

func TestBuildDefaultMatchesFormat(t *testing.T) {
	for format := uint8(0); format <= 10; format++ {
		d, err := BuildDefault(format, 3, 50000)
		require.NoError(t, err, "format %d", format)
		require.NoError(t, d.MatchesFormat(format, uint16(d.RecordLength())), "format %d", format)
	}
}

func TestMatchesFormatRejectsWrongLength(t *testing.T) {
	d, err := BuildDefault(0, 0, 50000)
	require.NoError(t, err)
	require.Error(t, d.MatchesFormat(0, 19))
}
