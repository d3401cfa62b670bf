package lidario

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ordishs/lidario/laserr"
)

// Format is the file kind sniff resolves a name to (spec §9 DESIGN FLAGS:
// "centralize in a single sniff(name) -> Format function whose mapping
// table is the externally documented extension set").
type Format int

const (
	FormatUnknown Format = iota
	FormatLAS
	FormatLAZ
	// FormatAncillary covers out-of-scope companion formats whose
	// extensions are in extensionTable (.bin, .qi, .wrl, .txt, .json), so
	// callers get a clear "not handled here" error instead of a bad-magic
	// guess. Other extensions resolve to FormatUnknown.
	FormatAncillary
)

func (f Format) String() string {
	switch f {
	case FormatLAS:
		return "LAS"
	case FormatLAZ:
		return "LAZ"
	case FormatAncillary:
		return "ancillary"
	default:
		return "unknown"
	}
}

// extensionTable is sniff's single externally documented mapping from
// file-name extension to Format, replacing the extension dispatch that
// used to live scattered across each opener.
var extensionTable = map[string]Format{
	".las":  FormatLAS,
	".laz":  FormatLAZ,
	".bin":  FormatAncillary,
	".qi":   FormatAncillary,
	".wrl":  FormatAncillary,
	".txt":  FormatAncillary,
	".json": FormatAncillary,
}

// formatFromExtension resolves name to a Format using only the
// extension table, without touching the filesystem. Writer.Create uses
// this: the destination need not exist yet.
func formatFromExtension(name string) Format {
	ext := strings.ToLower(filepath.Ext(name))
	return extensionTable[ext]
}

// sniff resolves name to a Format by extension, then, for las/laz,
// confirms the LASF magic bytes actually open the file (spec §6: "the
// file magic is the four bytes LASF"). Reader.Open uses this, since the
// source must already exist.
func sniff(name string) (Format, error) {
	format := formatFromExtension(name)
	if format != FormatLAS && format != FormatLAZ {
		return format, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	var sig [4]byte
	if _, err := f.Read(sig[:]); err != nil {
		return FormatUnknown, laserr.ErrBadMagic
	}
	if string(sig[:]) != "LASF" {
		return FormatUnknown, laserr.ErrBadMagic
	}
	return format, nil
}
