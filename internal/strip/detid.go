package strip

import "fmt"

// DetID identifies one detector module. The tagger treats it as opaque;
// Subdetector decodes the partition bits for reporting only.
type DetID uint32

// Subdetector is the tracker partition stored in bits 25-27 of a DetID.
type Subdetector uint8

const (
	SubdetUnknown     Subdetector = 0
	SubdetPixelBarrel Subdetector = 1
	SubdetPixelEndcap Subdetector = 2
	SubdetTIB         Subdetector = 3
	SubdetTID         Subdetector = 4
	SubdetTOB         Subdetector = 5
	SubdetTEC         Subdetector = 6
)

const (
	subdetShift = 25
	subdetMask  = 0x7
)

// Subdetector returns the tracker partition encoded in id.
func (id DetID) Subdetector() Subdetector {
	return Subdetector((uint32(id) >> subdetShift) & subdetMask)
}

// String renders the partition short name used in reports.
func (s Subdetector) String() string {
	switch s {
	case SubdetPixelBarrel:
		return "PXB"
	case SubdetPixelEndcap:
		return "PXF"
	case SubdetTIB:
		return "TIB"
	case SubdetTID:
		return "TID"
	case SubdetTOB:
		return "TOB"
	case SubdetTEC:
		return "TEC"
	default:
		return fmt.Sprintf("subdet(%d)", uint8(s))
	}
}
