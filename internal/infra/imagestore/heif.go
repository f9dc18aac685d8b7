package imagestore

import (
	"encoding/binary"

	"vineyard-api/internal/apperr"
)

var heifBrands = map[string]bool{
	"heic": true, "heix": true, "hevc": true, "hevx": true,
	"heim": true, "heis": true, "mif1": true, "msf1": true,
}

// checkHEIF walks the top-level ISO-BMFF boxes: ftyp must come first and
// name a HEIF brand, every box must fit inside the payload and a meta box
// must be present.
func checkHEIF(data []byte) error {
	corrupt := func(reason string) error {
		return apperr.Validation(apperr.CodeCorruptImage, "invalid image: %s", reason)
	}

	var sawMeta bool
	for off, first := 0, true; off < len(data); first = false {
		if len(data)-off < 8 {
			return corrupt("truncated box header")
		}
		size := uint64(binary.BigEndian.Uint32(data[off:]))
		boxType := string(data[off+4 : off+8])
		header := uint64(8)
		switch size {
		case 0:
			size = uint64(len(data) - off)
		case 1:
			if len(data)-off < 16 {
				return corrupt("truncated large box header")
			}
			size = binary.BigEndian.Uint64(data[off+8:])
			header = 16
		}
		if size < header || size > uint64(len(data)-off) {
			return corrupt("box " + boxType + " overruns payload")
		}

		body := data[off+int(header) : off+int(size)]
		if first {
			if boxType != "ftyp" || !hasHEIFBrand(body) {
				return corrupt("missing HEIF file type box")
			}
		}
		if boxType == "meta" {
			sawMeta = true
		}
		off += int(size)
	}
	if !sawMeta {
		return corrupt("missing meta box")
	}
	return nil
}

// hasHEIFBrand checks the major brand and the compatible brand list of an
// ftyp body.
func hasHEIFBrand(body []byte) bool {
	if len(body) < 8 {
		return false
	}
	if heifBrands[string(body[0:4])] {
		return true
	}
	for i := 8; i+4 <= len(body); i += 4 {
		if heifBrands[string(body[i:i+4])] {
			return true
		}
	}
	return false
}
