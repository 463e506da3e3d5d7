package badgerstore

import (
	"encoding/binary"
)

// Key layout. Record keys carry the JSON-encoded record; index keys are
// empty (or carry the primary key) and exist for ordering and prefix scans.
//
//	cat/<id>                      Category
//	col/<id>                      Color
//	prt/<blId>                    Part
//	pcl/<partId>\x00<colorId>     PartColor (composite primary key)
//	meta/<key>                    metadata value
//
//	idx/col/parts/<count><id>     popularity ordering for colors
//	idx/col/type/<type>\x00<id>   colors by type
//	idx/col/name/<name>           exact color name -> id
//	idx/prt/cat/<catId>\x00<blId> parts by category
//	idx/prt/name/<name>\x00<blId> parts by folded name
//	idx/pcl/col/<colorId>\x00<partId>  associations by color half
//
// The blId index of the parts collection and the partId index of the
// partColors collection are subsumed by their primary keys, which already
// order by those values.
var (
	prefixCategory   = []byte("cat/")
	prefixColor      = []byte("col/")
	prefixPart       = []byte("prt/")
	prefixPartColor  = []byte("pcl/")
	prefixMeta       = []byte("meta/")
	prefixColParts   = []byte("idx/col/parts/")
	prefixColType    = []byte("idx/col/type/")
	prefixColName    = []byte("idx/col/name/")
	prefixPartCat    = []byte("idx/prt/cat/")
	prefixPartName   = []byte("idx/prt/name/")
	prefixPclByColor = []byte("idx/pcl/col/")
	prefixIndex      = []byte("idx/")
)

const keySep = byte(0x00)

func u32(n int) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(n))
	return b[:]
}

func parseU32(b []byte) int {
	return int(binary.BigEndian.Uint32(b))
}

func join(parts ...[]byte) []byte {
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	out := make([]byte, 0, size)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func categoryKey(id int) []byte { return join(prefixCategory, u32(id)) }

func colorKey(id int) []byte { return join(prefixColor, u32(id)) }

func partKey(blID string) []byte { return join(prefixPart, []byte(blID)) }

func partColorKey(partID string, colorID int) []byte {
	return join(prefixPartColor, []byte(partID), []byte{keySep}, u32(colorID))
}

func metaKey(key string) []byte { return join(prefixMeta, []byte(key)) }

func colPartsIndexKey(partsCount, id int) []byte {
	return join(prefixColParts, u32(partsCount), u32(id))
}

func colTypeIndexKey(typ string, id int) []byte {
	return join(prefixColType, []byte(typ), []byte{keySep}, u32(id))
}

func colNameIndexKey(name string) []byte {
	return join(prefixColName, []byte(name))
}

func partCatIndexKey(catID int, blID string) []byte {
	return join(prefixPartCat, u32(catID), []byte{keySep}, []byte(blID))
}

func partNameIndexKey(name, blID string) []byte {
	return join(prefixPartName, []byte(name), []byte{keySep}, []byte(blID))
}

func pclColorIndexKey(colorID int, partID string) []byte {
	return join(prefixPclByColor, u32(colorID), []byte{keySep}, []byte(partID))
}
