package itemcodec

// EncodeRawRecord packs r through every configured item in order,
// producing one fixed-width uncompressed LAS point record.
func EncodeRawRecord(items []Item, r *Record) []byte {
	size := 0
	for _, it := range items {
		size += int(it.Size)
	}
	buf := make([]byte, 0, size)
	for _, it := range items {
		buf = EncodeRaw(buf, it, r)
	}
	return buf
}

// DecodeRawRecord is the inverse of EncodeRawRecord: buf must hold
// exactly the sum of items' sizes.
func DecodeRawRecord(items []Item, buf []byte, r *Record) {
	off := 0
	for _, it := range items {
		n := int(it.Size)
		DecodeRaw(buf[off:off+n], it, r)
		off += n
	}
}
