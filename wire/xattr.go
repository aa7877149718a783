package wire

// DecodeXattrNames splits the first length bytes of buf into attribute
// names. Names keep the engine's order and duplicates.
func DecodeXattrNames(buf []byte, length int) ([]string, error) {
	if length < 0 || length > len(buf) {
		return nil, formatError("xattr", 0, len(buf), "reported length out of range")
	}
	names := make([]string, 0)
	data := buf[:length]
	for off := 0; off < length; {
		name, next, ok := readCString(data, off)
		if !ok {
			// the last name may run up to the reported length unterminated
			name, next = string(data[off:]), length
		}
		names = append(names, name)
		off = next
	}
	return names, nil
}
