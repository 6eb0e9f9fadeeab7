package protocol

// Values are sent as variable-length quantities: 7 bits per byte, most
// significant group first, bit 7 set on every byte but the last. Signed
// values in [-32, 96) fit in one byte, matching Klipper's encoder.

// PutVLQ appends a signed VLQ to out
func PutVLQ(out OutputBuffer, v int32) {
	var buf [5]byte
	n := 0
	for shift := uint(28); shift > 0; shift -= 7 {
		lo := -(int32(1) << (shift - 2))
		hi := int32(3) << (shift - 2)
		if n > 0 || v < lo || v >= hi {
			buf[n] = byte(v>>shift)&0x7F | 0x80
			n++
		}
	}
	buf[n] = byte(v & 0x7F)
	out.Output(buf[:n+1])
}

// PutUVLQ appends an unsigned VLQ to out
func PutUVLQ(out OutputBuffer, v uint32) {
	PutVLQ(out, int32(v))
}

// PutBytes appends a length-prefixed byte string
func PutBytes(out OutputBuffer, b []byte) {
	PutUVLQ(out, uint32(len(b)))
	out.Output(b)
}

// ReadVLQ consumes a signed VLQ from the front of *data
func ReadVLQ(data *[]byte) (int32, error) {
	buf := *data
	if len(buf) == 0 {
		return 0, ErrShortBuffer
	}
	c := uint32(buf[0])
	v := c & 0x7F
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F) // sign extend
	}
	i := 1
	for c&0x80 != 0 {
		if i >= len(buf) {
			return 0, ErrShortBuffer
		}
		c = uint32(buf[i])
		i++
		v = v<<7 | c&0x7F
	}
	*data = buf[i:]
	return int32(v), nil
}

// ReadUVLQ consumes an unsigned VLQ from the front of *data
func ReadUVLQ(data *[]byte) (uint32, error) {
	v, err := ReadVLQ(data)
	return uint32(v), err
}

// ReadBytes consumes a length-prefixed byte string. The result aliases *data.
func ReadBytes(data *[]byte) ([]byte, error) {
	n, err := ReadUVLQ(data)
	if err != nil {
		return nil, err
	}
	if uint32(len(*data)) < n {
		return nil, ErrShortBuffer
	}
	b := (*data)[:n]
	*data = (*data)[n:]
	return b, nil
}
