package hal

func packRGB565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

func unpackRGB565(p uint16) (r, g, b uint8) {
	r = uint8(uint32(p>>11&0x1F) * 255 / 31)
	g = uint8(uint32(p>>5&0x3F) * 255 / 63)
	b = uint8(uint32(p&0x1F) * 255 / 31)
	return r, g, b
}

// pixelAt reads the RGB565 pixel at byte offset off of a little-endian buffer.
func pixelAt(buf []byte, off int) (r, g, b uint8) {
	return unpackRGB565(uint16(buf[off]) | uint16(buf[off+1])<<8)
}
