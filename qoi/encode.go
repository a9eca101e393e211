package qoi

import (
	"bytes"
	"encoding/binary"
)

const (
	magic = "qoif"

	opIndex byte = 0b00000000
	opDiff  byte = 0b01000000
	opLuma  byte = 0b10000000
	opRun   byte = 0b11000000
	opRGB   byte = 0b11111110
	opRGBA  byte = 0b11111111

	maxRun = 62
)

var endMarker = []byte{0, 0, 0, 0, 0, 0, 0, 1}

type rgba [4]byte

func (p rgba) hash() byte {
	return (p[0]*3 + p[1]*5 + p[2]*7 + p[3]*11) % 64
}

// encode writes straight (non-premultiplied) 8-bit RGBA samples as a QOI
// stream. xfmoulet/qoi's encoder goes through color.Color.RGBA, which
// premultiplies, so translucent pixels would not survive it.
func encode(px []byte, width, height int) []byte {
	var out bytes.Buffer
	out.Grow(14 + width*height + len(endMarker))
	out.WriteString(magic)
	_ = binary.Write(&out, binary.BigEndian, uint32(width))
	_ = binary.Write(&out, binary.BigEndian, uint32(height))
	out.WriteByte(4) // channels
	out.WriteByte(0) // sRGB with linear alpha

	var index [64]rgba
	prev := rgba{0, 0, 0, 255}
	run := 0
	n := width * height

	for i := 0; i < n; i++ {
		var p rgba
		copy(p[:], px[i*4:i*4+4])

		if p == prev {
			run++
			if run == maxRun || i == n-1 {
				out.WriteByte(opRun | byte(run-1))
				run = 0
			}
			continue
		}
		if run > 0 {
			out.WriteByte(opRun | byte(run-1))
			run = 0
		}

		h := p.hash()
		switch {
		case index[h] == p:
			out.WriteByte(opIndex | h)
		case p[3] != prev[3]:
			index[h] = p
			out.Write([]byte{opRGBA, p[0], p[1], p[2], p[3]})
		default:
			index[h] = p
			dr := int8(p[0] - prev[0])
			dg := int8(p[1] - prev[1])
			db := int8(p[2] - prev[2])
			drg, dbg := int(dr)-int(dg), int(db)-int(dg)

			switch {
			case dr >= -2 && dr <= 1 && dg >= -2 && dg <= 1 && db >= -2 && db <= 1:
				out.WriteByte(opDiff | byte(dr+2)<<4 | byte(dg+2)<<2 | byte(db+2))
			case dg >= -32 && dg <= 31 && drg >= -8 && drg <= 7 && dbg >= -8 && dbg <= 7:
				out.WriteByte(opLuma | byte(dg+32))
				out.WriteByte(byte(drg+8)<<4 | byte(dbg+8))
			default:
				out.Write([]byte{opRGB, p[0], p[1], p[2]})
			}
		}
		prev = p
	}
	out.Write(endMarker)
	return out.Bytes()
}
