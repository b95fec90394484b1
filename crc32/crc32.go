/*
Package crc32 implements the MSB-first 32-bit cyclic redundancy check used to
seal tile bundles.

It uses the standard CRC-32 normal polynomial but shifts bits out of the top
of the register and neither reflects its input nor inverts its output, which
is the variant commonly known as CRC-32/MPEG-2.
*/
package crc32

import (
	"hash"
	crc "hash/crc32"
)

// Size of a CRC-32 checksum in bytes.
const Size = crc.Size

const (
	polynomial = 0x04c11db7
	initial    = 0xffffffff
)

func makeTable(poly uint32) *crc.Table {
	t := new(crc.Table)
	for i := range t {
		c := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if c&0x80000000 != 0 {
				c = c<<1 ^ poly
			} else {
				c <<= 1
			}
		}
		t[i] = c
	}
	return t
}

var table = makeTable(polynomial)

type digest struct {
	crc uint32
}

// New creates a new hash.Hash32 computing the checksum. Its Sum method will
// lay the value out in big-endian byte order.
func New() hash.Hash32 {
	return &digest{initial}
}

func (d *digest) Size() int { return Size }

func (d *digest) BlockSize() int { return 1 }

func (d *digest) Reset() { d.crc = initial }

// Update returns the result of adding the bytes in p to the crc.
func Update(crc uint32, p []byte) uint32 {
	for _, b := range p {
		crc = crc<<8 ^ table[byte(crc>>24)^b]
	}
	return crc
}

func (d *digest) Write(p []byte) (n int, err error) {
	d.crc = Update(d.crc, p)
	return len(p), nil
}

func (d *digest) Sum32() uint32 { return d.crc }

func (d *digest) Sum(in []byte) []byte {
	s := d.Sum32()
	return append(in, byte(s>>24), byte(s>>16), byte(s>>8), byte(s))
}

// Checksum returns the checksum of data.
func Checksum(data []byte) uint32 { return Update(initial, data) }
