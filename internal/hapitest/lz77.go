package hapitest

const (
	windowMask  = 4095
	maxDistance = 4095
	maxMatch    = 17
	minMatch    = 2
	chainLimit  = 32
)

// EncodeLZ77 compresses data into the archive's LZ77 token stream,
// terminated by the end-of-stream pointer. Matches are found greedily through
// a hash chain on two-byte prefixes; output is valid rather than small.
func EncodeLZ77(data []byte) []byte {
	var (
		out    []byte
		tagPos int
		bit    = 8
	)
	token := func(pointer bool, b ...byte) {
		if bit == 8 {
			tagPos = len(out)
			out = append(out, 0)
			bit = 0
		}
		if pointer {
			out[tagPos] |= 1 << bit
		}
		bit++
		out = append(out, b...)
	}

	head := make(map[uint16]int)
	prev := make([]int, len(data))
	insert := func(i int) {
		prev[i] = -1
		if i+1 >= len(data) {
			return
		}
		k := uint16(data[i]) | uint16(data[i+1])<<8
		if p, ok := head[k]; ok {
			prev[i] = p
		}
		head[k] = i
	}

	for i := 0; i < len(data); {
		bestLen, bestPos := 0, 0
		if i+1 < len(data) {
			p, ok := head[uint16(data[i])|uint16(data[i+1])<<8]
			if !ok {
				p = -1
			}
			for tries := 0; p >= 0 && tries < chainLimit && i-p <= maxDistance; tries++ {
				// Slot 4095 cannot be addressed by a 12-bit pointer.
				if p&windowMask != windowMask {
					n := 0
					for n < maxMatch && i+n < len(data) && data[p+n] == data[i+n] {
						n++
					}
					if n > bestLen {
						bestLen, bestPos = n, p
					}
				}
				p = prev[p]
			}
		}

		if bestLen < minMatch {
			token(false, data[i])
			insert(i)
			i++
			continue
		}

		v := uint16((bestPos&windowMask)+1)<<4 | uint16(bestLen-minMatch)
		token(true, byte(v), byte(v>>8))
		for j := range bestLen {
			insert(i + j)
		}
		i += bestLen
	}

	token(true, 0, 0)
	return out
}
