package platform

// cells is the RAM shadow shared by the counter media.
type cells struct{ c []byte }

func (m *cells) begin(size int) {
	m.c = make([]byte, size)
	for i := range m.c {
		m.c[i] = 0xFF
	}
}

func (m *cells) Read(addr int) byte {
	if addr < 0 || addr >= len(m.c) {
		return 0xFF
	}
	return m.c[addr]
}

func (m *cells) Write(addr int, v byte) {
	if addr < 0 || addr >= len(m.c) {
		return
	}
	m.c[addr] = v
}
