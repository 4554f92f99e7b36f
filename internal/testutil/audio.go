package testutil

import "bytes"

// WAV returns a mono 16-bit PCM WAV file with n bytes of silence.
func WAV(n int) []byte {
	var b bytes.Buffer
	b.WriteString("RIFF")
	writeLE32(&b, uint32(36+n))
	b.WriteString("WAVEfmt ")
	b.Write([]byte{16, 0, 0, 0, 1, 0, 1, 0, 0x40, 0x1f, 0, 0, 0x80, 0x3e, 0, 0, 2, 0, 16, 0})
	b.WriteString("data")
	writeLE32(&b, uint32(n))
	b.Write(make([]byte, n))
	return b.Bytes()
}

func writeLE32(b *bytes.Buffer, v uint32) {
	b.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}
