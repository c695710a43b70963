package crypto

// Zeroize overwrites b with zeros. Used to clear key material before a
// buffer is released.
func Zeroize(b []byte) {
	clear(b)
}
