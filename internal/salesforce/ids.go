package salesforce

// to18Suffix is the alphabet used for the three checksum characters.
const to18Suffix = "ABCDEFGHIJKLMNOPQRSTUVWXYZ012345"

// To18 converts a 15-character case-sensitive Salesforce ID to its
// 18-character case-insensitive form. 18-character IDs and anything that
// isn't a 15-character ID are returned unchanged.
func To18(id string) string {
	if len(id) != 15 {
		return id
	}
	suffix := make([]byte, 3)
	for chunk := 0; chunk < 3; chunk++ {
		bits := 0
		for pos := 0; pos < 5; pos++ {
			ch := id[chunk*5+pos]
			if ch >= 'A' && ch <= 'Z' {
				bits |= 1 << pos
			}
		}
		suffix[chunk] = to18Suffix[bits]
	}
	return id + string(suffix)
}
