// Package sessionid generates short, sortable session identifiers.
//
// An id is a UUIDv7 written as 26 characters of Crockford base32, the same
// layout TypeID uses: 130 bits with two leading zero bits, so the first
// character is always 0-7. Ids created later sort after earlier ones.
package sessionid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	alphabet = "0123456789abcdefghjkmnpqrstvwxyz"
	length   = 26
)

// Generate returns a new session id.
func Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the system random source does.
		panic("sessionid: " + err.Error())
	}
	return Encode(id)
}

// Encode writes a UUID as a 26-character base32 id.
func Encode(id uuid.UUID) string {
	bit := func(j int) byte {
		if j < 2 {
			return 0
		}
		j -= 2
		return (id[j/8] >> (7 - j%8)) & 1
	}

	out := make([]byte, length)
	for i := range out {
		var v byte
		for k := 0; k < 5; k++ {
			v = v<<1 | bit(i*5+k)
		}
		out[i] = alphabet[v]
	}
	return string(out)
}

// Validate checks that id is a well-formed session id.
func Validate(id string) error {
	if len(id) != length {
		return fmt.Errorf("session ID must be exactly %d characters, got %d", length, len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("session ID first character must be 0-7, got %c", id[0])
	}
	for i, c := range id {
		if !strings.ContainsRune(alphabet, c) {
			return fmt.Errorf("invalid character %c at position %d", c, i)
		}
	}
	return nil
}
