package store

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// codeByteLen yields 8-character uppercase hex codes.
const codeByteLen = 4

// GenerateCode returns a fixed-length uppercase alphanumeric gift code. The
// space is small enough that collisions are possible; callers must confirm
// uniqueness against the store before handing the code out.
func GenerateCode() string {
	buf := make([]byte, codeByteLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process has bigger problems.
		panic("gift code entropy unavailable: " + err.Error())
	}

	return strings.ToUpper(hex.EncodeToString(buf))
}
