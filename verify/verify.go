// Package verify compares source and backup renderings of a snapshot by
// content fingerprint. A mismatch is a signal for the operator; nothing
// here mutates either side.
package verify

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/zeebo/blake3"
)

// Result pairs the fingerprints of one snapshot rendered on both sides.
type Result struct {
	Source string
	Backup string
}

func (r Result) Match() bool {
	return r.Source != "" && r.Source == r.Backup
}

func (r Result) String() string {
	if r.Match() {
		return fmt.Sprintf("match (%s)", short(r.Source))
	}
	return fmt.Sprintf("MISMATCH (source %s, backup %s)", short(r.Source), short(r.Backup))
}

func short(fp string) string {
	if len(fp) > 16 {
		return fp[:16]
	}
	return fp
}

// Fingerprint condenses a stream summary's portable MAC lines into one
// fixed-width hex digest. The MACs cover the stream's content but not the
// dataset path it was rendered from, so the source and backup copies of a
// snapshot fingerprint identically.
func Fingerprint(macs []string) string {
	h := blake3.New()
	for _, mac := range macs {
		io.WriteString(h, strings.TrimSpace(mac))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
