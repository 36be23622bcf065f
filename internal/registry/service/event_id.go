package service

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"slotkeeper/internal/registry/models"
)

// EventID derives a deterministic identifier for a committed registration so
// replaying nodes and downstream consumers deduplicate on the same id.
func EventID(reg models.Registration) string {
	var buf [12]byte
	binary.BigEndian.PutUint16(buf[0:2], uint16(reg.Net))
	binary.BigEndian.PutUint16(buf[2:4], uint16(reg.UID))
	binary.BigEndian.PutUint64(buf[4:12], uint64(reg.Block))

	h, _ := blake2b.New256(nil)
	h.Write(buf[:])
	h.Write([]byte(reg.Key))
	return hex.EncodeToString(h.Sum(nil)[:16])
}
