package agent

import (
	"encoding/hex"
	"reflect"

	"golang.org/x/crypto/blake2b"
)

// Identity is an agent's name plus its seed-derived messaging address.
// Derivation is deterministic: any process that knows a peer's name and seed
// can compute the peer's address without a discovery round trip.
type Identity struct {
	Name    string
	Address string

	seed string
}

// addressPrefix marks seed-derived agent addresses on the wire.
const addressPrefix = "agent1"

// NewIdentity derives the identity for a name/seed pair.
func NewIdentity(name, seed string) Identity {
	return Identity{
		Name:    name,
		Address: DeriveAddress(name, seed),
		seed:    seed,
	}
}

// DeriveAddress computes the stable address for a name/seed pair. The seed
// is a secret; only the derived address ever leaves the process.
func DeriveAddress(name, seed string) string {
	sum := blake2b.Sum256([]byte(name + ":" + seed))
	return addressPrefix + hex.EncodeToString(sum[:20])
}

// SchemaOf returns the wire schema name for a message value: the bare struct
// type name, matching the schema constants in pkg/contracts.
func SchemaOf(v interface{}) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}
