package nids

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// NID is the 32-bit hash that stands in for a symbol name in Vita executables
// and in the nids database.
type NID = uint32

const nidPrefix = "0x"

// ParseNID decodes a hash annotated on field. The node must be a scalar holding
// "0x" followed by hexadecimal digits. YAML resolves such values as integers,
// so the tag is ignored and only the literal text is considered.
func ParseNID(field string, node *yaml.Node) (NID, error) {
	node = resolve(node)
	if node == nil || node.Kind != yaml.ScalarNode {
		return 0, &HashFormatError{Field: field, Err: ErrNotScalar}
	}
	nid, err := ParseNIDString(node.Value)
	if err != nil {
		return 0, &HashFormatError{Field: field, Value: node.Value, Err: err}
	}
	return nid, nil
}

// ParseNIDString applies the same rule as ParseNID to a bare string. The
// returned error is not wrapped in a HashFormatError.
func ParseNIDString(s string) (NID, error) {
	if !strings.HasPrefix(s, nidPrefix) {
		return 0, ErrMissingPrefix
	}
	v, err := strconv.ParseUint(s[len(nidPrefix):], 16, 32)
	if err != nil {
		return 0, err
	}
	return NID(v), nil
}

// FormatNID renders a NID the way it appears in the database.
func FormatNID(nid NID) string {
	return fmt.Sprintf("0x%08X", nid)
}
