package nids

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
}

func TestParseNID(t *testing.T) {
	tests := []struct {
		name    string
		node    *yaml.Node
		want    NID
		wantErr error
	}{
		{name: "lower case", node: scalar("0xcae9ace6"), want: 0xCAE9ACE6},
		{name: "upper case", node: scalar("0xCAE9ACE6"), want: 0xCAE9ACE6},
		{name: "leading zeros", node: scalar("0x0000000F"), want: 0xF},
		{name: "max", node: scalar("0xFFFFFFFF"), want: 0xFFFFFFFF},
		{name: "missing node", node: nil, wantErr: ErrNotScalar},
		{name: "mapping node", node: &yaml.Node{Kind: yaml.MappingNode}, wantErr: ErrNotScalar},
		{name: "decimal", node: scalar("1234"), wantErr: ErrMissingPrefix},
		{name: "upper case prefix", node: scalar("0XFF"), wantErr: ErrMissingPrefix},
		{name: "empty digits", node: scalar("0x"), wantErr: strconv.ErrSyntax},
		{name: "not hex", node: scalar("0xZZ"), wantErr: strconv.ErrSyntax},
		{name: "too wide", node: scalar("0x100000000"), wantErr: strconv.ErrRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNID("nid", tt.node)
			if tt.wantErr != nil {
				var hashErr *HashFormatError
				require.ErrorAs(t, err, &hashErr)
				assert.Equal(t, "nid", hashErr.Field)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNID_FollowsAliases(t *testing.T) {
	anchor := scalar("0x10")
	got, err := ParseNID("nid", &yaml.Node{Kind: yaml.AliasNode, Alias: anchor})
	require.NoError(t, err)
	assert.Equal(t, NID(0x10), got)
}

func TestParseNIDString_RoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	values := []uint32{0, 1, 0xF, 0xAAAA0002, 0xFFFFFFFF}
	for i := 0; i < 1000; i++ {
		values = append(values, rnd.Uint32())
	}

	for _, v := range values {
		h := strconv.FormatUint(uint64(v), 16)
		for _, literal := range []string{h, "000" + h} {
			got, err := ParseNIDString("0x" + literal)
			require.NoError(t, err)
			assert.Equal(t, h, strconv.FormatUint(uint64(got), 16))
		}
	}
}

func TestFormatNID(t *testing.T) {
	assert.Equal(t, "0xAAAA0002", FormatNID(0xAAAA0002))
	assert.Equal(t, "0x0000000F", FormatNID(0xF))

	got, err := ParseNIDString(FormatNID(0x0FB972F9))
	require.NoError(t, err)
	assert.Equal(t, NID(0x0FB972F9), got)
}
