package gnmipath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXpathToGNMI_LiteralScenario(t *testing.T) {
	p, err := XpathToGNMI("/interfaces/interface[name=eth0]/state/counters", "openconfig", "")
	require.NoError(t, err)
	require.Len(t, p.Elements, 4)
	assert.Equal(t, "interfaces", p.Elements[0].Name)
	assert.Empty(t, p.Elements[0].Keys)
	assert.Equal(t, "interface", p.Elements[1].Name)
	assert.Equal(t, map[string]string{"name": "eth0"}, p.Elements[1].Keys)
	assert.Equal(t, "state", p.Elements[2].Name)
	assert.Equal(t, "counters", p.Elements[3].Name)
	assert.Equal(t, "openconfig", p.Origin)
}

func TestXpathToGNMI_EmptyOrRoot(t *testing.T) {
	_, err := XpathToGNMI("", "openconfig", "")
	assert.Error(t, err)
	_, err = XpathToGNMI("/", "openconfig", "")
	assert.Error(t, err)
}

func TestXpathToGNMI_ElementCountMatchesComponents(t *testing.T) {
	xpath := "/a/b[k=v]/c"
	p, err := XpathToGNMI(xpath, "openconfig", "")
	require.NoError(t, err)
	assert.Len(t, p.Elements, 3)
}

func TestXpathToGNMI_BracketContainingSlashNotSplit(t *testing.T) {
	p, err := XpathToGNMI("/a/b[k=x/y]/c", "openconfig", "")
	require.NoError(t, err)
	require.Len(t, p.Elements, 3)
	assert.Equal(t, "x/y", p.Elements[1].Keys["k"])
}

func TestXpathToGNMI_MalformedComponent(t *testing.T) {
	_, err := XpathToGNMI("/a/[b/c", "openconfig", "")
	assert.Error(t, err)
}

func TestXpathToGNMI_MultipleKeys(t *testing.T) {
	p, err := XpathToGNMI("/interfaces/interface[name=eth0][role=uplink]", "openconfig", "")
	require.NoError(t, err)
	require.Len(t, p.Elements, 2)
	assert.Equal(t, map[string]string{"name": "eth0", "role": "uplink"}, p.Elements[1].Keys)
}

func TestXpathToGNMI_ToProto(t *testing.T) {
	p, err := XpathToGNMI("/interfaces/interface[name=eth0]/state", "openconfig", "oc_interfaces")
	require.NoError(t, err)
	proto := p.ToProto()
	require.Len(t, proto.Elem, 3)
	assert.Equal(t, "eth0", proto.Elem[1].Key["name"])
	assert.Equal(t, "openconfig", proto.Origin)
	assert.Equal(t, "oc_interfaces", proto.Target)
}
