package docstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type named struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (n *named) SetID(id string) { n.ID = id }

func TestDecodeAllAssignsIDs(t *testing.T) {
	docs := []Document{
		{Path: "things/t1", ID: "t1", Data: json.RawMessage(`{"name":"one"}`)},
		{Path: "things/t2", ID: "t2", Data: json.RawMessage(`{"name":"two","id":"ignored"}`)},
	}

	out, err := DecodeAll[named](docs)
	require.NoError(t, err)
	assert.Equal(t, []named{{ID: "t1", Name: "one"}, {ID: "t2", Name: "two"}}, out)
}

func TestDecodeAllPropagatesErrors(t *testing.T) {
	_, err := DecodeAll[named]([]Document{{Path: "things/t1", ID: "t1", Data: json.RawMessage(`[`)}})
	assert.ErrorContains(t, err, "things/t1")
}
