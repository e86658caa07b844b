package integrity

import (
	"encoding/json"

	"github.com/mnemograph/mnemograph/pkg/model"
)

// These mirror the JSON encodings pkg/graph, pkg/vectorindex, and
// pkg/history use internally. Integrity scans read raw bytes straight out
// of Badger rather than going through those packages' Store types, so it
// can walk every namespace in one pass without re-opening three separate
// views.

func unmarshalNode(data []byte, out *model.Node) error {
	return json.Unmarshal(data, out)
}

func unmarshalEdge(data []byte, out *model.Edge) error {
	return json.Unmarshal(data, out)
}

func unmarshalVersion(data []byte, out *model.VersionEntry) error {
	return json.Unmarshal(data, out)
}

// embeddingDimensions reads just enough of a persisted embedding entry to
// report its vector length, without depending on pkg/vectorindex's
// unexported entry type.
func embeddingDimensions(data []byte) (int, error) {
	var shallow struct {
		Vector []float32 `json:"vector"`
	}
	if err := json.Unmarshal(data, &shallow); err != nil {
		return 0, err
	}
	return len(shallow.Vector), nil
}
