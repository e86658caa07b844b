package history

import (
	"encoding/json"

	"github.com/mnemograph/mnemograph/pkg/model"
)

func encodeVersion(v *model.VersionEntry) ([]byte, error) { return json.Marshal(v) }

func decodeVersion(data []byte) (*model.VersionEntry, error) {
	var v model.VersionEntry
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func encodeBranch(b *model.Branch) ([]byte, error) { return json.Marshal(b) }

func decodeBranch(data []byte) (*model.Branch, error) {
	var b model.Branch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
