package utils

import (
	"encoding/json"
	"fmt"

	"go-firestore-estate/internal/database"
)

// DocToType decodes the document fields into v through their JSON form, so v only needs json tags.
func DocToType(doc *database.Doc, v interface{}) error {
	if doc == nil {
		return fmt.Errorf("doc is nil")
	}

	jsonStr, err := json.Marshal(doc.Data)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(jsonStr, v); err != nil {
		return err
	}

	return nil
}
