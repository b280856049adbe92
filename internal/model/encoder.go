package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/couchcryptid/grid-eta-service/internal/domain"
)

// LabelEncoder maps category labels to the integer codes seen during training.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// NewLabelEncoder builds an encoder whose code for classes[i] is i.
func NewLabelEncoder(classes []string) (*LabelEncoder, error) {
	if len(classes) == 0 {
		return nil, errors.New("encoder has no classes")
	}
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate class %q", c)
		}
		index[c] = i
	}
	return &LabelEncoder{classes: classes, index: index}, nil
}

// Encode returns the code for label, or an error wrapping
// domain.ErrUnknownCategory when the label was never seen.
func (e *LabelEncoder) Encode(label string) (int, error) {
	code, ok := e.index[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, label)
	}
	return code, nil
}

// Decode returns the label for code.
func (e *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", fmt.Errorf("%w: code %d", domain.ErrUnknownCategory, code)
	}
	return e.classes[code], nil
}

// Classes returns the labels in code order.
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

type encoderFile struct {
	Classes []string `json:"classes"`
}

func (e *LabelEncoder) UnmarshalJSON(data []byte) error {
	var f encoderFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	enc, err := NewLabelEncoder(f.Classes)
	if err != nil {
		return err
	}
	*e = *enc
	return nil
}

func (e *LabelEncoder) MarshalJSON() ([]byte, error) {
	return json.Marshal(encoderFile{Classes: e.classes})
}
