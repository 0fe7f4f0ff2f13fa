package contract

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeParams decodes loosely typed envelope params or tool arguments into
// out. Input is weakly typed: "5", 5 and 5.0 all decode into an int field.
func DecodeParams(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
