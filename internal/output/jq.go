package output

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itchyny/gojq"
)

// CompileJQ parses and compiles a --jq filter.
func CompileJQ(expr string) (*gojq.Code, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, ErrUsage(fmt.Sprintf("Invalid --jq filter: %v", err))
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, ErrUsage(fmt.Sprintf("Invalid --jq filter: %v", err))
	}
	return code, nil
}

// writeJQ runs the filter over the envelope. String results print raw,
// everything else as indented JSON.
func (w *Writer) writeJQ(v any) error {
	// gojq only accepts the generic JSON types.
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var input any
	if err := json.Unmarshal(b, &input); err != nil {
		return err
	}

	iter := w.opts.JQ.Run(input)
	for {
		result, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := result.(error); isErr {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				return nil
			}
			return fmt.Errorf("jq: %w", err)
		}
		if s, isString := result.(string); isString {
			if _, err := fmt.Fprintln(w.opts.Writer, s); err != nil {
				return err
			}
			continue
		}
		if err := w.writeJSON(result); err != nil {
			return err
		}
	}
}
