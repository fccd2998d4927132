package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// jsonAPI sorts map keys so repeated writes of equal values are byte-identical.
var jsonAPI = sonic.ConfigStd

// MarshalJSON encodes v as indented JSON with a trailing newline.
func MarshalJSON(v interface{}) ([]byte, error) {
	data, err := jsonAPI.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// UnmarshalJSON decodes data into v.
func UnmarshalJSON(data []byte, v interface{}) error {
	return jsonAPI.Unmarshal(data, v)
}

// ReadJSON reads and decodes a JSON file. Read errors are returned
// unwrapped so callers can test them with errors.Is(err, fs.ErrNotExist).
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := UnmarshalJSON(data, v); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}

// WriteJSON encodes v and writes it atomically.
func WriteJSON(path string, v interface{}, perm os.FileMode) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return WriteFileAtomic(path, data, perm)
}

// DecodeError reports a file that exists but does not parse.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ReadStructured reads a key/value document in JSON, YAML or TOML,
// chosen by file extension. Files without an extension are read as JSON.
func ReadStructured(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	parsed := map[string]interface{}{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &parsed)
	case ".toml":
		err = toml.Unmarshal(data, &parsed)
	case ".json", "":
		err = UnmarshalJSON(data, &parsed)
	default:
		return nil, fmt.Errorf("unsupported format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return parsed, nil
}
