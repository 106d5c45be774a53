package library

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Cadence scripts run against the Alexandria contract. Addresses are
// substituted when a FlowSource is created.
const (
	scriptGenres = `import Alexandria from 0xALEXANDRIA

access(all) fun main(): [String] {
    return Alexandria.getAllGenres()
}
`
	scriptBooksByGenre = `import Alexandria from 0xALEXANDRIA

access(all) fun main(genre: String): [String]? {
    return Alexandria.getGenre(genre: genre)
}
`
	scriptAuthors = `import Alexandria from 0xALEXANDRIA

access(all) fun main(): [String]? {
    return Alexandria.getAuthors()
}
`
	scriptBooksByAuthor = `import Alexandria from 0xALEXANDRIA

access(all) fun main(author: String): [String]? {
    return Alexandria.getAuthor(author: author)
}
`
	scriptChapterTitles = `import Alexandria from 0xALEXANDRIA

access(all) fun main(bookTitle: String): [String] {
    return Alexandria.getBookChapterTitles(bookTitle: bookTitle)
}
`
	scriptParagraph = `import Alexandria from 0xALEXANDRIA

access(all) fun main(bookTitle: String, chapterTitle: String, paragraphIndex: Int): String {
    return Alexandria.getBookParagraph(bookTitle: bookTitle, chapterTitle: chapterTitle, paragraphIndex: paragraphIndex)
}
`
	scriptLibraryBalance = `import FlowToken from 0xFLOWTOKEN

access(all) fun main(): UFix64 {
    let account = getAccount(0xALEXANDRIA)

    let balanceRef = account.capabilities.borrow<&FlowToken.Vault>(/public/flowTokenBalance)
        ?? panic("Could not borrow FlowToken balance reference")

    return balanceRef.balance
}
`
)

// cadenceValue is the JSON-Cadence data interchange envelope.
type cadenceValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type cadenceKV struct {
	Key   cadenceValue `json:"key"`
	Value cadenceValue `json:"value"`
}

type cadenceField struct {
	Name  string       `json:"name"`
	Value cadenceValue `json:"value"`
}

type cadenceComposite struct {
	ID     string         `json:"id"`
	Fields []cadenceField `json:"fields"`
}

func cadenceString(s string) cadenceValue {
	raw, _ := json.Marshal(s)
	return cadenceValue{Type: "String", Value: raw}
}

func cadenceInt(n int) cadenceValue {
	raw, _ := json.Marshal(strconv.Itoa(n))
	return cadenceValue{Type: "Int", Value: raw}
}

// decodeCadence converts JSON-Cadence into plain Go values: string, int64,
// bool, nil, []any and map[string]any. Fixed point numbers stay decimal
// strings so no precision is lost.
func decodeCadence(data []byte) (any, error) {
	var v cadenceValue
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("malformed cadence value: %w", err)
	}
	return v.decode()
}

func (v cadenceValue) decode() (any, error) {
	switch v.Type {
	case "Void":
		return nil, nil
	case "Optional":
		if len(v.Value) == 0 || string(v.Value) == "null" {
			return nil, nil
		}
		var inner cadenceValue
		if err := json.Unmarshal(v.Value, &inner); err != nil {
			return nil, fmt.Errorf("optional: %w", err)
		}
		return inner.decode()
	case "Bool":
		var b bool
		err := json.Unmarshal(v.Value, &b)
		return b, err
	case "String", "Character", "Address", "UFix64", "Fix64":
		var s string
		err := json.Unmarshal(v.Value, &s)
		return s, err
	case "Int", "Int8", "Int16", "Int32", "Int64", "UInt", "UInt8", "UInt16", "UInt32", "UInt64",
		"Word8", "Word16", "Word32", "Word64":
		var s string
		if err := json.Unmarshal(v.Value, &s); err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s value %q: %w", v.Type, s, err)
		}
		return n, nil
	case "Array":
		var items []cadenceValue
		if err := json.Unmarshal(v.Value, &items); err != nil {
			return nil, fmt.Errorf("array: %w", err)
		}
		out := make([]any, 0, len(items))
		for _, it := range items {
			d, err := it.decode()
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		return out, nil
	case "Dictionary":
		var kvs []cadenceKV
		if err := json.Unmarshal(v.Value, &kvs); err != nil {
			return nil, fmt.Errorf("dictionary: %w", err)
		}
		out := make(map[string]any, len(kvs))
		for _, kv := range kvs {
			k, err := kv.Key.decode()
			if err != nil {
				return nil, err
			}
			d, err := kv.Value.decode()
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = d
		}
		return out, nil
	case "Struct", "Resource", "Event", "Contract", "Enum":
		var c cadenceComposite
		if err := json.Unmarshal(v.Value, &c); err != nil {
			return nil, fmt.Errorf("%s: %w", strings.ToLower(v.Type), err)
		}
		out := make(map[string]any, len(c.Fields))
		for _, f := range c.Fields {
			d, err := f.Value.decode()
			if err != nil {
				return nil, err
			}
			out[f.Name] = d
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported cadence type %q", v.Type)
	}
}

// asStrings accepts a decoded [String] or [String]?; nil stays nil.
func asStrings(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected array of strings, got %T", v)
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, fmt.Errorf("expected string element, got %T", it)
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
