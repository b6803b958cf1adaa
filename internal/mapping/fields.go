package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FieldOption is one selectable submission field in the admin mapping form.
type FieldOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type formStructure struct {
	Fields elementList `json:"fields"`
}

type formElement struct {
	Element    string `json:"element"`
	Attributes struct {
		Name string `json:"name"`
	} `json:"attributes"`
	Settings struct {
		Label           *string `json:"label"`
		AdminFieldLabel *string `json:"admin_field_label"`
		Placeholder     *string `json:"placeholder"`
	} `json:"settings"`
	Fields  elementList `json:"fields"`
	Columns []struct {
		Fields elementList `json:"fields"`
	} `json:"columns"`
}

// elementList accepts both a JSON array of elements and an object keyed by
// field name, keeping document order.
type elementList []formElement

func (l *elementList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		return l.appendRaw(items)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	var items []json.RawMessage
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return err
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		items = append(items, raw)
	}
	return l.appendRaw(items)
}

func (l *elementList) appendRaw(items []json.RawMessage) error {
	for _, raw := range items {
		if len(bytes.TrimSpace(raw)) == 0 || bytes.TrimSpace(raw)[0] != '{' {
			continue
		}
		var el formElement
		if err := json.Unmarshal(raw, &el); err != nil {
			return err
		}
		*l = append(*l, el)
	}
	return nil
}

// ExtractFields lists the field references a form structure produces.
// Grouped inputs (name, address, containers) yield "parent.child" keys.
func ExtractFields(structure []byte) ([]FieldOption, error) {
	var form formStructure
	if err := json.Unmarshal(structure, &form); err != nil {
		return nil, fmt.Errorf("decode form structure: %w", err)
	}
	c := &fieldCollector{index: map[string]int{}}
	c.walk(form.Fields, "")
	return c.out, nil
}

type fieldCollector struct {
	out   []FieldOption
	index map[string]int
}

func (c *fieldCollector) add(key, label string) {
	if i, ok := c.index[key]; ok {
		c.out[i].Label = label
		return
	}
	c.index[key] = len(c.out)
	c.out = append(c.out, FieldOption{Key: key, Label: label})
}

func (c *fieldCollector) walk(elements elementList, parent string) {
	for _, el := range elements {
		if el.Element == "" {
			continue
		}
		switch el.Element {
		case "container", "address", "input_name", "input_file":
			if len(el.Fields) > 0 {
				c.walk(el.Fields, el.Attributes.Name)
			}
			c.walkColumns(el, parent)
		default:
			if name := el.Attributes.Name; name != "" {
				if parent != "" && !strings.HasPrefix(name, parent) {
					name = parent + "." + name
				}
				c.add(name, labelFor(el, name))
			}
			if len(el.Fields) > 0 {
				container := el.Attributes.Name
				if container == "" {
					container = parent
				}
				c.walk(el.Fields, container)
			}
			c.walkColumns(el, parent)
		}
	}
}

func (c *fieldCollector) walkColumns(el formElement, parent string) {
	for _, col := range el.Columns {
		if len(col.Fields) > 0 {
			c.walk(col.Fields, parent)
		}
	}
}

func labelFor(el formElement, name string) string {
	switch {
	case el.Settings.Label != nil:
		return *el.Settings.Label
	case el.Settings.AdminFieldLabel != nil:
		return *el.Settings.AdminFieldLabel
	case el.Settings.Placeholder != nil:
		return *el.Settings.Placeholder
	}
	return upperFirst(strings.ReplaceAll(name, "_", " "))
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
