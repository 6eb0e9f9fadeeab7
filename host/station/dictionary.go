package station

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// Message ids the firmware guarantees before the dictionary is known
const (
	idIdentifyResponse = 0
	idIdentify         = 1
)

// Entry is one command or response line of the dictionary
type Entry struct {
	ID     uint16
	Name   string
	Format string
}

// Dictionary is the parsed firmware dictionary
type Dictionary struct {
	Constants map[string]string
	entries   []Entry
	byName    map[string]Entry
}

// ParseDictionary decodes the text served through identify
func ParseDictionary(data []byte) (*Dictionary, error) {
	d := &Dictionary{
		Constants: make(map[string]string),
		byName:    make(map[string]Entry),
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "#"); ok {
			name, value, _ := strings.Cut(rest, " ")
			d.Constants[name] = value
			continue
		}
		name, format, _ := strings.Cut(line, " ")
		e := Entry{ID: uint16(len(d.entries)), Name: name, Format: format}
		d.entries = append(d.entries, e)
		d.byName[name] = e
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDictionary, err)
	}
	if len(d.entries) <= idIdentify ||
		d.entries[idIdentifyResponse].Name != "identify_response" ||
		d.entries[idIdentify].Name != "identify" {
		return nil, fmt.Errorf("%w: missing identify bootstrap", ErrBadDictionary)
	}
	return d, nil
}

// Lookup finds an entry by name
func (d *Dictionary) Lookup(name string) (Entry, bool) {
	e, ok := d.byName[name]
	return e, ok
}

// Name returns the name for id, or "" when unknown
func (d *Dictionary) Name(id uint32) string {
	if int(id) >= len(d.entries) {
		return ""
	}
	return d.entries[id].Name
}

// Entries returns the entries in id order
func (d *Dictionary) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}
