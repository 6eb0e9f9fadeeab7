package core

import "sort"

// Dictionary is the text description of the firmware's commands served to
// the host through identify. Constant lines start with '#' and carry no
// command id; every other line is "name format" and its command id is its
// index among those lines.
type Dictionary struct {
	registry  *CommandRegistry
	constants map[string]string
	cached    []byte
	commands  int // registry size when cached was built
}

func NewDictionary(registry *CommandRegistry) *Dictionary {
	return &Dictionary{
		registry:  registry,
		constants: make(map[string]string),
	}
}

// SetConstant records a name/value pair such as CLOCK_FREQ
func (d *Dictionary) SetConstant(name, value string) {
	d.constants[name] = value
	d.cached = nil
}

// Bytes returns the encoded dictionary. It is rebuilt after constants
// change or commands are registered.
func (d *Dictionary) Bytes() []byte {
	if d.cached != nil && d.commands == d.registry.Count() {
		return d.cached
	}
	names := make([]string, 0, len(d.constants))
	for name := range d.constants {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]byte, 0, 512)
	for _, name := range names {
		out = append(out, '#')
		out = append(out, name...)
		out = append(out, ' ')
		out = append(out, d.constants[name]...)
		out = append(out, '\n')
	}
	entries := d.registry.Entries()
	for _, line := range entries {
		out = append(out, line...)
		out = append(out, '\n')
	}
	d.cached = out
	d.commands = len(entries)
	return out
}

// Chunk returns up to count bytes starting at offset. The result is a copy.
func (d *Dictionary) Chunk(offset uint32, count uint8) []byte {
	data := d.Bytes()
	if offset >= uint32(len(data)) {
		return nil
	}
	end := offset + uint32(count)
	if end > uint32(len(data)) {
		end = uint32(len(data))
	}
	chunk := make([]byte, end-offset)
	copy(chunk, data[offset:end])
	return chunk
}
