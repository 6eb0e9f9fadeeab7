package core

import (
	"sync"

	"delphi/protocol"
)

// CommandHandler decodes its own arguments from args
type CommandHandler func(args *[]byte) error

// Command is one dictionary entry. Responses have a nil Handler.
type Command struct {
	ID      uint16
	Name    string
	Format  string // e.g. "offset=%u count=%c"
	Handler CommandHandler
}

// CommandRegistry assigns ids in registration order
type CommandRegistry struct {
	mu       sync.RWMutex
	commands []*Command
	byName   map[string]uint16
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{byName: make(map[string]uint16)}
}

// Register adds a command, or returns the existing id for name
func (r *CommandRegistry) Register(name, format string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byName[name]; ok {
		return id
	}
	id := uint16(len(r.commands))
	r.commands = append(r.commands, &Command{
		ID:      id,
		Name:    name,
		Format:  format,
		Handler: handler,
	})
	r.byName[name] = id
	return id
}

// RegisterResponse adds an MCU -> host message
func (r *CommandRegistry) RegisterResponse(name, format string) uint16 {
	return r.Register(name, format, nil)
}

func (r *CommandRegistry) Lookup(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.commands) {
		return nil, false
	}
	return r.commands[id], true
}

func (r *CommandRegistry) ByName(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.commands[id], true
}

func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch decodes the command id at the head of payload and runs its
// handler on the remaining bytes
func (r *CommandRegistry) Dispatch(payload []byte) error {
	id, err := protocol.ReadUVLQ(&payload)
	if err != nil {
		return err
	}
	cmd, ok := r.Lookup(uint16(id))
	if !ok || cmd.Handler == nil {
		return ErrUnknownCommand
	}
	return cmd.Handler(&payload)
}

// Entries returns the dictionary lines in id order
func (r *CommandRegistry) Entries() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lines := make([]string, len(r.commands))
	for i, cmd := range r.commands {
		lines[i] = cmd.Name
		if cmd.Format != "" {
			lines[i] += " " + cmd.Format
		}
	}
	return lines
}
