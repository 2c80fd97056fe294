package io

// ScriptKeyboard replays a fixed sequence of keys, one per poll.
type ScriptKeyboard struct {
	Keys []uint8 // Keys still to be delivered.
	Gap  int     // Empty polls before each key.

	idle int
}

// Poll returns the next scripted key once Gap empty polls have passed.
func (kb *ScriptKeyboard) Poll() (key uint8, ok bool, err error) {
	if len(kb.Keys) == 0 {
		return
	}

	if kb.idle < kb.Gap {
		kb.idle++
		return
	}

	key = kb.Keys[0]
	ok = true
	kb.Keys = kb.Keys[1:]
	kb.idle = 0

	return
}

// Close discards any remaining keys.
func (kb *ScriptKeyboard) Close() (err error) {
	kb.Keys = nil
	return
}
