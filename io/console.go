package io

import (
	"bytes"
	"io"
)

// Console is the output device for PRN and PRA.
//
// Every write goes straight to Output. With Raw set, the terminal does no
// output processing, so '\n' is sent as "\r\n".
type Console struct {
	Output io.Writer
	Raw    bool
}

// Write sends data to the console output.
func (con *Console) Write(data []byte) (n int, err error) {
	out := data
	if con.Raw {
		out = bytes.ReplaceAll(data, []byte("\n"), []byte("\r\n"))
	}

	_, err = con.Output.Write(out)
	if err != nil {
		return
	}

	n = len(data)

	return
}
