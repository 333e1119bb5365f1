// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package encoding

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"
	"strconv"

	"github.com/juju/errors"
)

// WriteString writes string to byte stream.
func WriteString(w io.Writer, s string) error {
	return WriteBytes(w, []byte(s))
}

// ReadString reads string from byte stream.
func ReadString(r io.Reader) (string, error) {
	data, err := ReadBytes(r)
	return string(data), err
}

// WriteBytes writes a length-prefixed byte slice to byte stream.
func WriteBytes(w io.Writer, s []byte) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(s))); err != nil {
		return errors.Trace(err)
	}
	n, err := w.Write(s)
	if err != nil {
		return errors.Trace(err)
	} else if n != len(s) {
		return errors.New("fail to write bytes")
	}
	return nil
}

// ReadBytes reads a length-prefixed byte slice from byte stream.
func ReadBytes(r io.Reader) ([]byte, error) {
	var length int32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, errors.Trace(err)
	}
	if length < 0 {
		return nil, errors.NotValidf("byte length %d", length)
	}
	// grow with the bytes actually read, a corrupt length must not allocate up front
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, r, int64(length)); err == io.EOF {
		return nil, errors.Annotatef(io.ErrUnexpectedEOF, "read %d of %d bytes", buf.Len(), length)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	return buf.Bytes(), nil
}

// WriteGob writes object to byte stream.
func WriteGob(w io.Writer, v interface{}) error {
	buffer := bytes.NewBuffer(nil)
	encoder := gob.NewEncoder(buffer)
	if err := encoder.Encode(v); err != nil {
		return errors.Trace(err)
	}
	return WriteBytes(w, buffer.Bytes())
}

// ReadGob read object from byte stream.
func ReadGob(r io.Reader, v interface{}) error {
	data, err := ReadBytes(r)
	if err != nil {
		return err
	}
	decoder := gob.NewDecoder(bytes.NewBuffer(data))
	return errors.Trace(decoder.Decode(v))
}

// FormatFloat64 renders a float with the shortest exact representation.
func FormatFloat64(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}
